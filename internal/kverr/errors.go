// Package kverr defines the error kinds produced by command handlers.
//
// Handlers never abort the process on a per-command failure; they return one
// of these sentinels (wrapped with context via fmt.Errorf("%w: ...")) and the
// dispatcher maps the sentinel to a reply frame.
package kverr

import "errors"

var (
	// ErrNotFound means the key is absent.
	ErrNotFound = errors.New("not found")

	// ErrWrongType means the stored tag does not admit the requested operation.
	ErrWrongType = errors.New("WRONGTYPE operation against a key holding the wrong kind of value")

	// ErrNotAnInteger means the operand is not a canonical signed 64-bit decimal.
	ErrNotAnInteger = errors.New("value is not an integer or out of range")

	// ErrOverflow means the signed 64-bit arithmetic would wrap.
	ErrOverflow = errors.New("integer overflow")

	// ErrOutOfRange means a list index is beyond bounds on a write.
	ErrOutOfRange = errors.New("index out of range")

	// ErrSyntax means the arity or shape of the arguments is wrong.
	ErrSyntax = errors.New("incorrect number of arguments")

	// ErrUnknownCommand means the verb is not recognised.
	ErrUnknownCommand = errors.New("unsupported command")

	// ErrNotSupported means the verb is recognised but not implemented.
	ErrNotSupported = errors.New("command not supported yet")

	// ErrInternal means an allocation or invariant failure occurred.
	ErrInternal = errors.New("failed")
)
