package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/litekv/litekv/internal/value"
)

// recordStart and recordEnd are the sentinel framing bytes spec.md §4.10
// requires around every record, used to detect a torn record on load.
const (
	recordStart = 0xFF
	recordEnd   = 0xFE
)

// recordType identifies which payload a record carries. 0 (Key_reserved) is
// never emitted; it is reserved by spec.md for a future bare-key record.
type recordType byte

const (
	typeKeyReserved recordType = 0
	typeInt         recordType = 1
	typeStr         recordType = 2
	typeList        recordType = 3
	typeHash        recordType = 4
	typeSet         recordType = 5
)

// ErrCorruptRecord means a record's start or end sentinel didn't match,
// or a declared length ran past the available bytes.
var ErrCorruptRecord = errors.New("snapshot: corrupt record")

// encodeRecord appends one framed record for key/v to buf. expireAtMs is the
// key's absolute TTL fire time if it has one; hasExpire is false for keys
// with no TTL.
func encodeRecord(buf []byte, key []byte, v *value.Value, hasExpire bool, expireAtMs int64) []byte {
	buf = append(buf, recordStart)
	buf = append(buf, byte(tagToRecordType(v.Tag)))

	if hasExpire {
		buf = append(buf, 1)
		fixed := make([]byte, 8)
		binary.LittleEndian.PutUint64(fixed, uint64(expireAtMs))
		buf = append(buf, fixed...)
	} else {
		buf = append(buf, 0)
	}

	buf = appendVarint(buf, uint64(len(key)))
	buf = append(buf, key...)

	buf = encodePayload(buf, v)
	buf = append(buf, recordEnd)
	return buf
}

func tagToRecordType(tag value.Tag) recordType {
	switch tag {
	case value.TagInt:
		return typeInt
	case value.TagStr:
		return typeStr
	case value.TagList:
		return typeList
	case value.TagHash:
		return typeHash
	case value.TagSet:
		return typeSet
	default:
		return typeKeyReserved
	}
}

func encodePayload(buf []byte, v *value.Value) []byte {
	switch v.Tag {
	case value.TagInt:
		return appendVarint(buf, reinterpretUnsigned(v.Int))

	case value.TagStr:
		b := v.Str.Bytes()
		buf = appendVarint(buf, uint64(len(b)))
		return append(buf, b...)

	case value.TagList:
		n := v.List.Len()
		buf = appendVarint(buf, uint64(n))
		for _, item := range v.List.Range(0, n-1) {
			buf = appendVarint(buf, uint64(len(item)))
			buf = append(buf, item...)
		}
		return buf

	case value.TagHash:
		buf = appendVarint(buf, uint64(v.Hash.Len()))
		v.Hash.Each(func(field, val []byte) {
			buf = appendVarint(buf, uint64(len(field)))
			buf = append(buf, field...)
			buf = appendVarint(buf, uint64(len(val)))
			buf = append(buf, val...)
		})
		return buf

	case value.TagSet:
		buf = appendVarint(buf, uint64(v.Set.Len()))
		v.Set.Each(func(member []byte) {
			buf = appendVarint(buf, uint64(len(member)))
			buf = append(buf, member...)
		})
		return buf

	default:
		return buf
	}
}

// decodedRecord is one parsed snapshot record, handed to the loader.
type decodedRecord struct {
	key        []byte
	value      *value.Value
	hasExpire  bool
	expireAtMs int64
}

// decodeRecord parses one framed record starting at buf[0]. It returns the
// number of bytes consumed and a non-nil error (wrapping ErrCorruptRecord)
// if the sentinels or a declared length don't line up with the available
// bytes.
func decodeRecord(buf []byte) (rec decodedRecord, n int, err error) {
	if len(buf) < 3 {
		return decodedRecord{}, 0, fmt.Errorf("%w: too short", ErrCorruptRecord)
	}
	if buf[0] != recordStart {
		return decodedRecord{}, 0, fmt.Errorf("%w: bad start byte 0x%02x", ErrCorruptRecord, buf[0])
	}

	rt := recordType(buf[1])
	pos := 2

	hasExpire := buf[pos]
	pos++
	if hasExpire != 0 && hasExpire != 1 {
		return decodedRecord{}, 0, fmt.Errorf("%w: bad has_expire byte", ErrCorruptRecord)
	}

	var expireAtMs int64
	if hasExpire == 1 {
		if pos+8 > len(buf) {
			return decodedRecord{}, 0, fmt.Errorf("%w: truncated expire_ms", ErrCorruptRecord)
		}
		expireAtMs = int64(binary.LittleEndian.Uint64(buf[pos : pos+8]))
		pos += 8
	}

	keyLen, consumed, ok := readVarint(buf[pos:])
	if !ok {
		return decodedRecord{}, 0, fmt.Errorf("%w: bad key_len varint", ErrCorruptRecord)
	}
	pos += consumed
	if pos+int(keyLen) > len(buf) {
		return decodedRecord{}, 0, fmt.Errorf("%w: truncated key", ErrCorruptRecord)
	}
	key := append([]byte(nil), buf[pos:pos+int(keyLen)]...)
	pos += int(keyLen)

	v, consumed, err := decodePayload(rt, buf[pos:])
	if err != nil {
		return decodedRecord{}, 0, err
	}
	pos += consumed

	if pos >= len(buf) || buf[pos] != recordEnd {
		return decodedRecord{}, 0, fmt.Errorf("%w: bad end byte", ErrCorruptRecord)
	}
	pos++

	return decodedRecord{key: key, value: v, hasExpire: hasExpire == 1, expireAtMs: expireAtMs}, pos, nil
}

func decodePayload(rt recordType, buf []byte) (*value.Value, int, error) {
	switch rt {
	case typeInt:
		raw, n, ok := readVarint(buf)
		if !ok {
			return nil, 0, fmt.Errorf("%w: bad int payload", ErrCorruptRecord)
		}
		return value.NewInt(reinterpretSigned(raw)), n, nil

	case typeStr:
		s, n, err := readLenPrefixed(buf)
		if err != nil {
			return nil, 0, err
		}
		return value.NewStr(s), n, nil

	case typeList:
		count, n, ok := readVarint(buf)
		if !ok {
			return nil, 0, fmt.Errorf("%w: bad list count", ErrCorruptRecord)
		}
		pos := n
		v := value.NewList()
		for range count {
			item, consumed, err := readLenPrefixed(buf[pos:])
			if err != nil {
				return nil, 0, err
			}
			v.List.PushRight(item)
			pos += consumed
		}
		return v, pos, nil

	case typeHash:
		count, n, ok := readVarint(buf)
		if !ok {
			return nil, 0, fmt.Errorf("%w: bad hash count", ErrCorruptRecord)
		}
		pos := n
		v := value.NewHash()
		for range count {
			field, consumed, err := readLenPrefixed(buf[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += consumed
			val, consumed, err := readLenPrefixed(buf[pos:])
			if err != nil {
				return nil, 0, err
			}
			pos += consumed
			v.Hash.Put(field, val)
		}
		return v, pos, nil

	case typeSet:
		count, n, ok := readVarint(buf)
		if !ok {
			return nil, 0, fmt.Errorf("%w: bad set count", ErrCorruptRecord)
		}
		pos := n
		v := value.NewSet()
		for range count {
			member, consumed, err := readLenPrefixed(buf[pos:])
			if err != nil {
				return nil, 0, err
			}
			v.Set.Add(member)
			pos += consumed
		}
		return v, pos, nil

	default:
		return nil, 0, fmt.Errorf("%w: unknown record type %d", ErrCorruptRecord, rt)
	}
}

func readLenPrefixed(buf []byte) (val []byte, n int, err error) {
	l, consumed, ok := readVarint(buf)
	if !ok {
		return nil, 0, fmt.Errorf("%w: bad length varint", ErrCorruptRecord)
	}
	pos := consumed
	if pos+int(l) > len(buf) {
		return nil, 0, fmt.Errorf("%w: truncated value", ErrCorruptRecord)
	}
	return append([]byte(nil), buf[pos:pos+int(l)]...), pos + int(l), nil
}
