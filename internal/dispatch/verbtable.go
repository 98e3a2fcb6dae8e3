package dispatch

import (
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/resp"
)

// handlerFunc executes one verb's body. It returns the reply to send and,
// for mutating verbs, the (possibly rewritten, e.g. expire->expireat) args
// to append to the log; a nil logArgs means "nothing to log" even if the
// verb is normally logged (e.g. del on a key that didn't exist).
type handlerFunc func(d *Dispatcher, sess pubsub.SessionID, args [][]byte) (reply resp.Reply, logArgs [][]byte)

// verbSpec describes one verb's arity contract and body.
type verbSpec struct {
	arity     func(argc int) bool
	writesLog bool
	handler   handlerFunc
}

func exactArgs(n int) func(int) bool { return func(argc int) bool { return argc == n } }
func minArgs(n int) func(int) bool   { return func(argc int) bool { return argc >= n } }

// evenExtra requires at least nFixed+2 args, with the tail (past nFixed)
// an even count — used by hset's "key f1 v1 f2 v2 ..." shape.
func evenExtra(nFixed int) func(int) bool {
	return func(argc int) bool {
		return argc >= nFixed+2 && (argc-nFixed)%2 == 0
	}
}

var verbTable map[string]verbSpec

func init() {
	verbTable = map[string]verbSpec{
		"overview":    {arity: exactArgs(1), handler: handleOverview},
		"total":       {arity: exactArgs(1), handler: handleTotal},
		"ping":        {arity: exactArgs(1), handler: handlePing},
		"evict":       {arity: exactArgs(2), writesLog: true, handler: handleEvict},
		"del":         {arity: minArgs(2), writesLog: true, handler: handleDel},
		"exists":      {arity: exactArgs(2), handler: handleExists},
		"type":        {arity: exactArgs(2), handler: handleType},
		"expire":      {arity: exactArgs(3), writesLog: true, handler: handleExpire},
		"expireat":    {arity: exactArgs(3), writesLog: true, handler: handleExpireAt},
		"ttl":         {arity: exactArgs(2), handler: handleTTL},
		"set":         {arity: exactArgs(3), writesLog: true, handler: handleSet},
		"get":         {arity: exactArgs(2), handler: handleGet},
		"incr":        {arity: exactArgs(2), writesLog: true, handler: handleIncr},
		"decr":        {arity: exactArgs(2), writesLog: true, handler: handleDecr},
		"incrby":      {arity: exactArgs(3), writesLog: true, handler: handleIncrBy},
		"decrby":      {arity: exactArgs(3), writesLog: true, handler: handleDecrBy},
		"strlen":      {arity: exactArgs(2), handler: handleStrlen},
		"append":      {arity: exactArgs(3), writesLog: true, handler: handleAppend},
		"llen":        {arity: exactArgs(2), handler: handleLlen},
		"lpop":        {arity: exactArgs(2), writesLog: true, handler: handleLpop},
		"lpush":       {arity: minArgs(3), writesLog: true, handler: handleLpush},
		"rpop":        {arity: exactArgs(2), writesLog: true, handler: handleRpop},
		"rpush":       {arity: minArgs(3), writesLog: true, handler: handleRpush},
		"lrange":      {arity: exactArgs(4), handler: handleLrange},
		"lsetindex":   {arity: exactArgs(4), writesLog: true, handler: handleLsetIndex},
		"lindex":      {arity: exactArgs(3), handler: handleLindex},
		"hset":        {arity: evenExtra(2), writesLog: true, handler: handleHset},
		"hget":        {arity: exactArgs(3), handler: handleHget},
		"hdel":        {arity: minArgs(3), writesLog: true, handler: handleHdel},
		"hexists":     {arity: exactArgs(3), handler: handleHexists},
		"hgetall":     {arity: exactArgs(2), handler: handleHgetall},
		"hkeys":       {arity: exactArgs(2), handler: handleHkeys},
		"hvals":       {arity: exactArgs(2), handler: handleHvals},
		"hlen":        {arity: exactArgs(2), handler: handleHlen},
		"sadd":        {arity: minArgs(3), writesLog: true, handler: handleSadd},
		"sismember":   {arity: exactArgs(3), handler: handleSismember},
		"smismember":  {arity: minArgs(3), handler: handleSmismember},
		"smembers":    {arity: exactArgs(2), handler: handleSmembers},
		"srem":        {arity: minArgs(3), writesLog: true, handler: handleSrem},
		"scard":       {arity: exactArgs(2), handler: handleScard},
		"publish":     {arity: exactArgs(3), handler: handlePublish},
		"subscribe":   {arity: exactArgs(2), handler: handleSubscribe},
		"unsubscribe": {arity: exactArgs(2), handler: handleUnsubscribe},
	}
}
