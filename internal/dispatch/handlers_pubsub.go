package dispatch

import (
	"github.com/litekv/litekv/internal/pubsub"
	"github.com/litekv/litekv/internal/resp"
)

// handlePublish reports how many sessions were subscribed to the topic at
// the moment of publish. Actual payload delivery to sockets is the server's
// job; the dispatcher only counts recipients (internal/pubsub.Registry).
func handlePublish(d *Dispatcher, _ pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	topic := string(args[1])
	delivered := d.pubsub.Publish(topic)
	return resp.Integer(int64(delivered)), nil
}

func handleSubscribe(d *Dispatcher, sess pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	d.pubsub.Subscribe(string(args[1]), sess)
	return resp.SimpleString("OK"), nil
}

func handleUnsubscribe(d *Dispatcher, sess pubsub.SessionID, args [][]byte) (resp.Reply, [][]byte) {
	d.pubsub.Unsubscribe(string(args[1]), sess)
	return resp.SimpleString("OK"), nil
}
