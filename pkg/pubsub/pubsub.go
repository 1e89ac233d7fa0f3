// Package pubsub abstracts the message queue carrying activity events in and
// progression events out.
package pubsub

import (
	"context"
	"time"
)

// Pack is the unit carried by the message queue. Key decides the partition,
// messages of the same key are delivered in order.
type Pack struct {
	Key []byte
	Msg []byte
}

type Publisher interface {
	Publish(ctx context.Context, topic string, pack *Pack) error
}

// SubscribeHandler processes one message. t is the time the message was
// produced, or the time it was received if the broker did not set it. A
// message is acknowledged only if the handler returns nil, otherwise it is
// delivered again.
type SubscribeHandler func(ctx context.Context, topic string, pack *Pack, t time.Time) error

type Subscriber interface {
	// Subscribe blocks until the subscriber joined its group and returns,
	// consumption continues in the background until ctx is done.
	Subscribe(ctx context.Context)
	Stop(ctx context.Context) error
}
