// Package bus carries messages between the monitor and anything interested
// in its readings, either within the process or through an MQTT broker.
package bus

import "errors"

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("bus closed")

// Handler receives messages published to a subscribed topic.
type Handler func(topic string, payload []byte)

// Subscription is an active subscription.
type Subscription interface {
	Unsubscribe() error
}

// Bus is a topic based publish/subscribe transport.
type Bus interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, h Handler) (Subscription, error)
	Close() error
}
