package bus

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTOptions configures an MQTT bus.
type MQTTOptions struct {
	Broker         string // host:port
	ClientID       string
	QoS            byte
	ConnectTimeout time.Duration
}

// MQTT publishes and subscribes through an MQTT broker. Each topic is
// subscribed on the broker once; local handlers fan out from there.
type MQTT struct {
	opts   MQTTOptions
	client mqtt.Client
	local  *Local

	mu        sync.Mutex
	connected bool
	closed    bool
}

// NewMQTT connects to the broker. The client reconnects on its own after a
// connection loss and restores subscriptions.
func NewMQTT(opts MQTTOptions) (*MQTT, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	b := &MQTT{opts: opts, local: NewLocal()}

	co := mqtt.NewClientOptions()
	co.AddBroker(fmt.Sprintf("tcp://%s", opts.Broker))
	co.SetClientID(opts.ClientID)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(2 * time.Second)
	co.SetMaxReconnectInterval(30 * time.Second)
	co.SetCleanSession(false)

	co.OnConnect = func(c mqtt.Client) {
		b.setConnected(true)
		slog.Info("mqtt connection established", "broker", opts.Broker, "client_id", opts.ClientID)
	}
	co.OnConnectionLost = func(c mqtt.Client, err error) {
		b.setConnected(false)
		slog.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", opts.Broker)
	}

	b.client = mqtt.NewClient(co)
	slog.Info("connecting to mqtt broker", "broker", opts.Broker)

	token := b.client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		b.client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	b.setConnected(true)
	return b, nil
}

func (b *MQTT) setConnected(v bool) {
	b.mu.Lock()
	b.connected = v
	b.mu.Unlock()
}

func (b *MQTT) state() (connected, closed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected, b.closed
}

// Publish sends payload to the broker.
func (b *MQTT) Publish(topic string, payload []byte) error {
	connected, closed := b.state()
	if closed {
		return ErrClosed
	}
	if !connected {
		return fmt.Errorf("mqtt not connected")
	}

	token := b.client.Publish(topic, b.opts.QoS, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	slog.Debug("message published", "topic", topic, "qos", b.opts.QoS, "size", len(payload))
	return nil
}

// Subscribe registers h for topic, subscribing on the broker if this is the
// first handler for it.
func (b *MQTT) Subscribe(topic string, h Handler) (Subscription, error) {
	if _, closed := b.state(); closed {
		return nil, ErrClosed
	}

	first := b.local.Subscribers(topic) == 0
	sub, err := b.local.Subscribe(topic, h)
	if err != nil {
		return nil, err
	}
	if first {
		token := b.client.Subscribe(topic, b.opts.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			if err := b.local.Publish(topic, msg.Payload()); err != nil {
				slog.Debug("dropping message", "topic", msg.Topic(), "error", err)
			}
		})
		if !token.WaitTimeout(5 * time.Second) {
			sub.Unsubscribe()
			return nil, fmt.Errorf("subscription timeout")
		}
		if err := token.Error(); err != nil {
			sub.Unsubscribe()
			return nil, fmt.Errorf("subscription failed: %w", err)
		}
	}
	return &mqttSub{bus: b, topic: topic, inner: sub}, nil
}

// Close disconnects from the broker.
func (b *MQTT) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.closed = true
	b.connected = false
	b.mu.Unlock()

	b.local.Close()
	if b.client.IsConnected() {
		b.client.Disconnect(250) // 250ms grace period
		slog.Info("mqtt disconnected")
	}
	return nil
}

type mqttSub struct {
	bus   *MQTT
	topic string
	inner Subscription
	once  sync.Once
	err   error
}

func (s *mqttSub) Unsubscribe() error {
	s.once.Do(func() {
		s.inner.Unsubscribe()
		if s.bus.local.Subscribers(s.topic) > 0 {
			return
		}
		if _, closed := s.bus.state(); closed {
			return
		}
		token := s.bus.client.Unsubscribe(s.topic)
		if !token.WaitTimeout(2 * time.Second) {
			s.err = fmt.Errorf("unsubscribe timeout")
			return
		}
		s.err = token.Error()
	})
	return s.err
}

// JoinTopic joins MQTT topic levels, skipping empty ones.
func JoinTopic(levels ...string) string {
	parts := make([]string, 0, len(levels))
	for _, l := range levels {
		l = strings.Trim(l, "/")
		if l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, "/")
}
