package bus

import (
	"errors"
	"testing"
)

func TestLocalPublishSubscribe(t *testing.T) {
	b := NewLocal()
	defer b.Close()

	var got []string
	h := func(topic string, payload []byte) {
		got = append(got, topic+"="+string(payload))
	}

	s1, err := b.Subscribe("pot/reading", h)
	if err != nil {
		t.Fatal(err)
	}
	// The same handler twice is two subscriptions.
	s2, _ := b.Subscribe("pot/reading", h)
	b.Subscribe("pot/other", h)

	if err := b.Publish("pot/reading", []byte("1234")); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want two deliveries", got)
	}

	s1.Unsubscribe()
	s1.Unsubscribe()
	got = nil
	b.Publish("pot/reading", []byte("L0"))
	if len(got) != 1 || got[0] != "pot/reading=L0" {
		t.Errorf("after one unsubscribe: got %v", got)
	}

	s2.Unsubscribe()
	got = nil
	b.Publish("pot/reading", []byte("x"))
	if len(got) != 0 {
		t.Errorf("after all unsubscribed: got %v", got)
	}
	if n := b.Subscribers("pot/reading"); n != 0 {
		t.Errorf("subscribers: got %d, want 0", n)
	}
}

func TestLocalOrder(t *testing.T) {
	b := NewLocal()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		b.Subscribe("t", func(string, []byte) { order = append(order, i) })
	}
	b.Publish("t", nil)
	for i, v := range order {
		if v != i {
			t.Fatalf("got %v, want [0 1 2]", order)
		}
	}
}

func TestLocalUnsubscribeDuringPublish(t *testing.T) {
	b := NewLocal()
	var sub Subscription
	calls := 0
	sub, _ = b.Subscribe("t", func(string, []byte) {
		calls++
		sub.Unsubscribe()
	})
	b.Publish("t", nil)
	b.Publish("t", nil)
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestLocalClosed(t *testing.T) {
	b := NewLocal()
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish("t", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish: got %v, want ErrClosed", err)
	}
	if _, err := b.Subscribe("t", func(string, []byte) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe: got %v, want ErrClosed", err)
	}
	if err := b.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close: got %v, want ErrClosed", err)
	}
}

func TestJoinTopic(t *testing.T) {
	tests := []struct {
		levels []string
		want   string
	}{
		{[]string{"potwatch/kitchen", "reading"}, "potwatch/kitchen/reading"},
		{[]string{"", "reading"}, "reading"},
		{[]string{"a/", "/b/", "c"}, "a/b/c"},
	}
	for _, tt := range tests {
		if got := JoinTopic(tt.levels...); got != tt.want {
			t.Errorf("JoinTopic(%q): got %q, want %q", tt.levels, got, tt.want)
		}
	}
}

func TestMQTTConnectFailure(t *testing.T) {
	// Nothing listens on port 1 of the loopback.
	_, err := NewMQTT(MQTTOptions{Broker: "127.0.0.1:1", ClientID: "test", ConnectTimeout: 200e6})
	if err == nil {
		t.Error("expected connection error")
	}
}
