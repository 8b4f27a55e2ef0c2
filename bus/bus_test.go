// bus/bus_test.go
package bus

import (
	"testing"
	"time"
)

var topicState = T("agent", "state")

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(topicState)
	conn.Publish(conn.NewMessage(topicState, "hello", false))

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "hello" {
			t.Errorf("expected payload 'hello', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(topicState, "persist", true))

	if m, ok := b.Retained(topicState); !ok || m.Payload.(string) != "persist" {
		t.Fatalf("Retained() = %v, %v", m, ok)
	}

	sub := conn.Subscribe(topicState)
	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "persist" {
			t.Errorf("expected retained payload 'persist', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for retained message")
	}

	// nil payload clears the retained slot
	conn.Publish(conn.NewMessage(topicState, nil, true))
	if _, ok := b.Retained(topicState); ok {
		t.Fatal("retained message should be cleared")
	}
}

func TestFullQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(topicState)

	for _, p := range []string{"a", "b", "c"} {
		conn.Publish(conn.NewMessage(topicState, p, false))
	}

	first := <-sub.Channel()
	second := <-sub.Channel()
	if first.Payload != "b" || second.Payload != "c" {
		t.Fatalf("got %v,%v want b,c", first.Payload, second.Payload)
	}
}

func TestUnsubscribeAndDisconnectCloseChannels(t *testing.T) {
	b := NewBus(1)
	conn := b.NewConnection("test")
	s1 := conn.Subscribe(topicState)
	s2 := conn.Subscribe(T("agent", "reading"))

	s1.Unsubscribe()
	if _, ok := <-s1.Channel(); ok {
		t.Fatal("s1 channel should be closed")
	}
	// second unsubscribe is a no-op
	conn.Unsubscribe(s1)

	conn.Disconnect()
	if _, ok := <-s2.Channel(); ok {
		t.Fatal("s2 channel should be closed")
	}

	// publishing after everyone left must not panic
	conn.Publish(conn.NewMessage(topicState, "late", false))
}
