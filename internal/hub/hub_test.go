package hub

import (
	"encoding/json"
	"testing"
)

func TestBroadcastReachesOnlyThatGroup(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(1)
	b := h.Subscribe(2)

	h.Broadcast(1, Event{Type: "group.joined", Payload: map[string]int{"open_seats": 2}})

	select {
	case msg := <-a:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Type != "group.joined" {
			t.Fatalf("unexpected type %q", ev.Type)
		}
	default:
		t.Fatal("subscriber of group 1 got nothing")
	}
	select {
	case <-b:
		t.Fatal("subscriber of group 2 should not receive group 1 events")
	default:
	}
}

func TestUnsubscribeClosesAndCleansUp(t *testing.T) {
	h := NewHub()
	c := h.Subscribe(7)
	if h.Subscribers(7) != 1 {
		t.Fatalf("expected one subscriber")
	}
	h.Unsubscribe(7, c)
	if _, ok := <-c; ok {
		t.Fatal("channel should be closed")
	}
	if h.Subscribers(7) != 0 {
		t.Fatal("group should be removed")
	}
	// second unsubscribe is a no-op
	h.Unsubscribe(7, c)
}

func TestBroadcastDoesNotBlockOnFullClient(t *testing.T) {
	h := NewHub()
	c := h.Subscribe(3)
	for i := 0; i < cap(c)+5; i++ {
		h.Broadcast(3, Event{Type: "tick"})
	}
	if len(c) != cap(c) {
		t.Fatalf("expected full buffer, got %d", len(c))
	}
}
