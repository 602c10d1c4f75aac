package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

type recordingNotifier struct {
	subjects []string
	messages []string
}

func (r *recordingNotifier) Notify(subject, message string) error {
	r.subjects = append(r.subjects, subject)
	r.messages = append(r.messages, message)
	return nil
}

func TestHandleReservationEvent(t *testing.T) {
	game := uint(3)
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	env := NewEnvelope(ReservationExpired, ReservationEvent{
		ReservationID: 9, UserID: 2, CafeID: 1, TableID: 4, GameID: &game,
		StartTime: start, EndTime: start.Add(2 * time.Hour),
	})
	body, _ := json.Marshal(env)

	n := &recordingNotifier{}
	if err := Handle(body, n); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(n.subjects) != 1 || n.subjects[0] != ReservationExpired {
		t.Fatalf("unexpected subjects %v", n.subjects)
	}
	for _, want := range []string{"reservation_id=9", "game_id=3", "2026-03-01 18:00 - 20:00"} {
		if !strings.Contains(n.messages[0], want) {
			t.Errorf("message %q missing %q", n.messages[0], want)
		}
	}
}

func TestHandleGroupEvent(t *testing.T) {
	body, _ := json.Marshal(NewEnvelope(GroupJoined, GroupEvent{GroupID: 5, ReservationID: 9, UserID: 7, OpenSeats: 1}))
	n := &recordingNotifier{}
	if err := Handle(body, n); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(n.messages[0], "open_seats=1") {
		t.Fatalf("unexpected message %q", n.messages[0])
	}
}

func TestHandleRejectsUnknownAndMalformed(t *testing.T) {
	n := &recordingNotifier{}
	if err := Handle([]byte("{"), n); err == nil {
		t.Fatal("expected error for malformed body")
	}
	body, _ := json.Marshal(NewEnvelope("cafe.renamed", map[string]any{}))
	if err := Handle(body, n); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if len(n.subjects) != 0 {
		t.Fatalf("notifier should not be called, got %v", n.subjects)
	}
}
