package chatclient

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/ws"
)

func TestTypingTracker_TTL(t *testing.T) {
	tracker := NewTypingTracker(2 * time.Second)

	current := time.Now()
	tracker.now = func() time.Time { return current }

	partner := uuid.New()

	tracker.Set(partner)
	if !tracker.IsTyping(partner) {
		t.Fatalf("после typing индикатор должен гореть")
	}

	// Потерянный stopTyping гасится по TTL.
	current = current.Add(3 * time.Second)
	if tracker.IsTyping(partner) {
		t.Fatalf("после истечения TTL индикатор должен гаснуть")
	}
}

func TestTypingTracker_HandleEvent(t *testing.T) {
	tracker := NewTypingTracker(time.Minute)
	partner, me := uuid.New(), uuid.New()

	typing, err := marshalEnvelope(ws.EventTyping, ws.TypingPayload{SenderID: partner, ReceiverID: me})
	if err != nil {
		t.Fatalf("подготовка события: %v", err)
	}
	tracker.HandleEvent(typing)
	if !tracker.IsTyping(partner) {
		t.Fatalf("событие typing должно зажигать индикатор")
	}

	stop, err := marshalEnvelope(ws.EventStopTyping, ws.TypingPayload{SenderID: partner, ReceiverID: me})
	if err != nil {
		t.Fatalf("подготовка события: %v", err)
	}
	tracker.HandleEvent(stop)
	if tracker.IsTyping(partner) {
		t.Fatalf("событие stopTyping должно гасить индикатор")
	}
}
