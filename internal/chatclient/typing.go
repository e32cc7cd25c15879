package chatclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/ws"
)

const defaultTypingTTL = 2 * time.Second

// TypingTracker держит индикаторы "печатает" по собеседникам.
// Индикатор гаснет либо по stopTyping, либо по TTL: потерянный
// stopTyping не должен оставлять индикатор навсегда.
type TypingTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	partners map[uuid.UUID]time.Time
	now      func() time.Time
}

// NewTypingTracker создаёт трекер. ttl <= 0 заменяется значением по умолчанию.
func NewTypingTracker(ttl time.Duration) *TypingTracker {
	if ttl <= 0 {
		ttl = defaultTypingTTL
	}
	return &TypingTracker{
		ttl:      ttl,
		partners: make(map[uuid.UUID]time.Time),
		now:      time.Now,
	}
}

// HandleEvent применяет typing/stopTyping от сервера.
func (t *TypingTracker) HandleEvent(env ws.Envelope) {
	if env.Type != ws.EventTyping && env.Type != ws.EventStopTyping {
		return
	}

	var p ws.TypingPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.SenderID == uuid.Nil {
		return
	}

	if env.Type == ws.EventTyping {
		t.Set(p.SenderID)
	} else {
		t.Clear(p.SenderID)
	}
}

// Set отмечает, что собеседник печатает.
func (t *TypingTracker) Set(partner uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partners[partner] = t.now().Add(t.ttl)
}

// Clear гасит индикатор собеседника.
func (t *TypingTracker) Clear(partner uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.partners, partner)
}

// IsTyping сообщает, печатает ли собеседник прямо сейчас.
// Просроченные записи удаляются лениво при опросе.
func (t *TypingTracker) IsTyping(partner uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	deadline, ok := t.partners[partner]
	if !ok {
		return false
	}
	if t.now().After(deadline) {
		delete(t.partners, partner)
		return false
	}
	return true
}
