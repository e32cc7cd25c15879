package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PresenceRegistry хранит эфемерное состояние "X печатает Y".
// Ничего не персистится: запись живёт до stopTyping или до истечения TTL.
// Сервер пересылает typing события как есть; реестр нужен только чтобы
// ответить "кто сейчас печатает этому пользователю".
type PresenceRegistry struct {
	mu     sync.RWMutex
	typing map[typingKey]time.Time
	ttl    time.Duration
	now    func() time.Time
}

type typingKey struct {
	sender   uuid.UUID
	receiver uuid.UUID
}

// NewPresenceRegistry создаёт реестр с заданным TTL.
func NewPresenceRegistry(ttl time.Duration) *PresenceRegistry {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &PresenceRegistry{
		typing: make(map[typingKey]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetTyping отмечает, что sender печатает receiver-у.
func (p *PresenceRegistry) SetTyping(senderID, receiverID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typing[typingKey{sender: senderID, receiver: receiverID}] = p.now()
}

// ClearTyping снимает отметку после stopTyping.
func (p *PresenceRegistry) ClearTyping(senderID, receiverID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.typing, typingKey{sender: senderID, receiver: receiverID})
}

// IsTyping отвечает, печатает ли sender receiver-у прямо сейчас.
// Просроченные записи считаются снятыми, даже если purge ещё не прошёл:
// упавший клиент без stopTyping не оставляет индикатор навсегда.
func (p *PresenceRegistry) IsTyping(senderID, receiverID uuid.UUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	seen, ok := p.typing[typingKey{sender: senderID, receiver: receiverID}]
	if !ok {
		return false
	}
	return p.now().Sub(seen) < p.ttl
}

// Run периодически вычищает просроченные записи до отмены контекста.
func (p *PresenceRegistry) Run(ctx context.Context) {
	ticker := time.NewTicker(p.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.purge()
		}
	}
}

func (p *PresenceRegistry) purge() {
	cutoff := p.now().Add(-p.ttl)

	p.mu.Lock()
	defer p.mu.Unlock()
	for key, seen := range p.typing {
		if seen.Before(cutoff) {
			delete(p.typing, key)
		}
	}
}
