package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPresenceRegistry_TTL(t *testing.T) {
	registry := NewPresenceRegistry(2 * time.Second)

	current := time.Now()
	registry.now = func() time.Time { return current }

	sender, receiver := uuid.New(), uuid.New()

	registry.SetTyping(sender, receiver)
	if !registry.IsTyping(sender, receiver) {
		t.Fatalf("сразу после typing индикатор должен гореть")
	}

	// Направление имеет значение.
	if registry.IsTyping(receiver, sender) {
		t.Fatalf("обратное направление не должно отмечаться")
	}

	// Просроченная запись гаснет даже до фонового purge.
	current = current.Add(3 * time.Second)
	if registry.IsTyping(sender, receiver) {
		t.Fatalf("после истечения TTL индикатор должен гаснуть")
	}

	registry.purge()
	if len(registry.typing) != 0 {
		t.Fatalf("purge должен удалить просроченные записи")
	}
}

func TestPresenceRegistry_ClearTyping(t *testing.T) {
	registry := NewPresenceRegistry(time.Minute)
	sender, receiver := uuid.New(), uuid.New()

	registry.SetTyping(sender, receiver)
	registry.ClearTyping(sender, receiver)

	if registry.IsTyping(sender, receiver) {
		t.Fatalf("stopTyping должен гасить индикатор немедленно")
	}
}
