package chatclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/models"
	"github.com/ignatzorin/mentorhub-backend/internal/ws"
)

// Entry — элемент локальной ленты переписки.
// Provisional означает, что запись ещё не подтверждена сервером;
// Failed — сервер отказал, сообщение остаётся на месте с пометкой.
type Entry struct {
	Message     models.Message
	Provisional bool
	Failed      bool
	FailReason  string
}

// Reconciler сводит локальную ленту с событиями сервера.
// Отправка сначала кладёт provisional-копию, чтобы UI отозвался мгновенно;
// подтверждение заменяет её на месте, сохраняя позицию в ленте.
// Повторная доставка одного и того же серверного сообщения (reconnect,
// история поверх событий) схлопывается по id.
type Reconciler struct {
	mu      sync.Mutex
	entries []Entry
	seen    map[uuid.UUID]struct{}
	now     func() time.Time
}

// NewReconciler создаёт пустую ленту.
func NewReconciler() *Reconciler {
	return &Reconciler{
		seen: make(map[uuid.UUID]struct{}),
		now:  time.Now,
	}
}

// AddProvisional вставляет неподтверждённую копию исходящего сообщения
// и возвращает корреляционный тег для sendMessage.
func (r *Reconciler) AddProvisional(senderID, receiverID uuid.UUID, body string) string {
	tag := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, Entry{
		Message: models.Message{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Body:       body,
			CreatedAt:  r.now(),
			ClientTag:  tag,
		},
		Provisional: true,
	})

	return tag
}

// SeedHistory загружает подтверждённую историю с сервера.
// Уже известные сообщения пропускаются, provisional-записи не трогаются.
func (r *Reconciler) SeedHistory(history []models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range history {
		r.applyLocked(msg)
	}
}

// Apply принимает подтверждённое сервером сообщение (messageSent или
// newMessage). Возвращает false, если сообщение уже было применено.
func (r *Reconciler) Apply(msg models.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(msg)
}

func (r *Reconciler) applyLocked(msg models.Message) bool {
	if _, ok := r.seen[msg.ID]; ok {
		return false
	}
	r.seen[msg.ID] = struct{}{}

	if i := r.matchProvisionalLocked(msg); i >= 0 {
		// Замена на месте: позиция в ленте сохраняется
		r.entries[i] = Entry{Message: msg}
		return true
	}

	r.entries = append(r.entries, Entry{Message: msg})
	return true
}

// matchProvisionalLocked ищет provisional-запись для подтверждения:
// сначала по корреляционному тегу, затем по содержимому для серверов
// старых версий, не возвращающих тег.
func (r *Reconciler) matchProvisionalLocked(msg models.Message) int {
	if msg.ClientTag != "" {
		for i := range r.entries {
			if r.entries[i].Provisional && r.entries[i].Message.ClientTag == msg.ClientTag {
				return i
			}
		}
	}

	for i := range r.entries {
		e := &r.entries[i]
		if e.Provisional && !e.Failed &&
			e.Message.SenderID == msg.SenderID &&
			e.Message.ReceiverID == msg.ReceiverID &&
			e.Message.Body == msg.Body {
			return i
		}
	}

	return -1
}

// ApplyError помечает provisional-запись как неудавшуюся по тегу из
// messageError. Запись остаётся в ленте для ручного повтора.
func (r *Reconciler) ApplyError(p ws.MessageErrorPayload) bool {
	if p.ClientTag == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		e := &r.entries[i]
		if e.Provisional && e.Message.ClientTag == p.ClientTag {
			e.Failed = true
			e.FailReason = p.Reason
			return true
		}
	}

	return false
}

// HandleEvent применяет событие сервера к ленте.
// Неизвестные и нерелевантные события игнорируются.
func (r *Reconciler) HandleEvent(env ws.Envelope) {
	switch env.Type {
	case ws.EventMessageSent, ws.EventNewMessage:
		var msg models.Message
		if err := json.Unmarshal(env.Data, &msg); err == nil {
			r.Apply(msg)
		}
	case ws.EventMessageError:
		var p ws.MessageErrorPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			r.ApplyError(p)
		}
	}
}

// Entries возвращает снимок ленты в текущем порядке.
func (r *Reconciler) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len возвращает длину ленты.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
