package chatclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/models"
	"github.com/ignatzorin/mentorhub-backend/internal/ws"
)

func marshalEnvelope(eventType string, data any) (ws.Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return ws.Envelope{}, err
	}
	return ws.Envelope{Type: eventType, Data: raw}, nil
}

func serverMessage(senderID, receiverID uuid.UUID, body, tag string) models.Message {
	return models.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  time.Now(),
		ClientTag:  tag,
	}
}

func TestReconciler_ProvisionalReplacedInPlace(t *testing.T) {
	r := NewReconciler()
	me, peer := uuid.New(), uuid.New()

	// Входящее сообщение уже в ленте, наше идёт следом.
	r.Apply(serverMessage(peer, me, "привет", ""))
	tag := r.AddProvisional(me, peer, "и тебе привет")

	entries := r.Entries()
	if len(entries) != 2 || !entries[1].Provisional {
		t.Fatalf("ожидалась provisional-запись в конце ленты")
	}

	confirmed := serverMessage(me, peer, "и тебе привет", tag)
	if !r.Apply(confirmed) {
		t.Fatalf("подтверждение должно примениться")
	}

	entries = r.Entries()
	if len(entries) != 2 {
		t.Fatalf("подтверждение заменяет provisional, а не добавляет: %d записей", len(entries))
	}
	if entries[1].Provisional {
		t.Fatalf("запись должна стать подтверждённой")
	}
	if entries[1].Message.ID != confirmed.ID {
		t.Fatalf("запись должна нести серверный id")
	}
}

func TestReconciler_DuplicateDeliveryIgnored(t *testing.T) {
	r := NewReconciler()
	me, peer := uuid.New(), uuid.New()

	msg := serverMessage(peer, me, "привет", "")
	if !r.Apply(msg) {
		t.Fatalf("первая доставка должна примениться")
	}
	// Reconnect: то же сообщение приходит событием и в истории.
	if r.Apply(msg) {
		t.Fatalf("повторная доставка должна игнорироваться")
	}
	r.SeedHistory([]models.Message{msg})

	if r.Len() != 1 {
		t.Fatalf("ожидалась одна запись, получили %d", r.Len())
	}
}

func TestReconciler_ContentFallbackWithoutTag(t *testing.T) {
	r := NewReconciler()
	me, peer := uuid.New(), uuid.New()

	r.AddProvisional(me, peer, "привет")

	// Сервер без тега: сопоставление по содержимому.
	r.Apply(serverMessage(me, peer, "привет", ""))

	entries := r.Entries()
	if len(entries) != 1 || entries[0].Provisional {
		t.Fatalf("подтверждение по содержимому должно заменить provisional")
	}
}

func TestReconciler_SameBodyFromOtherSenderNotMerged(t *testing.T) {
	r := NewReconciler()
	me, peer := uuid.New(), uuid.New()

	r.AddProvisional(me, peer, "ок")

	// Собеседник пишет то же самое: это не подтверждение нашей отправки.
	r.Apply(serverMessage(peer, me, "ок", ""))

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("чужое сообщение с тем же телом не должно схлопываться: %d записей", len(entries))
	}
	if !entries[0].Provisional {
		t.Fatalf("наша provisional-запись должна остаться неподтверждённой")
	}
}

func TestReconciler_ApplyErrorMarksFailed(t *testing.T) {
	r := NewReconciler()
	me, peer := uuid.New(), uuid.New()

	tag := r.AddProvisional(me, peer, "сообщение")

	if !r.ApplyError(ws.MessageErrorPayload{Reason: "получатель не найден", ClientTag: tag}) {
		t.Fatalf("ошибка с тегом должна найти provisional-запись")
	}

	entries := r.Entries()
	if len(entries) != 1 {
		t.Fatalf("неудавшееся сообщение остаётся в ленте")
	}
	if !entries[0].Failed || entries[0].FailReason != "получатель не найден" {
		t.Fatalf("запись должна быть помечена неудавшейся с причиной")
	}

	// Ошибка без тега сопоставить нечем.
	if r.ApplyError(ws.MessageErrorPayload{Reason: "ошибка"}) {
		t.Fatalf("ошибка без тега не должна применяться")
	}
}

func TestReconciler_HandleEvent(t *testing.T) {
	r := NewReconciler()
	me, peer := uuid.New(), uuid.New()

	tag := r.AddProvisional(me, peer, "привет")
	confirmed := serverMessage(me, peer, "привет", tag)

	raw, err := marshalEnvelope(ws.EventMessageSent, confirmed)
	if err != nil {
		t.Fatalf("подготовка события: %v", err)
	}
	r.HandleEvent(raw)

	entries := r.Entries()
	if len(entries) != 1 || entries[0].Provisional {
		t.Fatalf("messageSent должен подтвердить provisional-запись")
	}
}
