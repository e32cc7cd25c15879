package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/mentorhub-backend/internal/goroutine"
)

// Hub управляет всеми WebSocket клиентами.
// На пользователя — ровно один живой канал: повторная регистрация под тем
// же userID вытесняет предыдущее подключение, чтобы доставка не уходила
// в протухшие каналы после reconnect.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

// Register добавляет клиента, вытесняя прежний канал этого пользователя.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsConnected сообщает, есть ли у пользователя живой канал.
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// BroadcastToUser отправляет событие конкретному пользователю.
// Если пользователь не подключён, событие молча пропадает: отсутствующий
// получатель увидит сообщение при следующей загрузке истории.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать событие %s: %w", event, err)
	}

	h.broadcast <- message{userID: userID, payload: raw}
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	prev := h.clients[client.userID]
	h.clients[client.userID] = client
	h.mu.Unlock()

	if prev != nil && prev != client {
		// Закрываем вытесненный канал вне цикла хаба
		goroutine.SafeGo(prev.closeConn)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Удаляем только если регистрация ещё принадлежит этому клиенту:
	// reconnect мог уже вытеснить её новым подключением.
	if current, ok := h.clients[client.userID]; ok && current == client {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case client.send <- payload:
	default:
		// Переполненный канал — клиент не вычитывает, закрываем
		goroutine.SafeGo(client.Close)
	}
}
