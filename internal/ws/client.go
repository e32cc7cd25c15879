package ws

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/mentorhub-backend/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Личные сообщения короткие, лимит с запасом на конверт события.
	maxInboundBytes = 64 * 1024
)

// EventHandler обрабатывает входящие события клиента.
type EventHandler interface {
	HandleSendMessage(ctx context.Context, from uuid.UUID, p SendMessagePayload)
	HandleTyping(ctx context.Context, from uuid.UUID, p TypingPayload, active bool)
}

// Client представляет одно подключение WebSocket.
// userID берётся из access токена при рукопожатии; в хабе канал
// регистрируется только после события join с тем же идентификатором.
type Client struct {
	conn    *websocket.Conn
	hub     *Hub
	handler EventHandler
	userID  uuid.UUID
	send    chan []byte
	joined  bool
}

// NewClient создаёт нового клиента.
func NewClient(conn *websocket.Conn, hub *Hub, handler EventHandler, userID uuid.UUID) *Client {
	return &Client{
		conn:    conn,
		hub:     hub,
		handler: handler,
		userID:  userID,
		send:    make(chan []byte, 16),
	}
}

// Run запускает обработку входящих и исходящих сообщений.
func (c *Client) Run(ctx context.Context) {
	go c.writePumpSafe()
	c.readPump(ctx)
}

// Close снимает регистрацию и закрывает соединение.
func (c *Client) Close() {
	c.hub.Unregister(c)
	c.conn.Close()
}

// closeConn закрывает только транспорт, без обращения к хабу.
// Используется хабом при вытеснении канала, чтобы не дедлочиться
// на собственном цикле.
func (c *Client) closeConn() {
	c.conn.Close()
}

// writePumpSafe запускает writePump с обработкой panic
func (c *Client) writePumpSafe() {
	defer func() {
		if r := recover(); r != nil {
			if logger.Log != nil {
				logger.Log.Errorf("ws: panic в writePump: %v\nstack:\n%s", r, debug.Stack())
			}
			c.Close()
		}
	}()
	c.writePump()
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			if logger.Log != nil {
				logger.Log.Errorf("ws: panic в readPump: %v\nstack:\n%s", r, debug.Stack())
			}
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, raw, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					if logger.Log != nil {
						logger.Log.Debugf("ws: канал %s закрыт: %v", c.userID, err)
					}
				}
				return
			}

			if !c.dispatch(ctx, raw) {
				return
			}
		}
	}
}

// dispatch разбирает конверт события и вызывает обработчик.
// Возвращает false, если соединение нужно закрыть.
func (c *Client) dispatch(ctx context.Context, raw []byte) bool {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError("некорректный формат события", "")
		return true
	}

	switch env.Type {
	case EventJoin:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.UserID == uuid.Nil {
			c.sendError("некорректный join", "")
			return true
		}
		// join обязан называть владельца токена, иначе канал закрывается.
		if p.UserID != c.userID {
			c.sendError("join не совпадает с токеном", "")
			return false
		}
		if !c.joined {
			c.joined = true
			c.hub.Register(c)
		}
		return true

	case EventSendMessage:
		if !c.joined {
			c.sendError("сначала отправьте join", "")
			return true
		}
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.sendError("некорректный sendMessage", "")
			return true
		}
		if p.SenderID != c.userID {
			c.sendError("sender_id не совпадает с токеном", p.ClientTag)
			return true
		}
		c.handler.HandleSendMessage(ctx, c.userID, p)
		return true

	case EventTyping, EventStopTyping:
		if !c.joined {
			return true
		}
		var p TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.SenderID != c.userID {
			return true
		}
		c.handler.HandleTyping(ctx, c.userID, p, env.Type == EventTyping)
		return true

	default:
		// Неизвестные события игнорируем ради совместимости версий
		return true
	}
}

// sendError пишет messageError напрямую в канал клиента.
func (c *Client) sendError(reason, clientTag string) {
	raw, err := json.Marshal(map[string]any{
		"type": EventMessageError,
		"data": MessageErrorPayload{Reason: reason, ClientTag: clientTag},
	})
	if err != nil {
		return
	}

	select {
	case c.send <- raw:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
