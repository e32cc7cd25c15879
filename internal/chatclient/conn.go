package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/mentorhub-backend/internal/ws"
)

// State — состояние канала. "Ещё не подключён" — нормальное опрашиваемое
// состояние, а не ошибка: UI остаётся рабочим и при недоступном сервере.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// ErrNotConnected возвращается из Send, пока канал не готов.
// Вызывающий трактует это как временное состояние и повторяет позже.
var ErrNotConnected = errors.New("chatclient: канал ещё не подключён")

const (
	defaultReconnectMin = 500 * time.Millisecond
	defaultReconnectMax = 15 * time.Second
	eventBuffer         = 64
	writeWait           = 10 * time.Second
)

// Config настраивает подключение клиента.
type Config struct {
	// URL сервера, например ws://host:8080/api/ws
	URL string
	// Token — access токен; передаётся query-параметром при рукопожатии.
	Token string
	// UserID — владелец канала, уходит в событии join после рукопожатия.
	UserID uuid.UUID

	Dialer       *websocket.Dialer
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Connector — явно владеемое подключение к каналу доставки.
// Connect не блокирует: готовность канала наступает асинхронно после
// рукопожатия и join, её опрашивают через State. Обрыв транспорта
// лечится фоновым reconnect с экспоненциальной задержкой и никогда
// не всплывает как фатальная ошибка.
type Connector struct {
	cfg Config

	state  atomic.Int32
	events chan ws.Envelope

	mu   sync.Mutex
	conn *websocket.Conn

	cancel context.CancelFunc
	done   chan struct{}
}

// NewConnector создаёт подключение. Канал открывается вызовом Connect,
// закрывается Close; повторное использование после Close не поддерживается.
func NewConnector(cfg Config) *Connector {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = defaultReconnectMin
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = defaultReconnectMax
	}

	return &Connector{
		cfg:    cfg,
		events: make(chan ws.Envelope, eventBuffer),
		done:   make(chan struct{}),
	}
}

// Connect запускает фоновый цикл подключения и сразу возвращается.
func (c *Connector) Connect(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.run(ctx)
}

// State возвращает текущее состояние канала.
func (c *Connector) State() State {
	return State(c.state.Load())
}

// Events отдаёт входящие события сервера. При медленном потребителе
// события отбрасываются: канал доставки best-effort, истина — в истории.
func (c *Connector) Events() <-chan ws.Envelope {
	return c.events
}

// Send сериализует и отправляет событие fire-and-forget.
func (c *Connector) Send(eventType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(ws.Envelope{Type: eventType, Data: raw})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.State() != StateConnected {
		return ErrNotConnected
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// SendMessage отправляет запрос на доставку сообщения.
func (c *Connector) SendMessage(p ws.SendMessagePayload) error {
	return c.Send(ws.EventSendMessage, p)
}

// SendTyping отправляет сигнал набора текста.
func (c *Connector) SendTyping(receiverID uuid.UUID, active bool) error {
	event := ws.EventStopTyping
	if active {
		event = ws.EventTyping
	}
	return c.Send(event, ws.TypingPayload{SenderID: c.cfg.UserID, ReceiverID: receiverID})
}

// Close останавливает reconnect и закрывает соединение.
// Без предшествующего Connect просто помечает канал закрытым.
func (c *Connector) Close() {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	if c.cancel == nil {
		c.state.Store(int32(StateDisconnected))
		return
	}

	c.cancel()
	<-c.done
}

// run — цикл подключения: dial, join, чтение до обрыва, пауза, повтор.
func (c *Connector) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)
	defer c.state.Store(int32(StateDisconnected))

	backoff := c.cfg.ReconnectMin

	for {
		if ctx.Err() != nil {
			return
		}

		c.state.Store(int32(StateConnecting))

		conn, err := c.dial(ctx)
		if err != nil {
			// Ошибка транспорта — обычное восстановимое состояние
			c.state.Store(int32(StateDisconnected))

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > c.cfg.ReconnectMax {
				backoff = c.cfg.ReconnectMax
			}
			continue
		}

		backoff = c.cfg.ReconnectMin

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.state.Store(int32(StateConnected))

		// Регистрируем канал за пользователем
		if err := c.Send(ws.EventJoin, ws.JoinPayload{UserID: c.cfg.UserID}); err == nil {
			c.readLoop(ctx, conn)
		}

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		_ = conn.Close()
		c.state.Store(int32(StateDisconnected))
	}
}

func (c *Connector) dial(ctx context.Context) (*websocket.Conn, error) {
	url := c.cfg.URL
	if c.cfg.Token != "" {
		url += "?token=" + c.cfg.Token
	}

	conn, resp, err := c.cfg.Dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// readLoop вычитывает события до обрыва соединения.
func (c *Connector) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env ws.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		select {
		case c.events <- env:
		default:
			// Потребитель отстал: событие отбрасывается
		}
	}
}
