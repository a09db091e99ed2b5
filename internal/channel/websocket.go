package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// frame is the JSON envelope exchanged with the voice provider.
type frame struct {
	Type           string         `json:"type"`
	WorkflowID     string         `json:"workflowId,omitempty"`
	Assistant      *Assistant     `json:"assistant,omitempty"`
	VariableValues map[string]any `json:"variableValues,omitempty"`
	Message        *Message       `json:"message,omitempty"`
	Error          *Error         `json:"error,omitempty"`
	Status         string         `json:"status,omitempty"`
}

// WebsocketChannel implements Channel over the provider's websocket control API.
type WebsocketChannel struct {
	cfg     Config
	dialer  *websocket.Dialer
	emitter *Emitter
	logger  *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}

	writeMu sync.Mutex
}

func NewWebsocketChannel(cfg Config, logger *zap.Logger) *WebsocketChannel {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebsocketChannel{
		cfg:     cfg,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		emitter: NewEmitter(),
		logger:  logger,
	}
}

func (c *WebsocketChannel) On(event EventType, h Handler) func() {
	return c.emitter.On(event, h)
}

// Start dials the provider and requests a call for target.
func (c *WebsocketChannel) Start(ctx context.Context, target Target, variableValues map[string]any) error {
	if target.WorkflowID == "" && target.Assistant == nil {
		return ErrNoTarget
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return ErrAlreadyStarted
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.cfg.PublicKey)

	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, headers)
	if err != nil {
		return fmt.Errorf("failed to connect to voice provider: %w", err)
	}

	start := frame{
		Type:           "start",
		WorkflowID:     target.WorkflowID,
		Assistant:      target.Assistant,
		VariableValues: variableValues,
	}
	if err := c.writeFrame(conn, start); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to send start request: %w", err)
	}

	done := make(chan struct{})
	c.conn = conn
	c.done = done

	go c.readLoop(conn, done)
	return nil
}

// Stop asks the provider to end the call and closes the connection. The channel can be
// started again as soon as Stop returns. It does not wait for the read loop, so it is safe
// to call from inside an event handler.
func (c *WebsocketChannel) Stop() error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return ErrNotStarted
	}
	c.conn = nil
	c.mu.Unlock()

	writeErr := c.writeFrame(conn, frame{Type: "stop"})

	c.writeMu.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "call ended"),
		time.Now().Add(c.cfg.WriteTimeout),
	)
	c.writeMu.Unlock()
	closeErr := conn.Close()

	if writeErr != nil {
		return fmt.Errorf("failed to send stop request: %w", writeErr)
	}
	return closeErr
}

// Done is closed when the read loop of the last started call exits. It returns nil before
// the first call.
func (c *WebsocketChannel) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *WebsocketChannel) writeFrame(conn *websocket.Conn, f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteJSON(f)
}

func (c *WebsocketChannel) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}

		var f frame
		if err := json.Unmarshal(payload, &f); err != nil {
			c.logger.Warn("Dropping malformed provider frame", zap.Error(err))
			continue
		}

		ev, ok := toEvent(f)
		if !ok {
			c.logger.Debug("Ignoring unknown provider frame", zap.String("type", f.Type))
			continue
		}
		if !c.isCurrent(conn) {
			// stopped or replaced; frames of an old call must not reach the next one
			return
		}
		c.emitter.Emit(ev)
	}
}

func (c *WebsocketChannel) isCurrent(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == conn
}

// handleClose reports an unexpected close of the current connection. Connections closed by
// Stop, or replaced by a newer call, are no longer current and stay silent.
func (c *WebsocketChannel) handleClose(conn *websocket.Conn, err error) {
	c.mu.Lock()
	current := c.conn == conn
	if current {
		c.conn = nil
	}
	c.mu.Unlock()

	if !current {
		return
	}

	if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Warn("Voice provider connection lost", zap.Error(err))
	}
	c.emitter.Emit(Event{Type: EventConnectionStatus, Status: StatusDisconnected})
}

func toEvent(f frame) (Event, bool) {
	switch EventType(f.Type) {
	case EventCallStart, EventCallEnd, EventSpeechStart, EventSpeechEnd:
		return Event{Type: EventType(f.Type)}, true
	case EventMessage:
		if f.Message == nil {
			return Event{}, false
		}
		return Event{Type: EventMessage, Message: f.Message}, true
	case EventError:
		if f.Error == nil {
			f.Error = &Error{}
		}
		return Event{Type: EventError, Error: f.Error}, true
	case EventConnectionStatus:
		return Event{Type: EventConnectionStatus, Status: f.Status}, true
	}
	return Event{}, false
}
