package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/baccarat/baccarat"
	"github.com/lox/baccarat/internal/dealer"
	"github.com/lox/baccarat/internal/session"
	"github.com/lox/baccarat/internal/simulator"
)

// Connection is one client and the table session it owns
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	session   *session.Session
	clock     quartz.Clock
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    chan struct{}
}

// NewConnection wraps conn around sess
func NewConnection(conn *websocket.Conn, sess *session.Session, clock quartz.Clock, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		session: sess,
		clock:   clock,
		logger:  logger.WithPrefix("conn").With("session", sess.ID()),
		ctx:     ctx,
		cancel:  cancel,
		closed:  make(chan struct{}),
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has been closed
func (c *Connection) Done() <-chan struct{} {
	return c.closed
}

// Close closes the connection and discards any forecast in flight
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.session.CancelForecast()
		err = c.conn.Close()
		close(c.closed)
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeDeal:
		c.handleDeal()

	case MessageTypeManual:
		var data ManualData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse manual hand data")
			return
		}
		c.handleManual(data)

	case MessageTypeUndo:
		c.handleUndo()

	case MessageTypeReset:
		c.session.Reset(c.ctx)
		c.sendState()

	case MessageTypeForecast:
		var data ForecastData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError("invalid_message", "Failed to parse forecast data")
				return
			}
		}
		c.handleForecast(data)

	case MessageTypeCancel:
		c.session.CancelForecast()

	case MessageTypeState:
		c.sendState()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleDeal() {
	result, err := c.session.Deal(c.ctx)
	switch {
	case errors.Is(err, dealer.ErrShoeExhausted):
		c.reply(MessageTypeShoeExhausted, ShoeExhaustedData{Shoe: c.session.ShoeStatus()})
	case err != nil:
		c.sendError("deal_failed", err.Error())
	default:
		c.reply(MessageTypeHand, HandData{Result: result, State: stateOf(c.session)})
	}
}

func (c *Connection) handleManual(data ManualData) {
	player, err := baccarat.ParseCards(data.Player)
	if err != nil {
		c.sendError("invalid_cards", fmt.Sprintf("player: %v", err))
		return
	}
	banker, err := baccarat.ParseCards(data.Banker)
	if err != nil {
		c.sendError("invalid_cards", fmt.Sprintf("banker: %v", err))
		return
	}

	result, err := c.session.EnterManual(c.ctx, player, banker)
	if err != nil {
		c.sendError("invalid_hand", err.Error())
		return
	}
	c.reply(MessageTypeHand, HandData{Result: result, Manual: true, State: stateOf(c.session)})
}

func (c *Connection) handleUndo() {
	if err := c.session.Undo(c.ctx); err != nil {
		c.sendError("undo_failed", err.Error())
		return
	}
	c.sendState()
}

// handleForecast starts a forecast and forwards its progress. Updates from
// a superseded forecast are never forwarded.
func (c *Connection) handleForecast(data ForecastData) {
	if data.Iterations < 0 {
		c.sendError("invalid_message", "iterations must not be negative")
		return
	}

	task := c.session.Forecast(c.ctx, data.Iterations)
	c.logger.Debug("Forecast started", "generation", task.Generation, "requested", data.Iterations)

	go c.forward(task)
}

func (c *Connection) forward(task *simulator.Task) {
	current := func() bool {
		return c.session.ForecastGeneration() == task.Generation
	}

	for p := range task.Progress() {
		if current() {
			c.reply(MessageTypeProgress, p)
		}
	}

	stats, err := task.Wait()
	switch {
	case simulator.IsDiscarded(err):
		c.logger.Debug("Forecast discarded", "generation", task.Generation, "reason", err)
	case err != nil:
		c.sendError("forecast_failed", err.Error())
	case current():
		c.reply(MessageTypeForecast, ForecastResultData{Generation: task.Generation, Stats: stats})
	}
}

func (c *Connection) sendState() {
	c.reply(MessageTypeState, stateOf(c.session))
}

// reply builds and queues a message, logging failures
func (c *Connection) reply(messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data, c.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	c.reply(MessageTypeError, ErrorData{Code: code, Message: message})
}
