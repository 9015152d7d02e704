package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/zeusync/robonav/internal/core/observability/log"
)

// session is one websocket client. Writes happen only on the write pump;
// reads only on the goroutine running run.
type session struct {
	id      string
	server  *Server
	conn    *websocket.Conn
	limiter *rate.Limiter
	logger  log.Log

	send      chan []byte
	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

func newSession(s *Server, conn *websocket.Conn) *session {
	id := uuid.NewString()
	return &session{
		id:      id,
		server:  s,
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(s.config.CommandRate), s.config.CommandBurst),
		logger:  s.logger.With(log.String("session_id", id)),
		send:    make(chan []byte, s.config.SendBuffer),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// enqueue hands data to the write pump. A client that lets its buffer fill
// up is disconnected rather than allowed to stall the engine.
func (c *session) enqueue(data []byte) {
	if data == nil {
		return
	}
	select {
	case <-c.closing:
	case c.send <- data:
	default:
		c.logger.Warn("Dropping slow client", log.Error(ErrSlowConsumer))
		c.close()
	}
}

func (c *session) close() {
	c.closeOnce.Do(func() { close(c.closing) })
}

// run blocks until the connection ends.
func (c *session) run() {
	defer close(c.done)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump()
	}()

	c.readLoop()
	c.close()
	wg.Wait()
	_ = c.conn.Close()
}

func (c *session) readLoop() {
	c.conn.SetReadLimit(c.server.config.MaxMessageBytes)
	go func() {
		// Unblocks ReadMessage when the session is closed from elsewhere.
		<-c.closing
		_ = c.conn.SetReadDeadline(time.Now())
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				select {
				case <-c.closing:
				default:
					c.logger.Debug("WebSocket read ended", log.Error(err))
				}
			}
			return
		}

		var cmd Command
		if err = json.Unmarshal(data, &cmd); err != nil {
			c.reply("", fmt.Errorf("%w: %w", ErrInvalidMessage, err))
			continue
		}
		if !c.limiter.Allow() {
			c.reply(cmd.Action, ErrRateLimited)
			continue
		}
		if err = c.server.dispatch(cmd); err != nil {
			c.reply(cmd.Action, err)
			continue
		}
		c.logger.Debug("Command applied", log.Stringer("command", cmd))
	}
}

func (c *session) reply(action string, err error) {
	if !errors.Is(err, ErrRateLimited) {
		c.logger.Debug("Command rejected", log.String("action", action), log.Error(err))
	}
	c.enqueue(c.server.encode(newErrorMessage(action, err)))
}

func (c *session) writePump() {
	ping := time.NewTicker(c.server.config.PingInterval)
	defer ping.Stop()

	timeout := c.server.config.WriteTimeout
	for {
		select {
		case <-c.closing:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(timeout))
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("WebSocket write failed", log.Error(err))
				c.close()
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout)); err != nil {
				c.close()
				return
			}
		}
	}
}
