// Package server exposes an engine to browser clients over websockets.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/robonav/internal/core/engine"
	"github.com/zeusync/robonav/internal/core/events/bus"
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/observability/log"
	"github.com/zeusync/robonav/internal/core/physics"
	"github.com/zeusync/robonav/pkg/concurrent"
	"github.com/zeusync/robonav/pkg/generic"
)

// Controller is the engine surface the server drives.
type Controller interface {
	SetTarget(target physics.Vector2)
	SetObstacleMode(enabled bool)
	Reset()
	ChangeMovement(name string) error
	Snapshot() engine.Snapshot
	Field() (level.Grid, bool)
	Fingerprint() uint64
	Subscribe(fn func(engine.Snapshot)) (bus.Subscription, error)
	SubscribeField(fn func(engine.FieldChange)) (bus.Subscription, error)
}

// Config holds server configuration
type Config struct {
	Addr            string
	CommandRate     float64 // commands per second per connection
	CommandBurst    int
	MaxMessageBytes int64
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	PingInterval    time.Duration
	SendBuffer      int
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		CommandRate:     50,
		CommandBurst:    20,
		MaxMessageBytes: 4096,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		PingInterval:    30 * time.Second,
		SendBuffer:      256,
	}
}

// Server fans engine changes out to websocket sessions and applies their
// commands to the engine.
type Server struct {
	ctrl     Controller
	config   Config
	logger   log.Log
	upgrader websocket.Upgrader
	buffers  *generic.Pool[*bytes.Buffer]

	mu       sync.RWMutex
	sessions map[string]*session
	subs     []bus.Subscription
	closed   atomic.Bool
}

func New(ctrl Controller, config Config, logger log.Log) (*Server, error) {
	defaults := DefaultConfig()
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}

	s := &Server{
		ctrl:   ctrl,
		config: config,
		logger: logger.With(log.String("component", "server")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		buffers: generic.NewPool(
			func() *bytes.Buffer { return new(bytes.Buffer) },
			func(b *bytes.Buffer) { b.Reset() },
		),
		sessions: make(map[string]*session),
	}

	stateSub, err := ctrl.Subscribe(func(snap engine.Snapshot) {
		s.broadcast(newStateMessage(snap))
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to state changes: %w", err)
	}
	fieldSub, err := ctrl.SubscribeField(func(change engine.FieldChange) {
		s.broadcast(newFieldMessage(change))
	})
	if err != nil {
		_ = stateSub.Cancel()
		return nil, fmt.Errorf("subscribe to field changes: %w", err)
	}
	s.subs = []bus.Subscription{stateSub, fieldSub}

	s.logger.Info("Server created",
		log.String("listen_addr", config.Addr),
		log.Float64("command_rate", config.CommandRate),
		log.Int("command_burst", config.CommandBurst))
	return s, nil
}

// Handler routes /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe listens on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully and closes every session.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.closed.Load() {
		_ = ln.Close()
		return ErrServerClosed
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("Server listening", log.String("addr", ln.Addr().String()))

	err := concurrent.Go(ctx,
		func(context.Context) error {
			if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		func(ctx context.Context) error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
			defer cancel()
			err := httpServer.Shutdown(shutdownCtx)
			s.Close()
			return err
		},
	)
	s.logger.Info("Server stopped")
	return err
}

// Close disconnects every session and detaches from the engine. Further
// upgrades are refused.
func (s *Server) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	for _, sub := range s.subs {
		_ = sub.Cancel()
	}

	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
		<-sess.done
	}
}

// Sessions is the number of connected clients.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status":"healthy","connections":%d}`, s.Sessions())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return
	}

	sess := newSession(s, conn)
	total, ok := s.register(sess)
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ErrServerClosed.Error()),
			time.Now().Add(s.config.WriteTimeout))
		_ = conn.Close()
		return
	}

	s.logger.Info("Client connected",
		log.String("session_id", sess.id),
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int("total_clients", total))

	// Greeting goes first so the client can render before the first change.
	sess.enqueue(s.encode(newStateMessage(s.ctrl.Snapshot())))
	if grid, ok := s.ctrl.Field(); ok {
		sess.enqueue(s.encode(newFieldMessage(engine.FieldChange{Field: grid, Fingerprint: s.ctrl.Fingerprint()})))
	}

	sess.run()

	total = s.unregister(sess)
	s.logger.Info("Client disconnected",
		log.String("session_id", sess.id),
		log.Int("total_clients", total))
}

// register adds sess unless Close has started. Close flips the flag before
// taking s.mu, so a session registered here is always in its snapshot.
func (s *Server) register(sess *session) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return len(s.sessions), false
	}
	s.sessions[sess.id] = sess
	return len(s.sessions), true
}

func (s *Server) unregister(sess *session) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.id)
	return len(s.sessions)
}

// dispatch applies one command to the controller.
func (s *Server) dispatch(cmd Command) error {
	switch cmd.Action {
	case ActionSetTarget:
		s.ctrl.SetTarget(physics.Vec2(cmd.X, cmd.Y))
	case ActionObstacleMode:
		s.ctrl.SetObstacleMode(cmd.Enabled)
	case ActionReset:
		s.ctrl.Reset()
	case ActionMovement:
		return s.ctrl.ChangeMovement(cmd.Name)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
	return nil
}

func (s *Server) broadcast(msg any) {
	data := s.encode(msg)
	if data == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.enqueue(data)
	}
}

// encode marshals msg once for all recipients.
func (s *Server) encode(msg any) []byte {
	buf := s.buffers.Get()
	defer s.buffers.Put(buf)
	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		s.logger.Error("Failed to encode message", log.Error(err))
		return nil
	}
	return bytes.Clone(bytes.TrimRight(buf.Bytes(), "\n"))
}
