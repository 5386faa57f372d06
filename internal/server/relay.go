// Package server exposes the simulation's event stream to spectators
// over websockets. The relay is read-only: clients receive JSON frames
// for collision and lifecycle events, nothing they send is interpreted.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voidforge/voidforge/internal/core/events/bus"
	"github.com/voidforge/voidforge/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const writeTimeout = 5 * time.Second

// Frame is the JSON envelope sent to spectators.
type Frame struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Relay subscribes to simulation events and fans them out to connected
// websocket clients. Slow or broken clients are dropped, never waited on.
type Relay struct {
	logger log.Log
	events bus.EventBus
	topics []string

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	subs    []bus.Subscription
	httpSrv *http.Server
	running bool
}

// NewRelay builds a relay forwarding the given event types. With no
// types it forwards the collision and entity lifecycle events.
func NewRelay(events bus.EventBus, logger log.Log, eventTypes ...string) *Relay {
	if len(eventTypes) == 0 {
		eventTypes = []string{
			bus.TypeCollision,
			bus.TypeTriggerEnter,
			bus.TypePhysicalCollision,
			bus.TypeEntitySpawned,
			bus.TypeEntityDestroyed,
		}
	}
	return &Relay{
		logger:  logger.With(log.String("module", "relay")),
		events:  events,
		topics:  eventTypes,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Start subscribes to the bus and serves websocket upgrades on addr
// until ctx is cancelled or Stop is called. It blocks until the HTTP
// server exits.
func (r *Relay) Start(ctx context.Context, addr string) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.running = true

	for _, typ := range r.topics {
		sub, err := r.events.Subscribe(typ, r.forward)
		if err != nil {
			// Roll back the partial registration so the relay can be
			// started again.
			r.mu.Unlock()
			r.teardown()
			return err
		}
		r.subs = append(r.subs, sub)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", r.handleWebSocket)
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	r.httpSrv = srv
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	r.logger.Info("spectator relay listening", log.String("addr", addr))
	err := srv.ListenAndServe()

	r.teardown()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop closes the listener and all client connections.
func (r *Relay) Stop(ctx context.Context) error {
	r.mu.Lock()
	srv := r.httpSrv
	running := r.running
	r.mu.Unlock()
	if !running || srv == nil {
		return ErrNotRunning
	}
	return srv.Shutdown(ctx)
}

// Clients reports the number of connected spectators.
func (r *Relay) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *Relay) teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		_ = sub.Cancel()
	}
	r.subs = nil
	for conn := range r.clients {
		_ = conn.Close()
	}
	r.clients = make(map[*websocket.Conn]bool)
	r.running = false
	r.httpSrv = nil
}

func (r *Relay) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	r.mu.Lock()
	r.clients[conn] = true
	r.mu.Unlock()

	r.logger.Info("spectator connected",
		log.String("remote", conn.RemoteAddr().String()))

	// Drain the read side so pings and close frames are processed.
	go func() {
		defer r.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (r *Relay) drop(conn *websocket.Conn) {
	r.mu.Lock()
	delete(r.clients, conn)
	r.mu.Unlock()
	_ = conn.Close()
}

// forward is the bus handler: it serializes the event once and writes
// it to every connected client.
func (r *Relay) forward(e bus.Event) error {
	frame, err := json.Marshal(Frame{
		Type:      e.Type,
		Source:    e.Source,
		Timestamp: e.Timestamp,
		Payload:   e.Payload,
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(r.clients))
	for conn := range r.clients {
		conns = append(conns, conn)
	}
	r.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			r.logger.Warn("dropping spectator",
				log.String("remote", conn.RemoteAddr().String()),
				log.Error(err))
			r.drop(conn)
		}
	}
	return nil
}
