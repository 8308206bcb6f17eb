package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/oshokin/sos-beacon/internal/domain/alert"
	"github.com/oshokin/sos-beacon/internal/logger"
)

const (
	// pingInterval keeps idle connections alive.
	pingInterval = 30 * time.Second
	// pongWait is how long a silent client is tolerated.
	pongWait = 60 * time.Second
	// writeWait bounds every frame write.
	writeWait = 10 * time.Second
	// readLimit caps a client frame.
	readLimit = 4 * 1024
	// replyBuffer is the number of queued error replies per client.
	replyBuffer = 8
	// commandInterval and commandBurst throttle client commands.
	commandInterval = 250 * time.Millisecond
	commandBurst    = 4
	// shutdownTimeout bounds the HTTP server shutdown.
	shutdownTimeout = 5 * time.Second
	// readHeaderTimeout bounds request header reads.
	readHeaderTimeout = 5 * time.Second
	// webUsername is the actor name of clients that do not identify themselves.
	webUsername = "web"
)

// Service is the part of the controller the bridge drives.
type Service interface {
	Snapshot() *alert.Snapshot
	Toggle(ctx context.Context, actor *alert.Actor) (*alert.Snapshot, error)
	SetDesired(ctx context.Context, actor *alert.Actor, active bool) (*alert.Snapshot, error)
	Subscribe() (<-chan *alert.Snapshot, func())
}

// Bridge serves the websocket and state endpoints.
type Bridge struct {
	// service drives the alert.
	service Service
	// upgrader converts HTTP connections to websockets.
	upgrader websocket.Upgrader

	// mu protects the fields below.
	mu sync.Mutex
	// clients are the connected sockets.
	clients map[*client]struct{}
	// stopped is set by Close.
	stopped bool
}

// NewBridge creates a bridge for service.
func NewBridge(service Service) *Bridge {
	return &Bridge{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The bridge listens on loopback for the local web UI.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP routes.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", b.handleWebSocket)
	mux.HandleFunc("GET /state", b.handleState)

	return mux
}

// Serve accepts connections on listener until ctx ends, then shuts down.
func (b *Bridge) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Serve(listener)
	}()

	logger.InfoKV(ctx, "Websocket bridge listening", "address", listener.Addr().String())

	select {
	case err := <-errCh:
		b.Close()

		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve bridge: %w", err)
	case <-ctx.Done():
	}

	b.Close()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown bridge: %w", err)
	}

	return nil
}

// Close disconnects every client and rejects new ones. It is idempotent.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}

	b.stopped = true

	for c := range b.clients {
		c.closeSend()
	}

	clear(b.clients)
}

// ClientCount returns the number of connected clients.
func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.clients)
}

// handleState writes the current snapshot.
func (b *Bridge) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(NewStatePayload(b.service.Snapshot())); err != nil {
		logger.WarnKV(r.Context(), "Failed to write state", "error", err)
	}
}

// handleWebSocket upgrades the connection and starts its pumps.
func (b *Bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	stopped := b.stopped
	b.mu.Unlock()

	if stopped {
		http.Error(w, "bridge is shutting down", http.StatusServiceUnavailable)

		return
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnKV(r.Context(), "Websocket upgrade failed", "error", err)

		return
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	ctx := logger.WithFields(context.WithoutCancel(r.Context()), "remote", r.RemoteAddr)
	feed, unsubscribe := b.service.Subscribe()

	c := &client{
		bridge:      b,
		conn:        conn,
		ctx:         ctx,
		feed:        feed,
		unsubscribe: unsubscribe,
		replies:     make(chan Message, replyBuffer),
		done:        make(chan struct{}),
		limiter:     rate.NewLimiter(rate.Every(commandInterval), commandBurst),
		actor:       &alert.Actor{Hostname: host, Username: webUsername},
	}

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		unsubscribe()
		_ = conn.Close()

		return
	}

	b.clients[c] = struct{}{}
	b.mu.Unlock()

	logger.InfoKV(ctx, "Bridge client connected", "clients", b.ClientCount())

	go c.writePump()
	go c.readPump()
}

// remove forgets a client.
func (b *Bridge) remove(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.clients, c)
}
