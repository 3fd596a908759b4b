// Package live exposes a single attrs.Model over HTTP and WebSocket.
//
// The HTTP surface serves the model's current state and accepts batch
// writes routed through the observable write-merge. The WebSocket surface
// streams every change event to connected clients as it fires, starting
// with a full-state frame, and accepts writes from clients over the same
// connection.
package live

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/attrs/pkg/attrs"
	"github.com/vango-dev/attrs/pkg/emitter"
)

const defaultSendBuffer = 64

// Frame is a WebSocket message sent to clients.
// Type is "state" for the initial full snapshot and "change" for a single
// property update.
type Frame struct {
	Type       string         `json:"type"`
	Name       string         `json:"name,omitempty"`
	Value      any            `json:"value,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Server serves one model. It subscribes to the model's generic change
// event on construction; Close releases the subscription and disconnects
// every client.
type Server struct {
	model      *attrs.Model
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	sendBuffer int
	listenerID uint64

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Frame
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCheckOrigin sets the WebSocket origin check. Defaults to accepting
// same-origin requests per gorilla/websocket's standard policy.
func WithCheckOrigin(check func(*http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}

// WithSendBuffer sets the per-client outbound queue length. A client that
// falls behind by more than this many frames is disconnected.
func WithSendBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.sendBuffer = n
		}
	}
}

// New creates a live server for the model and wires it to the model's
// change events.
func New(m *attrs.Model, opts ...Option) *Server {
	s := &Server{
		model:      m,
		logger:     slog.Default().With("component", "live"),
		sendBuffer: defaultSendBuffer,
		listenerID: emitter.NextID(),
		clients:    make(map[string]*client),
	}
	for _, opt := range opts {
		opt(s)
	}

	m.Events().On(emitter.Change, s.listenerID, s.onChange)
	return s
}

// Close unsubscribes from the model and disconnects all clients.
func (s *Server) Close() {
	s.model.Events().Off(emitter.Change, s.listenerID)

	s.mu.Lock()
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[string]*client)
	s.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

// Router returns the HTTP routes for this server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/model", s.handleState)
	r.Put("/model", s.handleWrite)
	r.Delete("/model/{name}", s.handleUnset)
	r.Get("/live", s.handleLive)
	return r
}

// onChange fans one model change out to every connected client.
// Change dispatch is synchronous, so this runs inside the triggering write;
// it must only enqueue, never block.
func (s *Server) onChange(args ...any) {
	if len(args) < 3 {
		return
	}
	name, _ := args[1].(string)
	frame := Frame{Type: "change", Name: name, Value: args[2]}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		select {
		case c.send <- frame:
		default:
			s.logger.Warn("dropping change frame for slow client", "client", c.id, "property", name)
		}
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.model.Attributes())
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	if err := s.model.SetAll(values); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, attrs.ErrUnsettable) || errors.Is(err, attrs.ErrRecursiveSetter) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, s.model.Attributes())
}

func (s *Server) handleUnset(w http.ResponseWriter, r *http.Request) {
	s.model.Unset(chi.URLParam(r, "name"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Frame, s.sendBuffer),
	}

	// Full state is queued before the client is registered for change
	// fan-out, so the state frame always precedes any change frame.
	c.send <- Frame{Type: "state", Attributes: s.model.Attributes()}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c.id] = c
	s.mu.Unlock()

	s.logger.Info("client connected", "client", c.id)

	go s.writeLoop(c)
	s.readLoop(c)
}

// writeLoop drains the client's outbound queue. It exits when the queue is
// closed by unregister or Close.
func (s *Server) writeLoop(c *client) {
	for frame := range c.send {
		if err := c.conn.WriteJSON(frame); err != nil {
			s.logger.Debug("write failed", "client", c.id, "error", err)
			break
		}
	}
	c.conn.Close()
}

// readLoop applies inbound client writes to the model until the connection
// drops.
func (s *Server) readLoop(c *client) {
	defer s.unregister(c)

	for {
		var values map[string]any
		if err := c.conn.ReadJSON(&values); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("read failed", "client", c.id, "error", err)
			}
			return
		}
		if err := s.model.SetAll(values); err != nil {
			s.logger.Warn("client write rejected", "client", c.id, "error", err)
		}
	}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c.id]
	delete(s.clients, c.id)
	s.mu.Unlock()

	if ok {
		close(c.send)
		s.logger.Info("client disconnected", "client", c.id)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}
