package websocket

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	ws "github.com/gorilla/websocket"

	"github.com/tacgrid/reactions/pkg/streaming"
)

// peer is one relay client. Writes are serialised by mu.
type peer struct {
	mu   sync.Mutex
	conn *ws.Conn
}

func (p *peer) write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteMessage(ws.TextMessage, data)
}

// Hub relays every message received on a topic to all other clients of that topic.
type Hub struct {
	mu       sync.RWMutex
	topics   map[string]map[*peer]struct{}
	upgrader ws.Upgrader
	logger   *slog.Logger
}

// NewHub creates an empty relay.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		topics:   make(map[string]map[*peer]struct{}),
		upgrader: ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		logger:   logger,
	}
}

// Router exposes the relay at /ws/{topic}.
func (h *Hub) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws/{topic}", h.ServeWS)
	return r
}

// ServeWS upgrades the request and relays its messages until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic == "" {
		http.Error(w, "missing topic", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Relay upgrade failed", "error", err)
		return
	}
	p := &peer{conn: conn}
	h.join(topic, p)
	defer func() {
		h.leave(topic, p)
		_ = conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			h.logger.Debug("Relay client disconnected", "topic", topic, "error", err)
			return
		}
		if err := streaming.Validate(message); err != nil {
			h.logger.Warn("Relay dropping invalid message", "topic", topic, "error", err)
			continue
		}
		h.relay(topic, p, message)
	}
}

// Peers returns the number of clients connected to topic.
func (h *Hub) Peers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) join(topic string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*peer]struct{})
	}
	h.topics[topic][p] = struct{}{}
}

func (h *Hub) leave(topic string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.topics[topic], p)
	if len(h.topics[topic]) == 0 {
		delete(h.topics, topic)
	}
}

func (h *Hub) relay(topic string, from *peer, data []byte) {
	h.mu.RLock()
	targets := make([]*peer, 0, len(h.topics[topic]))
	for p := range h.topics[topic] {
		if p != from {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range targets {
		if err := p.write(data); err != nil {
			h.logger.Warn("Relay write failed", "topic", topic, "error", err)
			_ = p.conn.Close()
		}
	}
}
