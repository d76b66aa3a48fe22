package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	readLimit  = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is what travels on the websocket in either direction.
type Message struct {
	Type    string          `json:"type"`
	Session string          `json:"session,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Message types.
const (
	MsgSession = "session_created"
	MsgState   = "state"
	MsgPointer = "pointer"
	MsgCommand = "command"
	MsgFilter  = "filter"
	MsgSelect  = "select"
	MsgError   = "error"
)

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub fans state frames out to websocket subscribers. A subscriber that
// cannot keep up loses frames rather than stalling the loop.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]*subscriber
	log     *slog.Logger
	metrics *Metrics
}

// NewHub returns an empty hub.
func NewHub(log *slog.Logger, m *Metrics) *Hub {
	return &Hub{subs: map[string]*subscriber{}, log: log, metrics: m}
}

// Len reports the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) add(conn *websocket.Conn) *subscriber {
	s := &subscriber{id: uuid.New().String(), conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()
	h.metrics.subscribers.Inc()
	h.log.Debug("subscriber joined", "session", s.id)
	return s
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	h.mu.Unlock()
	if !ok {
		return
	}
	close(s.done)
	h.metrics.subscribers.Dec()
	h.log.Debug("subscriber left", "session", s.id)
}

// Broadcast queues msg for every subscriber without blocking.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		select {
		case s.send <- msg:
		default:
			h.metrics.dropped.Inc()
		}
	}
	h.metrics.frames.Inc()
}

// Close hangs up on everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		h.remove(s)
	}
}

// writePump owns all writes to the connection.
func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply queues a message for this subscriber only.
func (s *subscriber) reply(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	select {
	case s.send <- data:
	default:
	}
}
