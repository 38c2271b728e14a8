package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/infrastructure/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 45 * time.Second
	sendBufferSize = 16
)

// event is the wire frame pushed to subscribers for every appended message.
type event struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id"`
	Message        support.Message `json:"message"`
}

// Hub fans out appended messages to websocket subscribers grouped by
// conversation. Delivery is best effort; a subscriber that cannot keep up
// is disconnected rather than blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
	log  zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
		log:  log.With().Str("component", "realtime").Logger(),
	}
}

// Publish implements support.Publisher.
func (h *Hub) Publish(conversationPublicID string, msg support.Message) {
	payload, err := json.Marshal(event{
		Type:           "message",
		ConversationID: conversationPublicID,
		Message:        msg,
	})
	if err != nil {
		h.log.Error().Err(err).Str("conversation_id", conversationPublicID).Msg("marshal realtime event")
		return
	}

	// Sends are non-blocking, so holding the lock here serializes against
	// remove and keeps the send channel from closing mid-publish.
	h.mu.Lock()
	for sub := range h.subs[conversationPublicID] {
		select {
		case sub.send <- payload:
		default:
			h.log.Warn().Str("conversation_id", conversationPublicID).Msg("slow realtime subscriber dropped")
			h.dropLocked(sub)
		}
	}
	h.mu.Unlock()
}

// Subscribe attaches an upgraded websocket connection to a conversation and
// services it until the peer disconnects. It blocks for the lifetime of the
// connection.
func (h *Hub) Subscribe(conversationPublicID string, conn *websocket.Conn) {
	sub := &subscriber{
		conversationID: conversationPublicID,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	if h.subs[conversationPublicID] == nil {
		h.subs[conversationPublicID] = make(map[*subscriber]struct{})
	}
	h.subs[conversationPublicID][sub] = struct{}{}
	h.mu.Unlock()
	metrics.RealtimeSubscribers.Inc()

	h.log.Debug().Str("conversation_id", conversationPublicID).Msg("realtime subscriber attached")

	go sub.readPump(h)
	sub.writePump()
	h.remove(sub)
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	h.dropLocked(sub)
	h.mu.Unlock()
}

func (h *Hub) dropLocked(sub *subscriber) {
	group, ok := h.subs[sub.conversationID]
	if !ok {
		return
	}
	if _, present := group[sub]; present {
		delete(group, sub)
		metrics.RealtimeSubscribers.Dec()
		sub.close()
	}
	if len(group) == 0 {
		delete(h.subs, sub.conversationID)
	}
}

type subscriber struct {
	conversationID string
	conn           *websocket.Conn
	send           chan []byte
	closeOnce      sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// readPump drains inbound frames so pong handlers run and the connection
// close is observed. Clients do not send application data over this socket.
func (s *subscriber) readPump(h *Hub) {
	defer h.remove(s)

	s.conn.SetReadLimit(1024)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
