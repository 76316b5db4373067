package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Server message types
const (
	MsgSessionState MessageType = "session_state"
	MsgError        MessageType = "error"
)

// Client message types
const (
	MsgDraft  MessageType = "draft"
	MsgSubmit MessageType = "submit"
	MsgSkip   MessageType = "skip"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClientMessage is what a candidate's client sends
type ClientMessage struct {
	Type MessageType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// Hub manages WebSocket connections for sessions
type Hub struct {
	// Session -> connections; a session may be watched from several tabs
	conns map[string]map[*Connection]struct{}

	mu sync.RWMutex

	// Channels for coordination
	register     chan *Connection
	unregister   chan *Connection
	broadcast    chan *BroadcastMessage
	direct       chan *directMessage
	closeSession chan string
	done         chan struct{}

	log *zap.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	UserID    string // Empty for anonymous sessions
	Send      chan []byte
	Hub       *Hub

	// Initial, when set, is called by the hub right after registration and
	// its frame is queued before any later broadcast for the session
	Initial func() []byte
}

// BroadcastMessage is a message to every connection watching a session
type BroadcastMessage struct {
	SessionID string
	Message   *Message
}

type directMessage struct {
	conn *Connection
	data []byte
}

// NewHub creates a new WebSocket hub. Call Run to start it.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns:        make(map[string]map[*Connection]struct{}),
		register:     make(chan *Connection),
		unregister:   make(chan *Connection),
		broadcast:    make(chan *BroadcastMessage, 256),
		direct:       make(chan *directMessage, 64),
		closeSession: make(chan string, 16),
		done:         make(chan struct{}),
		log:          log,
	}
}

// Run serves hub traffic until ctx is cancelled, then closes every connection
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, conns := range h.conns {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.conns, id)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			if conn.Initial != nil {
				if data := conn.Initial(); data != nil {
					select {
					case conn.Send <- data:
					default:
					}
				}
			}
			h.log.Debug("client connected", zap.String("session", conn.SessionID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.SessionID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.conns, conn.SessionID)
					}
					h.log.Debug("client disconnected", zap.String("session", conn.SessionID))
				}
			}
			h.mu.Unlock()

		case id := <-h.closeSession:
			h.mu.Lock()
			for conn := range h.conns[id] {
				close(conn.Send)
			}
			delete(h.conns, id)
			h.mu.Unlock()

		case msg := <-h.direct:
			h.mu.RLock()
			if _, ok := h.conns[msg.conn.SessionID][msg.conn]; ok {
				select {
				case msg.conn.Send <- msg.data:
				default:
				}
			}
			h.mu.RUnlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.conns[msg.SessionID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Connections returns how many clients watch a session
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}

// BroadcastToSession sends a message to every client of a session (implements service.Broadcaster).
// It never blocks the caller; messages are dropped when the hub is saturated.
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode broadcast", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}:
	default:
		h.log.Warn("broadcast dropped", zap.String("session", sessionID))
	}
}

// CloseSession disconnects every client of a session (implements service.Broadcaster)
func (h *Hub) CloseSession(sessionID string) {
	select {
	case h.closeSession <- sessionID:
	case <-h.done:
	}
}

// sendTo queues a message for a single connection
func (h *Hub) sendTo(conn *Connection, msgType MessageType, payload interface{}) {
	data, _ := json.Marshal(payload)
	env, _ := json.Marshal(&Message{Type: msgType, Payload: data})
	select {
	case h.direct <- &directMessage{conn: conn, data: env}:
	case <-h.done:
	}
}
