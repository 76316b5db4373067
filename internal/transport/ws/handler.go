package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"ssbprep/internal/service"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192 // a 60s TAT story fits comfortably
)

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	authSvc  *service.AuthService
	sessions *service.SessionService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler creates a new WebSocket handler. allowedOrigin "*" accepts any origin.
func NewHandler(hub *Hub, authSvc *service.AuthService, sessions *service.SessionService, allowedOrigin string, log *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		authSvc:  authSvc,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
		log: log,
	}
}

// SessionWS handles GET /v1/ws/sessions/{id}
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var userID string
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.authSvc.ValidateUserToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID = claims.UserID
	}

	if _, err := h.sessions.Get(r.Context(), userID, id); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		SessionID: id,
		UserID:    userID,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}
	// The first frame is read on the hub goroutine so no transition can slip
	// between the snapshot and the registration
	conn.Initial = func() []byte { return h.stateFrame(userID, id) }

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) stateFrame(userID, id string) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st, err := h.sessions.Get(ctx, userID, id)
	if err != nil {
		return nil
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return nil
	}
	frame, _ := json.Marshal(&Message{Type: MsgSessionState, Payload: payload})
	return frame
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("WebSocket read error", zap.String("session", conn.SessionID), zap.Error(err))
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.hub.sendTo(conn, MsgError, map[string]string{"error": "invalid message"})
			continue
		}
		if err := h.apply(conn, msg); err != nil {
			h.hub.sendTo(conn, MsgError, map[string]string{"error": err.Error()})
		}
	}
}

var errUnknownMessage = errors.New("unknown message type")

// apply forwards a client action to the session; the resulting state
// reaches every client through the session's broadcast
func (h *Handler) apply(conn *Connection, msg ClientMessage) error {
	switch msg.Type {
	case MsgDraft:
		return h.sessions.SaveDraft(conn.UserID, conn.SessionID, msg.Text)
	case MsgSubmit:
		if msg.Text != "" {
			if err := h.sessions.SaveDraft(conn.UserID, conn.SessionID, msg.Text); err != nil {
				return err
			}
		}
		return h.sessions.Submit(conn.UserID, conn.SessionID)
	case MsgSkip:
		return h.sessions.Skip(conn.UserID, conn.SessionID)
	}
	return errUnknownMessage
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
