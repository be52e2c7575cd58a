package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/session"
)

// Websocket message types.
const (
	WSJoinSession        = "join_session"
	WSLeaveSession       = "leave_session"
	WSToggleUserControl  = "toggle_user_control"
	WSNewMessage         = "new_message"
	WSUserControlChanged = "user_control_changed"
	WSError              = "error"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 64 * 1024
)

// WSMessage is the frame exchanged over /api/ws in both directions.
type WSMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(msg WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(msg)
}

// Hub keeps websocket clients in rooms keyed by session id.
type Hub struct {
	store    *session.Store
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu        sync.RWMutex
	rooms     map[string]map[*wsClient]struct{}
	clients   map[*wsClient]map[string]struct{}
	following bool
	unsub     func()
}

// NewHub creates a hub. store validates joins and applies toggles.
func NewHub(store *session.Store) *Hub {
	return &Hub{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:     logging.Component("ws"),
		rooms:   make(map[string]map[*wsClient]struct{}),
		clients: make(map[*wsClient]map[string]struct{}),
	}
}

// Follow forwards user control changes published on bus to the rooms.
func (h *Hub) Follow(bus *event.Bus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.following {
		return
	}
	h.following = true
	h.unsub = bus.Subscribe(event.UserControlChanged, func(e event.Event) {
		if d, ok := e.Data.(event.UserControlData); ok {
			h.Broadcast(d.SessionID, WSUserControlChanged, d)
		}
	})
}

// ServeHTTP upgrades the connection and serves its frames until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(wsMaxMessageSize)

	c := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[c] = make(map[string]struct{})
	h.mu.Unlock()

	defer func() {
		h.drop(c)
		_ = conn.Close()
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		h.handle(c, msg)
	}
}

func (h *Hub) handle(c *wsClient, msg WSMessage) {
	switch msg.Type {
	case WSJoinSession:
		if _, ok := h.store.Get(msg.SessionID); !ok {
			h.reply(c, msg.SessionID, "Session not found")
			return
		}
		h.join(c, msg.SessionID)
	case WSLeaveSession:
		h.leave(c, msg.SessionID)
	case WSToggleUserControl:
		if msg.Enabled == nil {
			h.reply(c, msg.SessionID, "enabled is required")
			return
		}
		if !h.store.SetUserControl(msg.SessionID, *msg.Enabled) {
			h.reply(c, msg.SessionID, "Session not found")
			return
		}
		h.mu.RLock()
		following := h.following
		h.mu.RUnlock()
		if !following {
			h.Broadcast(msg.SessionID, WSUserControlChanged,
				event.UserControlData{SessionID: msg.SessionID, Enabled: *msg.Enabled})
		}
	default:
		h.reply(c, msg.SessionID, "Unknown message type: "+msg.Type)
	}
}

func (h *Hub) reply(c *wsClient, sessionID, message string) {
	if err := c.send(WSMessage{Type: WSError, SessionID: sessionID, Payload: message}); err != nil {
		h.log.Debug().Err(err).Msg("websocket send failed")
	}
}

func (h *Hub) join(c *wsClient, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	joined, ok := h.clients[c]
	if !ok {
		return
	}
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*wsClient]struct{})
		h.rooms[sessionID] = room
	}
	room[c] = struct{}{}
	joined[sessionID] = struct{}{}
}

func (h *Hub) leave(c *wsClient, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, sessionID)
}

func (h *Hub) leaveLocked(c *wsClient, sessionID string) {
	if room, ok := h.rooms[sessionID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
	if joined, ok := h.clients[c]; ok {
		delete(joined, sessionID)
	}
}

func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID := range h.clients[c] {
		h.leaveLocked(c, sessionID)
	}
	delete(h.clients, c)
}

// Broadcast sends a frame to every client in the session's room.
func (h *Hub) Broadcast(sessionID, msgType string, payload any) {
	h.mu.RLock()
	room := make([]*wsClient, 0, len(h.rooms[sessionID]))
	for c := range h.rooms[sessionID] {
		room = append(room, c)
	}
	h.mu.RUnlock()

	msg := WSMessage{Type: msgType, SessionID: sessionID, Payload: payload}
	for _, c := range room {
		if err := c.send(msg); err != nil {
			h.log.Debug().Err(err).Str("sessionID", sessionID).Msg("websocket send failed")
		}
	}
}

// Members returns the number of clients in the session's room.
func (h *Hub) Members(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// Close stops following the bus and closes every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.unsub != nil {
		h.unsub()
		h.unsub = nil
	}
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		_ = c.conn.Close()
	}
}
