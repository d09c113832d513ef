package app

import (
	"encoding/json"
	"sync"

	"direct_chat_service/internal/chat/domain"
	"direct_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// SessionConn is the slice of the websocket connection the hub writes to.
// Handlers are tested against stubs of this interface without a live
// network layer.
type SessionConn interface {
	WriteMessage(messageType int, data []byte) error
}

// Session one authenticated websocket connection
type Session struct {
	ID       string
	UserID   string
	Username string

	conn SessionConn
	mu   sync.Mutex
}

// NewSession create a session around an authenticated connection
func NewSession(id, userID, username string, conn SessionConn) *Session {
	return &Session{
		ID:       id,
		UserID:   userID,
		Username: username,
		conn:     conn,
	}
}

// Send writes a response frame to this session. Fire-and-forget: a write
// failure is logged, never propagated.
func (s *Session) Send(resp domain.WSResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		logger.Log.Errorf("marshal ws response error:", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err, zap.String("session", s.ID))
	}
}

// Hub in-process connection registry: room name to the set of sessions
// currently joined. Single dispatcher instance; multi-node fan-out would
// need a shared pub/sub backbone and is out of scope.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Session]struct{}
	joined   map[*Session]map[string]struct{}
	sessions map[string]*Session
}

// NewHub create an empty Hub
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Session]struct{}),
		joined:   make(map[*Session]map[string]struct{}),
		sessions: make(map[string]*Session),
	}
}

// Register adds a session to the registry
func (h *Hub) Register(sess *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[sess.ID] = sess
	if h.joined[sess] == nil {
		h.joined[sess] = make(map[string]struct{})
	}
}

// Unregister removes a session and all its room memberships
func (h *Hub) Unregister(sess *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.joined[sess] {
		delete(h.rooms[room], sess)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.joined, sess)
	delete(h.sessions, sess.ID)
}

// Join subscribes the session to a room. Idempotent: joining twice is a
// no-op.
func (h *Hub) Join(sess *Session, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Session]struct{})
	}
	h.rooms[room][sess] = struct{}{}
	if h.joined[sess] == nil {
		h.joined[sess] = make(map[string]struct{})
	}
	h.joined[sess][room] = struct{}{}
}

// JoinPair derives the sorted conversation room for two usernames and
// joins it. Returns the room name.
func (h *Hub) JoinPair(sess *Session, userA, userB string) string {
	room := domain.PairRoomName(userA, userB)
	h.Join(sess, room)
	return room
}

// Leave unsubscribes the session from a room. Leaving an unjoined room is
// a no-op, never an error.
func (h *Hub) Leave(sess *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[room], sess)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
	delete(h.joined[sess], room)
}

// InRoom reports whether the session currently holds the room membership
func (h *Hub) InRoom(sess *Session, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.joined[sess][room]
	return ok
}

// SessionByID looks up a session by its identifier, nil when absent
func (h *Hub) SessionByID(id string) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

// PairRoomsOfUser collects the conversation rooms any session of the user
// is currently joined to. Personal rooms are excluded.
func (h *Hub) PairRoomsOfUser(userID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{})
	var rooms []string
	for sess, joined := range h.joined {
		if sess.UserID != userID {
			continue
		}
		for room := range joined {
			if !domain.IsPairRoom(room) {
				continue
			}
			if _, ok := seen[room]; ok {
				continue
			}
			seen[room] = struct{}{}
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// EmitRoom fans an event out to every session in the room. No delivery
// guarantee beyond "delivered to currently-connected sessions".
func (h *Hub) EmitRoom(room string, resp domain.WSResponse) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[room]))
	for sess := range h.rooms[room] {
		members = append(members, sess)
	}
	h.mu.RUnlock()

	for _, sess := range members {
		sess.Send(resp)
	}
}
