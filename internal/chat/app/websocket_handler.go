package app

import (
	"context"
	"encoding/json"
	"time"

	"direct_chat_service/internal/chat/domain"
	"direct_chat_service/pkg/logger"
	"direct_chat_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatWebsocketHandler owns the connection lifecycle: authenticate once at
// connect time, register with the hub, track presence transitions, and
// dispatch inbound actions.
type ChatWebsocketHandler struct {
	hub      *Hub
	presence *PresenceTracker
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(hub *Hub, presence *PresenceTracker) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		hub:      hub,
		presence: presence,
	}
}

// HandleConnection is the entry point of an upgraded websocket connection
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	userID, _ := conn.Locals(middlewares.TokenUserID).(string)
	username, _ := conn.Locals(middlewares.TokenUsername).(string)
	if userID == "" || username == "" {
		// the JWT middleware rejects before upgrade; this is a backstop
		logger.Log.Warn("websocket connection without identity, closing")
		conn.Close()
		return
	}

	sess := NewSession(uuid.New().String(), userID, username, conn)
	h.hub.Register(sess)
	// the personal room backs best-effort delivery independent of any
	// conversation room
	h.hub.Join(sess, username)

	logger.Log.Info("websocket connected",
		zap.String("userId", userID),
		zap.String("session", sess.ID))

	if cameOnline := h.presence.ConnectionOpened(ctx, userID); cameOnline {
		h.broadcastPresence(sess, true, nil)
	}

	ticker := time.NewTicker(10 * time.Minute)
	defer func() {
		ticker.Stop()

		// capture the pair rooms before the memberships disappear
		pairRooms := h.hub.PairRoomsOfUser(userID)
		h.hub.Unregister(sess)

		if wentOffline, at := h.presence.ConnectionClosed(ctx, userID); wentOffline {
			h.emitPresence(pairRooms, username, domain.PresenceUpdate{
				Username: username,
				IsOnline: false,
				LastSeen: &at,
			})
		}

		logger.Log.Info("websocket closed", zap.String("userId", userID), zap.String("session", sess.ID))
		conn.Close()
	}()

	conn.SetPongHandler(func(appData string) error {
		return nil
	})
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-ticker.C:
				sessPing(sess, conn)
			case <-done:
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketAction(ctx, sess, mt, message)
	}
}

func sessPing(sess *Session, conn *websocket.Conn) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
		logger.Log.Errorf("ping error:", err, zap.String("session", sess.ID))
	}
}

func (h *ChatWebsocketHandler) execWebsocketAction(ctx context.Context, sess *Session, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(ctx, sess, msg)
	default:
		sess.Send(domain.WSResponse{Action: "error", Error: "unknown message type"})
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, sess *Session, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("ws request unmarshal error:", err, zap.String("session", sess.ID))
		return
	}

	switch req.Action {
	case string(domain.Join):
		h.hub.Join(sess, req.Room)

	case string(domain.JoinRoom):
		h.hub.JoinPair(sess, req.User1, req.User2)

	case string(domain.LeaveRoom):
		h.hub.Leave(sess, req.Room)

	case string(domain.ChatMessage):
		h.relayChatMessage(sess, req)

	case string(domain.CallOffer), string(domain.CallAnswer), string(domain.IceCandidate):
		h.relaySignal(sess, req)

	default:
		sess.Send(domain.WSResponse{Action: req.Action, Error: "unknown action"})
	}
}

// relayChatMessage fans an inbound message event out to its conversation
// room, plus the receiver's personal room as a fallback for clients that
// have not joined the conversation room yet.
func (h *ChatWebsocketHandler) relayChatMessage(sess *Session, req domain.WSRequest) {
	payload := map[string]interface{}{
		"sender": sess.Username,
	}
	for k, v := range req.Data {
		payload[k] = v
	}
	if req.Content != "" {
		payload["content"] = req.Content
	}
	resp := domain.WSResponse{
		Action:  string(domain.ChatMessage),
		Success: true,
		Payload: payload,
	}

	if req.Receiver != "" {
		h.hub.EmitRoom(req.Receiver, resp)
	}

	if !h.hub.InRoom(sess, req.Room) {
		logger.Log.Warn("chat message to unjoined room dropped",
			zap.String("session", sess.ID),
			zap.String("room", req.Room))
		return
	}
	h.hub.EmitRoom(req.Room, resp)
}

// relaySignal passes a call-signaling event straight to a target session
// with the sender identity attached. No state is kept.
func (h *ChatWebsocketHandler) relaySignal(sess *Session, req domain.WSRequest) {
	target := h.hub.SessionByID(req.To)
	if target == nil {
		// the callee already disconnected, nothing to relay to
		return
	}

	payload := map[string]interface{}{
		"from":          sess.ID,
		"from_username": sess.Username,
	}
	for k, v := range req.Data {
		payload[k] = v
	}
	target.Send(domain.WSResponse{
		Action:  req.Action,
		Success: true,
		Payload: payload,
	})
}

// broadcastPresence notifies every pair room the subject is a member of.
// The personal room is excluded: the subject does not need to hear about
// itself.
func (h *ChatWebsocketHandler) broadcastPresence(sess *Session, isOnline bool, lastSeen *time.Time) {
	update := domain.PresenceUpdate{
		Username: sess.Username,
		IsOnline: isOnline,
		LastSeen: lastSeen,
	}
	h.emitPresence(h.hub.PairRoomsOfUser(sess.UserID), sess.Username, update)
}

func (h *ChatWebsocketHandler) emitPresence(rooms []string, username string, update domain.PresenceUpdate) {
	resp := domain.WSResponse{
		Action:  string(domain.PresenceUpdateAction),
		Success: true,
		Payload: map[string]interface{}{
			"username":  update.Username,
			"is_online": update.IsOnline,
		},
	}
	if update.LastSeen != nil {
		resp.Payload["last_seen"] = update.LastSeen.UnixMilli()
	}

	for _, room := range rooms {
		if room == username {
			continue
		}
		h.hub.EmitRoom(room, resp)
	}
}
