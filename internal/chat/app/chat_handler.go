package app

import (
	"time"

	"direct_chat_service/internal/chat/domain"
	errprocess "direct_chat_service/pkg/err"
	"direct_chat_service/pkg/logger"
	"direct_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ChatHTTPHandler request-style operations over the conversation usecase.
// Successful durable writes trigger best-effort real-time fan-out through
// the hub.
type ChatHTTPHandler struct {
	uc       *ConversationUseCase
	hub      *Hub
	presence *PresenceTracker
}

// NewChatHTTPHandler create ChatHTTPHandler
func NewChatHTTPHandler(uc *ConversationUseCase, hub *Hub, presence *PresenceTracker) *ChatHTTPHandler {
	return &ChatHTTPHandler{
		uc:       uc,
		hub:      hub,
		presence: presence,
	}
}

func callerIdentity(c *fiber.Ctx) (primitive.ObjectID, string, error) {
	userIDHex, _ := c.Locals(middlewares.TokenUserID).(string)
	username, _ := c.Locals(middlewares.TokenUsername).(string)
	userID, err := primitive.ObjectIDFromHex(userIDHex)
	if err != nil {
		return primitive.NilObjectID, "", errprocess.Unauthorized("invalid caller identity")
	}
	return userID, username, nil
}

func respondError(c *fiber.Ctx, err error) error {
	// client mistakes come back in the body; only infrastructure
	// failures are worth a server-side log line
	if errprocess.Is(err, errprocess.KindStorage) {
		logger.Log.Errorf("request failed:", err, zap.String("path", c.Path()))
	}
	return c.Status(errprocess.HTTPStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  string(errprocess.KindOf(err)),
	})
}

// ListRecent GET /chat?limit=20&beforeUpdatedAt=<RFC3339>
func (h *ChatHTTPHandler) ListRecent(c *fiber.Ctx) error {
	userID, _, err := callerIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	limit := int64(c.QueryInt("limit", DefaultPageSize))
	var before *time.Time
	if raw := c.Query("beforeUpdatedAt"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return respondError(c, errprocess.InvalidArgument("invalid beforeUpdatedAt cursor"))
		}
		before = &ts
	}

	recent, err := h.uc.ListRecent(c.Context(), userID, limit, before)
	if err != nil {
		return respondError(c, err)
	}

	var nextCursor interface{}
	if len(recent) > 0 {
		nextCursor = recent[len(recent)-1].UpdatedAt
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"conversations": recent,
		"next_cursor":   nextCursor,
	})
}

// GetHistory GET /chat/:username?limit=20&beforeMessageId=<messageId>
func (h *ChatHTTPHandler) GetHistory(c *fiber.Ctx) error {
	userID, _, err := callerIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	limit := int64(c.QueryInt("limit", DefaultPageSize))
	var before *primitive.ObjectID
	if raw := c.Query("beforeMessageId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return respondError(c, errprocess.InvalidArgument("invalid beforeMessageId cursor"))
		}
		before = &id
	}

	history, err := h.uc.GetHistory(c.Context(), userID, c.Params("username"), limit, before)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(history)
}

type sendRequest struct {
	Content string `json:"content"`
}

// Send POST /chat/:username {content}
func (h *ChatHTTPHandler) Send(c *fiber.Ctx) error {
	userID, username, err := callerIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	targetUsername := c.Params("username")

	var body sendRequest
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, errprocess.InvalidArgument("invalid request body"))
	}

	msg, err := h.uc.Send(c.Context(), userID, targetUsername, body.Content)
	if err != nil {
		return respondError(c, err)
	}

	resp := domain.WSResponse{
		Action:  string(domain.ChatMessage),
		Success: true,
		Payload: map[string]interface{}{
			"message": msg,
		},
	}
	// conversation room, then the receiver's personal room as fallback
	h.hub.EmitRoom(domain.PairRoomName(username, targetUsername), resp)
	h.hub.EmitRoom(targetUsername, resp)

	return c.Status(fiber.StatusOK).JSON(msg)
}

type markReadRequest struct {
	LastReadMessageID string `json:"last_read_message_id"`
}

// MarkRead POST /chat/:username/read {last_read_message_id?}
func (h *ChatHTTPHandler) MarkRead(c *fiber.Ctx) error {
	userID, username, err := callerIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	targetUsername := c.Params("username")

	var body markReadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return respondError(c, errprocess.InvalidArgument("invalid request body"))
		}
	}

	var lastReadID *primitive.ObjectID
	if body.LastReadMessageID != "" {
		id, err := primitive.ObjectIDFromHex(body.LastReadMessageID)
		if err != nil {
			return respondError(c, errprocess.InvalidArgument("invalid last_read_message_id"))
		}
		lastReadID = &id
	}

	result, err := h.uc.MarkRead(c.Context(), userID, targetUsername, lastReadID)
	if err != nil {
		return respondError(c, err)
	}

	// emit only when the pointer actually advanced
	if result.Updated {
		h.hub.EmitRoom(domain.PairRoomName(username, targetUsername), domain.WSResponse{
			Action:  string(domain.MessageRead),
			Success: true,
			Payload: map[string]interface{}{
				"conversation_id":      result.ConversationID.Hex(),
				"user_id":              userID.Hex(),
				"last_read_message_id": result.LastReadMessageID.Hex(),
				"at":                   result.ReadAt,
			},
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":     true,
		"result": result,
	})
}

// Clear DELETE /chat/:username
func (h *ChatHTTPHandler) Clear(c *fiber.Ctx) error {
	userID, _, err := callerIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.uc.Clear(c.Context(), userID, c.Params("username")); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Chat history deleted successfully!",
	})
}

// Exists GET /chat/exists/:username, public, no credential required
func (h *ChatHTTPHandler) Exists(c *fiber.Ctx) error {
	exists, err := h.uc.UsernameExists(c.Context(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"exists": exists})
}

// Status GET /chat/status/:username presence snapshot for one user
func (h *ChatHTTPHandler) Status(c *fiber.Ctx) error {
	if _, _, err := callerIdentity(c); err != nil {
		return respondError(c, err)
	}

	username := c.Params("username")
	user, err := h.uc.users.FindByUsername(c.Context(), username)
	if err != nil {
		return respondError(c, errprocess.Storage("resolve user failed", err))
	}
	if user == nil {
		return respondError(c, errprocess.NotFound("user not found"))
	}

	uid := user.ID.Hex()
	online := h.presence.IsOnline(c.Context(), uid)
	var lastSeen interface{}
	if ts := h.presence.LastSeen(c.Context(), uid); ts != nil {
		lastSeen = ts
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"username":  username,
		"is_online": online,
		"last_seen": lastSeen,
	})
}
