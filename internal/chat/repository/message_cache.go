package repository

import (
	"context"
	"encoding/json"
	"time"

	"direct_chat_service/internal/chat/domain"
	"direct_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const windowKeyPrefix = "chat:last20:"

func windowKey(conversationID string) string {
	return windowKeyPrefix + conversationID
}

// MessageCache best-effort cache of the most recent message window per
// conversation. Pure accelerator: every read path must tolerate a nil
// window and every write path must tolerate the entry being absent.
type MessageCache interface {
	// Get nil on miss; a corrupt entry is treated as a miss
	Get(ctx context.Context, conversationID string) (*domain.MessageWindow, error)
	Put(ctx context.Context, conversationID string, window *domain.MessageWindow, ttl time.Duration) error
	// AppendAfterSend prepends into an existing cached window and trims to
	// limit. It never resurrects an evicted window: rebuilding state from a
	// single message would cache a partial history.
	AppendAfterSend(ctx context.Context, conversationID string, msg domain.Message, limit int) (bool, error)
	// PatchReadReceipt folds a pointer advance into the cached snapshot
	PatchReadReceipt(ctx context.Context, conversationID string, patch domain.ReadReceiptPatch) (bool, error)
	Invalidate(ctx context.Context, conversationID string) error
}

type messageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMessageCache create a MessageCache with the default entry TTL
func NewRedisMessageCache(client *redis.Client, ttl time.Duration) MessageCache {
	return &messageCache{client: client, ttl: ttl}
}

func (c *messageCache) Get(ctx context.Context, conversationID string) (*domain.MessageWindow, error) {
	raw, err := c.client.Get(ctx, windowKey(conversationID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var window domain.MessageWindow
	if err := json.Unmarshal([]byte(raw), &window); err != nil {
		logger.Log.Warn("message cache entry corrupt, treating as miss",
			zap.String("conversationId", conversationID))
		return nil, nil
	}
	return &window, nil
}

func (c *messageCache) Put(ctx context.Context, conversationID string, window *domain.MessageWindow, ttl time.Duration) error {
	data, err := json.Marshal(window)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.client.Set(ctx, windowKey(conversationID), data, ttl).Err()
}

func (c *messageCache) AppendAfterSend(ctx context.Context, conversationID string, msg domain.Message, limit int) (bool, error) {
	window, err := c.Get(ctx, conversationID)
	if err != nil {
		return false, err
	}
	if window == nil {
		return false, nil
	}

	window.Prepend(msg, limit)
	if err := c.Put(ctx, conversationID, window, c.ttl); err != nil {
		return false, err
	}
	return true, nil
}

func (c *messageCache) PatchReadReceipt(ctx context.Context, conversationID string, patch domain.ReadReceiptPatch) (bool, error) {
	window, err := c.Get(ctx, conversationID)
	if err != nil {
		return false, err
	}
	if window == nil {
		return false, nil
	}

	if !window.ApplyReadReceiptPatch(patch) {
		return false, nil
	}
	if err := c.Put(ctx, conversationID, window, c.ttl); err != nil {
		return false, err
	}
	return true, nil
}

func (c *messageCache) Invalidate(ctx context.Context, conversationID string) error {
	return c.client.Del(ctx, windowKey(conversationID)).Err()
}
