package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"direct_chat_service/internal/chat/domain"

	"github.com/go-redis/redis/v8"
)

const (
	dirtyReadSetKey   = "lastRead:dirty"
	lastReadKeyPrefix = "lastRead"
	lastReadKeyFields = 3
)

func lastReadKey(conversationID, userID string) string {
	return fmt.Sprintf("%s:%s:%s", lastReadKeyPrefix, conversationID, userID)
}

// ReadReceiptRepository volatile read-receipt markers. Each marker mirrors
// durable lastReadAt and is deleted once synced, so it is always safe to
// re-derive.
type ReadReceiptRepository interface {
	// SetLastRead stores the timestamp and flags the marker dirty in one
	// pipelined transaction.
	SetLastRead(ctx context.Context, conversationID, userID string, at time.Time) error
	// GetLastRead nil when the marker was already consumed
	GetLastRead(ctx context.Context, conversationID, userID string) (*time.Time, error)
	// PopDirty atomically pops up to batch outstanding markers
	PopDirty(ctx context.Context, batch int64) ([]domain.DirtyReadMarker, error)
}

type readReceiptRepository struct {
	client *redis.Client
}

// NewRedisReadReceiptRepository create a ReadReceiptRepository
func NewRedisReadReceiptRepository(client *redis.Client) ReadReceiptRepository {
	return &readReceiptRepository{client: client}
}

func (r *readReceiptRepository) SetLastRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	key := lastReadKey(conversationID, userID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, strconv.FormatInt(at.UnixMilli(), 10), 0)
		pipe.SAdd(ctx, dirtyReadSetKey, key)
		return nil
	})
	return err
}

func (r *readReceiptRepository) GetLastRead(ctx context.Context, conversationID, userID string) (*time.Time, error) {
	val, err := r.client.Get(ctx, lastReadKey(conversationID, userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, nil
	}
	ts := time.UnixMilli(ms)
	return &ts, nil
}

func (r *readReceiptRepository) PopDirty(ctx context.Context, batch int64) ([]domain.DirtyReadMarker, error) {
	keys, err := r.client.SPopN(ctx, dirtyReadSetKey, batch).Result()
	if err != nil {
		return nil, err
	}

	markers := make([]domain.DirtyReadMarker, 0, len(keys))
	for _, k := range keys {
		// key format: lastRead:<conversationId>:<userId>
		parts := strings.Split(k, ":")
		if len(parts) != lastReadKeyFields || parts[0] != lastReadKeyPrefix {
			continue
		}
		markers = append(markers, domain.DirtyReadMarker{
			ConversationID: parts[1],
			UserID:         parts[2],
		})
	}
	return markers, nil
}
