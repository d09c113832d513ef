package repository

import (
	"context"
	"time"

	"direct_chat_service/internal/chat/domain"

	"github.com/go-redis/redis/v8"
)

const (
	onlineSetKey    = "presence:online"
	connCountKey    = "presence:connCount"
	lastSeenZSetKey = "presence:lastSeen" // score = epoch ms
)

// PresenceRepository volatile presence state. The online set is the single
// bit of truth for isOnline; the counter is purely a ref-count gate. The
// two are separate atomic operations, so a crash between them can
// transiently desynchronize the pair; the drift self-heals the next time
// the counter crosses 0 or 1.
type PresenceRepository interface {
	// IncrConn atomically bumps the user's open-connection count and
	// returns the new value.
	IncrConn(ctx context.Context, userID string) (int64, error)
	// DecrConn atomically drops the count, clamped at zero to defend
	// against double-close. Returns the clamped value.
	DecrConn(ctx context.Context, userID string) (int64, error)
	MarkOnline(ctx context.Context, userID string) error
	// MarkOffline removes the user from the online set and stamps the
	// last-seen sorted structure.
	MarkOffline(ctx context.Context, userID string, at time.Time) error
	IsOnline(ctx context.Context, userID string) (bool, error)
	// LastSeen nil when the volatile record has never been populated
	LastSeen(ctx context.Context, userID string) (*time.Time, error)
	// PopLastSeen atomically pops up to batch oldest entries. Pop, not
	// peek: entries are removed as they are claimed so a concurrent run
	// cannot process them twice.
	PopLastSeen(ctx context.Context, batch int64) ([]domain.LastSeenEntry, error)
}

type presenceRepository struct {
	client *redis.Client
}

// NewRedisPresenceRepository create a PresenceRepository
func NewRedisPresenceRepository(client *redis.Client) PresenceRepository {
	return &presenceRepository{client: client}
}

func (r *presenceRepository) IncrConn(ctx context.Context, userID string) (int64, error) {
	return r.client.HIncrBy(ctx, connCountKey, userID, 1).Result()
}

func (r *presenceRepository) DecrConn(ctx context.Context, userID string) (int64, error) {
	count, err := r.client.HIncrBy(ctx, connCountKey, userID, -1).Result()
	if err != nil {
		return 0, err
	}
	if count <= 0 {
		// remove the field so a stray extra close cannot push it further
		// negative; the next open re-creates it at 1
		if err := r.client.HDel(ctx, connCountKey, userID).Err(); err != nil {
			return 0, err
		}
		if count < 0 {
			count = 0
		}
	}
	return count, nil
}

func (r *presenceRepository) MarkOnline(ctx context.Context, userID string) error {
	return r.client.SAdd(ctx, onlineSetKey, userID).Err()
}

func (r *presenceRepository) MarkOffline(ctx context.Context, userID string, at time.Time) error {
	if err := r.client.SRem(ctx, onlineSetKey, userID).Err(); err != nil {
		return err
	}
	return r.client.ZAdd(ctx, lastSeenZSetKey, &redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: userID,
	}).Err()
}

func (r *presenceRepository) IsOnline(ctx context.Context, userID string) (bool, error) {
	return r.client.SIsMember(ctx, onlineSetKey, userID).Result()
}

func (r *presenceRepository) LastSeen(ctx context.Context, userID string) (*time.Time, error) {
	score, err := r.client.ZScore(ctx, lastSeenZSetKey, userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ts := time.UnixMilli(int64(score))
	return &ts, nil
}

func (r *presenceRepository) PopLastSeen(ctx context.Context, batch int64) ([]domain.LastSeenEntry, error) {
	popped, err := r.client.ZPopMin(ctx, lastSeenZSetKey, batch).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LastSeenEntry, 0, len(popped))
	for _, z := range popped {
		uid, ok := z.Member.(string)
		if !ok || uid == "" {
			continue
		}
		entries = append(entries, domain.LastSeenEntry{
			UserID: uid,
			At:     time.UnixMilli(int64(z.Score)),
		})
	}
	return entries, nil
}
