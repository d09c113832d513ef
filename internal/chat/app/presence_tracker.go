package app

import (
	"context"
	"time"

	"direct_chat_service/internal/chat/repository"
	"direct_chat_service/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PresenceTracker multi-connection presence accounting on the volatile
// cache. A user is online while at least one connection is open; only the
// 0->1 and 1->0 transitions flip the online set. Cache failures are
// swallowed here: presence is best-effort and must never fail a request.
type PresenceTracker struct {
	presence repository.PresenceRepository
	users    repository.UserRepository
}

// NewPresenceTracker create a PresenceTracker
func NewPresenceTracker(presence repository.PresenceRepository, users repository.UserRepository) *PresenceTracker {
	return &PresenceTracker{
		presence: presence,
		users:    users,
	}
}

// ConnectionOpened bumps the connection count and marks the user online on
// the 0->1 transition. Returns whether the user just came online.
func (t *PresenceTracker) ConnectionOpened(ctx context.Context, userID string) bool {
	count, err := t.presence.IncrConn(ctx, userID)
	if err != nil {
		logger.Log.Errorf("presence incr error:", err, zap.String("userId", userID))
		return false
	}
	if count != 1 {
		return false
	}
	if err := t.presence.MarkOnline(ctx, userID); err != nil {
		logger.Log.Errorf("presence mark online error:", err, zap.String("userId", userID))
		return false
	}
	return true
}

// ConnectionClosed drops the connection count (clamped at zero) and, on
// reaching zero, marks the user offline and stamps last-seen. Returns
// whether the user just went offline and the stamped time.
func (t *PresenceTracker) ConnectionClosed(ctx context.Context, userID string) (bool, time.Time) {
	now := time.Now()
	count, err := t.presence.DecrConn(ctx, userID)
	if err != nil {
		logger.Log.Errorf("presence decr error:", err, zap.String("userId", userID))
		return false, now
	}
	if count != 0 {
		return false, now
	}
	if err := t.presence.MarkOffline(ctx, userID, now); err != nil {
		logger.Log.Errorf("presence mark offline error:", err, zap.String("userId", userID))
		return false, now
	}
	return true, now
}

// IsOnline reflects online-set membership directly. A cache outage
// degrades to "offline".
func (t *PresenceTracker) IsOnline(ctx context.Context, userID string) bool {
	online, err := t.presence.IsOnline(ctx, userID)
	if err != nil {
		logger.Log.Errorf("presence is-online error:", err, zap.String("userId", userID))
		return false
	}
	return online
}

// LastSeen prefers the volatile record and falls back to the durable user
// field only when the volatile record has never been populated.
func (t *PresenceTracker) LastSeen(ctx context.Context, userID string) *time.Time {
	ts, err := t.presence.LastSeen(ctx, userID)
	if err != nil {
		logger.Log.Errorf("presence last-seen error:", err, zap.String("userId", userID))
	}
	if ts != nil {
		return ts
	}

	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	user, err := t.users.FindByID(ctx, uid)
	if err != nil {
		logger.Log.Errorf("last-seen durable fallback error:", err, zap.String("userId", userID))
		return nil
	}
	if user == nil {
		return nil
	}
	return user.LastSeen
}
