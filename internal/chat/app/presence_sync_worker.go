package app

import (
	"context"
	"time"

	"direct_chat_service/internal/chat/domain"
	"direct_chat_service/internal/chat/repository"
	"direct_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// PresenceSyncWorker periodically folds popped last-seen entries into the
// durable user store. Entries are popped, not peeked, so a concurrent run
// cannot claim the same batch; a user who reconnects after the pop simply
// gets a fresh entry from their next disconnect.
type PresenceSyncWorker struct {
	presence repository.PresenceRepository
	users    repository.UserRepository

	interval time.Duration
	batch    int64
}

// NewPresenceSyncWorker create a PresenceSyncWorker
func NewPresenceSyncWorker(presence repository.PresenceRepository, users repository.UserRepository, interval time.Duration, batch int64) *PresenceSyncWorker {
	return &PresenceSyncWorker{
		presence: presence,
		users:    users,
		interval: interval,
		batch:    batch,
	}
}

// Start runs the worker loop until ctx is cancelled. Runs never overlap:
// a slow run delays the next tick instead of racing it.
func (w *PresenceSyncWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := w.RunOnce(ctx); err != nil {
				logger.Log.Errorf("presence sync run error:", err)
			} else if n > 0 {
				logger.Log.Info("presence sync run", zap.Int("updates", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce drains one batch. Returns the number of durable updates issued;
// zero on an empty batch.
func (w *PresenceSyncWorker) RunOnce(ctx context.Context) (int, error) {
	entries, err := w.presence.PopLastSeen(ctx, w.batch)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	// deduplicate per user, keeping the latest timestamp in the batch
	latest := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		if prev, ok := latest[e.UserID]; !ok || e.At.After(prev) {
			latest[e.UserID] = e.At
		}
	}

	deduped := make([]domain.LastSeenEntry, 0, len(latest))
	for uid, at := range latest {
		deduped = append(deduped, domain.LastSeenEntry{UserID: uid, At: at})
	}

	return w.users.BulkUpdateLastSeen(ctx, deduped)
}
