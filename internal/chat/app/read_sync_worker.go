package app

import (
	"context"
	"time"

	"direct_chat_service/internal/chat/domain"
	"direct_chat_service/internal/chat/repository"
	"direct_chat_service/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReadSyncWorker periodically folds dirty read markers into the durable
// conversation records as the secondary lastReadAt field. Markers are
// popped atomically and the current value is re-read per marker, so a read
// event that lands between the dirty flag and the pop is never applied
// with a stale timestamp.
type ReadSyncWorker struct {
	receipts repository.ReadReceiptRepository
	convs    repository.ConversationRepository

	interval time.Duration
	batch    int64
}

// NewReadSyncWorker create a ReadSyncWorker
func NewReadSyncWorker(receipts repository.ReadReceiptRepository, convs repository.ConversationRepository, interval time.Duration, batch int64) *ReadSyncWorker {
	return &ReadSyncWorker{
		receipts: receipts,
		convs:    convs,
		interval: interval,
		batch:    batch,
	}
}

// Start runs the worker loop until ctx is cancelled
func (w *ReadSyncWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := w.RunOnce(ctx); err != nil {
				logger.Log.Errorf("read sync run error:", err)
			} else if n > 0 {
				logger.Log.Info("read sync run", zap.Int("updates", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce drains one batch of dirty markers, grouped by conversation for
// fewer durable rounds. A marker whose value was already consumed by a
// previous run is skipped, not an error.
func (w *ReadSyncWorker) RunOnce(ctx context.Context) (int, error) {
	markers, err := w.receipts.PopDirty(ctx, w.batch)
	if err != nil {
		return 0, err
	}
	if len(markers) == 0 {
		return 0, nil
	}

	perConvo := make(map[string][]domain.DirtyReadMarker)
	for _, m := range markers {
		perConvo[m.ConversationID] = append(perConvo[m.ConversationID], m)
	}

	total := 0
	for convHex, group := range perConvo {
		convID, err := primitive.ObjectIDFromHex(convHex)
		if err != nil {
			continue
		}

		updates := make([]repository.ReadAtUpdate, 0, len(group))
		for _, m := range group {
			uid, err := primitive.ObjectIDFromHex(m.UserID)
			if err != nil {
				continue
			}
			// always read the latest stored value, not one captured at
			// dirty-flag time
			ts, err := w.receipts.GetLastRead(ctx, convHex, m.UserID)
			if err != nil {
				logger.Log.Errorf("read marker fetch error:", err, zap.String("conversationId", convHex))
				continue
			}
			if ts == nil {
				continue
			}
			updates = append(updates, repository.ReadAtUpdate{
				ConversationID: convID,
				UserID:         uid,
				At:             *ts,
			})
		}

		if len(updates) == 0 {
			continue
		}
		n, err := w.convs.BulkSetLastReadAt(ctx, updates)
		if err != nil {
			logger.Log.Errorf("read sync bulk write error:", err, zap.String("conversationId", convHex))
			continue
		}
		total += n
	}
	return total, nil
}
