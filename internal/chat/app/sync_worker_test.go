package app

import (
	"context"
	"testing"
	"time"

	"direct_chat_service/internal/chat/domain"
	"direct_chat_service/internal/chat/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPresenceSyncWorker_RunOnce_DeduplicatesPerUser(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	users := new(MockUserRepository)
	w := NewPresenceSyncWorker(presence, users, time.Minute, 500)

	older := time.Now().Add(-2 * time.Minute)
	newer := time.Now().Add(-time.Minute)
	presence.On("PopLastSeen", ctx, int64(500)).Return([]domain.LastSeenEntry{
		{UserID: "alice", At: older},
		{UserID: "alice", At: newer},
		{UserID: "bob", At: older},
	}, nil)

	users.On("BulkUpdateLastSeen", ctx, mock.MatchedBy(func(entries []domain.LastSeenEntry) bool {
		if len(entries) != 2 {
			return false
		}
		for _, e := range entries {
			if e.UserID == "alice" && !e.At.Equal(newer) {
				return false
			}
		}
		return true
	})).Return(2, nil)

	n, err := w.RunOnce(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	presence.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestPresenceSyncWorker_RunOnce_EmptyQueue(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	users := new(MockUserRepository)
	w := NewPresenceSyncWorker(presence, users, time.Minute, 500)

	// pop-based draining: a second run right after a drain sees nothing
	presence.On("PopLastSeen", ctx, int64(500)).Return([]domain.LastSeenEntry{}, nil)

	n, err := w.RunOnce(ctx)

	assert.NoError(t, err)
	assert.Zero(t, n)
	users.AssertNotCalled(t, "BulkUpdateLastSeen", mock.Anything, mock.Anything)
}

func TestReadSyncWorker_RunOnce_GroupsByConversation(t *testing.T) {
	ctx := context.Background()
	receipts := new(MockReadReceiptRepository)
	convs := new(MockConversationRepository)
	w := NewReadSyncWorker(receipts, convs, time.Minute, 500)

	convA := primitive.NewObjectID()
	convB := primitive.NewObjectID()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	stamp := time.Now().Add(-time.Minute)

	receipts.On("PopDirty", ctx, int64(500)).Return([]domain.DirtyReadMarker{
		{ConversationID: convA.Hex(), UserID: alice.Hex()},
		{ConversationID: convA.Hex(), UserID: bob.Hex()},
		{ConversationID: convB.Hex(), UserID: alice.Hex()},
	}, nil)
	receipts.On("GetLastRead", ctx, mock.Anything, mock.Anything).Return(&stamp, nil)

	convs.On("BulkSetLastReadAt", ctx, mock.MatchedBy(func(updates []repository.ReadAtUpdate) bool {
		return len(updates) == 2 && updates[0].ConversationID == convA
	})).Return(2, nil).Once()
	convs.On("BulkSetLastReadAt", ctx, mock.MatchedBy(func(updates []repository.ReadAtUpdate) bool {
		return len(updates) == 1 && updates[0].ConversationID == convB
	})).Return(1, nil).Once()

	n, err := w.RunOnce(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	receipts.AssertExpectations(t)
	convs.AssertExpectations(t)
}

func TestReadSyncWorker_RunOnce_SkipsConsumedMarkers(t *testing.T) {
	ctx := context.Background()
	receipts := new(MockReadReceiptRepository)
	convs := new(MockConversationRepository)
	w := NewReadSyncWorker(receipts, convs, time.Minute, 500)

	convID := primitive.NewObjectID()
	alice := primitive.NewObjectID()

	receipts.On("PopDirty", ctx, int64(500)).Return([]domain.DirtyReadMarker{
		{ConversationID: convID.Hex(), UserID: alice.Hex()},
	}, nil)
	// the stored value vanished between dirty-flagging and this run
	receipts.On("GetLastRead", ctx, convID.Hex(), alice.Hex()).Return(nil, nil)

	n, err := w.RunOnce(ctx)

	assert.NoError(t, err)
	assert.Zero(t, n)
	convs.AssertNotCalled(t, "BulkSetLastReadAt", mock.Anything, mock.Anything)
}

func TestReadSyncWorker_RunOnce_IgnoresMalformedIDs(t *testing.T) {
	ctx := context.Background()
	receipts := new(MockReadReceiptRepository)
	convs := new(MockConversationRepository)
	w := NewReadSyncWorker(receipts, convs, time.Minute, 500)

	receipts.On("PopDirty", ctx, int64(500)).Return([]domain.DirtyReadMarker{
		{ConversationID: "not-an-object-id", UserID: "also-bad"},
	}, nil)

	n, err := w.RunOnce(ctx)

	assert.NoError(t, err)
	assert.Zero(t, n)
	convs.AssertNotCalled(t, "BulkSetLastReadAt", mock.Anything, mock.Anything)
}
