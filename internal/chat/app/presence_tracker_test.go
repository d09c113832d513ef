package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"direct_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPresenceTracker_FirstConnectionComesOnline(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	tracker := NewPresenceTracker(presence, new(MockUserRepository))

	presence.On("IncrConn", ctx, "alice").Return(int64(1), nil)
	presence.On("MarkOnline", ctx, "alice").Return(nil)

	assert.True(t, tracker.ConnectionOpened(ctx, "alice"))
	presence.AssertExpectations(t)
}

func TestPresenceTracker_SecondConnectionStaysOnline(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	tracker := NewPresenceTracker(presence, new(MockUserRepository))

	presence.On("IncrConn", ctx, "alice").Return(int64(2), nil)

	assert.False(t, tracker.ConnectionOpened(ctx, "alice"))
	presence.AssertNotCalled(t, "MarkOnline", mock.Anything, mock.Anything)
	presence.AssertExpectations(t)
}

func TestPresenceTracker_LastCloseGoesOffline(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	tracker := NewPresenceTracker(presence, new(MockUserRepository))

	presence.On("DecrConn", ctx, "alice").Return(int64(0), nil)
	presence.On("MarkOffline", ctx, "alice", mock.Anything).Return(nil)

	offline, at := tracker.ConnectionClosed(ctx, "alice")

	assert.True(t, offline)
	assert.WithinDuration(t, time.Now(), at, time.Second)
	presence.AssertExpectations(t)
}

func TestPresenceTracker_CloseWithRemainingConnections(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	tracker := NewPresenceTracker(presence, new(MockUserRepository))

	presence.On("DecrConn", ctx, "alice").Return(int64(1), nil)

	offline, _ := tracker.ConnectionClosed(ctx, "alice")

	assert.False(t, offline)
	presence.AssertNotCalled(t, "MarkOffline", mock.Anything, mock.Anything, mock.Anything)
	presence.AssertExpectations(t)
}

func TestPresenceTracker_DoubleCloseClampsAtZero(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	tracker := NewPresenceTracker(presence, new(MockUserRepository))

	// the repository clamps, so a second close reports zero again
	presence.On("DecrConn", ctx, "alice").Return(int64(0), nil).Twice()
	presence.On("MarkOffline", ctx, "alice", mock.Anything).Return(nil).Twice()

	first, _ := tracker.ConnectionClosed(ctx, "alice")
	second, _ := tracker.ConnectionClosed(ctx, "alice")

	// idempotent: marking an offline user offline again is harmless
	assert.True(t, first)
	assert.True(t, second)
	presence.AssertExpectations(t)
}

func TestPresenceTracker_CacheOutageDegradesToOffline(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	tracker := NewPresenceTracker(presence, new(MockUserRepository))

	presence.On("IsOnline", ctx, "alice").Return(false, errors.New("redis down"))

	assert.False(t, tracker.IsOnline(ctx, "alice"))
	presence.AssertExpectations(t)
}

func TestPresenceTracker_LastSeenPrefersVolatile(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	users := new(MockUserRepository)
	tracker := NewPresenceTracker(presence, users)

	stamp := time.Now().Add(-time.Minute)
	presence.On("LastSeen", ctx, "507f1f77bcf86cd799439011").Return(&stamp, nil)

	got := tracker.LastSeen(ctx, "507f1f77bcf86cd799439011")

	assert.Equal(t, stamp, *got)
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestPresenceTracker_LastSeenFallsBackToDurable(t *testing.T) {
	ctx := context.Background()
	presence := new(MockPresenceRepository)
	users := new(MockUserRepository)
	tracker := NewPresenceTracker(presence, users)

	uid := primitive.NewObjectID()
	stamp := time.Now().Add(-time.Hour)
	presence.On("LastSeen", ctx, uid.Hex()).Return(nil, nil)
	users.On("FindByID", ctx, uid).Return(&domain.User{ID: uid, Username: "alice", LastSeen: &stamp}, nil)

	got := tracker.LastSeen(ctx, uid.Hex())

	assert.Equal(t, stamp, *got)
	presence.AssertExpectations(t)
	users.AssertExpectations(t)
}
