package app

import (
	"context"
	"time"

	"direct_chat_service/internal/chat/domain"
	"direct_chat_service/internal/chat/repository"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// FindByID mock find user by id
func (m *MockUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByUsername mock find user by username
func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// UsernameExists mock username existence check
func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// BulkUpdateLastSeen mock bulk last-seen update
func (m *MockUserRepository) BulkUpdateLastSeen(ctx context.Context, entries []domain.LastSeenEntry) (int, error) {
	args := m.Called(ctx, entries)
	return args.Int(0), args.Error(1)
}

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// Create mock create conversation
func (m *MockConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

// FindDirectByParticipants mock find direct conversation for a pair
func (m *MockConversationRepository) FindDirectByParticipants(ctx context.Context, userA, userB primitive.ObjectID) (*domain.Conversation, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListRecent mock list recent conversations
func (m *MockConversationRepository) ListRecent(ctx context.Context, userID primitive.ObjectID, limit int64, beforeUpdatedAt *time.Time) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID, limit, beforeUpdatedAt)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// ApplySend mock fold a send into the conversation
func (m *MockConversationRepository) ApplySend(ctx context.Context, convID, senderID primitive.ObjectID, last domain.LastMessage) error {
	args := m.Called(ctx, convID, senderID, last)
	return args.Error(0)
}

// AdvanceReadPointer mock conditional read pointer advance
func (m *MockConversationRepository) AdvanceReadPointer(ctx context.Context, convID, userID, messageID primitive.ObjectID, at time.Time) (bool, error) {
	args := m.Called(ctx, convID, userID, messageID, at)
	return args.Bool(0), args.Error(1)
}

// ClearConversation mock clear lastMessage and counters
func (m *MockConversationRepository) ClearConversation(ctx context.Context, convID primitive.ObjectID) error {
	args := m.Called(ctx, convID)
	return args.Error(0)
}

// BulkSetLastReadAt mock bulk lastReadAt update
func (m *MockConversationRepository) BulkSetLastReadAt(ctx context.Context, updates []repository.ReadAtUpdate) (int, error) {
	args := m.Called(ctx, updates)
	return args.Int(0), args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

// FindPageBefore mock newest-first message page
func (m *MockMessageRepository) FindPageBefore(ctx context.Context, convID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]domain.Message, error) {
	args := m.Called(ctx, convID, before, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindNewestID mock newest message id lookup
func (m *MockMessageRepository) FindNewestID(ctx context.Context, convID primitive.ObjectID) (*primitive.ObjectID, error) {
	args := m.Called(ctx, convID)
	if args.Get(0) != nil {
		return args.Get(0).(*primitive.ObjectID), args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteByConversation mock delete all conversation messages
func (m *MockMessageRepository) DeleteByConversation(ctx context.Context, convID primitive.ObjectID) error {
	args := m.Called(ctx, convID)
	return args.Error(0)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// IncrConn mock connection count increment
func (m *MockPresenceRepository) IncrConn(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// DecrConn mock connection count decrement
func (m *MockPresenceRepository) DecrConn(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MarkOnline mock add to online set
func (m *MockPresenceRepository) MarkOnline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MarkOffline mock remove from online set and stamp last seen
func (m *MockPresenceRepository) MarkOffline(ctx context.Context, userID string, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

// IsOnline mock online set membership
func (m *MockPresenceRepository) IsOnline(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// LastSeen mock volatile last-seen lookup
func (m *MockPresenceRepository) LastSeen(ctx context.Context, userID string) (*time.Time, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*time.Time), args.Error(1)
	}
	return nil, args.Error(1)
}

// PopLastSeen mock drain pending last-seen entries
func (m *MockPresenceRepository) PopLastSeen(ctx context.Context, batch int64) ([]domain.LastSeenEntry, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.LastSeenEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockReadReceiptRepository Mock ReadReceiptRepository
type MockReadReceiptRepository struct {
	mock.Mock
}

// SetLastRead mock stamp last-read and mark dirty
func (m *MockReadReceiptRepository) SetLastRead(ctx context.Context, conversationID, userID string, at time.Time) error {
	args := m.Called(ctx, conversationID, userID, at)
	return args.Error(0)
}

// GetLastRead mock read current last-read stamp
func (m *MockReadReceiptRepository) GetLastRead(ctx context.Context, conversationID, userID string) (*time.Time, error) {
	args := m.Called(ctx, conversationID, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*time.Time), args.Error(1)
	}
	return nil, args.Error(1)
}

// PopDirty mock drain dirty read markers
func (m *MockReadReceiptRepository) PopDirty(ctx context.Context, batch int64) ([]domain.DirtyReadMarker, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.DirtyReadMarker), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageCache Mock MessageCache
type MockMessageCache struct {
	mock.Mock
}

// Get mock window fetch
func (m *MockMessageCache) Get(ctx context.Context, conversationID string) (*domain.MessageWindow, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.MessageWindow), args.Error(1)
	}
	return nil, args.Error(1)
}

// Put mock window store
func (m *MockMessageCache) Put(ctx context.Context, conversationID string, window *domain.MessageWindow, ttl time.Duration) error {
	args := m.Called(ctx, conversationID, window, ttl)
	return args.Error(0)
}

// AppendAfterSend mock prepend into a cached window
func (m *MockMessageCache) AppendAfterSend(ctx context.Context, conversationID string, msg domain.Message, limit int) (bool, error) {
	args := m.Called(ctx, conversationID, msg, limit)
	return args.Bool(0), args.Error(1)
}

// PatchReadReceipt mock fold a receipt into a cached window
func (m *MockMessageCache) PatchReadReceipt(ctx context.Context, conversationID string, patch domain.ReadReceiptPatch) (bool, error) {
	args := m.Called(ctx, conversationID, patch)
	return args.Bool(0), args.Error(1)
}

// Invalidate mock window eviction
func (m *MockMessageCache) Invalidate(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}
