package app

import (
	"context"
	"time"

	"direct_chat_service/internal/chat/domain"
	"direct_chat_service/internal/chat/repository"
	errprocess "direct_chat_service/pkg/err"
	"direct_chat_service/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxPageSize upper bound for both listing and history pages
const MaxPageSize = 100

// DefaultPageSize page size when the caller does not supply one
const DefaultPageSize = 20

// HistoryResult one page of a direct conversation, oldest-first
type HistoryResult struct {
	ConversationID primitive.ObjectID  `json:"conversation_id"`
	Messages       []domain.Message    `json:"messages"`
	NextCursor     string              `json:"next_cursor,omitempty"`
	ReadReceipts   domain.ReadReceipts `json:"read_receipts"`
}

// MarkReadResult outcome of a read acknowledgement
type MarkReadResult struct {
	Updated           bool                `json:"updated"`
	ConversationID    primitive.ObjectID  `json:"conversation_id"`
	PartnerUsername   string              `json:"partner_username"`
	LastReadMessageID *primitive.ObjectID `json:"last_read_message_id,omitempty"`
	ReadAt            *time.Time          `json:"read_at,omitempty"`
}

// ConversationUseCase orchestrates durable reads/writes for send, history,
// mark-read, and clear. Sole writer of conversation and message
// invariants; the window cache and read-receipt markers are best-effort
// side paths that never fail a request.
type ConversationUseCase struct {
	users    repository.UserRepository
	convs    repository.ConversationRepository
	msgs     repository.MessageRepository
	window   repository.MessageCache
	receipts repository.ReadReceiptRepository

	windowSize int
	windowTTL  time.Duration
}

// NewConversationUseCase init conversation use case
func NewConversationUseCase(
	users repository.UserRepository,
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	window repository.MessageCache,
	receipts repository.ReadReceiptRepository,
	windowSize int,
	windowTTL time.Duration,
) *ConversationUseCase {
	return &ConversationUseCase{
		users:      users,
		convs:      convs,
		msgs:       msgs,
		window:     window,
		receipts:   receipts,
		windowSize: windowSize,
		windowTTL:  windowTTL,
	}
}

func clampLimit(limit int64) int64 {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// ListRecent conversations containing userID, updatedAt descending,
// cursor-paginated on updatedAt.
func (uc *ConversationUseCase) ListRecent(ctx context.Context, userID primitive.ObjectID, limit int64, beforeUpdatedAt *time.Time) ([]domain.RecentConversation, error) {
	convs, err := uc.convs.ListRecent(ctx, userID, clampLimit(limit), beforeUpdatedAt)
	if err != nil {
		return nil, errprocess.Storage("list recent conversations failed", err)
	}

	recent := make([]domain.RecentConversation, 0, len(convs))
	for i := range convs {
		conv := &convs[i]
		partner := conv.PartnerOf(userID)
		if partner == nil {
			continue
		}
		row := domain.RecentConversation{
			ConversationID: conv.ID,
			LastMessage:    conv.LastMessage,
			UnreadCount:    conv.UnreadCountFor(userID),
			UpdatedAt:      conv.UpdatedAt,
		}
		partnerUser, err := uc.users.FindByID(ctx, partner.UserID)
		if err != nil {
			return nil, errprocess.Storage("resolve partner failed", err)
		}
		if partnerUser != nil {
			row.PartnerUsername = partnerUser.Username
			row.PartnerAvatar = partnerUser.AvatarURL
		}
		recent = append(recent, row)
	}
	return recent, nil
}

// GetHistory finds-or-creates the direct conversation for the pair and
// returns one page, oldest-first. The first page is served from the
// message window cache when present; a miss falls back to the durable
// store and repopulates the cache.
func (uc *ConversationUseCase) GetHistory(ctx context.Context, userID primitive.ObjectID, targetUsername string, limit int64, beforeMessageID *primitive.ObjectID) (*HistoryResult, error) {
	me, target, err := uc.resolvePair(ctx, userID, targetUsername)
	if err != nil {
		return nil, err
	}

	conv, err := uc.findOrCreateDirect(ctx, me, target)
	if err != nil {
		return nil, err
	}

	limit = clampLimit(limit)

	// cache fast path only for the canonical first page
	if beforeMessageID == nil && int(limit) == uc.windowSize {
		window, err := uc.window.Get(ctx, conv.ID.Hex())
		if err != nil {
			logger.Log.Errorf("window cache get error:", err, zap.String("conversationId", conv.ID.Hex()))
		} else if window != nil {
			return uc.historyFromWindow(conv.ID, userID, window), nil
		}
	}

	messages, err := uc.msgs.FindPageBefore(ctx, conv.ID, beforeMessageID, limit)
	if err != nil {
		return nil, errprocess.Storage("fetch history failed", err)
	}

	nextCursor := ""
	if len(messages) > 0 {
		nextCursor = messages[len(messages)-1].ID.Hex()
	}

	receipts := buildReadReceipts(conv, userID, me.Username, target.Username)

	if beforeMessageID == nil && int(limit) == uc.windowSize {
		window := &domain.MessageWindow{
			Messages:     messages,
			NextCursor:   nextCursor,
			ReadReceipts: receipts,
		}
		if err := uc.window.Put(ctx, conv.ID.Hex(), window, uc.windowTTL); err != nil {
			logger.Log.Errorf("window cache put error:", err, zap.String("conversationId", conv.ID.Hex()))
		}
	}

	return &HistoryResult{
		ConversationID: conv.ID,
		Messages:       reverseMessages(messages),
		NextCursor:     nextCursor,
		ReadReceipts:   receipts,
	}, nil
}

// Send validates, appends the message, and folds lastMessage, updatedAt,
// and unread counters into the conversation. The cached window is updated
// best-effort after the durable write.
func (uc *ConversationUseCase) Send(ctx context.Context, userID primitive.ObjectID, targetUsername, content string) (*domain.Message, error) {
	trimmed, ok := domain.NormalizeContent(content)
	if !ok {
		return nil, errprocess.InvalidArgument("message content empty or too long")
	}

	me, target, err := uc.resolvePair(ctx, userID, targetUsername)
	if err != nil {
		return nil, err
	}

	conv, err := uc.findOrCreateDirect(ctx, me, target)
	if err != nil {
		return nil, err
	}

	receiver := target.ID
	msg := &domain.Message{
		ConversationID: conv.ID,
		Sender:         userID,
		Receiver:       &receiver,
		Content:        trimmed,
		Type:           domain.MessageText,
		Timestamp:      time.Now(),
	}
	if err := uc.msgs.Insert(ctx, msg); err != nil {
		return nil, errprocess.Storage("insert message failed", err)
	}

	last := domain.LastMessage{
		MessageID:      msg.ID,
		SenderID:       userID,
		ContentPreview: domain.Preview(trimmed),
		At:             msg.Timestamp,
	}
	if err := uc.convs.ApplySend(ctx, conv.ID, userID, last); err != nil {
		return nil, errprocess.Storage("apply send failed", err)
	}

	appended, err := uc.window.AppendAfterSend(ctx, conv.ID.Hex(), *msg, uc.windowSize)
	if err != nil {
		logger.Log.Errorf("window cache append error:", err, zap.String("conversationId", conv.ID.Hex()))
	}
	if appended {
		// ApplySend moved the sender's pointer to the new message; keep the
		// cached receipt snapshot in step
		patch := domain.ReadReceiptPatch{
			UserID:            userID,
			LastReadMessageID: msg.ID,
			At:                msg.Timestamp,
		}
		if _, err := uc.window.PatchReadReceipt(ctx, conv.ID.Hex(), patch); err != nil {
			logger.Log.Errorf("window receipt patch error:", err, zap.String("conversationId", conv.ID.Hex()))
		}
	}

	return msg, nil
}

// Clear deletes all messages of the pair's conversation and clears
// lastMessage. Idempotent: no conversation means nothing to do.
func (uc *ConversationUseCase) Clear(ctx context.Context, userID primitive.ObjectID, targetUsername string) error {
	me, target, err := uc.resolvePair(ctx, userID, targetUsername)
	if err != nil {
		return err
	}

	conv, err := uc.convs.FindDirectByParticipants(ctx, me.ID, target.ID)
	if err != nil {
		return errprocess.Storage("find conversation failed", err)
	}
	if conv == nil {
		return nil
	}

	if err := uc.msgs.DeleteByConversation(ctx, conv.ID); err != nil {
		return errprocess.Storage("delete messages failed", err)
	}
	if err := uc.convs.ClearConversation(ctx, conv.ID); err != nil {
		return errprocess.Storage("clear conversation failed", err)
	}

	if err := uc.window.Invalidate(ctx, conv.ID.Hex()); err != nil {
		logger.Log.Errorf("window cache invalidate error:", err, zap.String("conversationId", conv.ID.Hex()))
	}
	return nil
}

// MarkRead advances the caller's read pointer, but only forward: a stale
// or repeated acknowledgement returns Updated=false without mutation. The
// dirty marker for the secondary denormalized sync is stamped regardless.
func (uc *ConversationUseCase) MarkRead(ctx context.Context, userID primitive.ObjectID, targetUsername string, lastReadMessageID *primitive.ObjectID) (*MarkReadResult, error) {
	me, target, err := uc.resolvePair(ctx, userID, targetUsername)
	if err != nil {
		return nil, err
	}

	conv, err := uc.convs.FindDirectByParticipants(ctx, me.ID, target.ID)
	if err != nil {
		return nil, errprocess.Storage("find conversation failed", err)
	}
	if conv == nil {
		return nil, errprocess.NotFound("conversation not found")
	}

	result := &MarkReadResult{
		ConversationID:  conv.ID,
		PartnerUsername: target.Username,
	}
	if p := conv.ParticipantFor(userID); p != nil {
		result.LastReadMessageID = p.LastReadMessageID
		result.ReadAt = p.LastReadAt
	}

	targetID := lastReadMessageID
	if targetID == nil {
		newest, err := uc.msgs.FindNewestID(ctx, conv.ID)
		if err != nil {
			return nil, errprocess.Storage("resolve newest message failed", err)
		}
		if newest == nil {
			// nothing to acknowledge in an empty conversation
			return result, nil
		}
		targetID = newest
	}

	now := time.Now()
	updated, err := uc.convs.AdvanceReadPointer(ctx, conv.ID, userID, *targetID, now)
	if err != nil {
		return nil, errprocess.Storage("advance read pointer failed", err)
	}

	// volatile marker for the batch sync path, stamped win or lose;
	// the worker always re-reads the latest value anyway
	if err := uc.receipts.SetLastRead(ctx, conv.ID.Hex(), userID.Hex(), now); err != nil {
		logger.Log.Errorf("read receipt stamp error:", err, zap.String("conversationId", conv.ID.Hex()))
	}

	if updated {
		result.Updated = true
		result.LastReadMessageID = targetID
		result.ReadAt = &now

		patch := domain.ReadReceiptPatch{
			UserID:            userID,
			LastReadMessageID: *targetID,
			At:                now,
		}
		if _, err := uc.window.PatchReadReceipt(ctx, conv.ID.Hex(), patch); err != nil {
			logger.Log.Errorf("window receipt patch error:", err, zap.String("conversationId", conv.ID.Hex()))
		}
	}
	return result, nil
}

// UsernameExists public existence check
func (uc *ConversationUseCase) UsernameExists(ctx context.Context, username string) (bool, error) {
	exists, err := uc.users.UsernameExists(ctx, username)
	if err != nil {
		return false, errprocess.Storage("username lookup failed", err)
	}
	return exists, nil
}

func (uc *ConversationUseCase) resolvePair(ctx context.Context, userID primitive.ObjectID, targetUsername string) (*domain.User, *domain.User, error) {
	me, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, errprocess.Storage("resolve user failed", err)
	}
	if me == nil {
		return nil, nil, errprocess.NotFound("user not found")
	}

	target, err := uc.users.FindByUsername(ctx, targetUsername)
	if err != nil {
		return nil, nil, errprocess.Storage("resolve target failed", err)
	}
	if target == nil {
		return nil, nil, errprocess.NotFound("receiver user not found")
	}
	// a self-pair would make the participants filter degenerate and match
	// an arbitrary conversation of the caller's
	if me.ID == target.ID {
		return nil, nil, errprocess.InvalidArgument("cannot target yourself")
	}
	return me, target, nil
}

func (uc *ConversationUseCase) findOrCreateDirect(ctx context.Context, me, target *domain.User) (*domain.Conversation, error) {
	conv, err := uc.convs.FindDirectByParticipants(ctx, me.ID, target.ID)
	if err != nil {
		return nil, errprocess.Storage("find conversation failed", err)
	}
	if conv != nil {
		return conv, nil
	}

	now := time.Now()
	conv = &domain.Conversation{
		Type: domain.ConversationDirect,
		Participants: []domain.Participant{
			{UserID: me.ID, Role: domain.RoleMember, JoinedAt: now},
			{UserID: target.ID, Role: domain.RoleMember, JoinedAt: now},
		},
		// both counters present from the start so increments stay atomic
		UnreadMap: []domain.UnreadEntry{
			{UserID: me.ID, Count: 0},
			{UserID: target.ID, Count: 0},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.convs.Create(ctx, conv); err != nil {
		return nil, errprocess.Storage("create conversation failed", err)
	}
	return conv, nil
}

func (uc *ConversationUseCase) historyFromWindow(convID, userID primitive.ObjectID, window *domain.MessageWindow) *HistoryResult {
	receipts := window.ReadReceipts
	// the cached snapshot was built for whoever populated it; swap sides
	// when the viewer differs
	if receipts.Me != nil && receipts.Me.UserID != userID {
		receipts.Me, receipts.Partner = receipts.Partner, receipts.Me
	}
	return &HistoryResult{
		ConversationID: convID,
		Messages:       reverseMessages(window.Messages),
		NextCursor:     window.NextCursor,
		ReadReceipts:   receipts,
	}
}

func buildReadReceipts(conv *domain.Conversation, userID primitive.ObjectID, myUsername, partnerUsername string) domain.ReadReceipts {
	receipts := domain.ReadReceipts{}
	for i := range conv.Participants {
		p := &conv.Participants[i]
		rr := &domain.ReadReceipt{
			UserID:            p.UserID,
			LastReadMessageID: p.LastReadMessageID,
			LastReadAt:        p.LastReadAt,
		}
		if p.UserID == userID {
			rr.Username = myUsername
			receipts.Me = rr
		} else {
			rr.Username = partnerUsername
			receipts.Partner = rr
		}
	}
	return receipts
}

func reverseMessages(messages []domain.Message) []domain.Message {
	ordered := make([]domain.Message, len(messages))
	for i, m := range messages {
		ordered[len(messages)-1-i] = m
	}
	return ordered
}
