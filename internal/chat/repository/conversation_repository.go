package repository

import (
	"context"
	"errors"
	"time"

	"direct_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReadAtUpdate one secondary read-timestamp write for the read sync worker
type ReadAtUpdate struct {
	ConversationID primitive.ObjectID
	UserID         primitive.ObjectID
	At             time.Time
}

// ConversationRepository durable conversation records. The conversation
// usecase is the sole writer of conversation invariants.
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	// FindDirectByParticipants finds the direct conversation holding both
	// users, nil when none exists.
	FindDirectByParticipants(ctx context.Context, userA, userB primitive.ObjectID) (*domain.Conversation, error)
	// ListRecent conversations containing userID, updatedAt descending,
	// cursor-paginated on updatedAt.
	ListRecent(ctx context.Context, userID primitive.ObjectID, limit int64, beforeUpdatedAt *time.Time) ([]domain.Conversation, error)
	// ApplySend folds a freshly inserted message into the conversation in a
	// single document update: lastMessage, updatedAt, unread increments for
	// everyone but the sender, and the sender's own caught-up pointer.
	ApplySend(ctx context.Context, convID, senderID primitive.ObjectID, last domain.LastMessage) error
	// AdvanceReadPointer conditionally advances a participant's pointer.
	// The filter only matches while the supplied id is strictly greater
	// than the stored one, which makes stale or repeated acks no-ops.
	AdvanceReadPointer(ctx context.Context, convID, userID, messageID primitive.ObjectID, at time.Time) (bool, error)
	// ClearConversation unsets lastMessage and zeroes unread counters
	ClearConversation(ctx context.Context, convID primitive.ObjectID) error
	// BulkSetLastReadAt applies the read sync worker's batch as unordered
	// secondary lastReadAt updates. Returns operations issued.
	BulkSetLastReadAt(ctx context.Context, updates []ReadAtUpdate) (int, error)
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create a ConversationRepository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection("conversations"),
	}
}

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	if conv.ID.IsZero() {
		conv.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = now
	}
	_, err := r.coll.InsertOne(ctx, conv)
	return err
}

func (r *conversationRepository) FindDirectByParticipants(ctx context.Context, userA, userB primitive.ObjectID) (*domain.Conversation, error) {
	filter := bson.M{
		"type": domain.ConversationDirect,
		"participants.userId": bson.M{
			"$all": []primitive.ObjectID{userA, userB},
		},
	}
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, filter).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListRecent(ctx context.Context, userID primitive.ObjectID, limit int64, beforeUpdatedAt *time.Time) ([]domain.Conversation, error) {
	filter := bson.M{"participants.userId": userID}
	if beforeUpdatedAt != nil {
		filter["updatedAt"] = bson.M{"$lt": *beforeUpdatedAt}
	}

	opts := options.Find().
		SetSort(bson.M{"updatedAt": -1}).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var convs []domain.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *conversationRepository) ApplySend(ctx context.Context, convID, senderID primitive.ObjectID, last domain.LastMessage) error {
	update := bson.M{
		"$set": bson.M{
			"lastMessage":                        last,
			"updatedAt":                          last.At,
			"unreadMap.$[own].count":             0,
			"participants.$[p].lastReadMessageId": last.MessageID,
			"participants.$[p].lastReadAt":        last.At,
		},
		"$inc": bson.M{
			"unreadMap.$[other].count": 1,
		},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"own.userId": senderID},
			bson.M{"p.userId": senderID},
			bson.M{"other.userId": bson.M{"$ne": senderID}},
		},
	})
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": convID}, update, opts)
	return err
}

func (r *conversationRepository) AdvanceReadPointer(ctx context.Context, convID, userID, messageID primitive.ObjectID, at time.Time) (bool, error) {
	// ObjectIDs compare bytewise, so $lt on the stored pointer is exactly
	// the "strictly newer" check. A missing pointer always advances.
	filter := bson.M{
		"_id": convID,
		"participants": bson.M{
			"$elemMatch": bson.M{
				"userId": userID,
				"$or": []bson.M{
					{"lastReadMessageId": bson.M{"$exists": false}},
					{"lastReadMessageId": nil},
					{"lastReadMessageId": bson.M{"$lt": messageID}},
				},
			},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"participants.$.lastReadMessageId": messageID,
			"participants.$.lastReadAt":        at,
			"unreadMap.$[u].count":             0,
		},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"u.userId": userID},
		},
	})
	res, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *conversationRepository) ClearConversation(ctx context.Context, convID primitive.ObjectID) error {
	update := bson.M{
		"$unset": bson.M{"lastMessage": ""},
		"$set":   bson.M{"unreadMap.$[].count": 0},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": convID}, update)
	return err
}

func (r *conversationRepository) BulkSetLastReadAt(ctx context.Context, updates []ReadAtUpdate) (int, error) {
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ConversationID}).
			SetUpdate(bson.M{"$set": bson.M{"participants.$[p].lastReadAt": u.At}}).
			SetArrayFilters(options.ArrayFilters{
				Filters: []interface{}{bson.M{"p.userId": u.UserID}},
			}))
	}
	if len(models) == 0 {
		return 0, nil
	}

	_, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return len(models), nil
}
