package repository

import (
	"context"
	"errors"

	"direct_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository append-only message records
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) error
	// FindPageBefore fetches up to limit messages newest-first, strictly
	// older than before when a cursor is supplied.
	FindPageBefore(ctx context.Context, convID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]domain.Message, error)
	// FindNewestID nil when the conversation has no messages
	FindNewestID(ctx context.Context, convID primitive.ObjectID) (*primitive.ObjectID, error)
	DeleteByConversation(ctx context.Context, convID primitive.ObjectID) error
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	// a fresh ObjectID keeps ids monotonic per creation order
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *messageRepository) FindPageBefore(ctx context.Context, convID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]domain.Message, error) {
	filter := bson.M{"conversationId": convID}
	if before != nil {
		filter["_id"] = bson.M{"$lt": *before}
	}

	opts := options.Find().
		SetSort(bson.M{"_id": -1}).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) FindNewestID(ctx context.Context, convID primitive.ObjectID) (*primitive.ObjectID, error) {
	opts := options.FindOne().
		SetSort(bson.M{"_id": -1}).
		SetProjection(bson.M{"_id": 1})

	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := r.coll.FindOne(ctx, bson.M{"conversationId": convID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc.ID, nil
}

func (r *messageRepository) DeleteByConversation(ctx context.Context, convID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"conversationId": convID})
	return err
}
