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

// UserRepository identity resolution plus the durable last-seen fallback
type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	// BulkUpdateLastSeen applies the popped last-seen batch as unordered
	// updates. Returns the number of update operations issued.
	BulkUpdateLastSeen(ctx context.Context, entries []domain.LastSeenEntry) (int, error)
}

type userRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository create a UserRepository
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{
		coll: db.Collection("users"),
	}
}

func (r *userRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) BulkUpdateLastSeen(ctx context.Context, entries []domain.LastSeenEntry) (int, error) {
	models := make([]mongo.WriteModel, 0, len(entries))
	for _, e := range entries {
		uid, err := primitive.ObjectIDFromHex(e.UserID)
		if err != nil {
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": uid}).
			SetUpdate(bson.M{"$set": bson.M{"lastSeen": e.At}}))
	}
	if len(models) == 0 {
		return 0, nil
	}

	// unordered: one failed update must not block the rest of the batch
	_, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return len(models), nil
}
