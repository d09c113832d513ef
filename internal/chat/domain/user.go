package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User identity record. Only the fields the chat core reads; signup and
// profile management own the rest of the document.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	AvatarURL string             `bson:"avatarUrl,omitempty" json:"avatar_url,omitempty"`
	// LastSeen durable fallback, written by the presence sync worker.
	// The volatile record is authoritative when present.
	LastSeen *time.Time `bson:"lastSeen,omitempty" json:"last_seen,omitempty"`
}
