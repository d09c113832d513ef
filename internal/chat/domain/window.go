package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReadReceipt one participant's read pointer snapshot
type ReadReceipt struct {
	UserID            primitive.ObjectID  `json:"user_id"`
	Username          string              `json:"username,omitempty"`
	LastReadMessageID *primitive.ObjectID `json:"last_read_message_id,omitempty"`
	LastReadAt        *time.Time          `json:"last_read_at,omitempty"`
}

// ReadReceipts both sides of a direct conversation, from the viewpoint of
// the user the window was built for.
type ReadReceipts struct {
	Me      *ReadReceipt `json:"me,omitempty"`
	Partner *ReadReceipt `json:"partner,omitempty"`
}

// ReadReceiptPatch read pointer advance to fold into a cached window
type ReadReceiptPatch struct {
	UserID            primitive.ObjectID `json:"user_id"`
	LastReadMessageID primitive.ObjectID `json:"last_read_message_id"`
	At                time.Time          `json:"at"`
}

// MessageWindow bounded cache of the most recent messages of a
// conversation, newest first, plus a read-receipt snapshot. Strictly
// advisory: absence or staleness only means a fallback to the durable store.
type MessageWindow struct {
	Messages     []Message    `json:"messages"`
	NextCursor   string       `json:"next_cursor,omitempty"`
	ReadReceipts ReadReceipts `json:"read_receipts"`
}

// Prepend inserts the newest message, trims to limit, and recomputes the
// pagination cursor from the new tail.
func (w *MessageWindow) Prepend(msg Message, limit int) {
	updated := append([]Message{msg}, w.Messages...)
	if limit > 0 && len(updated) > limit {
		updated = updated[:limit]
	}
	w.Messages = updated
	w.NextCursor = ""
	if len(updated) > 0 {
		w.NextCursor = updated[len(updated)-1].ID.Hex()
	}
}

// ApplyReadReceiptPatch folds a pointer advance into whichever side of the
// snapshot matches the patched user. Returns false when neither matches.
func (w *MessageWindow) ApplyReadReceiptPatch(patch ReadReceiptPatch) bool {
	applied := false
	for _, rr := range []*ReadReceipt{w.ReadReceipts.Me, w.ReadReceipts.Partner} {
		if rr == nil || rr.UserID != patch.UserID {
			continue
		}
		id := patch.LastReadMessageID
		at := patch.At
		rr.LastReadMessageID = &id
		rr.LastReadAt = &at
		applied = true
	}
	return applied
}
