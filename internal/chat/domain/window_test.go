package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func windowOf(n int) *MessageWindow {
	w := &MessageWindow{}
	msgs := make([]Message, n)
	for i := range msgs {
		msgs[i] = Message{ID: primitive.NewObjectID(), Content: "m"}
	}
	// newest first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	w.Messages = msgs
	return w
}

func TestMessageWindow_PrependKeepsNewestFirst(t *testing.T) {
	w := windowOf(3)
	newest := Message{ID: primitive.NewObjectID(), Content: "newest"}

	w.Prepend(newest, 20)

	assert.Equal(t, newest.ID, w.Messages[0].ID)
	assert.Len(t, w.Messages, 4)
	assert.Equal(t, w.Messages[3].ID.Hex(), w.NextCursor)
}

func TestMessageWindow_PrependTrimsToLimit(t *testing.T) {
	w := windowOf(20)
	oldest := w.Messages[19].ID

	w.Prepend(Message{ID: primitive.NewObjectID()}, 20)

	assert.Len(t, w.Messages, 20)
	// the previous tail fell off and the cursor moved up
	for _, m := range w.Messages {
		assert.NotEqual(t, oldest, m.ID)
	}
	assert.Equal(t, w.Messages[19].ID.Hex(), w.NextCursor)
}

func TestMessageWindow_PrependIntoEmpty(t *testing.T) {
	w := &MessageWindow{}
	msg := Message{ID: primitive.NewObjectID()}

	w.Prepend(msg, 20)

	assert.Len(t, w.Messages, 1)
	assert.Equal(t, msg.ID.Hex(), w.NextCursor)
}

func TestMessageWindow_ApplyReadReceiptPatch(t *testing.T) {
	me := primitive.NewObjectID()
	partner := primitive.NewObjectID()
	w := &MessageWindow{
		ReadReceipts: ReadReceipts{
			Me:      &ReadReceipt{UserID: me, Username: "alice"},
			Partner: &ReadReceipt{UserID: partner, Username: "bob"},
		},
	}

	msgID := primitive.NewObjectID()
	at := time.Now()

	applied := w.ApplyReadReceiptPatch(ReadReceiptPatch{UserID: partner, LastReadMessageID: msgID, At: at})

	assert.True(t, applied)
	assert.Equal(t, msgID, *w.ReadReceipts.Partner.LastReadMessageID)
	assert.Equal(t, at, *w.ReadReceipts.Partner.LastReadAt)
	assert.Nil(t, w.ReadReceipts.Me.LastReadMessageID)
}

func TestMessageWindow_ApplyReadReceiptPatchUnknownUser(t *testing.T) {
	w := &MessageWindow{
		ReadReceipts: ReadReceipts{
			Me: &ReadReceipt{UserID: primitive.NewObjectID()},
		},
	}

	applied := w.ApplyReadReceiptPatch(ReadReceiptPatch{UserID: primitive.NewObjectID()})

	assert.False(t, applied)
}

func TestPairRoomName(t *testing.T) {
	assert.Equal(t, "alice-bob", PairRoomName("alice", "bob"))
	assert.Equal(t, "alice-bob", PairRoomName("bob", "alice"))
}

func TestIsPairRoom(t *testing.T) {
	assert.True(t, IsPairRoom("alice-bob"))
	assert.False(t, IsPairRoom("alice"))
}
