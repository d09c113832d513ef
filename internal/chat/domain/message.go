package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageType definition message type
type MessageType string

const (
	// MessageText plain text message
	MessageText MessageType = "text"
	// MessageImage image message
	MessageImage MessageType = "image"
	// MessageFile file message
	MessageFile MessageType = "file"
	// MessageSystem system message
	MessageSystem MessageType = "system"
	// MessageCall call record message
	MessageCall MessageType = "call"
	// MessageReaction reaction message
	MessageReaction MessageType = "reaction"
)

// MaxContentLength upper bound for message content after trimming
const MaxContentLength = 4000

// ContentPreviewLength truncation bound for lastMessage.contentPreview
const ContentPreviewLength = 120

// Message append-only chat message. The ObjectID is monotonically
// increasing per creation order and doubles as the pagination cursor.
type Message struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ConversationID   primitive.ObjectID  `bson:"conversationId" json:"conversation_id"`
	Sender           primitive.ObjectID  `bson:"sender" json:"sender"`
	Receiver         *primitive.ObjectID `bson:"receiver,omitempty" json:"receiver,omitempty"`
	Content          string              `bson:"content" json:"content"`
	Type             MessageType         `bson:"type" json:"type"`
	ReplyToMessageID *primitive.ObjectID `bson:"replyToMessageId,omitempty" json:"reply_to_message_id,omitempty"`
	Deleted          bool                `bson:"deleted" json:"deleted"`
	Edited           bool                `bson:"edited" json:"edited"`
	EditedAt         *time.Time          `bson:"editedAt,omitempty" json:"edited_at,omitempty"`
	Timestamp        time.Time           `bson:"timestamp" json:"timestamp"`
}

// NormalizeContent trims content and reports whether it is sendable
func NormalizeContent(content string) (string, bool) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > MaxContentLength {
		return trimmed, false
	}
	return trimmed, true
}

// Preview truncates content for the lastMessage summary. The bound
// counts runes so a multibyte character is never split.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= ContentPreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:ContentPreviewLength])
}
