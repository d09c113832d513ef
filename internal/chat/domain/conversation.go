package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationType definition conversation type
type ConversationType string

const (
	// ConversationDirect 1 on 1 conversation
	ConversationDirect ConversationType = "direct"
	// ConversationGroup group conversation
	ConversationGroup ConversationType = "group"
	// ConversationSystem system conversation
	ConversationSystem ConversationType = "system"
)

// ParticipantRole definition participant role
type ParticipantRole string

const (
	// RoleMember plain participant
	RoleMember ParticipantRole = "member"
	// RoleAdmin group admin
	RoleAdmin ParticipantRole = "admin"
	// RoleOwner group owner
	RoleOwner ParticipantRole = "owner"
)

// Participant one member of a conversation with their read pointer
type Participant struct {
	UserID            primitive.ObjectID  `bson:"userId" json:"user_id"`
	Role              ParticipantRole     `bson:"role" json:"role"`
	JoinedAt          time.Time           `bson:"joinedAt" json:"joined_at"`
	LastReadMessageID *primitive.ObjectID `bson:"lastReadMessageId,omitempty" json:"last_read_message_id,omitempty"`
	LastReadAt        *time.Time          `bson:"lastReadAt,omitempty" json:"last_read_at,omitempty"`
}

// LastMessage denormalized newest-message summary on the conversation
type LastMessage struct {
	MessageID      primitive.ObjectID `bson:"messageId" json:"message_id"`
	SenderID       primitive.ObjectID `bson:"senderId" json:"sender_id"`
	ContentPreview string             `bson:"contentPreview" json:"content_preview"`
	At             time.Time          `bson:"at" json:"at"`
}

// UnreadEntry per-participant unread counter; absence means zero
type UnreadEntry struct {
	UserID primitive.ObjectID `bson:"userId" json:"user_id"`
	Count  int                `bson:"count" json:"count"`
}

// Conversation durable record grouping participants and their message
// history. Direct conversations always hold exactly two participants and
// updatedAt advances on every new message.
type Conversation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type         ConversationType   `bson:"type" json:"type"`
	Participants []Participant      `bson:"participants" json:"participants"`
	LastMessage  *LastMessage       `bson:"lastMessage,omitempty" json:"last_message,omitempty"`
	UnreadMap    []UnreadEntry      `bson:"unreadMap,omitempty" json:"unread_map,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}

// ParticipantFor returns the participant entry for userID, nil if absent
func (c *Conversation) ParticipantFor(userID primitive.ObjectID) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// PartnerOf returns the other participant of a direct conversation
func (c *Conversation) PartnerOf(userID primitive.ObjectID) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID != userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// UnreadCountFor returns the unread counter for userID, zero if absent
func (c *Conversation) UnreadCountFor(userID primitive.ObjectID) int {
	for _, e := range c.UnreadMap {
		if e.UserID == userID {
			return e.Count
		}
	}
	return 0
}

// RecentConversation one row of the recent-conversations listing
type RecentConversation struct {
	ConversationID  primitive.ObjectID `json:"conversation_id"`
	PartnerUsername string             `json:"partner_username"`
	PartnerAvatar   string             `json:"partner_avatar,omitempty"`
	LastMessage     *LastMessage       `json:"last_message,omitempty"`
	UnreadCount     int                `json:"unread_count"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
