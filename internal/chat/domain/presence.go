package domain

import "time"

// LastSeenEntry one popped element of the volatile last-seen structure
type LastSeenEntry struct {
	UserID string
	At     time.Time
}

// PresenceUpdate payload of a presence transition event
type PresenceUpdate struct {
	Username string     `json:"username"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// DirtyReadMarker one pending read-receipt marker awaiting durable sync
type DirtyReadMarker struct {
	ConversationID string
	UserID         string
}
