package support

import (
	"time"
)

// ===============================================
// Conversation Types
// ===============================================

// ConversationStatus tracks the lifecycle of a support thread.
type ConversationStatus string

const (
	ConversationStatusActive   ConversationStatus = "active"
	ConversationStatusResolved ConversationStatus = "resolved"
)

// SenderType indicates who authored a support message.
type SenderType string

const (
	SenderUser     SenderType = "user"
	SenderBot      SenderType = "bot"
	SenderOperator SenderType = "operator"
)

// Valid reports whether the sender type is one of the closed set.
func (s SenderType) Valid() bool {
	switch s {
	case SenderUser, SenderBot, SenderOperator:
		return true
	}
	return false
}

// ===============================================
// Conversation Structure
// ===============================================

// Conversation is a per-user support thread. At most one active conversation
// exists per user at any time; resolving a conversation is terminal and a
// later widget open creates a fresh one.
type Conversation struct {
	ID            uint               `json:"-"`
	PublicID      string             `json:"id"` // string ID like "conv_01h..."
	UserID        string             `json:"user_id"`
	Status        ConversationStatus `json:"status"`
	RequiresHuman bool               `json:"requires_human"`
	Messages      []Message          `json:"messages,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Message is one append-only entry in a conversation. Messages are never
// mutated or deleted; duplicate suppression on delivery is by PublicID only.
type Message struct {
	ID             uint       `json:"-"`
	PublicID       string     `json:"id"`
	ConversationID uint       `json:"-"`
	Sender         SenderType `json:"sender_type"`
	SenderID       *string    `json:"sender_id,omitempty"` // nil for bot messages
	Text           string     `json:"text"`
	CreatedAt      time.Time  `json:"created_at"`
}
