package support

import (
	"context"
)

// ConversationRepository persists conversation state. Implementations must
// enforce the one-active-conversation-per-user constraint at the storage
// layer and report a Conflict-typed error when Create loses that race.
type ConversationRepository interface {
	// Create inserts the conversation and its welcome message atomically.
	Create(ctx context.Context, conv *Conversation, welcome *Message) error

	// FindActiveByUser returns the most recently created active conversation
	// for the user, or nil when none exists.
	FindActiveByUser(ctx context.Context, userID string) (*Conversation, error)

	// FindByPublicID fetches a conversation; NotFound error for unknown ids.
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)

	// List returns the operator queue: conversations needing a human first,
	// then by most recent activity.
	List(ctx context.Context) ([]*Conversation, error)

	// SetRequiresHuman updates the escalation flag and bumps updated_at.
	SetRequiresHuman(ctx context.Context, id uint, requiresHuman bool) error

	// SetStatus updates the lifecycle status and bumps updated_at.
	SetStatus(ctx context.Context, id uint, status ConversationStatus) error

	// Touch bumps updated_at, used when a message is appended.
	Touch(ctx context.Context, id uint) error
}

// MessageRepository persists the append-only message log.
type MessageRepository interface {
	// Append inserts the message and fills in its generated fields.
	Append(ctx context.Context, msg *Message) error

	// ListByConversation returns every message in creation order
	// (created_at asc, insertion order as tiebreak).
	ListByConversation(ctx context.Context, conversationID uint) ([]Message, error)

	// ListRecent returns the most recent limit messages in creation order.
	ListRecent(ctx context.Context, conversationID uint, limit int) ([]Message, error)
}

// Publisher pushes newly appended messages to subscribed viewers (the user
// widget and the operator console). Delivery is best effort; the append
// itself is the durable record.
type Publisher interface {
	Publish(conversationPublicID string, msg Message)
}

// EscalationNotifier pings the operator console when a conversation starts
// requiring a human. Failures are logged, never surfaced to the user.
type EscalationNotifier interface {
	NotifyEscalated(ctx context.Context, conv *Conversation, reason string) error
}
