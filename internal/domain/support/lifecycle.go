package support

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"connecthub/support-api/internal/utils/convoid"
	"connecthub/support-api/internal/utils/platformerrors"
)

// Lifecycle is the only component allowed to mutate conversation state and
// append messages. Every transition is idempotent and every append bumps the
// conversation's updated_at so the operator queue stays ordered.
type Lifecycle struct {
	convs     ConversationRepository
	msgs      MessageRepository
	publisher Publisher
	log       zerolog.Logger
}

// NewLifecycle builds the lifecycle manager.
func NewLifecycle(convs ConversationRepository, msgs MessageRepository, publisher Publisher, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		convs:     convs,
		msgs:      msgs,
		publisher: publisher,
		log:       log.With().Str("component", "support-lifecycle").Logger(),
	}
}

// GetOrCreateActive returns the user's active conversation, creating one with
// the welcome message when none exists. The storage layer enforces a single
// active conversation per user; losing the create race degrades to a lookup,
// so two rapid widget opens converge on one conversation.
func (l *Lifecycle) GetOrCreateActive(ctx context.Context, userID string) (*Conversation, error) {
	if userID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "user id is required", nil, "lifecycle-missing-user")
	}

	existing, err := l.convs.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	conv := &Conversation{
		PublicID: convoid.NewConversation(),
		UserID:   userID,
		Status:   ConversationStatusActive,
	}
	welcome := &Message{
		PublicID: convoid.NewMessage(),
		Sender:   SenderBot,
		Text:     WelcomeMessage,
	}

	if err := l.convs.Create(ctx, conv, welcome); err != nil {
		if platformerrors.IsType(err, platformerrors.ErrorTypeConflict) {
			// Another request created the active conversation first.
			winner, lookupErr := l.convs.FindActiveByUser(ctx, userID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, err
	}

	l.publish(conv.PublicID, *welcome)
	conv.Messages = []Message{*welcome}

	l.log.Info().Str("conversation_id", conv.PublicID).Str("user_id", userID).
		Msg("conversation created")
	return conv, nil
}

// Get fetches a conversation by its public id.
func (l *Lifecycle) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	return l.convs.FindByPublicID(ctx, conversationID)
}

// Append adds a message to the conversation. Append never fails because of
// conversation status: even a resolved conversation accepts a trailing note.
func (l *Lifecycle) Append(ctx context.Context, conversationID string, sender SenderType, senderID *string, text string) (*Message, error) {
	conv, err := l.convs.FindByPublicID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return l.appendTo(ctx, conv, sender, senderID, text)
}

// appendTo appends to an already-loaded conversation.
func (l *Lifecycle) appendTo(ctx context.Context, conv *Conversation, sender SenderType, senderID *string, text string) (*Message, error) {
	if !sender.Valid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, fmt.Sprintf("unknown sender type %q", sender), nil, "lifecycle-bad-sender")
	}

	msg := &Message{
		PublicID:       convoid.NewMessage(),
		ConversationID: conv.ID,
		Sender:         sender,
		SenderID:       senderID,
		Text:           text,
	}
	if err := l.msgs.Append(ctx, msg); err != nil {
		return nil, err
	}
	if err := l.convs.Touch(ctx, conv.ID); err != nil {
		// The message is durable; a stale updated_at only mis-sorts the queue.
		l.log.Warn().Err(err).Str("conversation_id", conv.PublicID).Msg("touch conversation failed")
	}

	l.publish(conv.PublicID, *msg)
	return msg, nil
}

// MarkRequiresHuman flags the conversation for operator attention. Setting an
// already-set flag is a no-op.
func (l *Lifecycle) MarkRequiresHuman(ctx context.Context, conversationID string) error {
	conv, err := l.convs.FindByPublicID(ctx, conversationID)
	if err != nil {
		return err
	}
	return l.markRequiresHuman(ctx, conv)
}

func (l *Lifecycle) markRequiresHuman(ctx context.Context, conv *Conversation) error {
	if conv.RequiresHuman {
		return nil
	}
	if err := l.convs.SetRequiresHuman(ctx, conv.ID, true); err != nil {
		return err
	}
	conv.RequiresHuman = true
	l.log.Info().Str("conversation_id", conv.PublicID).Msg("conversation escalated to human")
	return nil
}

// ClearRequiresHuman removes the escalation flag. Clearing an already-clear
// flag is a no-op.
func (l *Lifecycle) ClearRequiresHuman(ctx context.Context, conversationID string) error {
	conv, err := l.convs.FindByPublicID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.RequiresHuman {
		return nil
	}
	return l.convs.SetRequiresHuman(ctx, conv.ID, false)
}

// Resolve marks the conversation resolved. It does not touch the
// requires-human flag: resolving and clearing escalation are independent.
func (l *Lifecycle) Resolve(ctx context.Context, conversationID string) error {
	conv, err := l.convs.FindByPublicID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.Status == ConversationStatusResolved {
		return nil
	}
	return l.convs.SetStatus(ctx, conv.ID, ConversationStatusResolved)
}

// OperatorReply appends the operator's message and then clears the
// requires-human flag. If the clear fails after the append succeeded, the
// persisted message is returned together with the error: the conversation
// stays in the operator queue rather than losing the escalation.
func (l *Lifecycle) OperatorReply(ctx context.Context, conversationID, operatorID, text string) (*Message, error) {
	conv, err := l.convs.FindByPublicID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	msg, err := l.appendTo(ctx, conv, SenderOperator, &operatorID, text)
	if err != nil {
		return nil, err
	}

	if conv.RequiresHuman {
		if err := l.convs.SetRequiresHuman(ctx, conv.ID, false); err != nil {
			l.log.Error().Err(err).Str("conversation_id", conv.PublicID).
				Msg("operator replied but clearing requires-human failed")
			return msg, err
		}
	}
	return msg, nil
}

// Queue returns conversations for the operator console, human-needing first,
// then most recently active.
func (l *Lifecycle) Queue(ctx context.Context) ([]*Conversation, error) {
	return l.convs.List(ctx)
}

// History returns every message of the conversation in creation order.
func (l *Lifecycle) History(ctx context.Context, conversationID string) ([]Message, error) {
	conv, err := l.convs.FindByPublicID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return l.msgs.ListByConversation(ctx, conv.ID)
}

// recent returns the newest limit messages in creation order.
func (l *Lifecycle) recent(ctx context.Context, conv *Conversation, limit int) ([]Message, error) {
	return l.msgs.ListRecent(ctx, conv.ID, limit)
}

func (l *Lifecycle) publish(conversationID string, msg Message) {
	if l.publisher == nil {
		return
	}
	l.publisher.Publish(conversationID, msg)
}
