package responses

import (
	"time"

	"connecthub/support-api/internal/domain/support"
)

// MessagePayload is one message as returned to clients.
type MessagePayload struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	SenderType     string  `json:"sender_type"`
	SenderID       *string `json:"sender_id,omitempty"`
	Text           string  `json:"text"`
	CreatedAt      string  `json:"created_at"`
}

// ConversationPayload is one conversation as returned to clients.
type ConversationPayload struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	Status        string           `json:"status"`
	RequiresHuman bool             `json:"requires_human"`
	Messages      []MessagePayload `json:"messages,omitempty"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

// ChatResponse is the outcome of one inbound user turn.
type ChatResponse struct {
	Response         string `json:"response"`
	MessageID        string `json:"message_id"`
	CreatedAt        string `json:"created_at"`
	ForwardedToAdmin bool   `json:"forwarded_to_admin,omitempty"`
}

// OperatorReplyResponse confirms a persisted operator message. RequiresHuman
// reports the flag state after the reply: true means the clear failed and the
// conversation is still queued for an operator.
type OperatorReplyResponse struct {
	Message       MessagePayload `json:"message"`
	RequiresHuman bool           `json:"requires_human"`
}

// MessagesResponse wraps a conversation's message history.
type MessagesResponse struct {
	Data []MessagePayload `json:"data"`
}

// QueueResponse wraps the operator conversation queue.
type QueueResponse struct {
	Data []ConversationPayload `json:"data"`
}

// MapMessage maps a domain message to its payload, resolving the owning
// conversation's public id.
func MapMessage(conversationID string, m *support.Message) MessagePayload {
	return MessagePayload{
		ID:             m.PublicID,
		ConversationID: conversationID,
		SenderType:     string(m.Sender),
		SenderID:       m.SenderID,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// MapMessages maps a history slice in order.
func MapMessages(conversationID string, msgs []support.Message) []MessagePayload {
	out := make([]MessagePayload, 0, len(msgs))
	for i := range msgs {
		out = append(out, MapMessage(conversationID, &msgs[i]))
	}
	return out
}

// MapConversation maps a domain conversation, including any loaded messages.
func MapConversation(c *support.Conversation) ConversationPayload {
	return ConversationPayload{
		ID:            c.PublicID,
		UserID:        c.UserID,
		Status:        string(c.Status),
		RequiresHuman: c.RequiresHuman,
		Messages:      MapMessages(c.PublicID, c.Messages),
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// MapChatResult maps a routed turn to the chat response shape.
func MapChatResult(res *support.InboundResult) ChatResponse {
	out := ChatResponse{ForwardedToAdmin: res.Forwarded}
	if res.Message != nil {
		out.Response = res.Message.Text
		out.MessageID = res.Message.PublicID
		out.CreatedAt = res.Message.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}
