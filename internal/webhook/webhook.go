package webhook

// EscalationPayload is the structure sent to the operator console webhook
// when a conversation starts requiring a human.
type EscalationPayload struct {
	Event          string `json:"event"` // always "conversation.escalated"
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Reason         string `json:"reason"` // "explicit" or "keyword"
	EscalatedAt    string `json:"escalated_at"`
}
