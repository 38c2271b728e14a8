package requests

// ChatRequest is one inbound user turn.
type ChatRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	UserID         string `json:"user_id" binding:"required"`
	Message        string `json:"message"`
	ForwardToAdmin bool   `json:"forward_to_admin"`
}

// OpenConversationRequest opens (or re-opens) the support widget for a user.
type OpenConversationRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// OperatorReplyRequest carries a human operator's reply.
type OperatorReplyRequest struct {
	OperatorID string `json:"operator_id" binding:"required"`
	Message    string `json:"message" binding:"required"`
}
