package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/interfaces/httpserver/requests"
	"connecthub/support-api/internal/interfaces/httpserver/responses"
	"connecthub/support-api/internal/utils/platformerrors"
)

// OperatorHandler exposes the operator console endpoints.
type OperatorHandler struct {
	lifecycle *support.Lifecycle
	log       zerolog.Logger
}

// NewOperatorHandler constructs the handler.
func NewOperatorHandler(lifecycle *support.Lifecycle, log zerolog.Logger) *OperatorHandler {
	return &OperatorHandler{
		lifecycle: lifecycle,
		log:       log.With().Str("handler", "operator").Logger(),
	}
}

// Queue handles GET /v1/support/conversations
func (h *OperatorHandler) Queue(c *gin.Context) {
	convs, err := h.lifecycle.Queue(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}

	payload := make([]responses.ConversationPayload, 0, len(convs))
	for _, conv := range convs {
		payload = append(payload, responses.MapConversation(conv))
	}
	c.JSON(http.StatusOK, responses.QueueResponse{Data: payload})
}

// Reply handles POST /v1/support/conversations/:conversation_id/operator-reply
func (h *OperatorHandler) Reply(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req requests.OperatorReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid operator reply", "operator-bad-request")
		return
	}

	msg, err := h.lifecycle.OperatorReply(c.Request.Context(), conversationID, req.OperatorID, req.Message)
	if err != nil {
		if msg != nil {
			// The reply was persisted but the escalation flag was not cleared;
			// the conversation stays queued and the response says so.
			h.log.Error().Err(err).Str("conversation_id", conversationID).Msg("operator reply stored, flag clear failed")
			c.JSON(http.StatusOK, responses.OperatorReplyResponse{
				Message:       responses.MapMessage(conversationID, msg),
				RequiresHuman: true,
			})
			return
		}
		responses.HandleError(c, err, "failed to send operator reply")
		return
	}

	c.JSON(http.StatusOK, responses.OperatorReplyResponse{
		Message: responses.MapMessage(conversationID, msg),
	})
}

// Resolve handles POST /v1/support/conversations/:conversation_id/resolve
func (h *OperatorHandler) Resolve(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	if err := h.lifecycle.Resolve(c.Request.Context(), conversationID); err != nil {
		responses.HandleError(c, err, "failed to resolve conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}
