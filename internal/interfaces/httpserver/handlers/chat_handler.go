package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/infrastructure/observability"
	"connecthub/support-api/internal/infrastructure/realtime"
	"connecthub/support-api/internal/interfaces/httpserver/requests"
	"connecthub/support-api/internal/interfaces/httpserver/responses"
	"connecthub/support-api/internal/utils/convoid"
	"connecthub/support-api/internal/utils/platformerrors"
)

// ChatHandler exposes the user-facing support chat endpoints.
type ChatHandler struct {
	router    *support.Router
	lifecycle *support.Lifecycle
	hub       *realtime.Hub
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(router *support.Router, lifecycle *support.Lifecycle, hub *realtime.Hub, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		router:    router,
		lifecycle: lifecycle,
		hub:       hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser widget and operator console run on other origins;
			// auth is handled by the JWT middleware, not the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log.With().Str("handler", "chat").Logger(),
	}
}

// Chat handles POST /v1/support/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req requests.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid chat request", "chat-bad-request")
		return
	}
	if !convoid.IsConversation(req.ConversationID) {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid conversation id", "chat-bad-conversation-id")
		return
	}

	ctx, span := observability.StartInboundSpan(c.Request.Context(), req.ConversationID)
	defer span.End()

	result, err := h.router.HandleInbound(ctx, req.ConversationID, req.UserID, req.Message, req.ForwardToAdmin)
	if err != nil {
		responses.HandleError(c, err, "failed to handle message")
		return
	}

	c.JSON(http.StatusOK, responses.MapChatResult(result))
}

// OpenConversation handles POST /v1/support/conversations
func (h *ChatHandler) OpenConversation(c *gin.Context) {
	var req requests.OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid conversation request", "conversation-bad-request")
		return
	}

	conv, err := h.lifecycle.GetOrCreateActive(c.Request.Context(), req.UserID)
	if err != nil {
		responses.HandleError(c, err, "failed to open conversation")
		return
	}

	if len(conv.Messages) == 0 {
		history, err := h.lifecycle.History(c.Request.Context(), conv.PublicID)
		if err != nil {
			responses.HandleError(c, err, "failed to load conversation history")
			return
		}
		conv.Messages = history
	}

	c.JSON(http.StatusOK, responses.MapConversation(conv))
}

// ListMessages handles GET /v1/support/conversations/:conversation_id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	msgs, err := h.lifecycle.History(c.Request.Context(), conversationID)
	if err != nil {
		responses.HandleError(c, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, responses.MessagesResponse{
		Data: responses.MapMessages(conversationID, msgs),
	})
}

// Subscribe handles GET /v1/support/conversations/:conversation_id/ws
func (h *ChatHandler) Subscribe(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	if _, err := h.lifecycle.Get(c.Request.Context(), conversationID); err != nil {
		responses.HandleError(c, err, "failed to subscribe")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("websocket upgrade failed")
		return
	}

	h.hub.Subscribe(conversationID, conn)
}
