package v1

import (
	"github.com/gin-gonic/gin"

	"connecthub/support-api/internal/interfaces/httpserver/handlers"
)

func registerSupportRoutes(group *gin.RouterGroup, chat *handlers.ChatHandler, operator *handlers.OperatorHandler) {
	support := group.Group("/support")

	support.POST("/chat", chat.Chat)
	support.POST("/conversations", chat.OpenConversation)
	support.GET("/conversations", operator.Queue)
	support.GET("/conversations/:conversation_id/messages", chat.ListMessages)
	support.GET("/conversations/:conversation_id/ws", chat.Subscribe)
	support.POST("/conversations/:conversation_id/operator-reply", operator.Reply)
	support.POST("/conversations/:conversation_id/resolve", operator.Resolve)
}
