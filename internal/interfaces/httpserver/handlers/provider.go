package handlers

import (
	"github.com/rs/zerolog"

	"connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/infrastructure/realtime"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat     *ChatHandler
	Operator *OperatorHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(router *support.Router, lifecycle *support.Lifecycle, hub *realtime.Hub, log zerolog.Logger) *Provider {
	return &Provider{
		Chat:     NewChatHandler(router, lifecycle, hub, log),
		Operator: NewOperatorHandler(lifecycle, log),
	}
}
