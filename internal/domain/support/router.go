package support

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"connecthub/support-api/internal/domain/llm"
	"connecthub/support-api/internal/infrastructure/metrics"
	"connecthub/support-api/internal/utils/platformerrors"
)

// Router is the single entry point for inbound user messages. It persists the
// user's turn, runs the escalation policy, and produces exactly one visible
// outcome per turn: a generated reply, a canned acknowledgement, a fallback
// apology, or a retryable rate-limit/unavailable error.
type Router struct {
	lifecycle      *Lifecycle
	gateway        llm.Provider
	notifier       EscalationNotifier
	model          string
	historyLimit   int
	gatewayTimeout time.Duration
	log            zerolog.Logger
}

// RouterConfig carries the gateway knobs the router needs.
type RouterConfig struct {
	Model          string
	HistoryLimit   int
	GatewayTimeout time.Duration
}

// NewRouter builds the message router.
func NewRouter(lifecycle *Lifecycle, gateway llm.Provider, notifier EscalationNotifier, cfg RouterConfig, log zerolog.Logger) *Router {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 30 * time.Second
	}
	return &Router{
		lifecycle:      lifecycle,
		gateway:        gateway,
		notifier:       notifier,
		model:          cfg.Model,
		historyLimit:   cfg.HistoryLimit,
		gatewayTimeout: cfg.GatewayTimeout,
		log:            log.With().Str("component", "support-router").Logger(),
	}
}

// InboundResult is returned for every handled turn. Message carries the
// persisted bot reply so the caller can update its view without re-fetching.
type InboundResult struct {
	Message   *Message
	Forwarded bool
}

// HandleInbound processes one inbound user message.
//
// Rate-limited and unavailable gateway failures return a typed error and
// persist no bot turn, so the caller can retry without polluting history.
// Every other gateway failure, timeouts included, is recovered by persisting
// the fallback apology: the user never sees a dead end.
func (r *Router) HandleInbound(ctx context.Context, conversationID, userID, text string, explicitForward bool) (*InboundResult, error) {
	conv, err := r.lifecycle.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" && !explicitForward {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "message text is required", nil, "router-empty-message")
	}

	var userMsg *Message
	if trimmed != "" {
		userMsg, err = r.lifecycle.appendTo(ctx, conv, SenderUser, &userID, trimmed)
		if err != nil {
			return nil, err
		}
		metrics.MessagesTotal.WithLabelValues(string(SenderUser)).Inc()
	}

	decision := Decide(trimmed, explicitForward)
	if decision == DecisionEscalate {
		return r.escalate(ctx, conv, explicitForward)
	}
	return r.autoReply(ctx, conv, userMsg, trimmed)
}

func (r *Router) escalate(ctx context.Context, conv *Conversation, explicitForward bool) (*InboundResult, error) {
	if err := r.lifecycle.markRequiresHuman(ctx, conv); err != nil {
		return nil, err
	}

	ack := EscalationAcknowledgement
	trigger := "keyword"
	if explicitForward {
		ack = ForwardAcknowledgement
		trigger = "explicit"
	}
	metrics.EscalationsTotal.WithLabelValues(trigger).Inc()

	botMsg, err := r.lifecycle.appendTo(ctx, conv, SenderBot, nil, ack)
	if err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(SenderBot)).Inc()

	if r.notifier != nil {
		// Best effort; the flag in storage is the durable escalation record.
		go func(c Conversation, reason string) {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := r.notifier.NotifyEscalated(notifyCtx, &c, reason); err != nil {
				r.log.Warn().Err(err).Str("conversation_id", c.PublicID).Msg("escalation notification failed")
			}
		}(*conv, trigger)
	}

	return &InboundResult{Message: botMsg, Forwarded: true}, nil
}

func (r *Router) autoReply(ctx context.Context, conv *Conversation, userMsg *Message, text string) (*InboundResult, error) {
	history, err := r.lifecycle.recent(ctx, conv, r.historyLimit)
	if err != nil {
		return nil, err
	}

	req := llm.ChatCompletionRequest{
		Model:    r.model,
		Messages: make([]llm.ChatMessage, 0, len(history)+2),
	}
	req.Messages = append(req.Messages, llm.ChatMessage{Role: llm.RoleSystem, Content: SystemPrompt})
	for _, m := range history {
		if userMsg != nil && m.PublicID == userMsg.PublicID {
			continue // the new turn is appended explicitly below
		}
		role := llm.RoleAssistant
		if m.Sender == SenderUser {
			role = llm.RoleUser
		}
		req.Messages = append(req.Messages, llm.ChatMessage{Role: role, Content: m.Text})
	}
	req.Messages = append(req.Messages, llm.ChatMessage{Role: llm.RoleUser, Content: text})

	gatewayCtx, cancel := context.WithTimeout(ctx, r.gatewayTimeout)
	defer cancel()

	completion, err := r.gateway.CreateChatCompletion(gatewayCtx, req)
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrRateLimited):
			metrics.GatewayFailuresTotal.WithLabelValues("rate_limited").Inc()
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeRateLimited,
				"Service is busy, please try again in a moment.", err, "router-gateway-rate-limited")
		case errors.Is(err, llm.ErrUnavailable):
			metrics.GatewayFailuresTotal.WithLabelValues("unavailable").Inc()
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeUnavailable,
				"Service temporarily unavailable.", err, "router-gateway-unavailable")
		default:
			metrics.GatewayFailuresTotal.WithLabelValues("other").Inc()
			r.log.Error().Err(err).Str("conversation_id", conv.PublicID).Msg("gateway call failed, using fallback reply")
			return r.persistBotReply(ctx, conv, FailureFallback)
		}
	}

	reply := completion.FirstChoiceContent()
	if strings.TrimSpace(reply) == "" {
		reply = EmptyCompletionFallback
	}
	return r.persistBotReply(ctx, conv, reply)
}

func (r *Router) persistBotReply(ctx context.Context, conv *Conversation, text string) (*InboundResult, error) {
	botMsg, err := r.lifecycle.appendTo(ctx, conv, SenderBot, nil, text)
	if err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(SenderBot)).Inc()
	return &InboundResult{Message: botMsg}, nil
}
