package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"connecthub/support-api/internal/domain/support"
)

// HTTPNotifier delivers escalation notifications to the operator console
// via HTTP POST. When no webhook URL is configured every notification is a
// silent no-op.
type HTTPNotifier struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewHTTPNotifier creates an HTTP-based escalation notifier.
func NewHTTPNotifier(url string, log zerolog.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log:        log.With().Str("component", "webhook").Logger(),
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}
}

// NotifyEscalated implements support.EscalationNotifier.
func (s *HTTPNotifier) NotifyEscalated(ctx context.Context, conv *support.Conversation, reason string) error {
	if s.url == "" {
		s.log.Debug().Str("conversation_id", conv.PublicID).Msg("no webhook URL configured, skipping notification")
		return nil
	}

	payload := EscalationPayload{
		Event:          "conversation.escalated",
		ConversationID: conv.PublicID,
		UserID:         conv.UserID,
		Reason:         reason,
		EscalatedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	return s.send(ctx, payload)
}

func (s *HTTPNotifier) send(ctx context.Context, payload EscalationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create webhook request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "connecthub-support-api/1.0")
		req.Header.Set("X-ConnectHub-Event", payload.Event)
		req.Header.Set("X-ConnectHub-Conversation-ID", payload.ConversationID)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send webhook (attempt %d/%d): %w", attempt, s.maxRetries, err)
			s.log.Warn().Err(err).Str("url", s.url).Int("attempt", attempt).Msg("webhook delivery failed")

			if attempt < s.maxRetries {
				time.Sleep(s.retryDelay)
				continue
			}
			break
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Info().Str("url", s.url).Int("status", resp.StatusCode).Str("conversation_id", payload.ConversationID).Msg("webhook delivered")
			return nil
		}

		lastErr = fmt.Errorf("webhook returned status %d (attempt %d/%d)", resp.StatusCode, attempt, s.maxRetries)
		s.log.Warn().Int("status", resp.StatusCode).Str("url", s.url).Int("attempt", attempt).Msg("webhook delivery failed")

		if attempt < s.maxRetries {
			time.Sleep(s.retryDelay)
		}
	}

	return lastErr
}
