package llmprovider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"connecthub/support-api/internal/domain/llm"
	"connecthub/support-api/internal/infrastructure/metrics"
)

// Client implements the llm.Provider interface against an OpenAI-compatible
// chat completions endpoint.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a Resty-backed client. The apiKey may be empty when the
// gateway is fronted by a trusted network.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &Client{httpClient: client}
}

// Ensure interface compliance.
var _ llm.Provider = (*Client)(nil)

// CreateChatCompletion calls the gateway's /v1/chat/completions endpoint.
// HTTP 429 maps to llm.ErrRateLimited and 402/503 to llm.ErrUnavailable so
// the router can distinguish retryable pressure from a persisted fallback.
func (c *Client) CreateChatCompletion(ctx context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	start := time.Now()

	var completion llm.ChatCompletionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&completion).
		Post("/v1/chat/completions")

	metrics.GatewayDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GatewayCallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("gateway request: %w", err)
	}

	if resp.IsError() {
		metrics.GatewayCallsTotal.WithLabelValues("error").Inc()
		switch resp.StatusCode() {
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("gateway returned %d: %w", resp.StatusCode(), llm.ErrRateLimited)
		case http.StatusPaymentRequired, http.StatusServiceUnavailable:
			return nil, fmt.Errorf("gateway returned %d: %w", resp.StatusCode(), llm.ErrUnavailable)
		default:
			return nil, fmt.Errorf("gateway error: %d %s", resp.StatusCode(), resp.String())
		}
	}

	metrics.GatewayCallsTotal.WithLabelValues("ok").Inc()
	return &completion, nil
}
