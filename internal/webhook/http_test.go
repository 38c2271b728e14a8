package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/webhook"
)

func TestNotifyEscalatedDeliversPayload(t *testing.T) {
	var got webhook.EscalationPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-ConnectHub-Event") != "conversation.escalated" {
			t.Errorf("unexpected event header %q", r.Header.Get("X-ConnectHub-Event"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := webhook.NewHTTPNotifier(server.URL, zerolog.Nop())
	conv := &support.Conversation{
		PublicID: "conv_01h2xcejqtf2nbrexx3vqjhp41",
		UserID:   "user-1",
	}

	if err := notifier.NotifyEscalated(context.Background(), conv, "keyword"); err != nil {
		t.Fatalf("NotifyEscalated: %v", err)
	}

	if got.ConversationID != conv.PublicID {
		t.Errorf("expected conversation id %s, got %s", conv.PublicID, got.ConversationID)
	}
	if got.UserID != "user-1" || got.Reason != "keyword" {
		t.Errorf("unexpected payload %+v", got)
	}
	if got.EscalatedAt == "" {
		t.Error("expected escalated_at to be set")
	}
}

func TestNotifyEscalatedNoURLIsNoop(t *testing.T) {
	notifier := webhook.NewHTTPNotifier("", zerolog.Nop())
	conv := &support.Conversation{PublicID: "conv_x", UserID: "user-1"}

	if err := notifier.NotifyEscalated(context.Background(), conv, "explicit"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestNotifyEscalatedReportsServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := webhook.NewHTTPNotifier(server.URL, zerolog.Nop())
	conv := &support.Conversation{PublicID: "conv_x", UserID: "user-1"}

	if err := notifier.NotifyEscalated(context.Background(), conv, "keyword"); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}
