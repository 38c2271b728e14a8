package support_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/utils/platformerrors"
)

// memStore is an in-memory ConversationRepository and MessageRepository.
type memStore struct {
	mu         sync.Mutex
	convs      []*support.Conversation
	msgs       map[uint][]support.Message
	nextConvID uint
	nextMsgID  uint
	clock      time.Time

	hideActiveOnce       bool
	failTouch            bool
	failSetRequiresHuman bool
}

func newMemStore() *memStore {
	return &memStore{
		msgs:  make(map[uint][]support.Message),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) Create(ctx context.Context, conv *support.Conversation, welcome *support.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.convs {
		if existing.UserID == conv.UserID && existing.Status == support.ConversationStatusActive {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict, "conversation already exists", nil, "test-conflict")
		}
	}

	s.nextConvID++
	conv.ID = s.nextConvID
	conv.CreatedAt = s.tick()
	conv.UpdatedAt = conv.CreatedAt
	stored := *conv
	s.convs = append(s.convs, &stored)

	s.nextMsgID++
	welcome.ID = s.nextMsgID
	welcome.ConversationID = conv.ID
	welcome.CreatedAt = s.tick()
	s.msgs[conv.ID] = append(s.msgs[conv.ID], *welcome)
	return nil
}

func (s *memStore) FindActiveByUser(ctx context.Context, userID string) (*support.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hideActiveOnce {
		s.hideActiveOnce = false
		return nil, nil
	}

	var found *support.Conversation
	for _, conv := range s.convs {
		if conv.UserID == userID && conv.Status == support.ConversationStatusActive {
			if found == nil || conv.CreatedAt.After(found.CreatedAt) {
				found = conv
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	out := *found
	return &out, nil
}

func (s *memStore) FindByPublicID(ctx context.Context, publicID string) (*support.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conv := range s.convs {
		if conv.PublicID == publicID {
			out := *conv
			return &out, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "conversation not found", nil, "test-not-found")
}

func (s *memStore) List(ctx context.Context) ([]*support.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*support.Conversation, 0, len(s.convs))
	for _, conv := range s.convs {
		c := *conv
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RequiresHuman != out[j].RequiresHuman {
			return out[i].RequiresHuman
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *memStore) SetRequiresHuman(ctx context.Context, id uint, requiresHuman bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSetRequiresHuman {
		return errors.New("flag update failed")
	}
	conv := s.byID(id)
	if conv == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "conversation not found", nil, "test-not-found")
	}
	conv.RequiresHuman = requiresHuman
	conv.UpdatedAt = s.tick()
	return nil
}

func (s *memStore) SetStatus(ctx context.Context, id uint, status support.ConversationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.byID(id)
	if conv == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "conversation not found", nil, "test-not-found")
	}
	conv.Status = status
	conv.UpdatedAt = s.tick()
	return nil
}

func (s *memStore) Touch(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failTouch {
		return errors.New("touch failed")
	}
	conv := s.byID(id)
	if conv == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "conversation not found", nil, "test-not-found")
	}
	conv.UpdatedAt = s.tick()
	return nil
}

func (s *memStore) Append(ctx context.Context, msg *support.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMsgID++
	msg.ID = s.nextMsgID
	msg.CreatedAt = s.tick()
	s.msgs[msg.ConversationID] = append(s.msgs[msg.ConversationID], *msg)
	return nil
}

func (s *memStore) ListByConversation(ctx context.Context, conversationID uint) ([]support.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]support.Message, len(s.msgs[conversationID]))
	copy(out, s.msgs[conversationID])
	return out, nil
}

func (s *memStore) ListRecent(ctx context.Context, conversationID uint, limit int) ([]support.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.msgs[conversationID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]support.Message, len(all))
	copy(out, all)
	return out, nil
}

func (s *memStore) byID(id uint) *support.Conversation {
	for _, conv := range s.convs {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// recordingPublisher captures published messages.
type recordingPublisher struct {
	mu     sync.Mutex
	events []support.Message
}

func (p *recordingPublisher) Publish(conversationPublicID string, msg support.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newTestLifecycle(store *memStore) (*support.Lifecycle, *recordingPublisher) {
	pub := &recordingPublisher{}
	return support.NewLifecycle(store, store, pub, zerolog.Nop()), pub
}

func TestGetOrCreateActiveCreatesWithWelcome(t *testing.T) {
	store := newMemStore()
	lifecycle, pub := newTestLifecycle(store)

	conv, err := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}
	if conv.Status != support.ConversationStatusActive {
		t.Errorf("expected active status, got %s", conv.Status)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Text != support.WelcomeMessage {
		t.Fatalf("expected welcome message, got %+v", conv.Messages)
	}
	if conv.Messages[0].Sender != support.SenderBot {
		t.Errorf("welcome must be a bot message, got %s", conv.Messages[0].Sender)
	}
	if pub.count() != 1 {
		t.Errorf("expected 1 published event, got %d", pub.count())
	}
}

func TestGetOrCreateActiveReturnsExisting(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	first, err := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.PublicID != second.PublicID {
		t.Errorf("expected same conversation, got %s and %s", first.PublicID, second.PublicID)
	}
}

func TestGetOrCreateActiveLosingRaceDegradesToLookup(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	// Seed the winner, then make the next lookup miss it so Create runs and
	// hits the storage-level unique constraint, as in a concurrent open.
	winner, err := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	store.hideActiveOnce = true

	got, err := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetOrCreateActive after conflict: %v", err)
	}
	if got.PublicID != winner.PublicID {
		t.Errorf("expected winner %s, got %s", winner.PublicID, got.PublicID)
	}
}

func TestGetOrCreateActiveRequiresUserID(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	_, err := lifecycle.GetOrCreateActive(context.Background(), "")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestResolveAfterwardsCreatesFreshConversation(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	first, err := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := lifecycle.Resolve(context.Background(), first.PublicID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	second, err := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if second.PublicID == first.PublicID {
		t.Error("resolved conversation must not be reused")
	}
}

func TestAppendOrderingAndPublish(t *testing.T) {
	store := newMemStore()
	lifecycle, pub := newTestLifecycle(store)

	conv, _ := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	userID := "user-1"
	if _, err := lifecycle.Append(context.Background(), conv.PublicID, support.SenderUser, &userID, "first"); err != nil {
		t.Fatalf("append user: %v", err)
	}
	if _, err := lifecycle.Append(context.Background(), conv.PublicID, support.SenderBot, nil, "second"); err != nil {
		t.Fatalf("append bot: %v", err)
	}

	history, err := lifecycle.History(context.Background(), conv.PublicID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	if history[1].Text != "first" || history[2].Text != "second" {
		t.Errorf("messages out of order: %+v", history)
	}
	// welcome + two appends
	if pub.count() != 3 {
		t.Errorf("expected 3 published events, got %d", pub.count())
	}
}

func TestAppendRejectsUnknownSender(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	conv, _ := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	_, err := lifecycle.Append(context.Background(), conv.PublicID, support.SenderType("ghost"), nil, "boo")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAppendSurvivesTouchFailure(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	conv, _ := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	store.failTouch = true

	msg, err := lifecycle.Append(context.Background(), conv.PublicID, support.SenderBot, nil, "still here")
	if err != nil {
		t.Fatalf("append must not fail on touch error: %v", err)
	}
	if msg == nil || msg.Text != "still here" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestMarkRequiresHumanIsIdempotent(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	conv, _ := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err := lifecycle.MarkRequiresHuman(context.Background(), conv.PublicID); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	firstUpdated := store.byID(conv.ID).UpdatedAt

	if err := lifecycle.MarkRequiresHuman(context.Background(), conv.PublicID); err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if !store.byID(conv.ID).UpdatedAt.Equal(firstUpdated) {
		t.Error("re-marking must be a no-op")
	}
}

func TestClearRequiresHumanIsIdempotent(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	conv, _ := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err := lifecycle.ClearRequiresHuman(context.Background(), conv.PublicID); err != nil {
		t.Fatalf("clearing an unset flag must succeed: %v", err)
	}

	_ = lifecycle.MarkRequiresHuman(context.Background(), conv.PublicID)
	if err := lifecycle.ClearRequiresHuman(context.Background(), conv.PublicID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.byID(conv.ID).RequiresHuman {
		t.Error("flag not cleared")
	}
}

func TestResolveIsIdempotentAndNotFoundSurfaces(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	conv, _ := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	if err := lifecycle.Resolve(context.Background(), conv.PublicID); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := lifecycle.Resolve(context.Background(), conv.PublicID); err != nil {
		t.Fatalf("second resolve must be a no-op: %v", err)
	}

	err := lifecycle.Resolve(context.Background(), "conv_missing")
	if !platformerrors.IsType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestOperatorReplyClearsFlag(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	conv, _ := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	_ = lifecycle.MarkRequiresHuman(context.Background(), conv.PublicID)

	msg, err := lifecycle.OperatorReply(context.Background(), conv.PublicID, "op-7", "An agent here, how can I help?")
	if err != nil {
		t.Fatalf("operator reply: %v", err)
	}
	if msg.Sender != support.SenderOperator {
		t.Errorf("expected operator sender, got %s", msg.Sender)
	}
	if msg.SenderID == nil || *msg.SenderID != "op-7" {
		t.Errorf("expected sender id op-7, got %v", msg.SenderID)
	}
	if store.byID(conv.ID).RequiresHuman {
		t.Error("requires-human flag must be cleared after operator reply")
	}
}

func TestOperatorReplyKeepsMessageWhenClearFails(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	conv, _ := lifecycle.GetOrCreateActive(context.Background(), "user-1")
	_ = lifecycle.MarkRequiresHuman(context.Background(), conv.PublicID)
	store.failSetRequiresHuman = true

	msg, err := lifecycle.OperatorReply(context.Background(), conv.PublicID, "op-7", "reply")
	if err == nil {
		t.Fatal("expected error when flag clear fails")
	}
	if msg == nil || msg.Text != "reply" {
		t.Errorf("persisted message must be returned alongside the error, got %+v", msg)
	}

	history, _ := lifecycle.History(context.Background(), conv.PublicID)
	if len(history) != 2 {
		t.Errorf("expected the reply in history, got %d messages", len(history))
	}
}

func TestQueueOrdersEscalatedFirst(t *testing.T) {
	store := newMemStore()
	lifecycle, _ := newTestLifecycle(store)

	quiet, _ := lifecycle.GetOrCreateActive(context.Background(), "user-quiet")
	loud, _ := lifecycle.GetOrCreateActive(context.Background(), "user-loud")

	// quiet is the most recently active but loud needs a human.
	_ = lifecycle.MarkRequiresHuman(context.Background(), loud.PublicID)
	userID := "user-quiet"
	_, _ = lifecycle.Append(context.Background(), quiet.PublicID, support.SenderUser, &userID, "latest activity")

	queue, err := lifecycle.Queue(context.Background())
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(queue))
	}
	if queue[0].PublicID != loud.PublicID {
		t.Errorf("escalated conversation must sort first, got %s", queue[0].PublicID)
	}
}
