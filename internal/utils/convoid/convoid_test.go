package convoid_test

import (
	"strings"
	"sync"
	"testing"

	"connecthub/support-api/internal/utils/convoid"
)

func TestNewConversation(t *testing.T) {
	id := convoid.NewConversation()
	if !strings.HasPrefix(id, "conv_") {
		t.Errorf("expected conv_ prefix, got %s", id)
	}
	if !convoid.IsConversation(id) {
		t.Errorf("generated id must validate: %s", id)
	}
}

func TestNewMessage(t *testing.T) {
	id := convoid.NewMessage()
	if !strings.HasPrefix(id, "msg_") {
		t.Errorf("expected msg_ prefix, got %s", id)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := convoid.NewMessage()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestConcurrentGenerationIsUnique(t *testing.T) {
	const (
		goroutines = 8
		perRoutine = 500
	)

	var (
		mu   sync.Mutex
		seen = make(map[string]bool, goroutines*perRoutine)
		wg   sync.WaitGroup
	)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]string, 0, perRoutine)
			for i := 0; i < perRoutine; i++ {
				ids = append(ids, convoid.NewMessage())
			}

			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate id generated concurrently: %s", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perRoutine {
		t.Errorf("expected %d unique ids, got %d", goroutines*perRoutine, len(seen))
	}
}

func TestIsConversationRejectsGarbage(t *testing.T) {
	tests := []string{
		"",
		"conv_",
		"conv_notaulid",
		"msg_01h2xcejqtf2nbrexx3vqjhp41",
		"01h2xcejqtf2nbrexx3vqjhp41",
	}
	for _, value := range tests {
		if convoid.IsConversation(value) {
			t.Errorf("IsConversation(%q) must be false", value)
		}
	}
}
