package convoid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.LockedMonotonicReader
)

// newEntropy returns the shared entropy source. The locked reader keeps
// concurrent id generation from racing on the underlying rand state.
func newEntropy() *ulid.LockedMonotonicReader {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rand.New(source), 0),
		}
	})
	return entropy
}

func newID(prefix string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return prefix + "_" + strings.ToLower(id.String())
}

// NewConversation returns a conv_* ULID string.
func NewConversation() string {
	return newID("conv")
}

// NewMessage returns a msg_* ULID string.
func NewMessage() string {
	return newID("msg")
}

// IsConversation reports whether the string is a conv_* ULID.
func IsConversation(value string) bool {
	return isValid(value, "conv_")
}

func isValid(value, prefix string) bool {
	if !strings.HasPrefix(value, prefix) {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(strings.TrimPrefix(value, prefix)))
	return err == nil
}
