package buffer

import (
	"go-toolrouter/pkg/models"
	"sync"
)

// History is an append-only conversation log shared by the runs of one session.
type History struct {
	mu    sync.RWMutex
	items []models.ChatMessage
}

func New(items ...models.ChatMessage) *History {
	return &History{items: append([]models.ChatMessage(nil), items...)}
}

func (h *History) Add(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, models.ChatMessage{Role: role, Content: content})
}

// Snapshot returns a copy of all entries.
func (h *History) Snapshot() []models.ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]models.ChatMessage(nil), h.items...)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// Last returns at most n trailing entries of msgs without copying.
func Last(msgs []models.ChatMessage, n int) []models.ChatMessage {
	if n <= 0 {
		return nil
	}
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
