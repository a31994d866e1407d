package utils

import "sync"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation. Raw keeps the backend-native
// message so later requests replay exactly what the backend produced.
type Turn struct {
	Role   Role
	Text   string
	Images []string
	Raw    any
}

// History is an append-only conversation owned by a single backend.
type History struct {
	mu    sync.Mutex
	turns []Turn
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Append(t Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, t)
}

// Turns returns a snapshot of the conversation.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}
