package utils

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed system_prompt.txt
var defaultSystemPrompt string

// LoadSystemPrompt reads the instruction text appended to every chat
// request. An empty path selects the built-in prompt.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return strings.TrimSpace(defaultSystemPrompt), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Backend is a chat model identifier bound to the strategy that speaks its
// request format.
type Backend struct {
	ID       string
	Name     string
	Strategy ChatStrategy
}

// Registry maps backend identifiers to strategies. Registration order is
// preserved for display.
type Registry struct {
	backends map[string]Backend
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

func (r *Registry) Register(b Backend) error {
	if b.ID == "" {
		return fmt.Errorf("backend id must not be empty")
	}
	if b.Strategy == nil {
		return fmt.Errorf("backend %q has no chat strategy", b.ID)
	}
	if _, exists := r.backends[b.ID]; exists {
		return fmt.Errorf("backend %q already registered", b.ID)
	}
	if b.Name == "" {
		b.Name = b.ID
	}
	r.backends[b.ID] = b
	r.order = append(r.order, b.ID)
	return nil
}

func (r *Registry) Lookup(id string) (Backend, error) {
	b, ok := r.backends[id]
	if !ok {
		return Backend{}, fmt.Errorf("%w: %q", ErrUnknownBackend, id)
	}
	return b, nil
}

func (r *Registry) Backends() []Backend {
	out := make([]Backend, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.backends[id])
	}
	return out
}

// DisplayName turns a model identifier like "llava:7b" into "LLaVA (7B)"
// style labels for the common families and returns anything else unchanged.
func DisplayName(model string) string {
	name, size, hasSize := strings.Cut(model, ":")
	switch {
	case strings.HasPrefix(name, "gpt-"):
		name = "GPT-" + strings.TrimPrefix(name, "gpt-")
	case name == "llava":
		name = "LLaVA"
	}
	if hasSize {
		return fmt.Sprintf("%s (%s)", name, strings.ToUpper(size))
	}
	return name
}
