// Package provider holds the static descriptions of the configured AI
// backends and the HTTP client that talks to them. Descriptors are built
// once at startup from configuration and never mutated; all runtime state
// (availability, cooldowns, usage) lives in the health tracker.
package provider

import (
	"fmt"
	"time"
)

// Family identifies the API dialect of a backend. All families speak the
// OpenAI chat-completions wire format but differ in sampling parameters and
// extra headers.
type Family string

const (
	FamilyOpenAI     Family = "openai"
	FamilyOpenRouter Family = "openrouter"
	FamilyGroq       Family = "groq"
	FamilyCerebras   Family = "cerebras"
	FamilyDeepSeek   Family = "deepseek"
)

// Descriptor describes one configured backend. Immutable after construction.
type Descriptor struct {
	ID                string
	Family            Family
	Model             string
	Endpoint          string
	MaxTokens         int
	RequestsPerMinute int
	TokensPerMinute   int
	DailyTokenBudget  int
}

// Candidate is one provider's successful output for one request, before
// consensus reconciliation.
type Candidate struct {
	Text        string
	Confidence  float64
	ProviderID  string
	Model       string
	TotalTokens int
	Latency     time.Duration
}

// Registry is the static table of configured providers, keyed by id.
type Registry struct {
	byID  map[string]Descriptor
	order []string
}

// NewRegistry builds a registry from the configured descriptors. Descriptor
// ids must be unique and every descriptor needs an id, model and endpoint.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	r := &Registry{byID: make(map[string]Descriptor, len(descriptors))}

	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("provider descriptor missing id")
		}
		if d.Model == "" || d.Endpoint == "" {
			return nil, fmt.Errorf("provider %q: model and endpoint are required", d.ID)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", d.ID)
		}
		if d.Family == "" {
			d.Family = FamilyOpenAI
		}
		if d.MaxTokens <= 0 {
			d.MaxTokens = 4096
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}

	return r, nil
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Has reports whether id is a configured provider.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// IDs returns provider ids in configuration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Len returns the number of configured providers.
func (r *Registry) Len() int {
	return len(r.byID)
}
