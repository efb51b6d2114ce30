// Package selector decides which subset of configured providers to call
// for one request, based on a configured priority order and current health.
package selector

import (
	"log/slog"

	"github.com/polytran/polytran/internal/health"
	"github.com/polytran/polytran/internal/provider"
)

// Selector filters a priority-ordered provider list down to the ones that
// are registered and currently available.
type Selector struct {
	registry *provider.Registry
	tracker  *health.Tracker
}

// New creates a selector over the given registry and health tracker.
func New(registry *provider.Registry, tracker *health.Tracker) *Selector {
	return &Selector{registry: registry, tracker: tracker}
}

// Select returns up to max provider ids from priority, preserving priority
// order and dropping anything unregistered or unavailable. An empty result
// means "no AI translation for this request right now"; callers degrade
// rather than retry immediately.
func (s *Selector) Select(priority []string, max int) []string {
	if max <= 0 {
		return nil
	}

	selected := make([]string, 0, max)
	for _, id := range priority {
		if len(selected) == max {
			break
		}
		if !s.registry.Has(id) {
			slog.Debug("provider skipped: not registered", "provider", id)
			continue
		}
		if !s.tracker.Available(id) {
			slog.Debug("provider skipped: unavailable", "provider", id)
			continue
		}
		selected = append(selected, id)
	}

	slog.Debug("providers selected",
		"requested", len(priority),
		"selected", len(selected),
		"max", max,
	)
	return selected
}
