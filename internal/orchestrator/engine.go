// Package orchestrator fans one translation request out across the
// selected AI providers and reconciles the surviving candidates into a
// single consensus answer. It owns the top-level Translate contract and
// the wiring between selector, health tracker, key pools, and consensus.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polytran/polytran/internal"
	"github.com/polytran/polytran/internal/consensus"
	"github.com/polytran/polytran/internal/health"
	"github.com/polytran/polytran/internal/keypool"
	"github.com/polytran/polytran/internal/metrics"
	"github.com/polytran/polytran/internal/provider"
	"github.com/polytran/polytran/internal/selector"
	"github.com/polytran/polytran/internal/store"
	"github.com/polytran/polytran/internal/validator"
)

var (
	// ErrNoProvidersAvailable means the selector returned an empty list
	// before any call was attempted. Callers degrade (for example to the
	// deterministic fallback translator) instead of retrying immediately.
	ErrNoProvidersAvailable = errors.New("no providers available")

	// ErrAllProvidersFailed means every selected provider was called and
	// none produced a usable candidate.
	ErrAllProvidersFailed = errors.New("all providers failed")
)

// CompletionClient issues one chat-completions call. *provider.Client is
// the production implementation; tests substitute their own.
type CompletionClient interface {
	Complete(ctx context.Context, d provider.Descriptor, apiKey, prompt string) (*provider.Completion, error)
}

// Config assembles an Engine. Registry, Tracker, Client and Consensus are
// required; everything else is optional.
type Config struct {
	Registry *provider.Registry
	Tracker  *health.Tracker
	Client   CompletionClient
	Pools    map[string]*keypool.Pool
	Keys     map[string]string
	Builder  *consensus.Builder

	Validator *validator.Validator
	Store     *store.Store
	Metrics   *metrics.Metrics

	Priority    []string
	CallTimeout time.Duration
}

// Engine is the provider-orchestration service. One instance is built at
// process start and shared by every request; all mutable state lives in
// the injected tracker and pools.
type Engine struct {
	registry *provider.Registry
	tracker  *health.Tracker
	sel      *selector.Selector
	client   CompletionClient
	pools    map[string]*keypool.Pool
	keys     map[string]string
	builder  *consensus.Builder

	validator *validator.Validator
	db        *store.Store
	metrics   *metrics.Metrics

	priority    []string
	callTimeout time.Duration
}

// New wires up the engine and hooks health transitions into the audit
// trail and metrics.
func New(cfg Config) *Engine {
	e := &Engine{
		registry:    cfg.Registry,
		tracker:     cfg.Tracker,
		sel:         selector.New(cfg.Registry, cfg.Tracker),
		client:      cfg.Client,
		pools:       cfg.Pools,
		keys:        cfg.Keys,
		builder:     cfg.Builder,
		validator:   cfg.Validator,
		db:          cfg.Store,
		metrics:     cfg.Metrics,
		priority:    cfg.Priority,
		callTimeout: cfg.CallTimeout,
	}
	if e.callTimeout <= 0 {
		e.callTimeout = 60 * time.Second
	}
	if len(e.priority) == 0 {
		e.priority = cfg.Registry.IDs()
	}

	e.tracker.OnTransition(func(providerID string, from, to health.Status, reason string) {
		if e.metrics != nil {
			e.metrics.UpdateHealth(providerID, to)
		}
		if e.db != nil {
			if err := e.db.RecordProviderEvent(context.Background(), providerID, string(from), string(to), reason); err != nil {
				slog.Warn("failed to record provider event", "provider", providerID, "error", err)
			}
		}
	})

	return e
}

// Translate is the contract exposed to the rest of the system: select
// providers, fan out, reconcile. Partial success is a valid outcome;
// ErrAllProvidersFailed is the only error surfaced for a fully failed
// batch.
func (e *Engine) Translate(ctx context.Context, req internal.TranslationRequest, maxProviders int) (*consensus.Result, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	if e.db != nil && !req.SkipMemory {
		if text, confidence, found, err := e.db.GetCachedTranslation(ctx, req.SourceText, req.SourceLang, req.TargetLang); err == nil && found {
			slog.Debug("translation memory hit", "request", req.ID)
			if e.metrics != nil {
				e.metrics.RecordMemoryHit()
			}
			return &consensus.Result{
				Text:       text,
				Confidence: confidence,
				Consensus:  false,
				ModelsUsed: []string{"memory"},
			}, nil
		}
	}

	selected := e.sel.Select(e.priority, maxProviders)
	if len(selected) == 0 {
		return nil, ErrNoProvidersAvailable
	}

	if e.db != nil {
		if err := e.db.SaveRequest(ctx, req); err != nil {
			slog.Warn("failed to persist request", "request", req.ID, "error", err)
		}
	}

	candidates := e.fanOut(ctx, req, selected)
	if len(candidates) == 0 {
		return nil, ErrAllProvidersFailed
	}

	if e.db != nil {
		for _, c := range candidates {
			if err := e.db.SaveCandidate(ctx, req.ID, c); err != nil {
				slog.Warn("failed to persist candidate", "request", req.ID, "provider", c.ProviderID, "error", err)
			}
		}
	}

	result, err := e.builder.Build(ctx, candidates)
	if err != nil {
		return nil, ErrAllProvidersFailed
	}

	if e.metrics != nil && result.Consensus {
		e.metrics.RecordAgreement(result.ModelAgreement)
	}
	if e.db != nil {
		if err := e.db.SaveConsensus(ctx, req.ID, result); err != nil {
			slog.Warn("failed to persist consensus", "request", req.ID, "error", err)
		}
		if err := e.db.SaveToMemory(ctx, req.SourceText, req.SourceLang, req.TargetLang, result); err != nil {
			slog.Warn("failed to update translation memory", "request", req.ID, "error", err)
		}
	}

	slog.Info("translation complete",
		"request", req.ID,
		"providers", len(selected),
		"candidates", len(candidates),
		"consensus", result.Consensus,
		"confidence", result.Confidence,
	)
	return result, nil
}

// ProviderStatus returns the health snapshot of every registered provider.
func (e *Engine) ProviderStatus() map[string]health.ProviderStatus {
	return e.tracker.Snapshot()
}

// PoolStatus returns the credential snapshot of every provider that has a
// key pool.
func (e *Engine) PoolStatus() map[string][]keypool.CredentialStatus {
	out := make(map[string][]keypool.CredentialStatus, len(e.pools))
	for id, pool := range e.pools {
		out[id] = pool.Status()
	}
	return out
}

// ResetProvider is the operator path out of the disabled state.
func (e *Engine) ResetProvider(providerID string) {
	e.tracker.Reset(providerID)
}
