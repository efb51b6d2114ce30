package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/polytran/polytran/internal"
	"github.com/polytran/polytran/internal/health"
	"github.com/polytran/polytran/internal/keypool"
	"github.com/polytran/polytran/internal/postprocess"
	"github.com/polytran/polytran/internal/provider"
	"github.com/polytran/polytran/internal/scoring"
)

// wrongLanguagePenalty is subtracted from a candidate's confidence when
// the validator reports it is not written in the target language.
const wrongLanguagePenalty = 0.15

// fanOut concurrently invokes every selected provider and returns only the
// successful candidates. Failures are classified into the health tracker
// and dropped; one provider failing never aborts the batch. Results are
// re-associated by provider id, not by position, so completion order does
// not matter.
//
// The caller's ctx is threaded into every call: on cancellation the
// outstanding HTTP requests abort, and candidates that already completed
// are returned as a valid partial batch.
func (e *Engine) fanOut(ctx context.Context, req internal.TranslationRequest, selected []string) []provider.Candidate {
	if len(selected) == 0 {
		return nil
	}

	results := make(chan provider.Candidate, len(selected))

	var wg sync.WaitGroup
	for _, id := range selected {
		wg.Add(1)
		go func(providerID string) {
			defer wg.Done()
			if c, ok := e.callProvider(ctx, req, providerID); ok {
				results <- c
			}
		}(id)
	}

	wg.Wait()
	close(results)

	candidates := make([]provider.Candidate, 0, len(selected))
	for c := range results {
		candidates = append(candidates, c)
	}
	return candidates
}

// callProvider runs the complete per-provider pipeline: credential
// acquisition, prompt construction, the HTTP call, artifact cleanup,
// validation, and confidence scoring.
func (e *Engine) callProvider(ctx context.Context, req internal.TranslationRequest, providerID string) (provider.Candidate, bool) {
	d, ok := e.registry.Get(providerID)
	if !ok {
		return provider.Candidate{}, false
	}

	apiKey, cred, pool, ok := e.credentialFor(providerID)
	if !ok {
		slog.Warn("no usable credential", "provider", providerID)
		if e.metrics != nil {
			e.metrics.RecordCall(providerID, "no_credential", 0)
		}
		return provider.Candidate{}, false
	}

	prompt := provider.BuildPrompt(req.SourceLang, req.TargetLang, req.SourceText, req.Context, d.Model)

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	completion, err := e.client.Complete(callCtx, d, apiKey, prompt)
	if err != nil {
		e.recordFailure(providerID, cred, pool, err)
		return provider.Candidate{}, false
	}

	text := postprocess.Clean(completion.Text)
	confidence := scoring.Score(text, d.Family, completion.Latency)

	if e.validator != nil {
		if vErr := e.validator.Check(text, req.TargetLang); vErr != nil {
			slog.Warn("candidate failed language validation",
				"provider", providerID,
				"error", vErr,
			)
			confidence -= wrongLanguagePenalty
			if confidence < 0.10 {
				confidence = 0.10
			}
		}
	}

	e.tracker.RecordSuccess(providerID, completion.TotalTokens)
	if pool != nil && cred != nil {
		pool.RecordSuccess(cred, completion.Latency)
	}
	if e.metrics != nil {
		e.metrics.RecordCall(providerID, "success", completion.Latency)
		e.metrics.RecordTokens(providerID, completion.TotalTokens)
	}

	return provider.Candidate{
		Text:        text,
		Confidence:  confidence,
		ProviderID:  providerID,
		Model:       d.Model,
		TotalTokens: completion.TotalTokens,
		Latency:     completion.Latency,
	}, true
}

// credentialFor resolves the API key for one call: the provider's key pool
// when it has one, otherwise its static key.
func (e *Engine) credentialFor(providerID string) (string, *keypool.Credential, *keypool.Pool, bool) {
	if pool, ok := e.pools[providerID]; ok {
		cred, ok := pool.NextAvailable()
		if !ok {
			return "", nil, nil, false
		}
		return cred.Key, cred, pool, true
	}
	key, ok := e.keys[providerID]
	if !ok || key == "" {
		return "", nil, nil, false
	}
	return key, nil, nil, true
}

// recordFailure classifies a failed call into a health-state transition
// and mirrors the verdict onto the credential pool when one is in play.
func (e *Engine) recordFailure(providerID string, cred *keypool.Credential, pool *keypool.Pool, err error) {
	statusCode, body := provider.StatusAndBody(err)

	if statusCode == 0 {
		// Transport-level failure: surfaced per call, no state transition.
		e.tracker.Apply(providerID, health.Verdict{Status: health.StatusAvailable, Reason: "transient"}, err.Error())
		if e.metrics != nil {
			e.metrics.RecordCall(providerID, "transient_error", 0)
		}
		slog.Warn("provider call failed", "provider", providerID, "error", err)
		return
	}

	verdict := health.Classify(statusCode, body)
	e.tracker.Apply(providerID, verdict, body)

	if pool != nil && cred != nil {
		switch verdict.Status {
		case health.StatusDisabled:
			pool.MarkDisabled(cred, verdict.Reason)
		case health.StatusRateLimited:
			pool.MarkRateLimited(cred, body)
		}
	}

	if e.metrics != nil {
		outcome := "error"
		switch verdict.Status {
		case health.StatusDisabled:
			outcome = "auth_error"
		case health.StatusRateLimited:
			outcome = "rate_limited"
		}
		e.metrics.RecordCall(providerID, outcome, 0)
	}
	slog.Warn("provider call failed",
		"provider", providerID,
		"status_code", statusCode,
		"verdict", verdict.Status,
	)
}
