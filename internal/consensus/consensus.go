// Package consensus reconciles the candidate translations from multiple
// providers into one final answer with a calibrated confidence score.
package consensus

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/polytran/polytran/internal/provider"
)

// ErrNoCandidates is returned when there is nothing to reconcile.
var ErrNoCandidates = errors.New("no candidate translations to reconcile")

// boostFactor scales model agreement into a confidence boost. Near-perfect
// agreement (~1.0) yields a boost of about 0.08.
const boostFactor = 0.08

// maxFinalConfidence caps the boosted confidence.
const maxFinalConfidence = 0.95

// Result is the reconciled answer for one request.
type Result struct {
	Text           string   `json:"text"`
	Confidence     float64  `json:"confidence"`
	Consensus      bool     `json:"consensus"`
	ModelAgreement float64  `json:"model_agreement"`
	ModelsUsed     []string `json:"models_used"`
}

// Builder measures semantic agreement between candidates and selects the
// final answer. The embedder is an injected capability; when it is nil or
// fails, agreement degrades to a lexical token-overlap measure so the
// request still completes.
type Builder struct {
	embedder Embedder
}

// NewBuilder creates a consensus builder. embedder may be nil.
func NewBuilder(embedder Embedder) *Builder {
	return &Builder{embedder: embedder}
}

// Build reconciles the candidates. With a single candidate the result is
// returned verbatim with consensus=false. With two or more, consensus is
// true regardless of how low the measured agreement is; low agreement is
// surfaced through ModelAgreement, not by flipping the flag.
func (b *Builder) Build(ctx context.Context, candidates []provider.Candidate) (*Result, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	modelsUsed := make([]string, 0, len(candidates))
	for _, c := range candidates {
		modelsUsed = append(modelsUsed, c.ProviderID)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}

	if len(candidates) == 1 {
		return &Result{
			Text:           best.Text,
			Confidence:     best.Confidence,
			Consensus:      false,
			ModelAgreement: 0,
			ModelsUsed:     modelsUsed,
		}, nil
	}

	agreement := b.meanPairwiseAgreement(ctx, candidates)

	final := best.Confidence + agreement*boostFactor
	if final > maxFinalConfidence {
		final = maxFinalConfidence
	}

	slog.Debug("consensus built",
		"candidates", len(candidates),
		"agreement", agreement,
		"selected", best.ProviderID,
		"confidence", final,
	)

	return &Result{
		Text:           best.Text,
		Confidence:     final,
		Consensus:      true,
		ModelAgreement: agreement,
		ModelsUsed:     modelsUsed,
	}, nil
}

// meanPairwiseAgreement computes the mean cosine similarity over all
// candidate pairs. Texts are NFC-normalized before embedding so that
// visually identical strings compare equal.
func (b *Builder) meanPairwiseAgreement(ctx context.Context, candidates []provider.Candidate) float64 {
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = norm.NFC.String(strings.TrimSpace(c.Text))
	}

	vectors := b.embedAll(ctx, texts)

	var sum float64
	var pairs int
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			var sim float64
			if vectors != nil {
				sim = cosine(vectors[i], vectors[j])
			} else {
				sim = lexicalSimilarity(texts[i], texts[j])
			}
			sum += sim
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}

	agreement := sum / float64(pairs)
	if agreement < 0 {
		agreement = 0
	}
	if agreement > 1 {
		agreement = 1
	}
	return agreement
}

// embedAll embeds every text, or returns nil to signal lexical fallback.
func (b *Builder) embedAll(ctx context.Context, texts []string) [][]float64 {
	if b.embedder == nil {
		return nil
	}

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := b.embedder.Embed(ctx, text)
		if err != nil || len(vec) == 0 {
			slog.Warn("embedding failed, falling back to lexical agreement", "error", err)
			return nil
		}
		vectors[i] = vec
	}
	return vectors
}

// cosine computes the cosine similarity of two vectors. Mismatched or
// zero-length vectors yield 0.
func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// lexicalSimilarity is the degraded agreement measure used when no
// embedder is available: cosine similarity over lowercased token counts.
func lexicalSimilarity(a, b string) float64 {
	countsA := tokenCounts(a)
	countsB := tokenCounts(b)
	if len(countsA) == 0 || len(countsB) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for tok, ca := range countsA {
		dot += float64(ca * countsB[tok])
		normA += float64(ca * ca)
	}
	for _, cb := range countsB {
		normB += float64(cb * cb)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func tokenCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		counts[strings.Trim(tok, ".,!?;:\"'«»()")]++
	}
	delete(counts, "")
	return counts
}
