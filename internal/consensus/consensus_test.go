package consensus

import (
	"context"
	"errors"
	"testing"

	"github.com/polytran/polytran/internal/provider"
)

// stubEmbedder returns a fixed vector per text.
type stubEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func candidate(id, text string, confidence float64) provider.Candidate {
	return provider.Candidate{
		Text:       text,
		Confidence: confidence,
		ProviderID: id,
		Model:      "model-" + id,
	}
}

func TestBuilder_EmptyCandidates(t *testing.T) {
	b := NewBuilder(nil)

	res, err := b.Build(context.Background(), nil)
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	if res != nil {
		t.Error("expected nil result on error")
	}
}

func TestBuilder_SingleCandidateVerbatim(t *testing.T) {
	b := NewBuilder(nil)

	res, err := b.Build(context.Background(), []provider.Candidate{
		candidate("a", "Привіт, світе!", 0.82),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Consensus {
		t.Error("single candidate must not claim consensus")
	}
	if res.Text != "Привіт, світе!" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.Confidence != 0.82 {
		t.Errorf("expected verbatim confidence 0.82, got %v", res.Confidence)
	}
	if res.ModelAgreement != 0 {
		t.Errorf("expected zero agreement, got %v", res.ModelAgreement)
	}
	if len(res.ModelsUsed) != 1 || res.ModelsUsed[0] != "a" {
		t.Errorf("unexpected models used: %v", res.ModelsUsed)
	}
}

func TestBuilder_IdenticalCandidatesBoosted(t *testing.T) {
	text := "Привіт, світе!"
	emb := &stubEmbedder{vectors: map[string][]float64{
		text: {0.5, 0.5, 0.1},
	}}
	b := NewBuilder(emb)

	candidates := []provider.Candidate{
		candidate("a", text, 0.80),
		candidate("b", text, 0.78),
		candidate("c", text, 0.75),
	}

	res, err := b.Build(context.Background(), candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Consensus {
		t.Error("expected consensus with 3 candidates")
	}
	if res.ModelAgreement < 0.99 {
		t.Errorf("expected agreement ~1.0 for identical texts, got %v", res.ModelAgreement)
	}
	for _, c := range candidates {
		if res.Confidence <= c.Confidence {
			t.Errorf("final confidence %v not above raw %v", res.Confidence, c.Confidence)
		}
	}
	if res.Confidence > 0.95 {
		t.Errorf("confidence above cap: %v", res.Confidence)
	}
	if len(res.ModelsUsed) != 3 {
		t.Errorf("expected 3 models used, got %v", res.ModelsUsed)
	}
}

func TestBuilder_DivergentCandidates(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{
		"перший варіант": {1, 0, 0},
		"другий варіант": {0, 1, 0},
	}}
	b := NewBuilder(emb)

	res, err := b.Build(context.Background(), []provider.Candidate{
		candidate("a", "перший варіант", 0.85),
		candidate("b", "другий варіант", 0.70),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ModelAgreement >= 0.5 {
		t.Errorf("expected low agreement for orthogonal embeddings, got %v", res.ModelAgreement)
	}
	// Low agreement still counts as consensus; it is surfaced via the
	// agreement score, not the flag.
	if !res.Consensus {
		t.Error("expected consensus=true with 2 candidates")
	}
	if res.Text != "перший варіант" {
		t.Errorf("expected highest-confidence candidate, got %q", res.Text)
	}
}

func TestBuilder_ConfidenceCap(t *testing.T) {
	text := "однаковий текст"
	emb := &stubEmbedder{vectors: map[string][]float64{text: {1, 1}}}
	b := NewBuilder(emb)

	res, err := b.Build(context.Background(), []provider.Candidate{
		candidate("a", text, 0.94),
		candidate("b", text, 0.93),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Confidence != 0.95 {
		t.Errorf("expected capped confidence 0.95, got %v", res.Confidence)
	}
}

func TestBuilder_EmbedderFailureFallsBackToLexical(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("embeddings down")}
	b := NewBuilder(emb)

	res, err := b.Build(context.Background(), []provider.Candidate{
		candidate("a", "the quick brown fox", 0.80),
		candidate("b", "the quick brown fox", 0.75),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ModelAgreement < 0.99 {
		t.Errorf("lexical fallback should see identical texts as agreement ~1.0, got %v", res.ModelAgreement)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "mismatched lengths", a: []float64{1, 0}, b: []float64{1}, want: 0},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosine(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLexicalSimilarity(t *testing.T) {
	if sim := lexicalSimilarity("добрий день світ", "добрий день світ"); sim < 0.99 {
		t.Errorf("identical texts: got %v", sim)
	}
	if sim := lexicalSimilarity("один два три", "чотири п'ять шість"); sim > 0.01 {
		t.Errorf("disjoint texts: got %v", sim)
	}
	if sim := lexicalSimilarity("", "щось"); sim != 0 {
		t.Errorf("empty text: got %v", sim)
	}
}
