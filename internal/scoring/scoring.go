// Package scoring estimates a bounded per-candidate confidence from cheap
// format and timing signals. It replaces nothing the models report about
// themselves; chat-completions backends return no usable confidence, so
// this heuristic is the only per-candidate calibration available before
// consensus.
package scoring

import (
	"regexp"
	"strings"
	"time"

	"github.com/polytran/polytran/internal/provider"
)

const (
	baseConfidence = 0.70
	minConfidence  = 0.10
	maxConfidence  = 0.95

	// Format-quality signal: well-formed "(original term) " echoes indicate
	// the model followed the annotation convention.
	echoBonusPerMatch = 0.03
	echoBonusCap      = 0.15

	fastLatency = 5 * time.Second
	slowLatency = 30 * time.Second

	fastBonus       = 0.05
	slowPenalty     = 0.10
	tooShortPenalty = 0.20
	tooLongPenalty  = 0.10

	minWords = 5
	maxWords = 1000
)

// familyBonus reflects observed translation reliability per model family.
// Bonuses are capped at 0.10 by construction of this table.
var familyBonus = map[provider.Family]float64{
	provider.FamilyOpenAI:     0.10,
	provider.FamilyDeepSeek:   0.08,
	provider.FamilyOpenRouter: 0.05,
	provider.FamilyGroq:       0.05,
	provider.FamilyCerebras:   0.04,
}

// parentheticalEchoRe matches short parenthetical echoes of the original
// language, e.g. "переклад (translation) ". The length bound keeps whole
// parenthesized sentences from counting.
var parentheticalEchoRe = regexp.MustCompile(`\([^()]{1,40}\)\s`)

// Score computes the heuristic confidence for one candidate translation.
// The result is always within [0.10, 0.95].
func Score(text string, family provider.Family, latency time.Duration) float64 {
	score := baseConfidence

	score += familyBonus[family]

	echoes := len(parentheticalEchoRe.FindAllString(text, -1))
	bonus := float64(echoes) * echoBonusPerMatch
	if bonus > echoBonusCap {
		bonus = echoBonusCap
	}
	score += bonus

	if latency < fastLatency {
		score += fastBonus
	} else if latency > slowLatency {
		score -= slowPenalty
	}

	words := len(strings.Fields(text))
	if words < minWords {
		score -= tooShortPenalty
	} else if words > maxWords {
		score -= tooLongPenalty
	}

	return clamp(score)
}

func clamp(v float64) float64 {
	if v < minConfidence {
		return minConfidence
	}
	if v > maxConfidence {
		return maxConfidence
	}
	return v
}
