// Package validator checks that a candidate translation is actually
// written in the requested target language. A failed check does not reject
// the candidate outright; the engine applies a confidence penalty and lets
// consensus sort it out.
package validator

import (
	"fmt"
	"strings"

	"github.com/polytran/polytran/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt
// language detection. Shorter texts produce unreliable results and are
// accepted without validation.
const minValidationLength = 20

// Validator checks candidate translations against the expected target
// language. The underlying detector is expensive to build; reuse the
// instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by the lingua language detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// Check returns nil when text appears to be written in targetLang. Short
// texts and texts whose language cannot be determined pass; only a
// confident mismatch is reported, with both codes in the error.
func (v *Validator) Check(text, targetLang string) error {
	if targetLang == "" {
		return nil
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("translation is empty")
	}
	if len([]rune(trimmed)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectISO(trimmed)
	if !ok {
		return nil
	}
	if !strings.EqualFold(detected, targetLang) {
		return fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}
	return nil
}
