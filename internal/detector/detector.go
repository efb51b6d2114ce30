// Package detector identifies the source language of incoming text so the
// prompt builder can name it instead of saying "the detected language".
package detector

import (
	lingua "github.com/pemistahl/lingua-go"
)

// minConfidence is the detection confidence below which the result is
// treated as unknown. Short or mixed-language fragments fall below it.
const minConfidence = 0.60

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over all languages lingua supports. Construction is
// expensive; callers should reuse the instance.
func New() *Detector {
	d := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: d}
}

// Detect returns the most likely language of text, or false when the text
// is empty or the detector is not confident enough.
func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}

	values := d.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 || values[0].Value() < minConfidence {
		return lingua.Unknown, false
	}
	return values[0].Language(), true
}

// DetectISO returns the ISO 639-1 code of the detected language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// DetectName returns the human-readable English name of the detected
// language, suitable for prompt text.
func (d *Detector) DetectName(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.String(), true
}
