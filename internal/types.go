package internal

import "time"

// TranslationRequest is one unit of work flowing through the engine: a piece
// of source text plus an optional surrounding-context passage used for
// prompt continuity.
type TranslationRequest struct {
	ID         string    `json:"id"`
	SourceText string    `json:"source_text"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	Context    string    `json:"context,omitempty"`
	Timestamp  time.Time `json:"timestamp"`

	// SkipMemory bypasses the translation-memory lookup for this request.
	// Persistence and the write-back of the reconciled result are unaffected.
	SkipMemory bool `json:"-"`
}
