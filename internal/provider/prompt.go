package provider

import (
	"fmt"
	"strings"
)

// reasoningModelMarkers identify models that emit chain-of-thought unless
// told not to. Matched case-insensitively against the model id.
var reasoningModelMarkers = []string{"r1", "qwq", "reasoning", "o1", "o3"}

// isReasoningModel reports whether the model id looks like a
// reasoning-style model that benefits from an explicit no-commentary hint.
func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	for _, marker := range reasoningModelMarkers {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}

// BuildPrompt constructs the single user-role prompt for a translation
// request, tailored to the target model. Reasoning-style models get a short
// hint to skip their thinking preamble.
func BuildPrompt(sourceLang, targetLang, text, contextPassage, model string) string {
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "the detected language"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are a professional translator. Translate the following text from %s to %s.\n", sourceLang, targetLang))
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes, just the translation.")

	if isReasoningModel(model) {
		sb.WriteString("\nDo not show your reasoning. Output the final translation directly.")
	}

	if contextPassage != "" {
		sb.WriteString(fmt.Sprintf("\n\nCONTEXT (previous passage for continuity — do NOT retranslate this):\n...%s", contextPassage))
	}

	sb.WriteString("\n\nTEXT:\n")
	sb.WriteString(text)

	return sb.String()
}
