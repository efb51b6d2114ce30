package postprocess

import "testing"

func TestClean_ReasoningBlocks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no artifacts",
			input:    "Привіт, це звичайний переклад.",
			expected: "Привіт, це звичайний переклад.",
		},
		{
			name:     "think block",
			input:    "<think>The user wants Ukrainian.</think>Привіт, світе!",
			expected: "Привіт, світе!",
		},
		{
			name:     "thinking block mid-text",
			input:    "Привіт<thinking>hmm</thinking>, світе!",
			expected: "Привіт, світе!",
		},
		{
			name:     "reasoning block",
			input:    "<reasoning>Analyzing grammar.</reasoning>Добрий день.",
			expected: "Добрий день.",
		},
		{
			name:     "multiline block",
			input:    "<think>line one\nline two\nline three</think>Результат.",
			expected: "Результат.",
		},
		{
			name:     "unclosed block drops the tail",
			input:    "Переклад готовий.<think>But wait, maybe",
			expected: "Переклад готовий.",
		},
		{
			name:     "multiple blocks",
			input:    "<think>a</think>Перша частина <thinking>b</thinking>друга частина.",
			expected: "Перша частина друга частина.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClean_EchoPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "here is the translation",
			input:    "Here is the translation: Привіт, світе!",
			expected: "Привіт, світе!",
		},
		{
			name:     "translation colon",
			input:    "Translation: Добрий день.",
			expected: "Добрий день.",
		},
		{
			name:     "sure here's the translation",
			input:    "Sure, here's the translation: Дякую.",
			expected: "Дякую.",
		},
		{
			name:     "no colon is left alone",
			input:    "The translation of this idiom is tricky.",
			expected: "The translation of this idiom is tricky.",
		},
		{
			name:     "mid-text mention is left alone",
			input:    "Це слово означає translation: переклад.",
			expected: "Це слово означає translation: переклад.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClean_WrappingQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "double quotes",
			input:    `"Привіт, світе!"`,
			expected: "Привіт, світе!",
		},
		{
			name:     "guillemets",
			input:    "«Добрий день»",
			expected: "Добрий день",
		},
		{
			name:     "curly quotes",
			input:    "“Дякую”",
			expected: "Дякую",
		},
		{
			name:     "interior quotes survive",
			input:    `Він сказав "привіт" і пішов.`,
			expected: `Він сказав "привіт" і пішов.`,
		},
		{
			name:     "unbalanced quote survives",
			input:    `"Привіт, світе!`,
			expected: `"Привіт, світе!`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestClean_CombinedArtifacts(t *testing.T) {
	input := `<think>Ukrainian it is.</think>Here is the translation: "Привіт, світе!"`
	if got := Clean(input); got != "Привіт, світе!" {
		t.Errorf("Clean = %q, want %q", got, "Привіт, світе!")
	}
}
