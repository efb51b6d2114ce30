package validator

import "testing"

func TestValidator_Check(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		text       string
		targetLang string
		wantErr    bool
	}{
		{
			name:       "empty target lang skips validation",
			text:       "Some translated text here",
			targetLang: "",
			wantErr:    false,
		},
		{
			name:       "empty translation fails",
			text:       "",
			targetLang: "en",
			wantErr:    true,
		},
		{
			name:       "short text passes without validation",
			text:       "Привіт",
			targetLang: "en",
			wantErr:    false,
		},
		{
			name:       "matching language passes",
			text:       "Привіт, це достатньо довгий текст українською мовою для перевірки.",
			targetLang: "uk",
			wantErr:    false,
		},
		{
			name:       "matching language case insensitive",
			text:       "Привіт, це достатньо довгий текст українською мовою для перевірки.",
			targetLang: "UK",
			wantErr:    false,
		},
		{
			name:       "confident mismatch fails",
			text:       "This is clearly a long English sentence, not Ukrainian at all, for the detector.",
			targetLang: "uk",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(tt.text, tt.targetLang)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check(%q, %q) error = %v, wantErr %v", tt.text, tt.targetLang, err, tt.wantErr)
			}
		})
	}
}
