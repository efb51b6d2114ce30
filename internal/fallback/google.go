// Package fallback provides the deterministic non-AI translation path used
// when no AI provider is available for a request.
package fallback

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleTranslator degrades a request to a single Google Cloud Translate
// call. It carries no health state: the caller only reaches for it when the
// selector has already come up empty.
type GoogleTranslator struct {
	credentialsFile string
}

// NewGoogleTranslator creates the fallback translator. credentialsFile may
// be empty to use ambient application-default credentials.
func NewGoogleTranslator(credentialsFile string) *GoogleTranslator {
	return &GoogleTranslator{credentialsFile: credentialsFile}
}

// Translate performs one deterministic translation.
func (g *GoogleTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	targetTag, err := language.Parse(targetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", targetLang, err)
	}

	var opts []option.ClientOption
	if g.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(g.credentialsFile))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create translate client: %w", err)
	}
	defer client.Close()

	var translateOpts *translate.Options
	if sourceLang != "" && sourceLang != "auto" {
		sourceTag, parseErr := language.Parse(sourceLang)
		if parseErr == nil {
			translateOpts = &translate.Options{Source: sourceTag}
		}
	}

	translations, err := client.Translate(ctx, []string{text}, targetTag, translateOpts)
	if err != nil {
		return "", fmt.Errorf("fallback translation failed: %w", err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("fallback returned no translation")
	}

	return translations[0].Text, nil
}
