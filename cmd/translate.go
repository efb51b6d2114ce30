/*
Copyright © 2025 Polytran Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/polytran/polytran/internal"
	"github.com/polytran/polytran/internal/detector"
	"github.com/polytran/polytran/internal/fallback"
	"github.com/polytran/polytran/internal/orchestrator"
)

var (
	configPath   string
	inputFile    string
	outputFile   string
	sourceLang   string
	targetLang   string
	contextText  string
	maxProviders int
	noCache      bool
	noValidate   bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate text using multiple AI providers in parallel",
	Long: `Translate text by fanning the request out across the configured AI
providers, then reconciling the responses into one consensus answer.

Reads from --input (or stdin) and writes to --output (or stdout).

When every AI provider is rate limited or disabled, and the fallback is
enabled in configuration, the request degrades to a single deterministic
Google Cloud Translate call.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if sourceLang == "auto" {
			// The full language name reads better in the prompt than an ISO
			// code.
			det := detector.New()
			if detected, ok := det.DetectName(text); ok {
				sourceLang = detected
				fmt.Fprintf(os.Stderr, "Detected source language: %s\n", sourceLang)
			}
		}

		bundle, err := buildEngine(configPath, true, !noValidate)
		if err != nil {
			return err
		}
		defer bundle.close()

		req := internal.TranslationRequest{
			ID:         uuid.New().String(),
			SourceText: text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Context:    contextText,
			Timestamp:  time.Now(),
			SkipMemory: noCache,
		}

		if maxProviders <= 0 {
			maxProviders = bundle.cfg.MaxProviders
		}

		result, err := bundle.engine.Translate(ctx, req, maxProviders)
		switch {
		case err == nil:
			fmt.Fprintf(os.Stderr, "Consensus: %v, agreement: %.2f, confidence: %.2f, models: %v\n",
				result.Consensus, result.ModelAgreement, result.Confidence, result.ModelsUsed)
			return writeOutput(result.Text)

		case errors.Is(err, orchestrator.ErrNoProvidersAvailable) && bundle.cfg.Fallback.Enabled:
			fmt.Fprintln(os.Stderr, "No AI providers available, using fallback translator")
			fb := fallback.NewGoogleTranslator(bundle.cfg.Fallback.Credentials)
			translated, fbErr := fb.Translate(ctx, text, sourceLang, targetLang)
			if fbErr != nil {
				return fmt.Errorf("fallback translation failed: %w", fbErr)
			}
			return writeOutput(translated)

		default:
			return err
		}
	},
}

func readInput() (string, error) {
	if inputFile == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}

func writeOutput(text string) error {
	if outputFile == "" {
		fmt.Println(text)
		return nil
	}
	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outputFile, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: polytran.yaml)")
	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file (default: stdin)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "en", "Target language code")
	translateCmd.Flags().StringVar(&contextText, "context", "", "Previous passage for translation continuity")
	translateCmd.Flags().IntVar(&maxProviders, "max-providers", 0, "Maximum providers to call (default from config)")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the translation memory lookup (results are still recorded)")
	translateCmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip target-language validation of candidates")
}
