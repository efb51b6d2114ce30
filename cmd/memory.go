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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/polytran/polytran/internal/config"
	"github.com/polytran/polytran/internal/store"
)

var memoryConfigPath string

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and manage the translation memory",
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List translation memory entries, most recently used first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(memoryConfigPath)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListMemory(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list translation memory: %w", err)
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "Translation memory is empty")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPAIR\tUSES\tCONF\tSTATE\tSOURCE\tTRANSLATION")
		for _, e := range entries {
			state := "active"
			if e.Invalidated {
				state = "invalidated"
			}
			fmt.Fprintf(w, "%s\t%s→%s\t%d\t%.2f\t%s\t%s\t%s\n",
				e.ID, e.SourceLang, e.TargetLang, e.UsageCount, e.Confidence, state,
				truncate(e.SourceText, 40), truncate(e.FinalText, 40))
		}
		return w.Flush()
	},
}

var memoryInvalidateCmd = &cobra.Command{
	Use:   "invalidate <entry-id>",
	Short: "Mark a translation memory entry as stale",
	Long: `Mark a translation memory entry as stale so future requests for its
source text go back to the providers. The entry is kept for inspection and
is replaced the next time the same text is translated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(memoryConfigPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.InvalidateMemory(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to invalidate entry: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Entry %s invalidated\n", args[0])
		return nil
	},
}

// openStore opens the configured database without assembling the engine.
func openStore(configPath string) (*store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryInvalidateCmd)

	memoryCmd.PersistentFlags().StringVarP(&memoryConfigPath, "config", "c", "", "Configuration file (default: polytran.yaml)")
}
