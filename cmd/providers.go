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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/polytran/polytran/internal/config"
)

var providersConfigPath string

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the configured providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(providersConfigPath)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFAMILY\tMODEL\tRPM\tTPM\tDAILY BUDGET\tKEYS")
		for _, p := range cfg.Providers {
			keys := 1
			if len(p.APIKeys) > 0 {
				keys = len(p.APIKeys)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				p.ID, p.Family, p.Model, p.RequestsPerMinute, p.TokensPerMinute, p.DailyTokenBudget, keys)
		}
		if len(cfg.Priority) > 0 {
			fmt.Fprintf(w, "\nPriority order: %v\n", cfg.Priority)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)

	providersCmd.Flags().StringVarP(&providersConfigPath, "config", "c", "", "Configuration file (default: polytran.yaml)")
}
