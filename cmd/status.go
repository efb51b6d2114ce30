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
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	statusConfigPath string
	statusListen     string
	resetProvider    string
	statusEvents     int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider health and credential pool status",
	Long: `Print the current health snapshot of every configured provider and
credential pool as JSON.

With --listen, serve the snapshot at /status and Prometheus metrics at
/metrics until interrupted. With --events N, include the last N recorded
health transitions from the audit trail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := buildEngine(statusConfigPath, statusEvents > 0, false)
		if err != nil {
			return err
		}
		defer bundle.close()

		if resetProvider != "" {
			bundle.engine.ResetProvider(resetProvider)
			fmt.Fprintf(os.Stderr, "Provider %s reset to available\n", resetProvider)
		}

		snapshot := map[string]interface{}{
			"providers": bundle.engine.ProviderStatus(),
			"pools":     bundle.engine.PoolStatus(),
		}
		if statusEvents > 0 && bundle.db != nil {
			events, err := bundle.db.ListProviderEvents(context.Background(), "", statusEvents)
			if err != nil {
				return fmt.Errorf("failed to list provider events: %w", err)
			}
			snapshot["events"] = events
		}

		if statusListen == "" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snapshot)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(bundle.registry, promhttp.HandlerOpts{}))
		mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			current := map[string]interface{}{
				"providers": bundle.engine.ProviderStatus(),
				"pools":     bundle.engine.PoolStatus(),
			}
			json.NewEncoder(w).Encode(current)
		})

		fmt.Fprintf(os.Stderr, "Serving status on %s\n", statusListen)
		return http.ListenAndServe(statusListen, mux)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusConfigPath, "config", "c", "", "Configuration file (default: polytran.yaml)")
	statusCmd.Flags().StringVar(&statusListen, "listen", "", "Serve /status and /metrics on this address (e.g. :9090)")
	statusCmd.Flags().StringVar(&resetProvider, "reset", "", "Reset a disabled provider back to available")
	statusCmd.Flags().IntVar(&statusEvents, "events", 0, "Include the last N health transitions from the audit trail")
}
