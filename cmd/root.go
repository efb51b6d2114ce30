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
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "polytran",
	Short: "Multi-provider AI translation with consensus",
	Long: `Polytran fans a translation request out across a pool of rate-limited
AI backends, tracks each backend's health, and reconciles the successful
responses into one answer with a calibrated confidence score.

Use "polytran translate --help" for translation options and
"polytran status" for provider health.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
