// Copyright 2026 Satkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command satkit ingests 3D/4D ultrasound recording sessions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msaito8623/satkit/ingest"
	"github.com/msaito8623/satkit/internal/log"
)

var (
	logLevel   string
	configPath string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "satkit",
		Short: "Ingest 3D/4D ultrasound recording sessions",
		Long: `satkit reads the session directories written by the ultrasound
recording rig: per-trial DICOM volumes with their companion audio and video
files, plus the session notes MAT-file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Configure(log.Config{Level: logLevel})
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")

	root.AddCommand(newScanCmd())
	root.AddCommand(newInfoCmd())
	return root
}

// loadConfig resolves the effective configuration: defaults, then the
// optional config file.
func loadConfig() (ingest.Config, error) {
	if configPath == "" {
		return ingest.DefaultConfig(), nil
	}
	return ingest.LoadConfig(configPath)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "satkit:", err)
		os.Exit(1)
	}
}
