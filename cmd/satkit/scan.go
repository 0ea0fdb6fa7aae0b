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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msaito8623/satkit/ingest"
)

func newScanCmd() *cobra.Command {
	var (
		exclusionList     string
		requireVideo      bool
		strictMetadata    bool
		preloadAudio      bool
		preloadUltrasound bool
		preloadVideo      bool
	)

	cmd := &cobra.Command{
		Use:   "scan <session-dir>",
		Short: "Build and report the recording set of a session directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("exclusion-list") {
				cfg.ExclusionList = exclusionList
			}
			if cmd.Flags().Changed("require-video") {
				cfg.RequireVideo = requireVideo
			}
			if cmd.Flags().Changed("strict-metadata") {
				cfg.StrictMetadata = strictMetadata
			}
			if cmd.Flags().Changed("preload-audio") {
				cfg.PreloadAudio = preloadAudio
			}
			if cmd.Flags().Changed("preload-ultrasound") {
				cfg.PreloadUltrasound = preloadUltrasound
			}
			if cmd.Flags().Changed("preload-video") {
				cfg.PreloadVideo = preloadVideo
			}

			recordings, err := ingest.NewBuilder(cfg).Build(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			included := 0
			for _, r := range recordings {
				status := "ok"
				if r.Excluded() {
					status = "excluded"
				} else {
					included++
				}
				ts := ""
				if !r.Meta.Timestamp.IsZero() {
					ts = r.Meta.Timestamp.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(out, "%-10s %-20s trial %3d  %-19s  %q\n",
					status, r.Basename, r.Meta.TrialNumber, ts, r.Meta.Prompt)
			}
			fmt.Fprintf(out, "\n%d recordings, %d included, %d excluded\n",
				len(recordings), included, len(recordings)-included)
			return nil
		},
	}

	cmd.Flags().StringVar(&exclusionList, "exclusion-list", "", "tab-delimited file of recordings to exclude")
	cmd.Flags().BoolVar(&requireVideo, "require-video", false, "exclude recordings without a video file")
	cmd.Flags().BoolVar(&strictMetadata, "strict-metadata", false, "abort when a recording has no session notes record")
	cmd.Flags().BoolVar(&preloadAudio, "preload-audio", true, "load audio waveforms at build time")
	cmd.Flags().BoolVar(&preloadUltrasound, "preload-ultrasound", false, "decode ultrasound volumes at build time")
	cmd.Flags().BoolVar(&preloadVideo, "preload-video", false, "read video containers at build time")
	return cmd
}
