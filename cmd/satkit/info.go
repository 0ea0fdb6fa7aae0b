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

	"github.com/msaito8623/satkit/dicom"
	"github.com/msaito8623/satkit/volume"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.DCM>",
		Short: "Decode one ultrasound volume and print its geometry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dicom.ParseFile(args[0], dicom.DropGroupLengths)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			tensor, timeVector, meta, err := volume.Decode(ds, 0)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			shape := tensor.Shape()
			fmt.Fprintf(out, "file:          %s\n", args[0])
			fmt.Fprintf(out, "shape:         %d frames x %d x %d x %d\n",
				shape[0], shape[1], shape[2], shape[3])
			fmt.Fprintf(out, "frame rate:    %g fps\n", meta.FramesPerSec)
			fmt.Fprintf(out, "vectors:       %d, %d pixels per vector\n",
				meta.NumVectors, meta.PixPerVector)
			fmt.Fprintf(out, "scale:         %g x %g x %g\n",
				meta.Scale[0], meta.Scale[1], meta.Scale[2])
			fmt.Fprintf(out, "duration:      %.3f s\n",
				timeVector[len(timeVector)-1]-timeVector[0])
			fmt.Fprintf(out, "sample bytes:  %d\n", tensor.NumBytes())
			return nil
		},
	}
}
