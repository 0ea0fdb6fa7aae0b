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

package recording

import (
	"fmt"
	"os"

	"github.com/msaito8623/satkit/internal/log"
)

// DefaultVideoFPS is the frame rate assumed when a recording session did not
// record one. The capture rig interlaces at 29.97 frames per second and the
// frames are de-interlaced on export, doubling the rate.
const DefaultVideoFPS = 59.94

// VideoMeta carries the scalar parameters of a lip video.
type VideoMeta struct {
	FramesPerSec float64
}

// LipVideo is the lip camera footage of one recording. The container is kept
// as raw bytes; frame extraction is left to downstream consumers so that the
// ingestion core carries no codec dependency.
type LipVideo struct {
	modality
	meta VideoMeta
	data []byte
}

// NewLipVideo creates the video modality backed by the container file at
// filename. When meta carries no frame rate, DefaultVideoFPS is assumed and
// a warning is logged since the guess affects time alignment.
func NewLipVideo(filename string, preload bool, meta VideoMeta) (*LipVideo, error) {
	if meta.FramesPerSec <= 0 {
		meta.FramesPerSec = DefaultVideoFPS
		logger := log.WithComponent("video")
		logger.Warn().
			Str("file", filename).
			Float64("fps", DefaultVideoFPS).
			Msg("video frame rate not recorded, assuming de-interlaced default")
	}

	v := &LipVideo{
		modality: modality{
			name:     VideoModality,
			filename: filename,
		},
		meta: meta,
	}

	if preload {
		if err := v.Load(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Load reads the raw container bytes. Calling Load on a loaded modality is a
// no-op.
func (v *LipVideo) Load() error {
	if v.loaded {
		return nil
	}

	data, err := os.ReadFile(v.filename)
	if err != nil {
		return fmt.Errorf("reading video %s: %w", v.filename, err)
	}

	v.data = data
	v.loaded = true
	return nil
}

// Release frees the container bytes.
func (v *LipVideo) Release() {
	v.data = nil
	v.loaded = false
}

// Data returns the raw container bytes, or nil when the modality is not
// loaded.
func (v *LipVideo) Data() []byte {
	return v.data
}

// Meta returns the scalar video parameters.
func (v *LipVideo) Meta() VideoMeta {
	return v.meta
}
