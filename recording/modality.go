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
	"path/filepath"
	"strings"
)

// Canonical modality names used by the recording set builder.
const (
	UltrasoundModality = "ultrasound"
	AudioModality      = "audio"
	VideoModality      = "video"
)

// Modality is one typed data channel of a Recording: the ultrasound volume,
// the audio waveform, or the lip video. A modality starts out empty unless
// preloaded, materializes its data on the first Load, and frees it again on
// Release. Consumers must never assume a modality is loaded.
type Modality interface {
	// Name returns the canonical modality name.
	Name() string

	// Filename returns the path of the file backing this modality.
	Filename() string

	// Loaded reports whether the data buffer is materialized.
	Loaded() bool

	// Load materializes the data buffer. Calling Load on a loaded modality
	// is a no-op.
	Load() error

	// Release frees the data buffer. It always succeeds, regardless of the
	// current state. A released modality can be re-loaded.
	Release()

	// TimeVector returns one timestamp per sample or frame, or nil when the
	// modality is not loaded or carries no time base.
	TimeVector() []float64
}

// modality holds the state shared by all modality implementations.
type modality struct {
	name       string
	filename   string
	timeOffset float64
	loaded     bool
	timeVector []float64
}

func (m *modality) Name() string {
	return m.name
}

func (m *modality) Filename() string {
	return m.filename
}

func (m *modality) Loaded() bool {
	return m.loaded
}

func (m *modality) TimeVector() []float64 {
	return m.timeVector
}

// NewModalityForFile constructs the modality matching the extension of
// filename. The extension comparison is case-insensitive since the exporter
// writes upper-case volume extensions but lower-case audio and video ones.
// Unrecognized extensions fail with ErrUnsupportedFileType.
func NewModalityForFile(filename string, preload bool, timeOffset float64) (Modality, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".dcm":
		return NewThreeDUltrasound(filename, preload, timeOffset)
	case ".wav":
		return NewMonoAudio(filename, preload, timeOffset)
	case ".avi":
		return NewLipVideo(filename, preload, VideoMeta{})
	default:
		return nil, ErrUnsupportedFileType
	}
}
