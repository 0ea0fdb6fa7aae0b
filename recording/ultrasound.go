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

	"github.com/msaito8623/satkit/dicom"
	"github.com/msaito8623/satkit/internal/log"
	"github.com/msaito8623/satkit/volume"
)

// ThreeDUltrasound is the raw 3D/4D probe return data of one recording.
// The decoded tensor is one to two orders of magnitude larger than the audio
// waveform, so ultrasound modalities default to lazy loading and should be
// released before the next recording's volume is materialized.
type ThreeDUltrasound struct {
	modality
	data *volume.Tensor
	meta volume.Meta
}

// NewThreeDUltrasound creates the ultrasound modality backed by the DICOM
// file at filename. With preload set the volume is decoded immediately;
// otherwise decoding happens on the first Load.
func NewThreeDUltrasound(filename string, preload bool, timeOffset float64) (*ThreeDUltrasound, error) {
	u := &ThreeDUltrasound{
		modality: modality{
			name:       UltrasoundModality,
			filename:   filename,
			timeOffset: timeOffset,
		},
	}

	if preload {
		if err := u.Load(); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Load parses the DICOM file and decodes the volume. Calling Load on a
// loaded modality is a no-op.
func (u *ThreeDUltrasound) Load() error {
	if u.loaded {
		return nil
	}

	ds, err := dicom.ParseFile(u.filename, dicom.DropGroupLengths)
	if err != nil {
		return fmt.Errorf("reading ultrasound volume %s: %w", u.filename, err)
	}

	tensor, timeVector, meta, err := volume.Decode(ds, u.timeOffset)
	if err != nil {
		return fmt.Errorf("decoding ultrasound volume %s: %w", u.filename, err)
	}

	u.data = tensor
	u.timeVector = timeVector
	u.meta = meta
	u.loaded = true

	shape := tensor.Shape()
	logger := log.WithComponent("ultrasound")
	logger.Debug().
		Str("file", u.filename).
		Ints("shape", shape[:]).
		Float64("fps", meta.FramesPerSec).
		Msg("decoded ultrasound volume")
	return nil
}

// Release frees the decoded tensor so that the next recording's volume can
// be materialized without growing peak memory.
func (u *ThreeDUltrasound) Release() {
	u.data = nil
	u.timeVector = nil
	u.loaded = false
}

// Data returns the decoded sample tensor, or nil when the modality is not
// loaded.
func (u *ThreeDUltrasound) Data() *volume.Tensor {
	return u.data
}

// SetData installs an externally produced tensor, for example a simulated
// volume. Overwriting a populated tensor fails with ErrAlreadyLoaded:
// decoded volumes are expensive and must be released explicitly before they
// can be replaced.
func (u *ThreeDUltrasound) SetData(t *volume.Tensor, timeVector []float64, meta volume.Meta) error {
	if u.loaded {
		return fmt.Errorf("%w: %s", ErrAlreadyLoaded, u.filename)
	}
	u.data = t
	u.timeVector = timeVector
	u.meta = meta
	u.loaded = true
	return nil
}

// Meta returns the decoded scalar parameters of the volume. The zero Meta is
// returned when the modality is not loaded.
func (u *ThreeDUltrasound) Meta() volume.Meta {
	return u.meta
}
