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

// Package recording models one ultrasound recording session trial and its
// typed data channels. A Recording ties together the on-disk companion files
// of a single trial (ultrasound volume, audio waveform, lip video) with the
// session notes metadata, and owns the modality load/release lifecycle.
package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/msaito8623/satkit/internal/log"
	"github.com/msaito8623/satkit/notes"
)

// Companion file extensions written by the exporter for each trial.
const (
	UltrasoundExt = ".DCM"
	AudioExt      = ".wav"
	VideoExt      = ".avi"
)

// Metadata is the per-trial information merged from the session notes and
// the directory scan.
type Metadata struct {
	// TrialNumber is the 1-based trial index within the session.
	TrialNumber int

	// Prompt is the text the participant was asked to produce.
	Prompt string

	// Timestamp is the wall-clock start of the trial.
	Timestamp time.Time

	// DatFilename is the audio filename as written by the recording
	// software into the session notes, before path normalization.
	DatFilename string

	AudioFile        string
	AudioExists      bool
	UltrasoundFile   string
	UltrasoundExists bool
	VideoFile        string
	VideoExists      bool
}

// Recording is one trial of a recording session.
type Recording struct {
	// Path is the session directory holding the companion files.
	Path string

	// Basename is the shared stem of the trial's companion files.
	Basename string

	// Meta is the merged trial metadata.
	Meta Metadata

	// Annotations holds downstream analysis results keyed by name. The
	// ingestion core never populates it.
	Annotations map[string]interface{}

	excluded   bool
	modalities map[string]Modality
}

// New creates a Recording for the trial with the given basename under path,
// probing which companion files exist. A trial without its audio or its
// ultrasound volume is marked excluded; a missing video excludes the trial
// only when requireVideo is set, since many sessions record no video at all.
func New(path, basename string, requireVideo bool) *Recording {
	r := &Recording{
		Path:        path,
		Basename:    basename,
		Annotations: make(map[string]interface{}),
		modalities:  make(map[string]Modality),
	}

	r.Meta.UltrasoundFile = filepath.Join(path, basename+UltrasoundExt)
	r.Meta.AudioFile = filepath.Join(path, basename+AudioExt)
	r.Meta.VideoFile = filepath.Join(path, basename+VideoExt)

	r.Meta.UltrasoundExists = fileExists(r.Meta.UltrasoundFile)
	r.Meta.AudioExists = fileExists(r.Meta.AudioFile)
	r.Meta.VideoExists = fileExists(r.Meta.VideoFile)

	logger := log.WithComponent("recording")
	if !r.Meta.UltrasoundExists {
		logger.Info().Str("basename", basename).Msg("excluding recording: no ultrasound file")
		r.Exclude()
	}
	if !r.Meta.AudioExists {
		logger.Info().Str("basename", basename).Msg("excluding recording: no audio file")
		r.Exclude()
	}
	if requireVideo && !r.Meta.VideoExists {
		logger.Info().Str("basename", basename).Msg("excluding recording: no video file")
		r.Exclude()
	}
	return r
}

// Exclude marks the recording as excluded from analysis. Exclusion is
// monotonic: once excluded a recording never becomes included again.
func (r *Recording) Exclude() {
	r.excluded = true
}

// Excluded reports whether the recording is excluded from analysis.
func (r *Recording) Excluded() bool {
	return r.excluded
}

// AddModality registers a modality under its canonical name. Registering a
// second modality with the same name fails with ErrDuplicateModality.
func (r *Recording) AddModality(m Modality) error {
	if _, ok := r.modalities[m.Name()]; ok {
		return fmt.Errorf("%w: %s on %s", ErrDuplicateModality, m.Name(), r.Basename)
	}
	r.modalities[m.Name()] = m
	return nil
}

// Modality returns the modality registered under name, or nil when absent.
func (r *Recording) Modality(name string) Modality {
	return r.modalities[name]
}

// ModalityNames returns the registered modality names in unspecified order.
func (r *Recording) ModalityNames() []string {
	names := make([]string, 0, len(r.modalities))
	for name := range r.modalities {
		names = append(names, name)
	}
	return names
}

// AttachMetadata merges one session notes record into the recording. A
// record missing any required field fails with ErrIncompleteMetadata and
// leaves the recording unchanged.
func (r *Recording) AttachMetadata(rec notes.Record) error {
	switch {
	case rec.TrialNumber <= 0:
		return fmt.Errorf("%w: %s has no trial number", ErrIncompleteMetadata, r.Basename)
	case rec.Prompt == "":
		return fmt.Errorf("%w: %s has no prompt", ErrIncompleteMetadata, r.Basename)
	case rec.Timestamp.IsZero():
		return fmt.Errorf("%w: %s has no timestamp", ErrIncompleteMetadata, r.Basename)
	case rec.AudioFilename == "":
		return fmt.Errorf("%w: %s has no audio filename", ErrIncompleteMetadata, r.Basename)
	}

	r.Meta.TrialNumber = rec.TrialNumber
	r.Meta.Prompt = rec.Prompt
	r.Meta.Timestamp = rec.Timestamp
	r.Meta.DatFilename = rec.AudioFilename
	return nil
}

// Release frees the data of every registered modality.
func (r *Recording) Release() {
	for _, m := range r.modalities {
		m.Release()
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
