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

// Package ingest builds the recording set of one session directory. The
// exporter lays a session out as DCM/ holding the per-trial companion files
// and NOTES/ holding a single session notes MAT-file; Build reconciles the
// two into a timestamp-ordered slice of recordings.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/msaito8623/satkit/internal/log"
	"github.com/msaito8623/satkit/notes"
	"github.com/msaito8623/satkit/recording"
)

// Session directory layout written by the exporter.
const (
	dataSubdir  = "DCM"
	notesSubdir = "NOTES"
)

// ErrNoMatchingNotes is returned in strict metadata mode when a recording
// has no session notes record.
var ErrNoMatchingNotes = errors.New("ingest: no session notes record for recording")

// Builder turns a session directory into a recording set.
type Builder struct {
	cfg    Config
	logger zerolog.Logger
}

// NewBuilder creates a Builder with the given configuration.
func NewBuilder(cfg Config) *Builder {
	return &Builder{
		cfg:    cfg,
		logger: log.WithComponent("ingest"),
	}
}

// Build scans the session directory, constructs one Recording per ultrasound
// volume, attaches the modality channels, merges the session notes, applies
// the exclusion list, and sorts the set ascending by trial timestamp.
// Excluded recordings are returned along with the rest so that callers can
// report them; they are marked, never dropped.
func (b *Builder) Build(dir string) ([]*recording.Recording, error) {
	dataDir := filepath.Join(dir, dataSubdir)

	basenames, err := trialBasenames(dataDir)
	if err != nil {
		return nil, err
	}
	if len(basenames) == 0 {
		return nil, fmt.Errorf("ingest: no %s volumes under %s", recording.UltrasoundExt, dataDir)
	}

	records, err := b.sessionNotes(dir)
	if err != nil {
		return nil, err
	}
	byStem := make(map[string]notes.Record, len(records))
	for _, rec := range records {
		byStem[stem(rec.AudioFilename)] = rec
	}

	recordings := make([]*recording.Recording, 0, len(basenames))
	for _, basename := range basenames {
		r := recording.New(dataDir, basename, b.cfg.RequireVideo)

		if rec, ok := byStem[basename]; ok {
			if err := r.AttachMetadata(rec); err != nil {
				if b.cfg.StrictMetadata {
					return nil, err
				}
				b.logger.Warn().Err(err).
					Str("basename", basename).
					Msg("excluding recording: incomplete session notes record")
				r.Exclude()
			}
		} else {
			if b.cfg.StrictMetadata {
				return nil, fmt.Errorf("%w: %s", ErrNoMatchingNotes, basename)
			}
			b.logger.Warn().
				Str("basename", basename).
				Msg("excluding recording: no session notes record")
			r.Exclude()
		}

		if err := b.attachModalities(r); err != nil {
			return nil, err
		}
		recordings = append(recordings, r)
	}

	if err := ApplyExclusionList(recordings, b.cfg.ExclusionList); err != nil {
		return nil, err
	}

	sort.SliceStable(recordings, func(i, j int) bool {
		return recordings[i].Meta.Timestamp.Before(recordings[j].Meta.Timestamp)
	})

	b.logger.Info().
		Int("recordings", len(recordings)).
		Int("excluded", countExcluded(recordings)).
		Str("dir", dir).
		Msg("built recording set")
	return recordings, nil
}

// attachModalities registers a modality for every companion file the
// recording has on disk. Preloading is skipped on excluded recordings since
// their data will never be consumed.
func (b *Builder) attachModalities(r *recording.Recording) error {
	type channel struct {
		file    string
		exists  bool
		preload bool
	}
	channels := []channel{
		{r.Meta.UltrasoundFile, r.Meta.UltrasoundExists, b.cfg.PreloadUltrasound},
		{r.Meta.AudioFile, r.Meta.AudioExists, b.cfg.PreloadAudio},
		{r.Meta.VideoFile, r.Meta.VideoExists, b.cfg.PreloadVideo},
	}

	for _, ch := range channels {
		if !ch.exists {
			continue
		}
		preload := ch.preload && !r.Excluded()
		m, err := recording.NewModalityForFile(ch.file, preload, 0)
		if err != nil {
			if b.cfg.StrictMetadata {
				return fmt.Errorf("ingest: attaching %s to %s: %w", ch.file, r.Basename, err)
			}
			b.logger.Warn().Err(err).
				Str("basename", r.Basename).
				Str("file", ch.file).
				Msg("excluding recording: modality failed to load")
			r.Exclude()
			continue
		}
		if err := r.AddModality(m); err != nil {
			return err
		}
	}
	return nil
}

// sessionNotes locates and parses the single NOTES/*.mat file of a session.
func (b *Builder) sessionNotes(dir string) ([]notes.Record, error) {
	pattern := filepath.Join(dir, notesSubdir, "*.mat")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("ingest: globbing %s: %w", pattern, err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("ingest: no session notes file matching %s", pattern)
	case 1:
	default:
		return nil, fmt.Errorf("ingest: %d session notes files matching %s, want 1", len(matches), pattern)
	}
	return notes.Parse(matches[0])
}

// trialBasenames lists the stems of the ultrasound volumes under dataDir in
// lexical order.
func trialBasenames(dataDir string) ([]string, error) {
	pattern := filepath.Join(dataDir, "*"+recording.UltrasoundExt)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("ingest: globbing %s: %w", pattern, err)
	}

	basenames := make([]string, 0, len(matches))
	for _, m := range matches {
		basenames = append(basenames, strings.TrimSuffix(filepath.Base(m), recording.UltrasoundExt))
	}
	sort.Strings(basenames)
	return basenames, nil
}

// stem reduces a session notes filename to its bare basename without the
// extension. The recording software writes Windows paths, so both separator
// conventions are stripped.
func stem(filename string) string {
	for _, sep := range []string{"\\", "/"} {
		if i := strings.LastIndex(filename, sep); i >= 0 {
			filename = filename[i+1:]
		}
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func countExcluded(recordings []*recording.Recording) int {
	n := 0
	for _, r := range recordings {
		if r.Excluded() {
			n++
		}
	}
	return n
}
