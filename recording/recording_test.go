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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msaito8623/satkit/notes"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "T01.DCM"))
	touch(t, filepath.Join(dir, "T01.wav"))

	r := New(dir, "T01", false)
	assert.False(t, r.Excluded())
	assert.True(t, r.Meta.UltrasoundExists)
	assert.True(t, r.Meta.AudioExists)
	assert.False(t, r.Meta.VideoExists)
	assert.Equal(t, filepath.Join(dir, "T01.avi"), r.Meta.VideoFile)
}

func TestNew_MissingCompanions(t *testing.T) {
	tests := []struct {
		name         string
		files        []string
		requireVideo bool
		wantExcluded bool
	}{
		{"all present", []string{"T01.DCM", "T01.wav", "T01.avi"}, true, false},
		{"missing audio", []string{"T01.DCM"}, false, true},
		{"missing ultrasound", []string{"T01.wav"}, false, true},
		{"missing optional video", []string{"T01.DCM", "T01.wav"}, false, false},
		{"missing required video", []string{"T01.DCM", "T01.wav"}, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tc.files {
				touch(t, filepath.Join(dir, f))
			}
			r := New(dir, "T01", tc.requireVideo)
			assert.Equal(t, tc.wantExcluded, r.Excluded())
		})
	}
}

func TestRecording_ExcludeIsMonotonic(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "T01.DCM"))
	touch(t, filepath.Join(dir, "T01.wav"))

	r := New(dir, "T01", false)
	require.False(t, r.Excluded())
	r.Exclude()
	assert.True(t, r.Excluded())
	r.Exclude()
	assert.True(t, r.Excluded())
}

func TestRecording_AddModality(t *testing.T) {
	r := New(t.TempDir(), "T01", false)

	u, err := NewThreeDUltrasound(r.Meta.UltrasoundFile, false, 0)
	require.NoError(t, err)
	require.NoError(t, r.AddModality(u))
	assert.Same(t, u, r.Modality(UltrasoundModality))
	assert.Equal(t, []string{UltrasoundModality}, r.ModalityNames())

	dup, err := NewThreeDUltrasound(r.Meta.UltrasoundFile, false, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, r.AddModality(dup), ErrDuplicateModality)
}

func TestRecording_AttachMetadata(t *testing.T) {
	valid := notes.Record{
		TrialNumber:   7,
		Prompt:        "apa",
		Timestamp:     time.Date(2018, time.March, 14, 10, 4, 16, 0, time.UTC),
		AudioFilename: "T07.wav",
	}

	tests := []struct {
		name    string
		mutate  func(*notes.Record)
		wantErr bool
	}{
		{"complete record", func(rec *notes.Record) {}, false},
		{"missing trial number", func(rec *notes.Record) { rec.TrialNumber = 0 }, true},
		{"missing prompt", func(rec *notes.Record) { rec.Prompt = "" }, true},
		{"missing timestamp", func(rec *notes.Record) { rec.Timestamp = time.Time{} }, true},
		{"missing audio filename", func(rec *notes.Record) { rec.AudioFilename = "" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(t.TempDir(), "T07", false)
			rec := valid
			tc.mutate(&rec)

			err := r.AttachMetadata(rec)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrIncompleteMetadata)
				assert.Zero(t, r.Meta.TrialNumber)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 7, r.Meta.TrialNumber)
			assert.Equal(t, "apa", r.Meta.Prompt)
			assert.Equal(t, rec.Timestamp, r.Meta.Timestamp)
			assert.Equal(t, "T07.wav", r.Meta.DatFilename)
		})
	}
}

func TestRecording_Release(t *testing.T) {
	dir := t.TempDir()
	dcmPath := filepath.Join(dir, "T01.DCM")
	wavPath := filepath.Join(dir, "T01.wav")
	writeVolumeFixture(t, dcmPath)
	writeWavFixture(t, wavPath, 16000, []int{1, 2, 3})

	r := New(dir, "T01", false)
	u, err := NewThreeDUltrasound(dcmPath, true, 0)
	require.NoError(t, err)
	a, err := NewMonoAudio(wavPath, true, 0)
	require.NoError(t, err)
	require.NoError(t, r.AddModality(u))
	require.NoError(t, r.AddModality(a))

	require.True(t, u.Loaded())
	require.True(t, a.Loaded())
	r.Release()
	assert.False(t, u.Loaded())
	assert.False(t, a.Loaded())
}
