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

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// MonoAudio is the recorded speech waveform of one recording, read from the
// companion WAV file. The first channel is used when the file carries more
// than one.
type MonoAudio struct {
	modality
	data       *audio.IntBuffer
	sampleRate int
}

// NewMonoAudio creates the audio modality backed by the WAV file at
// filename. With preload set the waveform is read immediately.
func NewMonoAudio(filename string, preload bool, timeOffset float64) (*MonoAudio, error) {
	a := &MonoAudio{
		modality: modality{
			name:       AudioModality,
			filename:   filename,
			timeOffset: timeOffset,
		},
	}

	if preload {
		if err := a.Load(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Load reads the full waveform into memory. Calling Load on a loaded
// modality is a no-op.
func (a *MonoAudio) Load() error {
	if a.loaded {
		return nil
	}

	f, err := os.Open(a.filename)
	if err != nil {
		return fmt.Errorf("reading audio %s: %w", a.filename, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("decoding audio %s: %w", a.filename, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return fmt.Errorf("decoding audio %s: missing sample rate", a.filename)
	}

	if buf.Format.NumChannels > 1 {
		buf = firstChannel(buf)
	}

	a.data = buf
	a.sampleRate = buf.Format.SampleRate
	a.timeVector = make([]float64, len(buf.Data))
	for i := range a.timeVector {
		a.timeVector[i] = float64(i)/float64(a.sampleRate) + a.timeOffset
	}
	a.loaded = true
	return nil
}

// Release frees the waveform.
func (a *MonoAudio) Release() {
	a.data = nil
	a.timeVector = nil
	a.loaded = false
}

// Data returns the decoded waveform, or nil when the modality is not loaded.
func (a *MonoAudio) Data() *audio.IntBuffer {
	return a.data
}

// SampleRate returns the sample rate in Hz, or 0 when the modality is not
// loaded.
func (a *MonoAudio) SampleRate() int {
	return a.sampleRate
}

// firstChannel extracts channel 0 of an interleaved buffer.
func firstChannel(buf *audio.IntBuffer) *audio.IntBuffer {
	n := buf.Format.NumChannels
	mono := make([]int, len(buf.Data)/n)
	for i := range mono {
		mono[i] = buf.Data[i*n]
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: buf.Format.SampleRate},
		SourceBitDepth: buf.SourceBitDepth,
		Data:           mono,
	}
}
