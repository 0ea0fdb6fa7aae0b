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

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msaito8623/satkit/dicom"
)

// writeVolumeFixture writes a minimal vendor-format DICOM ultrasound volume:
// 2 frames of 2x2x2 samples with no padding, sample i of frame f holding the
// byte f*10+i.
func writeVolumeFixture(t *testing.T, path string) {
	t.Helper()

	var (
		echoSeqTag   = dicom.NewTag(0x200D, 0x3016)
		dataTypeTag  = dicom.NewTag(0x200D, 0x300D)
		frameSeqTag  = dicom.NewTag(0x200D, 0x3020)
		numFramesTag = dicom.NewTag(0x200D, 0x3010)
		rawDataTag   = dicom.NewTag(0x200D, 0x300E)
		dimsTag      = dicom.NewTag(0x200D, 0x3301)
		scaleTag     = dicom.NewTag(0x200D, 0x3303)
		frameRateTag = dicom.NewTag(0x200D, 0x3207)
	)

	raw := make([]byte, 16)
	for i := 0; i < 8; i++ {
		for f := 0; f < 2; f++ {
			raw[i*2+f] = byte(f*10 + i)
		}
	}

	frameItem := &dicom.DataSet{Elements: map[dicom.DataElementTag]*dicom.DataElement{
		numFramesTag: dicom.NewElement(numFramesTag, dicom.USVR, []uint16{2}),
		rawDataTag:   dicom.NewElement(rawDataTag, dicom.UNVR, raw),
	}}
	echoItem := &dicom.DataSet{Elements: map[dicom.DataElementTag]*dicom.DataElement{
		dataTypeTag: dicom.NewElement(dataTypeTag, dicom.UNVR, []byte("UDM_USD_DATATYPE_DIN_3D_ECHO")),
		frameSeqTag: dicom.NewElement(frameSeqTag, dicom.SQVR,
			&dicom.Sequence{Items: []*dicom.DataSet{frameItem}}),
	}}
	emptyItem := func() *dicom.DataSet {
		return &dicom.DataSet{Elements: map[dicom.DataElementTag]*dicom.DataElement{}}
	}

	ds := &dicom.DataSet{Elements: map[dicom.DataElementTag]*dicom.DataElement{
		dicom.TransferSyntaxUIDTag: dicom.NewElement(
			dicom.TransferSyntaxUIDTag, nil, dicom.ExplicitVRLittleEndianUID),
		dicom.SequenceOfUltrasoundRegionsTag: dicom.NewElement(
			dicom.SequenceOfUltrasoundRegionsTag, dicom.SQVR,
			&dicom.Sequence{Items: []*dicom.DataSet{emptyItem(), emptyItem(), emptyItem()}}),
		echoSeqTag: dicom.NewElement(echoSeqTag, dicom.SQVR,
			&dicom.Sequence{Items: []*dicom.DataSet{emptyItem(), echoItem}}),
		dimsTag:      dicom.NewElement(dimsTag, dicom.USVR, []uint16{2, 2, 2}),
		scaleTag:     dicom.NewElement(scaleTag, dicom.DSVR, []string{"0.5", "0.5", "0.5"}),
		frameRateTag: dicom.NewElement(frameRateTag, dicom.DSVR, "25.0"),
	}}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, dicom.Construct(f, ds))
}

// writeWavFixture writes a mono 16 bit WAV file with the given samples.
func writeWavFixture(t *testing.T, path string, sampleRate int, samples []int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           samples,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestNewModalityForFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		filename string
		wantName string
	}{
		{"T01.DCM", UltrasoundModality},
		{"T01.dcm", UltrasoundModality},
		{"T01.wav", AudioModality},
		{"T01.avi", VideoModality},
	}
	for _, tc := range tests {
		m, err := NewModalityForFile(filepath.Join(dir, tc.filename), false, 0)
		require.NoError(t, err, tc.filename)
		assert.Equal(t, tc.wantName, m.Name())
		assert.False(t, m.Loaded())
	}

	_, err := NewModalityForFile(filepath.Join(dir, "T01.txt"), false, 0)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestThreeDUltrasound_LoadRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "T01.DCM")
	writeVolumeFixture(t, path)

	u, err := NewThreeDUltrasound(path, false, 0)
	require.NoError(t, err)
	assert.False(t, u.Loaded())
	assert.Nil(t, u.Data())

	require.NoError(t, u.Load())
	require.True(t, u.Loaded())
	assert.Equal(t, [4]int{2, 2, 2, 2}, u.Data().Shape())
	assert.Equal(t, 25.0, u.Meta().FramesPerSec)
	assert.Len(t, u.TimeVector(), 2)
	assert.Equal(t, uint8(13), u.Data().At(1, 0, 1, 1))

	// a second Load is a no-op
	data := u.Data()
	require.NoError(t, u.Load())
	assert.Same(t, data, u.Data())

	u.Release()
	assert.False(t, u.Loaded())
	assert.Nil(t, u.Data())
	assert.Nil(t, u.TimeVector())

	// a released modality can be loaded again
	require.NoError(t, u.Load())
	assert.True(t, u.Loaded())
}

func TestThreeDUltrasound_Preload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "T01.DCM")
	writeVolumeFixture(t, path)

	u, err := NewThreeDUltrasound(path, true, 0)
	require.NoError(t, err)
	assert.True(t, u.Loaded())

	_, err = NewThreeDUltrasound(filepath.Join(t.TempDir(), "missing.DCM"), true, 0)
	assert.Error(t, err)
}

func TestThreeDUltrasound_SetData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "T01.DCM")
	writeVolumeFixture(t, path)

	u, err := NewThreeDUltrasound(path, true, 0)
	require.NoError(t, err)

	err = u.SetData(u.Data(), u.TimeVector(), u.Meta())
	assert.ErrorIs(t, err, ErrAlreadyLoaded)

	tensor, timeVector, meta := u.Data(), u.TimeVector(), u.Meta()
	u.Release()
	require.NoError(t, u.SetData(tensor, timeVector, meta))
	assert.True(t, u.Loaded())
	assert.Same(t, tensor, u.Data())
}

func TestMonoAudio_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "T01.wav")
	samples := []int{0, 1000, -1000, 32000}
	writeWavFixture(t, path, 16000, samples)

	a, err := NewMonoAudio(path, false, 0.5)
	require.NoError(t, err)
	require.NoError(t, a.Load())

	assert.Equal(t, 16000, a.SampleRate())
	assert.Equal(t, samples, a.Data().Data)
	require.Len(t, a.TimeVector(), len(samples))
	assert.InDelta(t, 0.5, a.TimeVector()[0], 1e-12)
	assert.InDelta(t, 0.5+1.0/16000, a.TimeVector()[1], 1e-12)

	a.Release()
	assert.False(t, a.Loaded())
	assert.Nil(t, a.Data())
}

func TestLipVideo_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "T01.avi")
	payload := []byte("RIFF fake container")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	v, err := NewLipVideo(path, true, VideoMeta{})
	require.NoError(t, err)
	assert.True(t, v.Loaded())
	assert.Equal(t, payload, v.Data())
	assert.Equal(t, DefaultVideoFPS, v.Meta().FramesPerSec)

	v.Release()
	assert.False(t, v.Loaded())
	assert.Nil(t, v.Data())
}

func TestLipVideo_CustomFrameRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "T01.avi")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	v, err := NewLipVideo(path, false, VideoMeta{FramesPerSec: 30})
	require.NoError(t, err)
	assert.Equal(t, 30.0, v.Meta().FramesPerSec)
}
