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

// Package volume decodes the vendor-private DICOM encoding of 3D/4D
// ultrasound probe return data into a dense frame-major tensor.
//
// The on-disk layout interleaves every frame's samples with trailing junk
// bytes whose count is not declared anywhere in the file; it has to be
// recovered from the length of the raw buffer, the declared inner dimensions,
// and the declared frame count. The flat buffer is frame-minor: the frame
// index varies fastest. Decode strips the junk bytes and transposes the
// result so that callers can index by frame first.
package volume

import (
	"errors"
	"fmt"

	"github.com/msaito8623/satkit/dicom"
)

// EchoDataType is the only ultrasound data type string this decoder
// recognizes, identifying raw 3D echo probe return data.
const EchoDataType = "UDM_USD_DATATYPE_DIN_3D_ECHO"

// supportedRegionCount is the number of ultrasound region descriptors that
// identifies the one vendor export variant this decoder understands. Any
// other region arrangement means a different (undocumented) layout and must
// be rejected rather than guessed at.
const supportedRegionCount = 3

// Vendor-private tags of the 3D ultrasound export. The group is reserved by
// the vendor; the element addresses were reverse-engineered from sample
// exports and are fixed.
var (
	// privateEchoSeqTag holds the top-level private sequence; its second
	// item describes the echo data object.
	privateEchoSeqTag = dicom.NewTag(0x200D, 0x3016)
	// privateDataTypeTag holds the data type string of the echo object.
	privateDataTypeTag = dicom.NewTag(0x200D, 0x300D)
	// privateFrameSeqTag holds the nested sequence whose first item carries
	// the frame count and the raw sample buffer.
	privateFrameSeqTag = dicom.NewTag(0x200D, 0x3020)
	// privateNumFramesTag holds the declared frame count.
	privateNumFramesTag = dicom.NewTag(0x200D, 0x3010)
	// privateRawDataTag holds the raw padded sample buffer.
	privateRawDataTag = dicom.NewTag(0x200D, 0x300E)
	// privateDimensionsTag holds the three inner dimensions of a frame.
	privateDimensionsTag = dicom.NewTag(0x200D, 0x3301)
	// privateScaleTag holds the three real-space scale factors.
	privateScaleTag = dicom.NewTag(0x200D, 0x3303)
	// privateFrameRateTag holds the acquisition frame rate.
	privateFrameRateTag = dicom.NewTag(0x200D, 0x3207)
)

var (
	// ErrUnsupportedLayout is returned when the file does not declare the one
	// supported arrangement of ultrasound region descriptors.
	ErrUnsupportedLayout = errors.New("volume: unsupported ultrasound region layout")

	// ErrUnknownModality is returned when the private data type tag names a
	// data type other than the recognized 3D echo type.
	ErrUnknownModality = errors.New("volume: unknown ultrasound data type")

	// ErrCorruptVolume is returned when the private tags are missing or
	// internally inconsistent, including any raw buffer whose length does not
	// decompose into frames with a uniform non-negative padding.
	ErrCorruptVolume = errors.New("volume: corrupt volume data")
)

// Meta carries the decoded scalar parameters of a volume.
type Meta struct {
	// NumFrames is the number of frames in the tensor.
	NumFrames int

	// FramesPerSec is the acquisition frame rate.
	FramesPerSec float64

	// NumVectors and PixPerVector are the first two inner dimensions of a
	// frame, describing the scan line geometry.
	NumVectors   int
	PixPerVector int

	// Scale holds the three real-space scale factors of the inner axes.
	// Scaling is a consumer concern: the factors are never applied to the
	// sample data.
	Scale [3]float64

	// TimeOffset is the offset added to every entry of the time vector.
	TimeOffset float64
}

// Decode decodes the vendor-private ultrasound volume in ds. It returns the
// dense frame-major sample tensor, a time vector with one entry per frame
// (entry i is i/FramesPerSec + timeOffset), and the decoded scalar metadata.
//
// Decode fails with ErrUnsupportedLayout when the file does not declare
// exactly the supported ultrasound region arrangement, with ErrUnknownModality
// when the data type is not the recognized 3D echo type, and with
// ErrCorruptVolume when the declared geometry does not match the raw buffer.
// The input DataSet is never modified.
func Decode(ds *dicom.DataSet, timeOffset float64) (*Tensor, []float64, Meta, error) {
	var meta Meta

	regions, err := ds.Sequence(dicom.SequenceOfUltrasoundRegionsTag)
	if err != nil {
		return nil, nil, meta, fmt.Errorf("%w: missing region descriptors: %v", ErrUnsupportedLayout, err)
	}
	if len(regions.Items) != supportedRegionCount {
		return nil, nil, meta, fmt.Errorf("%w: got %d regions, want %d",
			ErrUnsupportedLayout, len(regions.Items), supportedRegionCount)
	}

	echo, err := echoItem(ds)
	if err != nil {
		return nil, nil, meta, err
	}

	dataType, err := echo.String(privateDataTypeTag)
	if err != nil {
		return nil, nil, meta, fmt.Errorf("%w: reading data type: %v", ErrCorruptVolume, err)
	}
	if dataType != EchoDataType {
		return nil, nil, meta, fmt.Errorf("%w: %q", ErrUnknownModality, dataType)
	}

	frameSeq, err := echo.Sequence(privateFrameSeqTag)
	if err != nil || len(frameSeq.Items) == 0 {
		return nil, nil, meta, fmt.Errorf("%w: missing frame data object", ErrCorruptVolume)
	}
	frameItem := frameSeq.Items[0]

	numFrames, err := frameItem.Int(privateNumFramesTag)
	if err != nil {
		return nil, nil, meta, fmt.Errorf("%w: reading frame count: %v", ErrCorruptVolume, err)
	}
	if numFrames <= 0 {
		return nil, nil, meta, fmt.Errorf("%w: non-positive frame count %d", ErrCorruptVolume, numFrames)
	}

	dims, err := ds.Ints(privateDimensionsTag)
	if err != nil {
		return nil, nil, meta, fmt.Errorf("%w: reading dimensions: %v", ErrCorruptVolume, err)
	}
	if len(dims) != 3 || dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return nil, nil, meta, fmt.Errorf("%w: invalid inner dimensions %v", ErrCorruptVolume, dims)
	}

	scale, err := ds.Floats(privateScaleTag)
	if err != nil || len(scale) != 3 {
		return nil, nil, meta, fmt.Errorf("%w: reading scale factors: %v", ErrCorruptVolume, err)
	}

	fps, err := ds.Float(privateFrameRateTag)
	if err != nil {
		return nil, nil, meta, fmt.Errorf("%w: reading frame rate: %v", ErrCorruptVolume, err)
	}
	if fps <= 0 {
		return nil, nil, meta, fmt.Errorf("%w: non-positive frame rate %v", ErrCorruptVolume, fps)
	}

	raw, err := frameItem.Bytes(privateRawDataTag)
	if err != nil {
		return nil, nil, meta, fmt.Errorf("%w: reading raw buffer: %v", ErrCorruptVolume, err)
	}

	tensor, err := stripAndTranspose(raw, numFrames, dims)
	if err != nil {
		return nil, nil, meta, err
	}

	timeVector := make([]float64, numFrames)
	for i := range timeVector {
		timeVector[i] = float64(i)/fps + timeOffset
	}

	meta = Meta{
		NumFrames:    numFrames,
		FramesPerSec: fps,
		NumVectors:   dims[0],
		PixPerVector: dims[1],
		Scale:        [3]float64{scale[0], scale[1], scale[2]},
		TimeOffset:   timeOffset,
	}

	return tensor, timeVector, meta, nil
}

// echoItem returns the data set describing the echo data object: the second
// item of the top-level private sequence.
func echoItem(ds *dicom.DataSet) (*dicom.DataSet, error) {
	seq, err := ds.Sequence(privateEchoSeqTag)
	if err != nil {
		return nil, fmt.Errorf("%w: missing private ultrasound sequence: %v", ErrCorruptVolume, err)
	}
	if len(seq.Items) < 2 {
		return nil, fmt.Errorf("%w: private ultrasound sequence has %d items, want at least 2",
			ErrCorruptVolume, len(seq.Items))
	}
	return seq.Items[1], nil
}

// stripAndTranspose turns the flat padded buffer into a frame-major tensor.
//
// The buffer is frame-minor: viewed as a [frameSize+padding, numFrames]
// matrix in row-major order, column f holds the samples of frame f followed
// by its padding rows. The per-frame padding is whatever length remains after
// the declared samples, and must divide evenly across frames.
func stripAndTranspose(raw []byte, numFrames int, dims []int) (*Tensor, error) {
	frameSize := dims[0] * dims[1] * dims[2]

	surplus := len(raw) - frameSize*numFrames
	if surplus < 0 {
		return nil, fmt.Errorf("%w: buffer of %d bytes is short of %d frames of %d samples",
			ErrCorruptVolume, len(raw), numFrames, frameSize)
	}
	if surplus%numFrames != 0 {
		return nil, fmt.Errorf("%w: %d padding bytes do not divide evenly across %d frames",
			ErrCorruptVolume, surplus, numFrames)
	}

	tensor := newTensor(numFrames, dims[0], dims[1], dims[2])
	for i := 0; i < frameSize; i++ {
		row := raw[i*numFrames : (i+1)*numFrames]
		for f, sample := range row {
			tensor.data[f*frameSize+i] = sample
		}
	}

	return tensor, nil
}
