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

package volume

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/msaito8623/satkit/dicom"
)

// echoFixture describes a synthetic vendor export used to build test data
// sets. Sample i of frame f is the byte f*100+i, padding bytes are 0xEE so
// that any leak into the output is visible.
type echoFixture struct {
	numFrames  int
	dims       []int
	padding    int
	fps        float64
	regions    int
	dataType   string
	rawLen     int // overrides the computed raw buffer length when non-zero
	dropFrames bool
}

func (fx echoFixture) frameSize() int {
	return fx.dims[0] * fx.dims[1] * fx.dims[2]
}

// raw lays the samples out frame-minor with the frame index varying fastest,
// trailed by the padding rows.
func (fx echoFixture) raw() []byte {
	frameSize := fx.frameSize()
	n := (frameSize + fx.padding) * fx.numFrames
	if fx.rawLen != 0 {
		n = fx.rawLen
	}
	raw := make([]byte, n)
	for i := range raw {
		raw[i] = 0xEE
	}
	for i := 0; i < frameSize; i++ {
		for f := 0; f < fx.numFrames; f++ {
			idx := i*fx.numFrames + f
			if idx < len(raw) {
				raw[idx] = byte(f*100 + i)
			}
		}
	}
	return raw
}

func (fx echoFixture) dataSet() *dicom.DataSet {
	frameItem := &dicom.DataSet{Elements: map[dicom.DataElementTag]*dicom.DataElement{
		privateRawDataTag: dicom.NewElement(privateRawDataTag, nil, fx.raw()),
	}}
	if !fx.dropFrames {
		frameItem.Elements[privateNumFramesTag] =
			dicom.NewElement(privateNumFramesTag, nil, []int32{int32(fx.numFrames)})
	}

	echo := &dicom.DataSet{Elements: map[dicom.DataElementTag]*dicom.DataElement{
		privateDataTypeTag: dicom.NewElement(privateDataTypeTag, nil, []byte(fx.dataType)),
		privateFrameSeqTag: dicom.NewElement(privateFrameSeqTag, nil,
			&dicom.Sequence{Items: []*dicom.DataSet{frameItem}}),
	}}

	regionItems := make([]*dicom.DataSet, fx.regions)
	for i := range regionItems {
		regionItems[i] = &dicom.DataSet{Elements: map[dicom.DataElementTag]*dicom.DataElement{}}
	}

	dims := make([]int32, len(fx.dims))
	for i, d := range fx.dims {
		dims[i] = int32(d)
	}

	return &dicom.DataSet{Elements: map[dicom.DataElementTag]*dicom.DataElement{
		dicom.SequenceOfUltrasoundRegionsTag: dicom.NewElement(
			dicom.SequenceOfUltrasoundRegionsTag, nil,
			&dicom.Sequence{Items: regionItems}),
		privateEchoSeqTag: dicom.NewElement(privateEchoSeqTag, nil,
			&dicom.Sequence{Items: []*dicom.DataSet{
				{Elements: map[dicom.DataElementTag]*dicom.DataElement{}},
				echo,
			}}),
		privateDimensionsTag: dicom.NewElement(privateDimensionsTag, nil, dims),
		privateScaleTag:      dicom.NewElement(privateScaleTag, nil, []float64{0.5, 0.25, 1.0}),
		privateFrameRateTag:  dicom.NewElement(privateFrameRateTag, nil, []float64{fx.fps}),
	}}
}

func defaultFixture() echoFixture {
	return echoFixture{
		numFrames: 4,
		dims:      []int{2, 3, 2},
		padding:   5,
		fps:       25,
		regions:   3,
		dataType:  EchoDataType,
	}
}

func TestDecode(t *testing.T) {
	fx := defaultFixture()
	tensor, timeVector, meta, err := Decode(fx.dataSet(), 0)
	if err != nil {
		t.Fatalf("Decode(fixture) => %v, want <nil>", err)
	}

	wantShape := [4]int{4, 2, 3, 2}
	if got := tensor.Shape(); got != wantShape {
		t.Fatalf("Shape() => %v, want %v", got, wantShape)
	}

	frameSize := fx.frameSize()
	for f := 0; f < fx.numFrames; f++ {
		frame := tensor.Frame(f)
		for i := 0; i < frameSize; i++ {
			if want := byte(f*100 + i); frame[i] != want {
				t.Fatalf("Frame(%d)[%d] = %#x, want %#x", f, i, frame[i], want)
			}
		}
	}

	// The padding filler byte must never survive into the output.
	for f := 0; f < fx.numFrames; f++ {
		if bytes.Contains(tensor.Frame(f), []byte{0xEE}) {
			t.Fatalf("Frame(%d) contains a padding byte", f)
		}
	}

	if len(timeVector) != fx.numFrames {
		t.Fatalf("len(timeVector) = %d, want %d", len(timeVector), fx.numFrames)
	}
	for i, ts := range timeVector {
		if want := float64(i) / fx.fps; math.Abs(ts-want) > 1e-12 {
			t.Fatalf("timeVector[%d] = %v, want %v", i, ts, want)
		}
	}

	want := Meta{
		NumFrames:    4,
		FramesPerSec: 25,
		NumVectors:   2,
		PixPerVector: 3,
		Scale:        [3]float64{0.5, 0.25, 1.0},
	}
	if meta != want {
		t.Fatalf("Decode meta => %+v, want %+v", meta, want)
	}
}

func TestDecodeZeroPadding(t *testing.T) {
	fx := defaultFixture()
	fx.padding = 0
	tensor, _, _, err := Decode(fx.dataSet(), 0)
	if err != nil {
		t.Fatalf("Decode(unpadded fixture) => %v, want <nil>", err)
	}
	if got := tensor.At(2, 0, 0, 1); got != 201 {
		t.Fatalf("At(2,0,0,1) = %d, want 201", got)
	}
}

func TestDecodeTimeOffset(t *testing.T) {
	fx := defaultFixture()
	_, timeVector, meta, err := Decode(fx.dataSet(), 1.5)
	if err != nil {
		t.Fatalf("Decode(fixture, 1.5) => %v, want <nil>", err)
	}
	if meta.TimeOffset != 1.5 {
		t.Fatalf("meta.TimeOffset = %v, want 1.5", meta.TimeOffset)
	}
	for i, ts := range timeVector {
		if want := float64(i)/fx.fps + 1.5; math.Abs(ts-want) > 1e-12 {
			t.Fatalf("timeVector[%d] = %v, want %v", i, ts, want)
		}
	}
}

func TestDecodeInputNotModified(t *testing.T) {
	fx := defaultFixture()
	ds := fx.dataSet()
	rawBefore := append([]byte(nil), fx.raw()...)

	if _, _, _, err := Decode(ds, 0); err != nil {
		t.Fatalf("Decode(fixture) => %v, want <nil>", err)
	}

	frameSeq, err := ds.Sequence(privateEchoSeqTag)
	if err != nil {
		t.Fatalf("Sequence(privateEchoSeqTag) => %v", err)
	}
	inner, err := frameSeq.Items[1].Sequence(privateFrameSeqTag)
	if err != nil {
		t.Fatalf("Sequence(privateFrameSeqTag) => %v", err)
	}
	rawAfter, err := inner.Items[0].Bytes(privateRawDataTag)
	if err != nil {
		t.Fatalf("Bytes(privateRawDataTag) => %v", err)
	}
	if !bytes.Equal(rawBefore, rawAfter) {
		t.Fatalf("Decode modified the raw buffer in the input data set")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*echoFixture)
		wantErr error
	}{
		{
			name:    "TwoRegions",
			mutate:  func(fx *echoFixture) { fx.regions = 2 },
			wantErr: ErrUnsupportedLayout,
		},
		{
			name:    "FourRegions",
			mutate:  func(fx *echoFixture) { fx.regions = 4 },
			wantErr: ErrUnsupportedLayout,
		},
		{
			name:    "WrongDataType",
			mutate:  func(fx *echoFixture) { fx.dataType = "UDM_USD_DATATYPE_DIN_2D_VIDEO" },
			wantErr: ErrUnknownModality,
		},
		{
			name:    "BufferTooShort",
			mutate:  func(fx *echoFixture) { fx.rawLen = fx.frameSize()*fx.numFrames - 1 },
			wantErr: ErrCorruptVolume,
		},
		{
			name: "PaddingNotDivisible",
			mutate: func(fx *echoFixture) {
				fx.rawLen = fx.frameSize()*fx.numFrames + fx.numFrames + 1
			},
			wantErr: ErrCorruptVolume,
		},
		{
			name:    "MissingFrameCount",
			mutate:  func(fx *echoFixture) { fx.dropFrames = true },
			wantErr: ErrCorruptVolume,
		},
		{
			name:    "ZeroFrameRate",
			mutate:  func(fx *echoFixture) { fx.fps = 0 },
			wantErr: ErrCorruptVolume,
		},
		{
			name:    "ZeroDimension",
			mutate:  func(fx *echoFixture) { fx.dims = []int{6, 4, 0} },
			wantErr: ErrCorruptVolume,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := defaultFixture()
			tc.mutate(&fx)
			_, _, _, err := Decode(fx.dataSet(), 0)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Decode(%s fixture) => %v, want %v", tc.name, err, tc.wantErr)
			}
		})
	}
}

func TestDecodeMissingRegions(t *testing.T) {
	fx := defaultFixture()
	ds := fx.dataSet()
	delete(ds.Elements, dicom.SequenceOfUltrasoundRegionsTag)

	_, _, _, err := Decode(ds, 0)
	if !errors.Is(err, ErrUnsupportedLayout) {
		t.Fatalf("Decode(no regions) => %v, want %v", err, ErrUnsupportedLayout)
	}
}
