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

import "fmt"

// Tensor is a dense, frame-major 4-dimensional array of ultrasound samples
// with shape [frames, dim1, dim2, dim3]. The sample values are raw probe
// return amplitudes; real-space scaling factors are carried separately in
// Meta and never applied to the samples.
type Tensor struct {
	frames, dim1, dim2, dim3 int

	// data holds the samples contiguously with the frame index as the
	// slowest varying axis.
	data []uint8
}

func newTensor(frames, dim1, dim2, dim3 int) *Tensor {
	return &Tensor{
		frames: frames,
		dim1:   dim1,
		dim2:   dim2,
		dim3:   dim3,
		data:   make([]uint8, frames*dim1*dim2*dim3),
	}
}

// Shape returns the tensor dimensions as [frames, dim1, dim2, dim3].
func (t *Tensor) Shape() [4]int {
	return [4]int{t.frames, t.dim1, t.dim2, t.dim3}
}

// NumFrames returns the number of frames in the tensor.
func (t *Tensor) NumFrames() int {
	return t.frames
}

// FrameSize returns the number of samples in a single frame.
func (t *Tensor) FrameSize() int {
	return t.dim1 * t.dim2 * t.dim3
}

// At returns the sample at the given frame and inner coordinates.
func (t *Tensor) At(frame, i, j, k int) uint8 {
	return t.data[((frame*t.dim1+i)*t.dim2+j)*t.dim3+k]
}

// Frame returns the samples of one frame as a contiguous slice in
// [dim1, dim2, dim3] row-major order. The slice aliases the tensor storage
// and must not be modified.
func (t *Tensor) Frame(frame int) []uint8 {
	if frame < 0 || frame >= t.frames {
		panic(fmt.Sprintf("volume: frame index %d out of range [0,%d)", frame, t.frames))
	}
	size := t.FrameSize()
	return t.data[frame*size : (frame+1)*size]
}

// NumBytes returns the total in-memory size of the sample data in bytes.
func (t *Tensor) NumBytes() int {
	return len(t.data)
}
