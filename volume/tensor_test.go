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

import "testing"

func TestTensorIndexing(t *testing.T) {
	tensor := newTensor(2, 3, 4, 5)
	for i := range tensor.data {
		tensor.data[i] = uint8(i)
	}

	if got, want := tensor.NumFrames(), 2; got != want {
		t.Fatalf("NumFrames() = %d, want %d", got, want)
	}
	if got, want := tensor.FrameSize(), 60; got != want {
		t.Fatalf("FrameSize() = %d, want %d", got, want)
	}
	if got, want := tensor.NumBytes(), 120; got != want {
		t.Fatalf("NumBytes() = %d, want %d", got, want)
	}

	// At must agree with the row-major flat layout.
	if got, want := tensor.At(1, 2, 3, 4), uint8(119); got != want {
		t.Fatalf("At(1,2,3,4) = %d, want %d", got, want)
	}
	if got, want := tensor.At(0, 0, 0, 1), uint8(1); got != want {
		t.Fatalf("At(0,0,0,1) = %d, want %d", got, want)
	}

	frame := tensor.Frame(1)
	if got, want := len(frame), 60; got != want {
		t.Fatalf("len(Frame(1)) = %d, want %d", got, want)
	}
	if frame[0] != 60 {
		t.Fatalf("Frame(1)[0] = %d, want 60", frame[0])
	}
}

func TestTensorFrameOutOfRange(t *testing.T) {
	tensor := newTensor(2, 1, 1, 1)
	defer func() {
		if recover() == nil {
			t.Fatalf("Frame(2) did not panic")
		}
	}()
	tensor.Frame(2)
}
