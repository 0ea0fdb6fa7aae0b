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

package notes

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// MAT-file Level 5 constants used by the fixture builder.
const (
	matINT8   = 1
	matUINT32 = 6
	matDOUBLE = 9
	matINT32  = 5
	matMATRIX = 14
	matUTF8   = 16

	matClassCell   = 1
	matClassChar   = 4
	matClassDouble = 6
)

func matElement(dataType int, data []byte) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint32(out, uint32(dataType))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(data)))
	out = append(out, data...)
	for len(out)%8 != 0 {
		out = append(out, 0)
	}
	return out
}

func matMatrix(name string, class int, dims []int, payload ...[]byte) []byte {
	flags := make([]byte, 8)
	flags[0] = byte(class)

	dimsData := make([]byte, 4*len(dims))
	for i, d := range dims {
		binary.LittleEndian.PutUint32(dimsData[i*4:], uint32(int32(d)))
	}

	body := matElement(matUINT32, flags)
	body = append(body, matElement(matINT32, dimsData)...)
	body = append(body, matElement(matINT8, []byte(name))...)
	for _, p := range payload {
		body = append(body, p...)
	}
	return matElement(matMATRIX, body)
}

func matChar(s string) []byte {
	return matMatrix("", matClassChar, []int{1, len(s)}, matElement(matUTF8, []byte(s)))
}

func matDouble(v float64) []byte {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, math.Float64bits(v))
	return matMatrix("", matClassDouble, []int{1, 1}, matElement(matDOUBLE, data))
}

// matRow builds one trial row: a cell array whose fields are strings or
// numbers.
func matRow(fields ...interface{}) []byte {
	var cells []byte
	for _, f := range fields {
		switch v := f.(type) {
		case string:
			cells = append(cells, matChar(v)...)
		case float64:
			cells = append(cells, matDouble(v)...)
		case int:
			cells = append(cells, matDouble(float64(v))...)
		}
	}
	return matMatrix("", matClassCell, []int{1, len(fields)}, cells)
}

// writeNotesFile assembles a MAT-file holding the given rows under the notes
// variable name and writes it to a temporary file.
func writeNotesFile(t *testing.T, varName string, rows ...[]byte) string {
	t.Helper()

	var table []byte
	for _, row := range rows {
		table = append(table, row...)
	}

	raw := make([]byte, 128)
	copy(raw, "MATLAB 5.0 MAT-file, test fixture")
	raw[124], raw[125] = 0x00, 0x01
	raw[126], raw[127] = 'I', 'M'
	raw = append(raw, matMatrix(varName, matClassCell, []int{len(rows), 1}, table)...)

	path := filepath.Join(t.TempDir(), "notes.mat")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestParse(t *testing.T) {
	path := writeNotesFile(t, VariableName,
		matRow("header"),
		matRow(1, "apa", "x", "y", "14-Mar-2018 10:04:16", `C:\data\T01.wav`),
		matRow(2, "kala", "x", "y", "14-Mar-2018 10:05:02", "subdir/T02.wav"),
	)

	records, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse(%s) => %v, want <nil>", path, err)
	}

	want := []Record{
		{
			TrialNumber:   1,
			Prompt:        "apa",
			Timestamp:     time.Date(2018, time.March, 14, 10, 4, 16, 0, time.UTC),
			AudioFilename: "T01.wav",
		},
		{
			TrialNumber:   2,
			Prompt:        "kala",
			Timestamp:     time.Date(2018, time.March, 14, 10, 5, 2, 0, time.UTC),
			AudioFilename: "T02.wav",
		},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("Parse(_) mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SwappedTimestampAndFilename(t *testing.T) {
	path := writeNotesFile(t, VariableName,
		matRow(3, "tuli", "x", "y", `C:\data\T03.wav`, "14-Mar-2018 10:06:40"),
	)

	records, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse(%s) => %v, want <nil>", path, err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].AudioFilename != "T03.wav" {
		t.Fatalf("AudioFilename = %q, want %q", records[0].AudioFilename, "T03.wav")
	}
	want := time.Date(2018, time.March, 14, 10, 6, 40, 0, time.UTC)
	if !records[0].Timestamp.Equal(want) {
		t.Fatalf("Timestamp = %v, want %v", records[0].Timestamp, want)
	}
}

func TestParse_ShortRowsSkipped(t *testing.T) {
	path := writeNotesFile(t, VariableName,
		matRow("Participant:", "P07"),
		matRow(1, "apa", "x", "y", "14-Mar-2018 10:04:16", "T01.wav"),
	)

	records, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse(%s) => %v, want <nil>", path, err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
}

func TestParse_MalformedTimestamp(t *testing.T) {
	path := writeNotesFile(t, VariableName,
		matRow(1, "apa", "x", "y", "not a timestamp", "T01.wav"),
	)

	if _, err := Parse(path); !errors.Is(err, ErrMalformedTimestamp) {
		t.Fatalf("Parse(_) => %v, want %v", err, ErrMalformedTimestamp)
	}
}

func TestParse_MissingVariable(t *testing.T) {
	path := writeNotesFile(t, "somethingElse",
		matRow(1, "apa", "x", "y", "14-Mar-2018 10:04:16", "T01.wav"),
	)

	if _, err := Parse(path); !errors.Is(err, ErrNoNotes) {
		t.Fatalf("Parse(_) => %v, want %v", err, ErrNoNotes)
	}
}
