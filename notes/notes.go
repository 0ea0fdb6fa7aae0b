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

// Package notes reads the per-session notes file exported next to the
// ultrasound recordings and reconciles it into per-trial metadata records.
//
// The notes are a MAT-file whose officialNotes variable is a cell array with
// one row per trial. A trial row packs at least six positional fields: trial
// number, prompt, two ignorable fields, and then the acquisition timestamp
// and the companion audio filename (in either order, because at least one
// export has been observed with the two fields swapped). Rows with fewer
// than six fields are headers or annotations and are skipped.
package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msaito8623/satkit/internal/matfile"
)

// VariableName is the name of the cell array holding the trial rows.
const VariableName = "officialNotes"

// timestampLayout matches the dd-mmm-yyyy HH:MM:SS timestamps the exporter
// writes.
const timestampLayout = "02-Jan-2006 15:04:05"

var (
	// ErrMalformedTimestamp is returned when neither candidate field of a
	// trial row parses as a timestamp.
	ErrMalformedTimestamp = errors.New("notes: malformed timestamp")

	// ErrNoNotes is returned when the notes variable is missing from the
	// file or is not a cell array.
	ErrNoNotes = errors.New("notes: officialNotes variable not found")
)

// Record is the reconciled metadata of one trial.
type Record struct {
	// TrialNumber is the number of the trial within the session.
	TrialNumber int

	// Prompt is the text displayed to the participant.
	Prompt string

	// Timestamp is the time the acquisition started.
	Timestamp time.Time

	// AudioFilename is the bare filename of the companion audio file, with
	// any foreign directory components stripped.
	AudioFilename string
}

// Parse reads the session notes file at path and returns one Record per
// trial row, in file order.
func Parse(path string) ([]Record, error) {
	f, err := matfile.Open(path)
	if err != nil {
		return nil, err
	}

	table, ok := f.Var(VariableName)
	if !ok || !table.IsCell() {
		return nil, fmt.Errorf("%w in %s", ErrNoNotes, path)
	}

	var records []Record
	for i, row := range table.Cells {
		if !row.IsCell() || len(row.Cells) < 6 {
			// header or annotation row
			continue
		}

		record, err := parseRow(row.Cells)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i, err)
		}
		records = append(records, record)
	}

	return records, nil
}

// parseRow decodes one trial row. Fields 5 and 6 hold the timestamp and the
// companion filename in either order: the timestamp interpretation of field 5
// is attempted first, and on mismatch the fields are treated as swapped.
func parseRow(fields []*matfile.Array) (Record, error) {
	record := Record{
		TrialNumber: fieldInt(fields[0]),
		Prompt:      fieldString(fields[1]),
	}

	first, second := fieldString(fields[4]), fieldString(fields[5])
	if ts, err := time.Parse(timestampLayout, first); err == nil {
		record.Timestamp = ts
		record.AudioFilename = baseName(second)
		return record, nil
	}
	ts, err := time.Parse(timestampLayout, second)
	if err != nil {
		return Record{}, fmt.Errorf("%w: neither %q nor %q", ErrMalformedTimestamp, first, second)
	}
	record.Timestamp = ts
	record.AudioFilename = baseName(first)
	return record, nil
}

func fieldString(a *matfile.Array) string {
	if a.IsChar() {
		return a.Chars
	}
	return ""
}

func fieldInt(a *matfile.Array) int {
	if a.IsNumeric() && len(a.Values) > 0 {
		return int(a.Values[0])
	}
	return 0
}

// baseName strips directory components from a filename recorded on a foreign
// OS, where either path separator convention may appear.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
