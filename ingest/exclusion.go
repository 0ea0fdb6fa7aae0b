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

package ingest

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/msaito8623/satkit/internal/log"
	"github.com/msaito8623/satkit/recording"
)

// ReadExclusionList reads a tab-delimited exclusion file. The first column
// is the recording basename, the second an optional reason kept for the
// logs. An absent file is a valid no-exclusions state, not an error.
func ReadExclusionList(path string) (map[string]string, error) {
	excluded := make(map[string]string)
	if path == "" {
		return excluded, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return excluded, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading exclusion list %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing exclusion list %s: %w", path, err)
	}

	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		reason := ""
		if len(row) > 1 {
			reason = row[1]
		}
		excluded[row[0]] = reason
	}
	return excluded, nil
}

// ApplyExclusionList marks every recording named in the exclusion file as
// excluded, logging the listed reason.
func ApplyExclusionList(recordings []*recording.Recording, path string) error {
	excluded, err := ReadExclusionList(path)
	if err != nil {
		return err
	}
	if len(excluded) == 0 {
		return nil
	}

	logger := log.WithComponent("ingest")
	for _, r := range recordings {
		reason, ok := excluded[r.Basename]
		if !ok {
			continue
		}
		logger.Info().
			Str("basename", r.Basename).
			Str("reason", reason).
			Msg("excluding recording: listed in exclusion file")
		r.Exclude()
	}
	return nil
}
