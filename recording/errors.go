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

import "errors"

// Common errors
var (
	// ErrAlreadyLoaded is returned when modality data would be overwritten
	// while still loaded. Volumes are expensive to decode; a caller that
	// wants to replace one must Release first.
	ErrAlreadyLoaded = errors.New("recording: modality data already loaded")

	// ErrDuplicateModality is returned when a modality name is already taken
	// on a recording.
	ErrDuplicateModality = errors.New("recording: duplicate modality name")

	// ErrIncompleteMetadata is returned when a session notes record lacks a
	// required field.
	ErrIncompleteMetadata = errors.New("recording: incomplete metadata")

	// ErrUnsupportedFileType is returned when a file extension is not
	// recognized at an ingestion boundary.
	ErrUnsupportedFileType = errors.New("recording: unsupported file type")
)
