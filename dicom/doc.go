// Copyright 2018 Google LLC
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

// Package dicom reads and writes the DICOM file format as specified in
// [http://dicom.nema.org/medical/dicom/current/output/pdf/part05.pdf].
//
// Parse decodes a whole DICOM file into a DataSet, a map from DataElementTag
// to *DataElement. Nested sequences are decoded eagerly into *Sequence values
// so that callers can navigate vendor-private structures without managing
// iterator state. DataSet carries typed accessors (String, Int, Floats, Bytes,
// Sequence) that convert between the value multiplicities and string-encoded
// numbers DICOM allows for a tag.
//
// Construct performs the reverse transformation, serializing a DataSet to a
// DICOM file. It exists chiefly so that synthetic files with vendor-private
// tags can be produced for tests and simulations.
package dicom
