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

package dicom

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Transform describes a transformation applied to a DataElement
type Transform func(*DataElement) (*DataElement, error)

// ParseOption configures the behavior of the Parse function.
type ParseOption struct {
	transform Transform
}

// WithTransform returns a ParseOption that applies the given transformation to each DataElement in
// the DICOM file. For DataElements that contain a sequence, the transform is applied to nested
// DataElements first (i.e. transform is called on DataElements in post-order).
// If the transform returns an error, Parse will stop parsing and return an error.
// If a nil DataElement is returned from the transform, the DataElement will be excluded from the
// DataSet returned from Parse.
func WithTransform(t Transform) ParseOption {
	return ParseOption{t}
}

// DropGroupLengths will exclude all group length elements (gggg,0000) from the returned DataSet
var DropGroupLengths = WithTransform(func(element *DataElement) (*DataElement, error) {
	if element.Tag.ElementNumber() == 0 {
		return nil, nil
	}
	return element, nil
})

// Parse parses a DICOM file represented as an io.Reader, returning its DataSet with the file meta
// elements included. Nested sequences are fully decoded, and bulk data fields (OB, OW, UN, ...)
// are buffered into []byte.
func Parse(r io.Reader, opts ...ParseOption) (*DataSet, error) {
	dr := newDcmReader(r)
	if err := readDicomSignature(dr); err != nil {
		return nil, err
	}

	metaHeaderBytes, err := bufferMetaHeader(dr)
	if err != nil {
		return nil, fmt.Errorf("reading meta header: %v", err)
	}

	metaSet, err := parseDataSet(newDcmReader(bytes.NewReader(metaHeaderBytes)), defaultMetaData)
	if err != nil {
		return nil, fmt.Errorf("parsing meta header: %v", err)
	}

	syntax, err := findSyntax(metaSet)
	if err != nil {
		return nil, fmt.Errorf("finding transfer syntax: %v", err)
	}

	ds, err := parseDataSet(dr, dicomMetaData{syntax, defaultCharacterRepertoire})
	if err != nil {
		return nil, err
	}

	for tag, element := range metaSet.Elements {
		ds.Elements[tag] = element
	}

	for _, opt := range opts {
		if ds, err = applyTransform(ds, opt.transform); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// ParseFile parses the DICOM file at the given path.
func ParseFile(path string, opts ...ParseOption) (*DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Parse(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %v", path, err)
	}
	return ds, nil
}

func applyTransform(ds *DataSet, t Transform) (*DataSet, error) {
	out := &DataSet{Elements: map[DataElementTag]*DataElement{}}
	for _, tag := range ds.SortedTags() {
		element := ds.Elements[tag]

		if seq, ok := element.ValueField.(*Sequence); ok {
			for i, item := range seq.Items {
				transformed, err := applyTransform(item, t)
				if err != nil {
					return nil, err
				}
				seq.Items[i] = transformed
			}
		}

		element, err := t(element)
		if err != nil {
			return nil, err
		}
		if element != nil {
			out.Elements[element.Tag] = element
		}
	}
	return out, nil
}

func readDicomSignature(dr *dcmReader) error {
	if err := dr.Skip(128); err != nil {
		return fmt.Errorf("skipping preamble: %v", err)
	}

	magic, err := dr.String(4)
	if err != nil {
		return fmt.Errorf("reading DICOM signature: %v", err)
	}

	if magic != "DICM" {
		return fmt.Errorf("wrong DICOM signature: %v", magic)
	}

	return nil
}

// bufferMetaHeader reads the bytes of the file meta group. The group starts
// with the FileMetaInformationGroupLength element, which stores the byte
// length of the meta elements that follow it.
func bufferMetaHeader(dr *dcmReader) ([]byte, error) {
	firstElemBytes, err := dr.Bytes(4 /*tag*/ + 2 /*vr*/ + 2 /*len*/ + 4 /*UL=4bytes*/)
	if err != nil {
		return nil, fmt.Errorf("buffering bytes of FileMetaInformationGroupLength: %v", err)
	}
	firstElem, err := parseDataElement(newDcmReader(bytes.NewReader(firstElemBytes)), defaultMetaData)
	if err != nil {
		return nil, fmt.Errorf("parsing FileMetaInformationGroupLength element: %v", err)
	}
	if firstElem.Tag != FileMetaInformationGroupLengthTag {
		return nil, fmt.Errorf("expected FileMetaInformationGroupLength, got %v", firstElem.Tag)
	}

	metaGroupLength, ok := firstElem.ValueField.([]uint32)
	if !ok || len(metaGroupLength) != 1 {
		return nil, fmt.Errorf("wrong value for FileMetaInformationGroupLength: %v", firstElem.ValueField)
	}

	remainderBytes, err := dr.Bytes(int64(metaGroupLength[0]))
	if err != nil {
		return nil, fmt.Errorf("buffering the file meta elements: %v", err)
	}

	return append(firstElemBytes, remainderBytes...), nil
}

func findSyntax(metaSet *DataSet) (transferSyntax, error) {
	uid, err := metaSet.String(TransferSyntaxUIDTag)
	if err != nil {
		return transferSyntax{}, err
	}
	return lookupTransferSyntax(uid), nil
}
