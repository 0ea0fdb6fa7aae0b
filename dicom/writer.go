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
	"encoding/binary"
	"fmt"
	"io"
)

// Construct writes the given *DataSet as a DICOM file to the given io.Writer. The desired output
// transfer syntax is specified as a required TransferSyntax DataElement (0002,0010). By default,
// there is no validation against the DICOM standard of any form.
//
// If a *DataElement in the *DataSet is missing its VR it will be filled in from the
// DICOM Data Dictionary. The ValueLength of DataElements are ignored and re-calculated.
func Construct(w io.Writer, dataSet *DataSet) error {
	dw := &dcmWriter{w}

	if err := writeDicomSignature(dw); err != nil {
		return err
	}

	dataSetSyntax, err := findSyntax(dataSet)
	if err != nil {
		return fmt.Errorf("getting transfer syntax from data set: %v", err)
	}

	// The FileMetaInformationGroupLength element is a critical component of the Meta Header. It
	// stores how long the meta header is. Thus, we need to re-calculate it properly.
	metaGroupLengthElement, err := createMetaGroupLengthElement(dataSet)
	if err != nil {
		return fmt.Errorf("creating meta group length element: %v", err)
	}
	dataSet.Elements[FileMetaInformationGroupLengthTag] = metaGroupLengthElement

	for _, tag := range dataSet.SortedTags() {
		syntax := dataSetSyntax
		if tag.IsMetaElement() {
			// File meta elements are always in explicit VR little endian as specified in the standard
			// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
			syntax = explicitVRLittleEndian
		}
		if err := writeDataElement(dw, syntax, dataSet.Elements[tag]); err != nil {
			return fmt.Errorf("writing data element %v: %v", tag, err)
		}
	}

	return nil
}

// NewDataSet builds a DataSet from a map of tags to values, filling in VRs
// from the data dictionary. The value types accepted are those of
// DataElement.ValueField; in addition, scalar string values are promoted to
// []string.
func NewDataSet(elements map[DataElementTag]interface{}) *DataSet {
	ds := &DataSet{Elements: map[DataElementTag]*DataElement{}}
	for tag, value := range elements {
		ds.Elements[tag] = NewElement(tag, nil, value)
	}
	return ds
}

// NewElement returns a DataElement with the given tag and value. When vr is
// nil, the VR is taken from the data dictionary. The ValueLength is left to be
// calculated when the element is written.
func NewElement(tag DataElementTag, vr *VR, value interface{}) *DataElement {
	if vr == nil {
		vr = tag.DictionaryVR()
	}
	if s, ok := value.(string); ok {
		value = []string{s}
	}
	return &DataElement{Tag: tag, VR: vr, ValueField: value}
}

func writeDicomSignature(dw *dcmWriter) error {
	if err := dw.Bytes(make([]byte, 128)); err != nil {
		return fmt.Errorf("writing DICOM preamble: %v", err)
	}

	if err := dw.String("DICM"); err != nil {
		return fmt.Errorf("writing DICOM signature: %v", err)
	}

	return nil
}

func createMetaGroupLengthElement(dataSet *DataSet) (*DataElement, error) {
	// Please refer to the DICOM Standard Part 10 for information on the File Meta Information Group
	// Length. http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1

	size := uint32(0)
	for _, tag := range dataSet.SortedTags() {
		if tag == FileMetaInformationGroupLengthTag {
			// The group length stores the size of the meta elements following this tag.
			continue
		}
		if !tag.IsMetaElement() {
			break
		}
		element, err := processedElement(dataSet.Elements[tag])
		if err != nil {
			return nil, fmt.Errorf("processing element: %v", err)
		}
		size += explicitVRLittleEndian.elementSize(element.VR, element.ValueLength)
	}

	return &DataElement{
		Tag:         FileMetaInformationGroupLengthTag,
		VR:          FileMetaInformationGroupLengthTag.DictionaryVR(),
		ValueField:  []uint32{size},
		ValueLength: 4, // 4 bytes = sizeof uint32
	}, nil
}

type dcmWriter struct {
	io.Writer
}

func (dw *dcmWriter) Tag(order binary.ByteOrder, tag DataElementTag) error {
	if err := dw.UInt16(order, tag.GroupNumber()); err != nil {
		return err
	}
	return dw.UInt16(order, tag.ElementNumber())
}

func (dw *dcmWriter) Delimiter(order binary.ByteOrder, tag DataElementTag) error {
	if err := dw.Tag(order, tag); err != nil {
		return fmt.Errorf("writing delimiter tag: %v", err)
	}
	if err := dw.UInt32(order, 0); err != nil {
		return fmt.Errorf("writing item length of delimiter: %v", err)
	}
	return nil
}

func (dw *dcmWriter) UInt16(order binary.ByteOrder, v uint16) error {
	buf := make([]byte, 2)
	order.PutUint16(buf, v)
	return dw.Bytes(buf)
}

func (dw *dcmWriter) UInt32(order binary.ByteOrder, v uint32) error {
	buf := make([]byte, 4)
	order.PutUint32(buf, v)
	return dw.Bytes(buf)
}

func (dw *dcmWriter) String(s string) error {
	_, err := dw.Write([]byte(s))
	return err
}

func (dw *dcmWriter) Bytes(b []byte) error {
	_, err := dw.Write(b)
	return err
}
