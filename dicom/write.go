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
	"math"
	"strings"
)

func writeDataElement(dw *dcmWriter, syntax transferSyntax, element *DataElement) error {
	element, err := processedElement(element)
	if err != nil {
		return fmt.Errorf("processing element: %v", err)
	}

	if err := dw.Tag(syntax.ByteOrder, element.Tag); err != nil {
		return fmt.Errorf("writing tag: %v", err)
	}
	if err := syntax.writeVR(dw, element.VR); err != nil {
		return fmt.Errorf("writing VR: %v", err)
	}
	if err := syntax.writeValueLength(dw, element.VR, element.ValueLength); err != nil {
		return fmt.Errorf("writing length: %v", err)
	}
	if err := writeValue(dw, syntax, element.VR, element.ValueField); err != nil {
		return fmt.Errorf("writing value: %v", err)
	}

	return nil
}

// processedElement fills in a missing VR from the data dictionary and
// re-calculates the ValueLength from the value field.
func processedElement(element *DataElement) (*DataElement, error) {
	vr := element.VR
	if vr == nil {
		vr = element.Tag.DictionaryVR()
	}

	length, err := calculateValueLength(element)
	if err != nil {
		return nil, fmt.Errorf("calculating value length: %v", err)
	}

	return &DataElement{element.Tag, vr, element.ValueField, length}, nil
}

func calculateValueLength(element *DataElement) (uint32, error) {
	numBytes := int64(0)

	switch v := element.ValueField.(type) {
	case []string:
		for _, s := range v {
			numBytes += int64(len(s))
		}
		if len(v) > 0 { // requires "\" delimiter
			numBytes += int64(len(v)) - 1
		}
	case []byte:
		numBytes = int64(len(v))
	case []int16:
		numBytes = int64(len(v)) * 2
	case []uint16:
		numBytes = int64(len(v)) * 2
	case []int32:
		numBytes = int64(len(v)) * 4
	case []uint32:
		numBytes = int64(len(v)) * 4
	case []float32:
		numBytes = int64(len(v)) * 4
	case []float64:
		numBytes = int64(len(v)) * 8
	case *Sequence:
		// sequences are written with undefined length and explicit delimiters
		return UndefinedLength, nil
	default:
		return 0, fmt.Errorf("unexpected ValueField type %T", element.ValueField)
	}

	if numBytes >= math.MaxUint32 {
		return 0, fmt.Errorf("value field of %d bytes exceeds the DICOM length field", numBytes)
	}

	if numBytes%2 != 0 {
		numBytes++
	}

	return uint32(numBytes), nil
}

func writeValue(dw *dcmWriter, syntax transferSyntax, vr *VR, valueField interface{}) error {
	spacePadding := byte(0x20)
	nullPadding := byte(0x00)

	switch vr.kind {
	case textVR:
		return writeText(dw, spacePadding, valueField)
	case numberBinaryVR:
		return writeNumberBinary(dw, syntax, valueField)
	case bulkDataVR:
		return writeBulkData(dw, syntax, valueField)
	case uniqueIdentifierVR:
		return writeText(dw, nullPadding, valueField)
	case sequenceVR:
		return writeSequence(dw, syntax, valueField)
	case tagVR:
		return writeTagValue(dw, syntax.ByteOrder, valueField)
	default:
		return fmt.Errorf("unknown vr kind found: %v", vr.kind)
	}
}

func writeText(dw *dcmWriter, paddingByte byte, v interface{}) error {
	strs, ok := v.([]string)
	if !ok {
		return fmt.Errorf("expected type []string got %T", v)
	}

	b := strings.Join(strs, "\\")
	if len(b)%2 != 0 {
		b += string(paddingByte)
	}

	return dw.String(b)
}

func writeNumberBinary(dw *dcmWriter, syntax transferSyntax, v interface{}) error {
	switch field := v.(type) {
	case []int16, []uint16, []int32, []uint32, []float32, []float64:
		return binary.Write(dw, syntax.ByteOrder, v)
	default:
		return fmt.Errorf("unsupported binary number type: %T", field)
	}
}

func writeBulkData(dw *dcmWriter, syntax transferSyntax, v interface{}) error {
	switch field := v.(type) {
	case []byte:
		if err := dw.Bytes(field); err != nil {
			return err
		}
		if len(field)%2 != 0 {
			return dw.Bytes([]byte{0x00})
		}
		return nil
	case []int16, []uint16, []int32, []uint32, []float32, []float64:
		return binary.Write(dw, syntax.ByteOrder, field)
	case []string:
		return writeText(dw, ' ', v)
	default:
		return fmt.Errorf("unknown bulk data type: %T", v)
	}
}

func writeSequence(dw *dcmWriter, syntax transferSyntax, v interface{}) error {
	seq, ok := v.(*Sequence)
	if !ok {
		return fmt.Errorf("unknown sequence type found: %T (expected *Sequence)", v)
	}

	for _, item := range seq.Items {
		if err := dw.Tag(syntax.ByteOrder, ItemTag); err != nil {
			return fmt.Errorf("writing item tag: %v", err)
		}
		if err := dw.UInt32(syntax.ByteOrder, UndefinedLength); err != nil {
			return fmt.Errorf("writing item length: %v", err)
		}

		if err := writeDataSet(dw, syntax, item); err != nil {
			return fmt.Errorf("writing sequence item: %v", err)
		}

		if err := dw.Delimiter(syntax.ByteOrder, ItemDelimitationItemTag); err != nil {
			return fmt.Errorf("writing item delimitation item: %v", err)
		}
	}

	if err := dw.Delimiter(syntax.ByteOrder, SequenceDelimitationItemTag); err != nil {
		return fmt.Errorf("writing sequence delimitation item: %v", err)
	}
	return nil
}

func writeTagValue(dw *dcmWriter, order binary.ByteOrder, valueField interface{}) error {
	tags, ok := valueField.([]uint32)
	if !ok {
		return fmt.Errorf("unexpected type for tag VR: %T (expected []uint32)", valueField)
	}
	for _, tag := range tags {
		if err := dw.Tag(order, DataElementTag(tag)); err != nil {
			return err
		}
	}
	return nil
}

func writeDataSet(dw *dcmWriter, syntax transferSyntax, ds *DataSet) error {
	for _, tag := range ds.SortedTags() {
		if err := writeDataElement(dw, syntax, ds.Elements[tag]); err != nil {
			return fmt.Errorf("writing data element %v: %v", tag, err)
		}
	}
	return nil
}
