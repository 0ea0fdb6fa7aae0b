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
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrTagNotFound is returned by DataSet accessors when the requested tag is
// not present in the DataSet.
var ErrTagNotFound = errors.New("dicom: tag not found")

// DataElementTag is a unique identifier for a Data Element composed of an ordered pair
// of numbers called the group number and the element number as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
//
// The least significant 16 bits is the element number. The most significant 16 bits is the group
// number.
type DataElementTag uint32

// NewTag returns the DataElementTag with the given group and element numbers.
func NewTag(group, element uint16) DataElementTag {
	return DataElementTag(uint32(group)<<16 | uint32(element))
}

// GroupNumber returns the group number component of the DataElementTag
func (t DataElementTag) GroupNumber() uint16 {
	return uint16(t >> 16)
}

// ElementNumber returns the element number component of the DataElementTag
func (t DataElementTag) ElementNumber() uint16 {
	return uint16(t & 0xFFFF)
}

// IsMetaElement is true if and only if the Data Element belongs to the file meta group
func (t DataElementTag) IsMetaElement() bool {
	return t.GroupNumber() == uint16(0x0002)
}

// IsPrivate is true if and only if the Data Element is a vendor-private element.
// Private elements have odd group numbers as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.8
func (t DataElementTag) IsPrivate() bool {
	return t.GroupNumber()%2 == 1
}

func (t DataElementTag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.GroupNumber(), t.ElementNumber())
}

// DataElement models a DICOM Data Element as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataElement struct {
	Tag DataElementTag

	// Value Representation
	VR *VR

	// ValueField represents the field within a Data Element that contains its value(s)
	// Can be any of the following types:
	// []string
	// []byte
	// []int16
	// []uint16
	// []int32
	// []uint32
	// []float32
	// []float64
	// *Sequence
	ValueField interface{}

	// ValueLength is equal to the length of the ValueField in bytes.
	// Can be equal to 0xFFFFFFFF to represent an undefined length:
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
	ValueLength uint32
}

// Sequence models a DICOM Sequence of Items, each item being a nested DataSet.
type Sequence struct {
	Items []*DataSet
}

func (seq *Sequence) append(item *DataSet) {
	seq.Items = append(seq.Items, item)
}

// DataSet models a DICOM Data Set as defined
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataSet struct {
	// Elements is a map of DataElement tags to *DataElement
	Elements map[DataElementTag]*DataElement
}

// SortedTags returns the tags of the DataSet in ascending order.
func (ds *DataSet) SortedTags() []DataElementTag {
	tags := make([]DataElementTag, 0, len(ds.Elements))
	for tag := range ds.Elements {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Element returns the DataElement stored under the given tag.
func (ds *DataSet) Element(tag DataElementTag) (*DataElement, error) {
	elem, ok := ds.Elements[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrTagNotFound, tag)
	}
	return elem, nil
}

// String returns the single string value of the element stored under tag. An
// error is returned when the tag is absent or its value multiplicity is not 1.
func (ds *DataSet) String(tag DataElementTag) (string, error) {
	strs, err := ds.Strings(tag)
	if err != nil {
		return "", err
	}
	if len(strs) != 1 {
		return "", fmt.Errorf("tag %v: expected 1 value, got %d", tag, len(strs))
	}
	return strs[0], nil
}

// Strings returns the string values of the element stored under tag.
func (ds *DataSet) Strings(tag DataElementTag) ([]string, error) {
	elem, err := ds.Element(tag)
	if err != nil {
		return nil, err
	}
	switch v := elem.ValueField.(type) {
	case []string:
		return v, nil
	case []byte:
		// Vendor-private string tags are frequently declared UN. Split on the
		// standard value delimiter and trim the trailing pad byte.
		s := strings.TrimRight(string(v), "\x00 ")
		return strings.Split(s, "\\"), nil
	default:
		return nil, fmt.Errorf("tag %v: cannot interpret %T as string", tag, elem.ValueField)
	}
}

// Int returns the single integer value of the element stored under tag.
func (ds *DataSet) Int(tag DataElementTag) (int, error) {
	ints, err := ds.Ints(tag)
	if err != nil {
		return 0, err
	}
	if len(ints) != 1 {
		return 0, fmt.Errorf("tag %v: expected 1 value, got %d", tag, len(ints))
	}
	return ints[0], nil
}

// Ints returns the integer values of the element stored under tag. String
// encoded numbers (VRs IS and DS) are converted.
func (ds *DataSet) Ints(tag DataElementTag) ([]int, error) {
	elem, err := ds.Element(tag)
	if err != nil {
		return nil, err
	}
	switch v := elem.ValueField.(type) {
	case []int16:
		return convertInts(v), nil
	case []uint16:
		return convertInts(v), nil
	case []int32:
		return convertInts(v), nil
	case []uint32:
		return convertInts(v), nil
	case []string:
		ints := make([]int, len(v))
		for i, s := range v {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("tag %v: parsing %q as integer: %v", tag, s, err)
			}
			ints[i] = n
		}
		return ints, nil
	default:
		return nil, fmt.Errorf("tag %v: cannot interpret %T as integer", tag, elem.ValueField)
	}
}

// Float returns the single floating point value of the element stored under tag.
func (ds *DataSet) Float(tag DataElementTag) (float64, error) {
	floats, err := ds.Floats(tag)
	if err != nil {
		return 0, err
	}
	if len(floats) != 1 {
		return 0, fmt.Errorf("tag %v: expected 1 value, got %d", tag, len(floats))
	}
	return floats[0], nil
}

// Floats returns the floating point values of the element stored under tag.
// Integer valued and string encoded (VR DS) elements are converted.
func (ds *DataSet) Floats(tag DataElementTag) ([]float64, error) {
	elem, err := ds.Element(tag)
	if err != nil {
		return nil, err
	}
	switch v := elem.ValueField.(type) {
	case []float64:
		return v, nil
	case []float32:
		floats := make([]float64, len(v))
		for i, f := range v {
			floats[i] = float64(f)
		}
		return floats, nil
	case []string:
		floats := make([]float64, len(v))
		for i, s := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("tag %v: parsing %q as float: %v", tag, s, err)
			}
			floats[i] = f
		}
		return floats, nil
	default:
		ints, err := ds.Ints(tag)
		if err != nil {
			return nil, fmt.Errorf("tag %v: cannot interpret %T as float", tag, elem.ValueField)
		}
		floats := make([]float64, len(ints))
		for i, n := range ints {
			floats[i] = float64(n)
		}
		return floats, nil
	}
}

// Bytes returns the raw byte value of the element stored under tag.
func (ds *DataSet) Bytes(tag DataElementTag) ([]byte, error) {
	elem, err := ds.Element(tag)
	if err != nil {
		return nil, err
	}
	b, ok := elem.ValueField.([]byte)
	if !ok {
		return nil, fmt.Errorf("tag %v: cannot interpret %T as bytes", tag, elem.ValueField)
	}
	return b, nil
}

// Sequence returns the sequence value of the element stored under tag.
func (ds *DataSet) Sequence(tag DataElementTag) (*Sequence, error) {
	elem, err := ds.Element(tag)
	if err != nil {
		return nil, err
	}
	seq, ok := elem.ValueField.(*Sequence)
	if !ok {
		return nil, fmt.Errorf("tag %v: cannot interpret %T as sequence", tag, elem.ValueField)
	}
	return seq, nil
}

func convertInts[T int16 | uint16 | int32 | uint32](v []T) []int {
	ints := make([]int, len(v))
	for i, x := range v {
		ints[i] = int(x)
	}
	return ints
}
