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
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// parseDataElement reads one data element from the input stream. It returns
// io.EOF when the stream ends cleanly before a tag, and when an item
// delimitation item is encountered (the end of a nested data set of undefined
// length inside a sequence).
func parseDataElement(dr *dcmReader, metaData dicomMetaData) (*DataElement, error) {
	tag, err := dr.Tag(metaData.syntax.ByteOrder)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading tag: %v", err)
	}

	if tag == ItemDelimitationItemTag {
		length, err := dr.UInt32(metaData.syntax.ByteOrder)
		if err != nil {
			return nil, fmt.Errorf("reading 32 bit length of item delimitation: %v", err)
		}
		if length != 0 {
			return nil, fmt.Errorf("wrong length for item delimiter. got %v, want %v", length, 0)
		}
		return nil, io.EOF
	}

	vr, err := metaData.syntax.readVR(dr, tag)
	if err != nil {
		return nil, fmt.Errorf("reading vr of %v: %v", tag, err)
	}

	length, err := metaData.syntax.readValueLength(dr, vr)
	if err != nil {
		return nil, fmt.Errorf("reading length of %v: %v", tag, err)
	}

	value, err := readValue(dr, tag, vr, length, metaData)
	if err != nil {
		return nil, fmt.Errorf("reading value of %v: %v", tag, err)
	}

	return &DataElement{tag, vr, value, length}, nil
}

// parseDataSet reads data elements until the stream is exhausted. When a
// Specific Character Set element is encountered, the character repertoire used
// to decode subsequent text value fields is switched accordingly.
func parseDataSet(dr *dcmReader, metaData dicomMetaData) (*DataSet, error) {
	ds := &DataSet{Elements: map[DataElementTag]*DataElement{}}

	for {
		element, err := parseDataElement(dr, metaData)
		if err == io.EOF {
			return ds, nil
		}
		if err != nil {
			return nil, err
		}

		if element.Tag == SpecificCharacterSetTag {
			if metaData.encoding, err = elementEncoding(element); err != nil {
				return nil, err
			}
		}
		ds.Elements[element.Tag] = element
	}
}

func readValue(dr *dcmReader, tag DataElementTag, vr *VR, length uint32, metaData dicomMetaData) (interface{}, error) {
	switch vr.kind {
	case textVR:
		return readText(dr, length, vr, metaData, unicode.IsSpace)
	case numberBinaryVR:
		return readNumberBinary(dr, length, vr, metaData.syntax.ByteOrder)
	case bulkDataVR:
		return readBulkData(dr, tag, length)
	case uniqueIdentifierVR:
		return readText(dr, length, vr, metaData, func(r rune) bool {
			return r == 0x00 || r == ' '
		})
	case sequenceVR:
		return readSequence(dr, length, metaData)
	case tagVR:
		return readTagValue(dr, metaData.syntax.ByteOrder, length)
	default:
		return nil, fmt.Errorf("unknown vr kind found: %v", vr.kind)
	}
}

func readTagValue(dr *dcmReader, order binary.ByteOrder, length uint32) ([]uint32, error) {
	ret := make([]uint32, length/4) // 4 bytes per tag

	for i := range ret {
		t, err := dr.Tag(order)
		if err != nil {
			return nil, err
		}
		ret[i] = uint32(t)
	}
	return ret, nil
}

func readText(dr *dcmReader, length uint32, vr *VR, metaData dicomMetaData, isPadding func(rune) bool) ([]string, error) {
	if length <= 0 {
		return []string{}, nil
	}

	raw, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading text field value: %v", err)
	}

	valueField := string(raw)
	if vr.kind == textVR && metaData.encoding != nil {
		decoded, err := metaData.encoding.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding text field value: %v", err)
		}
		valueField = string(decoded)
	}

	// deal with value multiplicity
	strs := strings.Split(valueField, "\\")
	for i, s := range strs {
		if vr == UTVR || vr == STVR || vr == LTVR {
			strs[i] = strings.TrimRightFunc(s, isPadding)
		} else {
			strs[i] = strings.TrimFunc(s, isPadding)
		}
	}
	return strs, nil
}

func readNumberBinary(dr *dcmReader, length uint32, vr *VR, order binary.ByteOrder) (interface{}, error) {
	var data interface{}

	switch vr {
	case SSVR:
		data = make([]int16, length/2)
	case USVR:
		data = make([]uint16, length/2)
	case SLVR:
		data = make([]int32, length/4)
	case ULVR:
		data = make([]uint32, length/4)
	case FLVR:
		data = make([]float32, length/4)
	case FDVR:
		data = make([]float64, length/8)
	default:
		return nil, fmt.Errorf("unknown vr: %v", vr)
	}

	if err := binary.Read(dr.r, order, data); err != nil {
		return nil, fmt.Errorf("binary.Read(_, _, _) => %v", err)
	}

	return data, nil
}

func readBulkData(dr *dcmReader, tag DataElementTag, length uint32) ([]byte, error) {
	if length == UndefinedLength {
		// Undefined length bulk data is the encapsulated (compressed) pixel
		// data format, which never occurs in the native-format ultrasound
		// exports this library ingests.
		return nil, errors.New("bulk data of undefined length not supported")
	}

	data, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading bulk data of %v: %v", tag, err)
	}
	return data, nil
}

func readSequence(dr *dcmReader, length uint32, metaData dicomMetaData) (*Sequence, error) {
	seq := &Sequence{}

	if length != UndefinedLength {
		dr = dr.Limit(int64(length))
	}

	for {
		tag, err := dr.Tag(metaData.syntax.ByteOrder)
		if err == io.EOF {
			if length != UndefinedLength {
				return seq, nil
			}
			return nil, fmt.Errorf("unexpected EOF in sequence of undefined length")
		}
		if err != nil {
			return nil, fmt.Errorf("reading item tag: %v", err)
		}

		if tag == SequenceDelimitationItemTag {
			itemLength, err := dr.UInt32(metaData.syntax.ByteOrder)
			if err != nil {
				return nil, fmt.Errorf("reading 32 bit length of sequence delimitation item: %v", err)
			}
			if itemLength != 0 {
				return nil, fmt.Errorf("expected 0 length on sequence delimiter")
			}
			return seq, nil
		}
		if tag != ItemTag {
			return nil, fmt.Errorf("invalid item tag in sequence, got %v want %v", tag, ItemTag)
		}

		item, err := readSequenceItem(dr, metaData)
		if err != nil {
			return nil, err
		}
		seq.append(item)
	}
}

func readSequenceItem(dr *dcmReader, metaData dicomMetaData) (*DataSet, error) {
	itemLength, err := dr.UInt32(metaData.syntax.ByteOrder)
	if err != nil {
		return nil, fmt.Errorf("reading sequence item length: %v", err)
	}

	if itemLength != UndefinedLength {
		dr = dr.Limit(int64(itemLength))
	}

	// For an undefined length item, parseDataSet stops at the item
	// delimitation item. For an explicit length item, the limited reader
	// stops it at the item boundary.
	item, err := parseDataSet(dr, metaData)
	if err != nil {
		return nil, fmt.Errorf("reading sequence item: %v", err)
	}
	return item, nil
}
