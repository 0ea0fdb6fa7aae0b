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
)

// list of transfer syntaxes obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_A
const (
	// ImplicitVRLittleEndianUID is the Implicit VR Little Endian UID
	ImplicitVRLittleEndianUID = "1.2.840.10008.1.2"
	// ExplicitVRLittleEndianUID is the Explicit VR Little Endian UID
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	// ExplicitVRBigEndianUID is the Explicit VR Big Endian UID
	ExplicitVRBigEndianUID = "1.2.840.10008.1.2.2"
)

const (
	vrSize  = 2
	tagSize = 4
)

// transferSyntax describes how data elements are encoded in the byte stream:
// whether VRs are written out and in which byte order values are stored.
type transferSyntax struct {
	Implicit  bool
	ByteOrder binary.ByteOrder
}

var (
	implicitVRLittleEndian = transferSyntax{true, binary.LittleEndian}
	explicitVRLittleEndian = transferSyntax{false, binary.LittleEndian}
	explicitVRBigEndian    = transferSyntax{false, binary.BigEndian}
)

func lookupTransferSyntax(uid string) transferSyntax {
	switch uid {
	case ImplicitVRLittleEndianUID:
		return implicitVRLittleEndian
	case ExplicitVRBigEndianUID:
		return explicitVRBigEndian
	}
	// any other syntax should be treated as explicit VR little endian according to PS3.5 A.4
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
	return explicitVRLittleEndian
}

func (s transferSyntax) readVR(dr *dcmReader, tag DataElementTag) (*VR, error) {
	if s.Implicit {
		return tag.DictionaryVR(), nil
	}

	vrString, err := dr.String(vrSize)
	if err != nil {
		return nil, fmt.Errorf("reading vr: %v", err)
	}
	return lookupVRByName(vrString)
}

func (s transferSyntax) readValueLength(dr *dcmReader, vr *VR) (uint32, error) {
	if s.Implicit {
		return dr.UInt32(s.ByteOrder)
	}

	if vr.has32BitLength() {
		if _, err := dr.UInt16(s.ByteOrder); err != nil {
			return 0, fmt.Errorf("reading reserved field: %v", err)
		}
		length, err := dr.UInt32(s.ByteOrder)
		if err != nil {
			return 0, fmt.Errorf("reading 32 bit length: %v", err)
		}
		return length, nil
	}

	length, err := dr.UInt16(s.ByteOrder)
	if err != nil {
		return 0, fmt.Errorf("reading 16 bit length: %v", err)
	}
	return uint32(length), nil
}

func (s transferSyntax) writeVR(dw *dcmWriter, vr *VR) error {
	if s.Implicit {
		// the implicit syntax does not write VRs into the file
		return nil
	}
	return dw.String(vr.Name)
}

func (s transferSyntax) writeValueLength(dw *dcmWriter, vr *VR, length uint32) error {
	if s.Implicit {
		return dw.UInt32(s.ByteOrder, length)
	}

	if vr.has32BitLength() {
		if err := dw.UInt16(s.ByteOrder, 0); err != nil {
			return fmt.Errorf("writing reserved field: %v", err)
		}
		if err := dw.UInt32(s.ByteOrder, length); err != nil {
			return fmt.Errorf("writing 32 bit length: %v", err)
		}
		return nil
	}

	if length > math.MaxUint16 {
		return fmt.Errorf("data element value length exceeds unsigned 16-bit length")
	}
	return dw.UInt16(s.ByteOrder, uint16(length))
}

// elementSize returns the total encoded size of an element with the given VR
// and value field length, including tag, VR, and length fields.
func (s transferSyntax) elementSize(vr *VR, valueFieldLength uint32) uint32 {
	if valueFieldLength == UndefinedLength {
		return UndefinedLength
	}
	if s.Implicit {
		return tagSize + 4 /*length*/ + valueFieldLength
	}
	if vr.has32BitLength() {
		return tagSize + vrSize + 2 /*reserved*/ + 4 /*32-bit length*/ + valueFieldLength
	}
	return tagSize + vrSize + 2 /*16-bit length*/ + valueFieldLength
}
