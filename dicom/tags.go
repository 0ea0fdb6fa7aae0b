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

// Tags of the data elements this library needs to recognize by name. The
// standard attributes are defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html
const (
	// FileMetaInformationGroupLengthTag is the tag of the element storing the byte length of
	// the file meta group that follows it
	FileMetaInformationGroupLengthTag DataElementTag = 0x00020000
	// MediaStorageSOPClassUIDTag is the tag of the Media Storage SOP Class UID element
	MediaStorageSOPClassUIDTag DataElementTag = 0x00020002
	// MediaStorageSOPInstanceUIDTag is the tag of the Media Storage SOP Instance UID element
	MediaStorageSOPInstanceUIDTag DataElementTag = 0x00020003
	// TransferSyntaxUIDTag is the tag of the element declaring the transfer syntax of the
	// data set that follows the file meta group
	TransferSyntaxUIDTag DataElementTag = 0x00020010

	// SpecificCharacterSetTag is the tag of the element declaring the character repertoire
	// used by text value fields
	SpecificCharacterSetTag DataElementTag = 0x00080005
	// SOPInstanceUIDTag is the tag of the SOP Instance UID element
	SOPInstanceUIDTag DataElementTag = 0x00080018

	// SequenceOfUltrasoundRegionsTag is the tag of the sequence describing the regions of an
	// ultrasound image as specified in
	// http://dicom.nema.org/medical/dicom/current/output/html/part03.html#sect_C.8.5.5
	SequenceOfUltrasoundRegionsTag DataElementTag = 0x00186011

	// PixelDataTag is the tag of the standard pixel data element
	PixelDataTag DataElementTag = 0x7FE00010

	// ItemTag delimits the start of an item inside a sequence
	ItemTag DataElementTag = 0xFFFEE000
	// ItemDelimitationItemTag delimits the end of an item of undefined length
	ItemDelimitationItemTag DataElementTag = 0xFFFEE00D
	// SequenceDelimitationItemTag delimits the end of a sequence of undefined length
	SequenceDelimitationItemTag DataElementTag = 0xFFFEE0DD
)

// dictionary maps the tags above to the VR declared for them in the DICOM data
// dictionary. It is consulted when parsing the implicit VR syntax and when
// constructing elements without an explicit VR. This is deliberately not a full
// copy of the data dictionary: tags outside the ingestion path fall back to UN.
var dictionary = map[DataElementTag]*VR{
	FileMetaInformationGroupLengthTag: ULVR,
	MediaStorageSOPClassUIDTag:        UIVR,
	MediaStorageSOPInstanceUIDTag:     UIVR,
	TransferSyntaxUIDTag:              UIVR,
	SpecificCharacterSetTag:           CSVR,
	SOPInstanceUIDTag:                 UIVR,
	SequenceOfUltrasoundRegionsTag:    SQVR,
	PixelDataTag:                      OWVR,
}

// DictionaryVR returns the VR registered for the tag in the DICOM data
// dictionary, or UN when the tag is not registered.
func (t DataElementTag) DictionaryVR() *VR {
	if vr, ok := dictionary[t]; ok {
		return vr
	}
	return UNVR
}
