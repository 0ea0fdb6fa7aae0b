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

// Package matfile reads Level 5 MAT-files, the container format of the
// session notes exported alongside ultrasound recordings.
//
// Only the subset needed by the notes reader is implemented: top-level
// variables of cell, character, and numeric classes, including
// zlib-compressed elements. Structs, sparse arrays, and complex data are out
// of scope and rejected with ErrUnsupportedClass.
package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf16"
)

// Common errors
var (
	ErrNotMAT           = errors.New("matfile: not a Level 5 MAT-file")
	ErrUnsupportedClass = errors.New("matfile: unsupported array class")
	ErrCorrupt          = errors.New("matfile: corrupt element")
)

// MAT-file data types as specified in the MAT-File Format, Table 1-1.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
	miUTF8       = 16
	miUTF16      = 17
)

// MATLAB array classes as specified in the MAT-File Format, Table 1-3.
const (
	ClassCell    = 1
	ClassStruct  = 2
	ClassObject  = 3
	ClassChar    = 4
	ClassDouble  = 6
	ClassSingle  = 7
	ClassInt8    = 8
	ClassUInt8   = 9
	ClassInt16   = 10
	ClassUInt16  = 11
	ClassInt32   = 12
	ClassUInt32  = 13
	ClassInt64   = 14
	ClassUInt64  = 15
)

// Array is one MATLAB array: a cell array, a character array, or a numeric
// array. Exactly one of Cells, Chars, and Values is populated, according to
// Class.
type Array struct {
	Class int
	Dims  []int

	// Cells holds the elements of a cell array in column-major order.
	Cells []*Array

	// Chars holds the decoded text of a character array.
	Chars string

	// Values holds the elements of a numeric array in column-major order,
	// converted to float64.
	Values []float64
}

// IsCell reports whether the array is a cell array.
func (a *Array) IsCell() bool { return a.Class == ClassCell }

// IsChar reports whether the array is a character array.
func (a *Array) IsChar() bool { return a.Class == ClassChar }

// IsNumeric reports whether the array is a numeric array.
func (a *Array) IsNumeric() bool {
	return a.Class >= ClassDouble && a.Class <= ClassUInt64
}

// NumElements returns the total number of elements implied by Dims.
func (a *Array) NumElements() int {
	n := 1
	for _, d := range a.Dims {
		n *= d
	}
	return n
}

// File is a parsed MAT-file: a collection of named top-level arrays.
type File struct {
	vars map[string]*Array
}

// Var returns the top-level array stored under the given variable name.
func (f *File) Var(name string) (*Array, bool) {
	a, ok := f.vars[name]
	return a, ok
}

// Names returns the names of all top-level arrays.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.vars))
	for name := range f.vars {
		names = append(names, name)
	}
	return names
}

// Open reads and parses the MAT-file at the given path.
func Open(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses a MAT-file held in memory.
func Parse(raw []byte) (*File, error) {
	if len(raw) < 128 {
		return nil, ErrNotMAT
	}

	order, err := headerByteOrder(raw[124:128])
	if err != nil {
		return nil, err
	}

	f := &File{vars: map[string]*Array{}}
	r := &reader{raw: raw, pos: 128, order: order}

	for !r.exhausted() {
		dataType, data, err := r.element()
		if err != nil {
			return nil, err
		}

		if dataType == miCOMPRESSED {
			inflated, err := inflate(data)
			if err != nil {
				return nil, fmt.Errorf("%w: inflating compressed element: %v", ErrCorrupt, err)
			}
			sub := &reader{raw: inflated, pos: 0, order: order}
			if dataType, data, err = sub.element(); err != nil {
				return nil, err
			}
		}

		if dataType != miMATRIX {
			// Non-matrix top level elements carry no variables. Skip.
			continue
		}

		name, arr, err := parseMatrix(data, order)
		if err != nil {
			return nil, err
		}
		f.vars[name] = arr
	}

	return f, nil
}

// headerByteOrder decodes the version and endian indicator fields at the end
// of the 128 byte header.
func headerByteOrder(b []byte) (binary.ByteOrder, error) {
	switch {
	case b[2] == 'I' && b[3] == 'M':
		return binary.LittleEndian, nil
	case b[2] == 'M' && b[3] == 'I':
		return binary.BigEndian, nil
	default:
		return nil, ErrNotMAT
	}
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// reader walks the tagged data elements of a MAT-file in sequence.
type reader struct {
	raw   []byte
	pos   int
	order binary.ByteOrder
}

func (r *reader) exhausted() bool {
	return r.pos >= len(r.raw)
}

// element reads one tagged data element, handling both the regular and the
// small data element format, and advances past the trailing alignment
// padding.
func (r *reader) element() (dataType int, data []byte, err error) {
	if r.pos+8 > len(r.raw) {
		return 0, nil, fmt.Errorf("%w: truncated element tag", ErrCorrupt)
	}

	word := r.order.Uint32(r.raw[r.pos:])
	if word>>16 != 0 {
		// Small data element format: the length lives in the upper 16 bits
		// of the type word and the data in the second half of the tag.
		numBytes := int(word >> 16)
		if numBytes > 4 {
			return 0, nil, fmt.Errorf("%w: small element of %d bytes", ErrCorrupt, numBytes)
		}
		data = r.raw[r.pos+4 : r.pos+4+numBytes]
		r.pos += 8
		return int(word & 0xFFFF), data, nil
	}

	numBytes := int(r.order.Uint32(r.raw[r.pos+4:]))
	start := r.pos + 8
	if start+numBytes > len(r.raw) {
		return 0, nil, fmt.Errorf("%w: element data of %d bytes overruns the file", ErrCorrupt, numBytes)
	}
	data = r.raw[start : start+numBytes]

	// element data is aligned to 8 byte boundaries
	r.pos = start + numBytes
	if pad := r.pos % 8; pad != 0 {
		r.pos += 8 - pad
	}

	return int(word), data, nil
}

// parseMatrix decodes a miMATRIX element into a named Array.
func parseMatrix(data []byte, order binary.ByteOrder) (string, *Array, error) {
	r := &reader{raw: data, pos: 0, order: order}

	flagsType, flags, err := r.element()
	if err != nil {
		return "", nil, err
	}
	if flagsType != miUINT32 || len(flags) < 8 {
		return "", nil, fmt.Errorf("%w: bad array flags element", ErrCorrupt)
	}
	class := int(flags[flagsIndex(order)])

	dimsType, dimsData, err := r.element()
	if err != nil {
		return "", nil, err
	}
	if dimsType != miINT32 {
		return "", nil, fmt.Errorf("%w: bad dimensions element", ErrCorrupt)
	}
	dims := make([]int, len(dimsData)/4)
	for i := range dims {
		dims[i] = int(int32(order.Uint32(dimsData[i*4:])))
	}

	_, nameData, err := r.element()
	if err != nil {
		return "", nil, err
	}
	name := string(nameData)

	arr := &Array{Class: class, Dims: dims}
	switch {
	case class == ClassCell:
		if err := parseCells(r, arr, order); err != nil {
			return "", nil, err
		}
	case class == ClassChar:
		if err := parseChars(r, arr, order); err != nil {
			return "", nil, err
		}
	case arr.IsNumeric():
		if err := parseNumeric(r, arr, order); err != nil {
			return "", nil, err
		}
	default:
		return "", nil, fmt.Errorf("%w: class %d", ErrUnsupportedClass, class)
	}

	return name, arr, nil
}

// flagsIndex returns the byte offset of the class field inside the first
// array flags word for the given byte order.
func flagsIndex(order binary.ByteOrder) int {
	if order == binary.ByteOrder(binary.BigEndian) {
		return 3
	}
	return 0
}

func parseCells(r *reader, arr *Array, order binary.ByteOrder) error {
	n := arr.NumElements()
	arr.Cells = make([]*Array, 0, n)
	for i := 0; i < n; i++ {
		dataType, data, err := r.element()
		if err != nil {
			return err
		}
		if dataType != miMATRIX {
			return fmt.Errorf("%w: cell %d is not a matrix", ErrCorrupt, i)
		}
		_, cell, err := parseMatrix(data, order)
		if err != nil {
			return err
		}
		arr.Cells = append(arr.Cells, cell)
	}
	return nil
}

func parseChars(r *reader, arr *Array, order binary.ByteOrder) error {
	dataType, data, err := r.element()
	if err != nil {
		return err
	}

	switch dataType {
	case miUTF8, miINT8, miUINT8:
		arr.Chars = string(data)
	case miUINT16, miUTF16:
		units := make([]uint16, len(data)/2)
		for i := range units {
			units[i] = order.Uint16(data[i*2:])
		}
		arr.Chars = string(utf16.Decode(units))
	default:
		return fmt.Errorf("%w: char data of type %d", ErrUnsupportedClass, dataType)
	}
	return nil
}

func parseNumeric(r *reader, arr *Array, order binary.ByteOrder) error {
	dataType, data, err := r.element()
	if err != nil {
		return err
	}

	values, err := decodeNumbers(dataType, data, order)
	if err != nil {
		return err
	}
	arr.Values = values
	return nil
}

// decodeNumbers converts the raw bytes of a numeric data element to float64.
// MAT-files store numeric arrays in the smallest type that holds the values,
// independent of the declared array class.
func decodeNumbers(dataType int, data []byte, order binary.ByteOrder) ([]float64, error) {
	switch dataType {
	case miINT8:
		return convertNumbers(data, 1, func(b []byte) float64 { return float64(int8(b[0])) }), nil
	case miUINT8:
		return convertNumbers(data, 1, func(b []byte) float64 { return float64(b[0]) }), nil
	case miINT16:
		return convertNumbers(data, 2, func(b []byte) float64 { return float64(int16(order.Uint16(b))) }), nil
	case miUINT16:
		return convertNumbers(data, 2, func(b []byte) float64 { return float64(order.Uint16(b)) }), nil
	case miINT32:
		return convertNumbers(data, 4, func(b []byte) float64 { return float64(int32(order.Uint32(b))) }), nil
	case miUINT32:
		return convertNumbers(data, 4, func(b []byte) float64 { return float64(order.Uint32(b)) }), nil
	case miINT64:
		return convertNumbers(data, 8, func(b []byte) float64 { return float64(int64(order.Uint64(b))) }), nil
	case miUINT64:
		return convertNumbers(data, 8, func(b []byte) float64 { return float64(order.Uint64(b)) }), nil
	case miSINGLE:
		return convertNumbers(data, 4, func(b []byte) float64 {
			return float64(math.Float32frombits(order.Uint32(b)))
		}), nil
	case miDOUBLE:
		return convertNumbers(data, 8, func(b []byte) float64 {
			return math.Float64frombits(order.Uint64(b))
		}), nil
	default:
		return nil, fmt.Errorf("%w: numeric data of type %d", ErrUnsupportedClass, dataType)
	}
}

func convertNumbers(data []byte, size int, conv func([]byte) float64) []float64 {
	values := make([]float64, len(data)/size)
	for i := range values {
		values[i] = conv(data[i*size : (i+1)*size])
	}
	return values
}
