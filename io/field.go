package io

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/DataDog/zstd"

	"github.com/phil-mansfield/picdiag/field"
	"github.com/phil-mansfield/picdiag/geom"
)

/*
The binary format used for field files is as follows:
    |-- 1 --||-- 2 --||-- ... 3 ... --||-- ... 4 ... --|

    1 - (int32) Flag indicating the endianness of the file. 0 indicates a big
        endian byte ordering and -1 indicates a little endian byte order.
    2 - (int32) Size of a FieldHeader struct. Should be checked for
        consistency.
    3 - (FieldHeader) Header containing the bounds, staggering and component
        count of the array.
    4 - zstd block holding the array data, ghost cells included, as float64
        values in the same byte order as the header.
*/
type FieldHeader struct {
	Magic, Version int64

	Origin, Width [3]int64
	Ghost         [3]int64
	Stagger       [3]int64
	NComp         int64

	CompressedSize int64
}

const (
	fieldMagic   = 0x70696364
	fieldVersion = 1

	// DefaultEndiannessFlag is used when writing field files. Files of any
	// endianness can be read.
	DefaultEndiannessFlag int32 = -1

	// CompressionLevel is the zstd level field data is written with.
	CompressionLevel = 3

	// MaxFieldValues is the largest number of float64 values, ghost cells
	// and components included, that ReadField will allocate.
	MaxFieldValues = 1 << 32
)

func endianness(flag int32) (binary.ByteOrder, error) {
	switch flag {
	case -1:
		return binary.LittleEndian, nil
	case 0:
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("Unrecognized endianness flag, %d.", flag)
}

// NewFieldHeader returns the header which describes a.
func NewFieldHeader(a *field.Array) *FieldHeader {
	hd := &FieldHeader{Magic: fieldMagic, Version: fieldVersion}
	for i := 0; i < 3; i++ {
		hd.Origin[i] = int64(a.Valid.Origin[i])
		hd.Width[i] = int64(a.Valid.Width[i])
		hd.Ghost[i] = int64(a.Ghost[i])
		hd.Stagger[i] = int64(a.Stagger[i])
	}
	hd.NComp = int64(a.NComp)
	return hd
}

// Check returns an error if hd describes an invalid array or one too large
// to read.
func (hd *FieldHeader) Check() error {
	n := int64(1)
	for i := 0; i < 3; i++ {
		if hd.Width[i] <= 0 {
			return fmt.Errorf(
				"Field header has width %d along axis %d, but widths must "+
					"be positive.", hd.Width[i], i,
			)
		} else if hd.Ghost[i] < 0 {
			return fmt.Errorf(
				"Field header has %d ghost cells along axis %d, but ghost "+
					"widths must be non-negative.", hd.Ghost[i], i,
			)
		} else if hd.Stagger[i] != geom.Cell && hd.Stagger[i] != geom.Node {
			return fmt.Errorf(
				"Field header has staggering %d along axis %d, but "+
					"staggering must be %d (Cell) or %d (Node).",
				hd.Stagger[i], i, geom.Cell, geom.Node,
			)
		}

		w := hd.Width[i] + 2*hd.Ghost[i]
		if w <= 0 || w > MaxFieldValues/n {
			return fmt.Errorf("Field header describes more than %d values.",
				int64(MaxFieldValues))
		}
		n *= w
	}

	if hd.NComp <= 0 {
		return fmt.Errorf(
			"Field header has %d components, but must have at least 1.",
			hd.NComp,
		)
	} else if hd.NComp > MaxFieldValues/n {
		return fmt.Errorf("Field header describes more than %d values.",
			int64(MaxFieldValues))
	}
	n *= hd.NComp

	if hd.CompressedSize < 0 ||
		hd.CompressedSize > int64(zstd.CompressBound(int(8*n))) {
		return fmt.Errorf(
			"Field header has compressed size %d, but %d values compress "+
				"to at most %d bytes.",
			hd.CompressedSize, n, zstd.CompressBound(int(8*n)),
		)
	}
	return nil
}

// Array allocates an empty array with the layout given by hd.
func (hd *FieldHeader) Array() *field.Array {
	valid := geom.CellBounds{}
	var ghost, stagger [3]int
	for i := 0; i < 3; i++ {
		valid.Origin[i] = int(hd.Origin[i])
		valid.Width[i] = int(hd.Width[i])
		ghost[i] = int(hd.Ghost[i])
		stagger[i] = int(hd.Stagger[i])
	}
	return field.New(valid, ghost, int(hd.NComp), stagger)
}

// WriteField writes a to wr.
func WriteField(wr io.Writer, a *field.Array) error {
	if err := a.Check(); err != nil {
		return err
	}
	order, _ := endianness(DefaultEndiannessFlag)

	raw := make([]byte, 8*len(a.Data))
	for i, x := range a.Data {
		order.PutUint64(raw[8*i:], math.Float64bits(x))
	}
	buf, err := zstd.CompressLevel(nil, raw, CompressionLevel)
	if err != nil {
		return err
	}

	hd := NewFieldHeader(a)
	hd.CompressedSize = int64(len(buf))

	if err = binary.Write(wr, order, DefaultEndiannessFlag); err != nil {
		return err
	}
	if err = binary.Write(wr, order, int32(binary.Size(hd))); err != nil {
		return err
	}
	if err = binary.Write(wr, order, hd); err != nil {
		return err
	}
	_, err = wr.Write(buf)
	return err
}

// ReadFieldHeader reads the header at the start of a field file.
func ReadFieldHeader(rd io.Reader) (*FieldHeader, binary.ByteOrder, error) {
	flag := int32(0)
	if err := binary.Read(rd, binary.LittleEndian, &flag); err != nil {
		return nil, nil, err
	}
	order, err := endianness(flag)
	if err != nil {
		return nil, nil, err
	}

	size := int32(0)
	if err = binary.Read(rd, order, &size); err != nil {
		return nil, nil, err
	}
	hd := &FieldHeader{}
	if int(size) != binary.Size(hd) {
		return nil, nil, fmt.Errorf(
			"Field header has size %d, but the expected size is %d.",
			size, binary.Size(hd),
		)
	}
	if err = binary.Read(rd, order, hd); err != nil {
		return nil, nil, err
	}

	if hd.Magic != fieldMagic {
		return nil, nil, fmt.Errorf("Input is not a field file.")
	} else if hd.Version != fieldVersion {
		return nil, nil, fmt.Errorf(
			"Field file has version %d, but only version %d is supported.",
			hd.Version, fieldVersion,
		)
	} else if err = hd.Check(); err != nil {
		return nil, nil, err
	}
	return hd, order, nil
}

// ReadField reads an array written by WriteField.
func ReadField(rd io.Reader) (*field.Array, error) {
	hd, order, err := ReadFieldHeader(rd)
	if err != nil {
		return nil, err
	}
	a := hd.Array()
	if err = a.Check(); err != nil {
		return nil, fmt.Errorf("Invalid field header: %s", err.Error())
	}

	buf := make([]byte, hd.CompressedSize)
	if _, err = io.ReadFull(rd, buf); err != nil {
		return nil, err
	}
	raw, err := zstd.Decompress(make([]byte, 8*len(a.Data)), buf)
	if err != nil {
		return nil, err
	}
	if len(raw) != 8*len(a.Data) {
		return nil, fmt.Errorf(
			"Field file contains %d bytes of data, but its header "+
				"requires %d.", len(raw), 8*len(a.Data),
		)
	}

	for i := range a.Data {
		a.Data[i] = math.Float64frombits(order.Uint64(raw[8*i:]))
	}
	return a, nil
}

// WriteFieldFile writes a to the file fname.
func WriteFieldFile(fname string, a *field.Array) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err = WriteField(f, a); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFieldFile reads the array in the file fname.
func ReadFieldFile(fname string) (*field.Array, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadField(f)
}
