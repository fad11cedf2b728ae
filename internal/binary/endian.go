package binary

import "encoding/binary"

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// BigEndian uses big-endian byte order.
	// Used by: VQF chunk sizes, ID3v2 frame headers.
	BigEndian Endianness = iota

	// LittleEndian uses little-endian byte order.
	// Used by: TTA headers, APEv2, SPC extended ID666.
	LittleEndian
)

// ByteOrder returns the encoding/binary order for e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ReadLE reads a numeric value of type T at the given offset using little-endian byte order.
//
// Example:
//
//	count, err := binary.ReadLE[uint32](sr, footer+16, "APE item count")
func ReadLE[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, LittleEndian)
}

// ReadBE reads a numeric value of type T at the given offset using big-endian byte order.
//
// Example:
//
//	headerSize, err := binary.ReadBE[uint32](sr, 12, "VQF header size")
func ReadBE[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

// ReadEndian reads a numeric value of type T at the given offset with specified byte order.
//
// This is the low-level function used by ReadLE and ReadBE.
// Most code should use the convenience wrappers instead.
func ReadEndian[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string, endian Endianness) (T, error) {
	var zero T
	buf := make([]byte, sizeOf[T]())
	if err := sr.ReadAt(buf, off, what); err != nil {
		return zero, err
	}
	return decode[T](buf, endian), nil
}

// PutUint writes val into b using width bytes (1, 2, 3, 4 or 8) in the given order.
// Three-byte fields appear in ID666 binary headers.
func PutUint(b []byte, val uint64, width int, endian Endianness) {
	for i := 0; i < width; i++ {
		shift := uint(8 * i)
		if endian == BigEndian {
			shift = uint(8 * (width - 1 - i))
		}
		b[i] = byte(val >> shift)
	}
}

// Uint reads a width-byte unsigned value from b in the given order.
func Uint(b []byte, width int, endian Endianness) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		shift := uint(8 * i)
		if endian == BigEndian {
			shift = uint(8 * (width - 1 - i))
		}
		v |= uint64(b[i]) << shift
	}
	return v
}

func sizeOf[T uint8 | uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

func decode[T uint8 | uint16 | uint32 | uint64](buf []byte, endian Endianness) T {
	return T(Uint(buf, len(buf), endian))
}
