package binary

import (
	"bytes"
)

// SafeWriter accumulates serialized tag bytes with position tracking.
//
// Writes into memory never fail, so the methods return nothing; codecs
// build a whole region and hand the result to the patch engine.
type SafeWriter struct {
	buf bytes.Buffer
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter() *SafeWriter {
	return &SafeWriter{}
}

// Offset returns the current position (number of bytes written).
func (sw *SafeWriter) Offset() int64 {
	return int64(sw.buf.Len())
}

// Bytes returns the written bytes.
func (sw *SafeWriter) Bytes() []byte {
	return sw.buf.Bytes()
}

// WriteBytes writes raw bytes.
func (sw *SafeWriter) WriteBytes(b []byte) {
	sw.buf.Write(b)
}

// WriteString writes a string as raw bytes.
func (sw *SafeWriter) WriteString(s string) {
	sw.buf.WriteString(s)
}

// WriteZeros writes n zero bytes.
func (sw *SafeWriter) WriteZeros(n int) {
	for i := 0; i < n; i++ {
		sw.buf.WriteByte(0)
	}
}

// WritePadded writes b truncated or NUL-padded to exactly width bytes.
func (sw *SafeWriter) WritePadded(b []byte, width int) {
	if len(b) > width {
		b = b[:width]
	}
	sw.buf.Write(b)
	sw.WriteZeros(width - len(b))
}

// Write writes a value of type T in big-endian byte order.
func Write[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) {
	writeEndian(sw, val, BigEndian)
}

// WriteLE writes a value of type T in little-endian byte order.
func WriteLE[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) {
	writeEndian(sw, val, LittleEndian)
}

func writeEndian[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T, endian Endianness) {
	n := sizeOf[T]()
	buf := make([]byte, n)
	PutUint(buf, uint64(val), n, endian)
	sw.buf.Write(buf)
}
