package binary

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// mockReader implements io.ReaderAt for testing.
type mockReader struct {
	data []byte
}

func (m *mockReader) ReadAt(p []byte, off int64) (n int, err error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func TestSafeReader_ReadAt(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	sr := NewSafeReader(&mockReader{data: data}, int64(len(data)), "test.spc")

	tests := []struct {
		name    string
		off     int64
		n       int
		wantErr string
	}{
		{name: "in range", off: 0, n: 2},
		{name: "to end", off: 2, n: 2},
		{name: "past end", off: 3, n: 2, wantErr: "would exceed file size"},
		{name: "offset out of bounds", off: 10, n: 2, wantErr: "out of bounds"},
		{name: "negative offset", off: -1, n: 1, wantErr: "out of bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.n)
			err := sr.ReadAt(buf, tt.off, "probe")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !bytes.Equal(buf, data[tt.off:tt.off+int64(tt.n)]) {
					t.Errorf("got %v, want %v", buf, data[tt.off:tt.off+int64(tt.n)])
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			msg := err.Error()
			for _, want := range []string{tt.wantErr, "test.spc", "probe"} {
				if !strings.Contains(msg, want) {
					t.Errorf("error %q should contain %q", msg, want)
				}
			}
		})
	}
}

func TestSafeReader_HasPrefix(t *testing.T) {
	data := []byte("TWIN97012000")
	sr := NewSafeReader(bytes.NewReader(data), int64(len(data)), "a.vqf")

	if !sr.HasPrefix(0, "TWIN") {
		t.Error("HasPrefix(0, TWIN) = false")
	}
	if sr.HasPrefix(4, "TWIN") {
		t.Error("HasPrefix(4, TWIN) = true")
	}
	if sr.HasPrefix(10, "TWIN") {
		t.Error("probe past EOF should report false")
	}
}

func TestChainReader(t *testing.T) {
	data := []byte{
		'T', 'T', 'A', '1',
		0x01, 0x00, // format
		0x02, 0x00, // channels
		0x10, 0x00, // bits
		0x44, 0xAC, 0x00, 0x00, // 44100
	}
	sr := NewSafeReader(bytes.NewReader(data), int64(len(data)), "a.tta")
	cr := NewChainReader(NewReaderLE(sr, 0))

	magic := cr.String(4, "magic")
	format := ReadChained[uint16](cr, "format")
	channels := ReadChained[uint16](cr, "channels")
	bits := ReadChained[uint16](cr, "bits")
	rate := ReadChained[uint32](cr, "rate")
	if err := cr.Error(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if magic != "TTA1" || format != 1 || channels != 2 || bits != 16 || rate != 44100 {
		t.Errorf("got %q %d %d %d %d", magic, format, channels, bits, rate)
	}

	// Reading past the end records the error once and yields zero values.
	if v := ReadChained[uint32](cr, "samples"); v != 0 {
		t.Errorf("expected zero after failure, got %d", v)
	}
	if cr.Error() == nil {
		t.Fatal("expected accumulated error")
	}
	if s := cr.String(2, "after"); s != "" {
		t.Errorf("expected empty string after failure, got %q", s)
	}
}

func TestReader_Offsets(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x08, 'N', 'A', 'M', 'E'}
	sr := NewSafeReader(bytes.NewReader(data), int64(len(data)), "a.vqf")
	r := NewReader(sr, 0)

	size, err := ReadValue[uint32](r, "size")
	if err != nil || size != 8 {
		t.Fatalf("ReadValue = %d, %v", size, err)
	}
	id, err := r.ReadString(4, "id")
	if err != nil || id != "NAME" {
		t.Fatalf("ReadString = %q, %v", id, err)
	}
	if r.Offset() != 8 {
		t.Errorf("Offset() = %d, want 8", r.Offset())
	}
	r.Skip(-4)
	if b, _ := r.ReadBytes(2, "back"); string(b) != "NA" {
		t.Errorf("ReadBytes after Skip = %q", b)
	}
}
