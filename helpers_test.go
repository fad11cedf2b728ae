package audiotag_test

import (
	"crypto/md5"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

const (
	spcSize      = 0x10200
	ttaPayload   = 1000
	vqfPayload   = 4000
	spcSignature = "SNES-SPC700 Sound File Data"
)

// spcImage returns an SPC dump whose ID666 header is present but empty,
// followed by an optional xid6 chunk.
func spcImage(xid6 []byte) []byte {
	b := make([]byte, spcSize)
	copy(b, spcSignature)
	b[0x21], b[0x22] = 0x1A, 0x1A
	b[0x23] = 26
	b[0x24] = 30
	copy(b[0xA9:], "180")
	copy(b[0xAC:], "10000")
	for i := 0x100; i < spcSize; i++ {
		b[i] = byte(i)
	}
	return append(b, xid6...)
}

// ttaImage returns a bare TTA1 stream: 44.1 kHz, stereo, 16-bit, 10 seconds.
func ttaImage() []byte {
	b := []byte("TTA1")
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint16(b, 2)
	b = binary.LittleEndian.AppendUint16(b, 16)
	b = binary.LittleEndian.AppendUint32(b, 44100)
	b = binary.LittleEndian.AppendUint32(b, 441000)
	b = binary.LittleEndian.AppendUint32(b, 0)
	for i := len(b); i < ttaPayload; i++ {
		b = append(b, byte(i%251))
	}
	return b
}

// vqfImage returns a TwinVQ file with COMM and DSIZ chunks and no text.
func vqfImage() []byte {
	var hdr []byte
	chunk := func(id string, data []byte) {
		hdr = append(hdr, id...)
		hdr = binary.BigEndian.AppendUint32(hdr, uint32(len(data)))
		hdr = append(hdr, data...)
	}
	comm := make([]byte, 12)
	binary.BigEndian.PutUint32(comm[0:], 1)
	binary.BigEndian.PutUint32(comm[4:], 20)
	binary.BigEndian.PutUint32(comm[8:], 44)
	chunk("COMM", comm)
	chunk("DSIZ", []byte{0, 0, 0x0F, 0x9C})

	b := []byte("TWIN97012000")
	b = binary.BigEndian.AppendUint32(b, uint32(len(hdr)))
	b = append(b, hdr...)
	b = append(b, "DATA"...)
	for i := 4; i < vqfPayload; i++ {
		b = append(b, byte(i*7))
	}
	return b
}

// writeFile stores data under a fresh temp dir and returns its path.
func writeFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fileSum(t testing.TB, path string) [md5.Size]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return md5.Sum(data)
}

func readBytes(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
