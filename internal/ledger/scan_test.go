package ledger

import (
	"bytes"
	"encoding/binary"
	"testing"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

func id3v2Tag(bodyLen int) []byte {
	b := make([]byte, 10+bodyLen)
	copy(b, "ID3\x04\x00\x00")
	n := bodyLen
	for i := 9; i >= 6; i-- {
		b[i] = byte(n & 0x7F)
		n >>= 7
	}
	return b
}

func apeTag(items int, withHeader bool) []byte {
	body := bytes.Repeat([]byte{'i'}, items)
	footer := make([]byte, 32)
	copy(footer, "APETAGEX")
	binary.LittleEndian.PutUint32(footer[8:], 2000)
	binary.LittleEndian.PutUint32(footer[12:], uint32(len(body)+32))
	var out []byte
	if withHeader {
		header := bytes.Clone(footer)
		binary.LittleEndian.PutUint32(header[20:], 1<<31|1<<29)
		binary.LittleEndian.PutUint32(footer[20:], 1<<31)
		out = append(out, header...)
	}
	out = append(out, body...)
	return append(out, footer...)
}

func id3v1Tag() []byte {
	b := make([]byte, 128)
	copy(b, "TAG")
	return b
}

func scan(parts ...[]byte) SizeInfo {
	data := bytes.Join(parts, nil)
	return Scan(binutil.NewSafeReader(bytes.NewReader(data), int64(len(data)), "mem"))
}

func TestScan(t *testing.T) {
	audio := bytes.Repeat([]byte{0x55}, 200)

	tests := []struct {
		name      string
		parts     [][]byte
		wantID3v2 Extent
		wantAPE   Extent
		wantID3v1 Extent
	}{
		{
			name:      "bare audio",
			parts:     [][]byte{audio},
			wantAPE:   Extent{200, 200},
			wantID3v1: Extent{200, 200},
		},
		{
			name:      "all three",
			parts:     [][]byte{id3v2Tag(20), audio, apeTag(10, true), id3v1Tag()},
			wantID3v2: Extent{0, 30},
			wantAPE:   Extent{230, 304},
			wantID3v1: Extent{304, 432},
		},
		{
			name:      "APE without header at EOF",
			parts:     [][]byte{audio, apeTag(4, false)},
			wantAPE:   Extent{200, 236},
			wantID3v1: Extent{236, 236},
		},
		{
			name:      "ID3v1 only",
			parts:     [][]byte{audio, id3v1Tag()},
			wantAPE:   Extent{200, 200},
			wantID3v1: Extent{200, 328},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scan(tt.parts...)
			if got.ID3v2 != tt.wantID3v2 || got.APE != tt.wantAPE || got.ID3v1 != tt.wantID3v1 {
				t.Errorf("Scan = id3v2 %v ape %v id3v1 %v, want %v %v %v",
					got.ID3v2, got.APE, got.ID3v1, tt.wantID3v2, tt.wantAPE, tt.wantID3v1)
			}
		})
	}
}

func TestScan_MalformedID3v2Ignored(t *testing.T) {
	tag := id3v2Tag(20)
	tag[6] = 0x80 // not syncsafe
	if got := scan(tag, make([]byte, 100)); !got.ID3v2.Empty() {
		t.Errorf("ID3v2 = %v, want empty", got.ID3v2)
	}
}

func TestSizeInfo_PayloadEnd(t *testing.T) {
	info := scan(make([]byte, 100), apeTag(4, true), id3v1Tag())
	if got := info.PayloadEnd(); got != 100 {
		t.Errorf("PayloadEnd = %d, want 100", got)
	}
}

func TestSizeInfo_AdditiveRegion(t *testing.T) {
	info := scan(make([]byte, 100), id3v1Tag())

	tests := []struct {
		name          string
		std           types.TagStandard
		supportsID3v1 bool
		want          Extent
		present       bool
	}{
		{"ID3v2 inserted at start", types.StandardID3v2, true, Extent{0, 0}, false},
		{"APE before ID3v1", types.StandardAPE, true, Extent{100, 100}, false},
		{"APE at EOF when ID3v1 unsupported", types.StandardAPE, false, Extent{228, 228}, false},
		{"ID3v1 present", types.StandardID3v1, true, Extent{100, 228}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := info.AdditiveRegion(tt.std, tt.supportsID3v1)
			if r.Zones[0].Extent != tt.want || r.Present != tt.present {
				t.Errorf("region = %v present %v, want %v present %v", r.Zones[0].Extent, r.Present, tt.want, tt.present)
			}
			if r.Layout != types.LayoutAdditive {
				t.Error("cross-format regions are additive")
			}
		})
	}
}
