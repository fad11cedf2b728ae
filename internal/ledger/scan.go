package ledger

import (
	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

const (
	id3v2HeaderSize = 10
	id3v1Size       = 128
	apeFooterSize   = 32
	apeHasHeader    = 1 << 31
)

// SizeInfo holds the extents of the cross-format tag standards found by a
// structure-independent scan. Absent standards have empty extents.
//
// Structure codecs receive it as a hint: TTA locates its header after the
// ID3v2 tag and ends its payload before the APE and ID3v1 trailers.
type SizeInfo struct {
	ID3v2    Extent
	APE      Extent
	ID3v1    Extent
	FileSize int64
}

// PayloadEnd returns the offset where trailing tags begin.
func (s SizeInfo) PayloadEnd() int64 {
	end := s.FileSize
	if !s.ID3v1.Empty() {
		end = s.ID3v1.Start
	}
	if !s.APE.Empty() {
		end = min(end, s.APE.Start)
	}
	return end
}

// Scan locates ID3v2, APEv2 and ID3v1 tags without knowing the container format.
//
// The scan never fails on malformed tags: a header that does not validate
// is reported as absent.
func Scan(sr *binary.SafeReader) SizeInfo {
	size := sr.Size()
	info := SizeInfo{
		FileSize: size,
		ID3v1:    Extent{Start: size, End: size},
	}

	if n := id3v2Size(sr); n > 0 && n <= size {
		info.ID3v2 = Extent{Start: 0, End: n}
	}

	if size >= id3v1Size+info.ID3v2.End && sr.HasPrefix(size-id3v1Size, "TAG") {
		info.ID3v1 = Extent{Start: size - id3v1Size, End: size}
	}

	// APE sits before ID3v1 when both are present; retry at EOF in case the
	// "TAG" match was part of the APE tag or audio data.
	info.APE = Extent{Start: info.ID3v1.Start, End: info.ID3v1.Start}
	if ext, ok := apeExtent(sr, info.ID3v1.Start, info.ID3v2.End); ok {
		info.APE = ext
	} else if !info.ID3v1.Empty() {
		if ext, ok := apeExtent(sr, size, info.ID3v2.End); ok {
			info.APE = ext
			info.ID3v1 = Extent{Start: size, End: size}
		}
	}
	return info
}

func id3v2Size(sr *binary.SafeReader) int64 {
	hdr, err := sr.Bytes(0, id3v2HeaderSize, "ID3v2 header")
	if err != nil || string(hdr[:3]) != "ID3" || hdr[3] == 0xFF || hdr[3] > 4 {
		return 0
	}
	var n int64
	for _, b := range hdr[6:10] {
		if b&0x80 != 0 {
			return 0
		}
		n = n<<7 | int64(b)
	}
	n += id3v2HeaderSize
	if hdr[5]&0x10 != 0 {
		n += id3v2HeaderSize // footer
	}
	return n
}

func apeExtent(sr *binary.SafeReader, end, floor int64) (Extent, bool) {
	footer := end - apeFooterSize
	if footer < floor || !sr.HasPrefix(footer, "APETAGEX") {
		return Extent{}, false
	}
	tagSize, err := binary.ReadLE[uint32](sr, footer+12, "APE tag size")
	if err != nil {
		return Extent{}, false
	}
	flags, err := binary.ReadLE[uint32](sr, footer+20, "APE flags")
	if err != nil {
		return Extent{}, false
	}
	total := int64(tagSize)
	if flags&apeHasHeader != 0 {
		total += apeFooterSize
	}
	start := end - total
	if total < apeFooterSize || start < floor {
		return Extent{}, false
	}
	return Extent{Start: start, End: end}, true
}

// AdditiveRegion builds the region of a cross-format standard from the scan.
// Absent standards get a zero-length insertion zone: ID3v2 at offset 0, APE
// before any supported ID3v1 tag, ID3v1 at end of file.
func (s SizeInfo) AdditiveRegion(std types.TagStandard, supportsID3v1 bool) Region {
	var ext Extent
	switch std {
	case types.StandardID3v2:
		ext = s.ID3v2
	case types.StandardID3v1:
		ext = s.ID3v1
	case types.StandardAPE:
		ext = s.APE
		if ext.Empty() {
			at := s.FileSize
			if supportsID3v1 && !s.ID3v1.Empty() {
				at = s.ID3v1.Start
			}
			ext = Extent{Start: at, End: at}
		}
	}
	return Region{
		Standard: std,
		Layout:   types.LayoutAdditive,
		Present:  !ext.Empty(),
		Zones:    []Zone{{Name: "tag", Extent: ext}},
	}
}
