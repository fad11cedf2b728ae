package types

import (
	"fmt"
	"strings"
)

// TagStandard identifies one binary convention for storing metadata.
//
// Several standards may cohabit in one file, each owning a disjoint byte range.
type TagStandard int

const (
	// StandardNative is the format's own fixed-layout tag (SPC ID666).
	StandardNative TagStandard = iota
	// StandardID3v1 is the 128-byte trailing "TAG" block.
	StandardID3v1
	// StandardID3v2 is the frame-structured leading "ID3" tag.
	StandardID3v2
	// StandardAPE is the APEv2 trailer.
	StandardAPE
	// StandardChunk is a chunk-based tag inside the container header (VQF).
	StandardChunk
)

// AllStandards lists every standard in reading order.
var AllStandards = []TagStandard{
	StandardNative, StandardChunk, StandardID3v2, StandardAPE, StandardID3v1,
}

// String returns the display name of the standard.
func (s TagStandard) String() string {
	switch s {
	case StandardNative:
		return "Native"
	case StandardID3v1:
		return "ID3v1"
	case StandardID3v2:
		return "ID3v2"
	case StandardAPE:
		return "APE"
	case StandardChunk:
		return "Chunk"
	default:
		return fmt.Sprintf("TagStandard(%d)", int(s))
	}
}

// ParseTagStandard resolves a case-insensitive standard name.
func ParseTagStandard(name string) (TagStandard, error) {
	for _, s := range AllStandards {
		if strings.EqualFold(s.String(), name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown tag standard %q", name)
}

// Layout describes how a tag standard sits in the file.
type Layout int

const (
	// LayoutAdditive tags are appended or prepended containers that can be
	// removed entirely.
	LayoutAdditive Layout = iota
	// LayoutEmbedded tags are interleaved with data needed for playback;
	// removal resets fields in place.
	LayoutEmbedded
)

func (l Layout) String() string {
	if l == LayoutEmbedded {
		return "embedded"
	}
	return "additive"
}
