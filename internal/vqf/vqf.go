// Package vqf parses TwinVQ (.vqf) files and the text chunks of their header.
//
// A VQF file opens with "TWIN", an 8-digit version and a big-endian header
// size, followed by length-prefixed chunks (COMM first) up to the "DATA"
// marker where the audio begins. Text chunks such as NAME and AUTH form the
// tag; the header size counts them, so any edit rewrites it.
package vqf

import (
	"time"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

// Magic opens every VQF file.
const Magic = "TWIN"

const (
	versionLen      = 8
	sizeOffset      = 12
	chunksStart     = 16
	chunkHeaderSize = 8
	commMinSize     = 12

	idComm = "COMM"
	idData = "DATA"
)

// Descriptor registers the VQF codec.
func Descriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:   "vqf",
		Format: types.FormatVQF,
		IsValidHeader: func(probe []byte) bool {
			return len(probe) >= chunksStart && string(probe[:4]) == Magic && digits(probe[4:sizeOffset])
		},
		New: func() registry.AudioCodec { return New() },
	}
}

func digits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Codec is the VQF structure codec.
type Codec struct {
	info      types.AudioInfo
	region    ledger.Region
	dataStart int64
}

// New returns a VQF codec ready for Read.
func New() *Codec {
	return &Codec{}
}

// Format implements registry.AudioCodec.
func (c *Codec) Format() types.Format { return types.FormatVQF }

type common struct {
	channelMode uint32
	bitrate     uint32 // kbps
	rateCode    uint32 // kHz
	security    uint32
}

// Read implements registry.AudioCodec.
func (c *Codec) Read(sr *binary.SafeReader, hints ledger.SizeInfo) bool {
	if !hints.ID3v2.Empty() || !sr.HasPrefix(0, Magic) {
		return false
	}
	hr := binary.NewChainReader(binary.NewReader(sr, int64(len(Magic))))
	if ver := hr.String(versionLen, "VQF version"); hr.Error() != nil || !digits([]byte(ver)) {
		return false
	}

	var (
		comm    *common
		tagFrom int64
		hasText bool
		pos     int64
	)
	r := binary.NewReader(sr, chunksStart)
	for {
		pos = r.Offset()
		id, err := r.ReadString(4, "VQF chunk ID")
		if err != nil {
			return false
		}
		if id == idData {
			break
		}
		size, err := binary.ReadValue[uint32](r, "VQF chunk size")
		if err != nil {
			return false
		}
		end := r.Offset() + int64(size)
		if end > sr.Size() {
			return false
		}

		switch {
		case comm == nil:
			if id != idComm || size < commMinSize {
				return false
			}
			cr := binary.NewChainReader(binary.NewReader(sr, r.Offset()))
			comm = &common{
				channelMode: binary.ReadChained[uint32](cr, "VQF channel mode"),
				bitrate:     binary.ReadChained[uint32](cr, "VQF bitrate"),
				rateCode:    binary.ReadChained[uint32](cr, "VQF sample rate"),
			}
			if size >= commMinSize+4 {
				comm.security = binary.ReadChained[uint32](cr, "VQF security level")
			}
			if cr.Error() != nil {
				return false
			}
			tagFrom = end
		case !structural(id):
			hasText = true
		}
		r.Skip(int64(size))
	}
	if comm == nil {
		return false
	}

	c.dataStart = pos
	c.region = ledger.Region{
		Standard: types.StandardChunk,
		Layout:   types.LayoutAdditive,
		Present:  hasText,
		Zones:    []ledger.Zone{{Name: "chunks", Extent: ledger.Extent{Start: tagFrom, End: pos}}},
	}
	c.info = comm.info(sr.Size() - pos)
	return true
}

func (m common) sampleRate() int {
	switch m.rateCode {
	case 11:
		return 11025
	case 22:
		return 22050
	case 44:
		return 44100
	}
	return int(m.rateCode) * 1000
}

// info derives the technical properties. Duration follows from the payload
// size and the constant bitrate.
func (m common) info(payload int64) types.AudioInfo {
	a := types.AudioInfo{
		Codec:       "TwinVQ",
		SampleRate:  m.sampleRate(),
		Channels:    int(m.channelMode) + 1,
		Bitrate:     int(m.bitrate) * 1000,
		PayloadSize: payload,
	}
	if a.Bitrate > 0 {
		secs := float64(payload*8) / float64(a.Bitrate)
		a.Duration = time.Duration(secs * float64(time.Second))
		a.Samples = uint64(secs * float64(a.SampleRate))
	}
	return a
}

// Info implements registry.AudioCodec.
func (c *Codec) Info() types.AudioInfo { return c.info }

// SupportedStandards implements registry.AudioCodec.
func (c *Codec) SupportedStandards() []types.TagStandard {
	return []types.TagStandard{types.StandardChunk}
}

// Payload implements registry.AudioCodec. It starts at the DATA marker.
func (c *Codec) Payload() ledger.Extent {
	return ledger.Extent{Start: c.dataStart, End: c.dataStart + c.info.PayloadSize}
}

// Regions implements registry.AudioCodec.
func (c *Codec) Regions() []ledger.Region {
	return []ledger.Region{c.region}
}

// SizeFields implements registry.AudioCodec. The header size counts every
// byte from offset 16 up to the DATA marker.
func (c *Codec) SizeFields() []ledger.SizeField {
	return []ledger.SizeField{{
		Name:   "VQF header size",
		Offset: sizeOffset,
		Width:  4,
		Order:  binary.BigEndian,
		Covers: ledger.Extent{Start: chunksStart, End: c.dataStart},
	}}
}

// MetaCodec implements registry.LocalMetaCodecs.
func (c *Codec) MetaCodec(std types.TagStandard) (registry.MetaCodec, bool) {
	if std == types.StandardChunk {
		return chunkCodec{}, true
	}
	return nil, false
}
