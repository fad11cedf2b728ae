// Package tta parses True Audio (TTA1) stream headers.
//
// TTA carries no tag of its own: ID3v2 may precede the stream, APEv2 and
// ID3v1 may follow it.
package tta

import (
	"bytes"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

// Signature opens a TTA1 stream.
const Signature = "TTA1"

// HeaderSize is the length of the TTA1 header including its CRC32.
const HeaderSize = 22

// Descriptor registers the TTA codec.
func Descriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:   "tta",
		Format: types.FormatTTA,
		IsValidHeader: func(probe []byte) bool {
			return bytes.HasPrefix(probe, []byte(Signature))
		},
		New: func() registry.AudioCodec { return New() },
	}
}

// Header holds the decoded TTA1 header fields.
type Header struct {
	AudioFormat   uint16
	Channels      uint16
	BitsPerSample uint16
	SampleRate    uint32
	Samples       uint32
	CRC           uint32
}

// Codec is the TTA structure codec.
type Codec struct {
	hdr     Header
	info    types.AudioInfo
	hints   ledger.SizeInfo
	payload ledger.Extent
}

// New returns a TTA codec ready for Read.
func New() *Codec {
	return &Codec{}
}

// Format implements registry.AudioCodec.
func (c *Codec) Format() types.Format { return types.FormatTTA }

// Read implements registry.AudioCodec. The stream starts right after any
// ID3v2 tag and ends where the trailing tags begin.
func (c *Codec) Read(sr *binary.SafeReader, hints ledger.SizeInfo) bool {
	start := hints.ID3v2.End
	if !sr.HasPrefix(start, Signature) {
		return false
	}
	end := hints.PayloadEnd()
	if end-start < HeaderSize {
		return false
	}

	cr := binary.NewChainReader(binary.NewReaderLE(sr, start+int64(len(Signature))))
	c.hdr = Header{
		AudioFormat:   binary.ReadChained[uint16](cr, "TTA audio format"),
		Channels:      binary.ReadChained[uint16](cr, "TTA channels"),
		BitsPerSample: binary.ReadChained[uint16](cr, "TTA bits per sample"),
		SampleRate:    binary.ReadChained[uint32](cr, "TTA sample rate"),
		Samples:       binary.ReadChained[uint32](cr, "TTA sample count"),
		CRC:           binary.ReadChained[uint32](cr, "TTA header CRC"),
	}
	if cr.Error() != nil {
		return false
	}

	c.hints = hints
	c.payload = ledger.Extent{Start: start, End: end}
	c.info = types.AudioInfo{
		Codec:       "TTA",
		SampleRate:  int(c.hdr.SampleRate),
		BitDepth:    int(c.hdr.BitsPerSample),
		Channels:    int(c.hdr.Channels),
		Samples:     uint64(c.hdr.Samples),
		PayloadSize: c.payload.Len(),
	}
	c.info.Derive()
	if pcm := c.info.Samples * uint64(c.hdr.Channels) * uint64(c.hdr.BitsPerSample) / 8; pcm > 0 {
		c.info.CompressionRatio = float64(c.info.PayloadSize) / float64(pcm)
	}
	return true
}

// Header returns the decoded stream header.
func (c *Codec) Header() Header { return c.hdr }

// Info implements registry.AudioCodec.
func (c *Codec) Info() types.AudioInfo { return c.info }

// SupportedStandards implements registry.AudioCodec.
func (c *Codec) SupportedStandards() []types.TagStandard {
	return []types.TagStandard{types.StandardID3v2, types.StandardAPE, types.StandardID3v1}
}

// Payload implements registry.AudioCodec.
func (c *Codec) Payload() ledger.Extent { return c.payload }

// Regions implements registry.AudioCodec.
func (c *Codec) Regions() []ledger.Region {
	return []ledger.Region{
		c.hints.AdditiveRegion(types.StandardID3v2, true),
		c.hints.AdditiveRegion(types.StandardAPE, true),
		c.hints.AdditiveRegion(types.StandardID3v1, true),
	}
}

// SizeFields implements registry.AudioCodec. The tags of a TTA file are
// self-delimiting.
func (c *Codec) SizeFields() []ledger.SizeField { return nil }
