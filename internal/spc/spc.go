// Package spc parses SNES SPC700 sound dumps and their ID666 tags.
//
// An SPC file is a fixed-size memory image: a 0x100-byte header holding
// the SPC700 registers and the ID666 tag, 64 KiB of RAM plus DSP state, then
// an optional extended ID666 ("xid6") chunk. The ID666 tag is embedded: it
// cannot be removed, only reset.
package spc

import (
	"bytes"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

// Signature opens every SPC file.
const Signature = "SNES-SPC700 Sound File Data"

const (
	payloadStart = headerEnd
	xid6Start    = 0x10200
	sampleRate   = 32000
)

// Descriptor registers the SPC codec.
func Descriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:   "spc",
		Format: types.FormatSPC,
		IsValidHeader: func(probe []byte) bool {
			return bytes.HasPrefix(probe, []byte(Signature))
		},
		New: func() registry.AudioCodec { return New() },
	}
}

// Codec is the SPC structure codec.
type Codec struct {
	info    types.AudioInfo
	regions []ledger.Region
}

// New returns an SPC codec ready for Read.
func New() *Codec {
	return &Codec{}
}

// Format implements registry.AudioCodec.
func (c *Codec) Format() types.Format { return types.FormatSPC }

// Read implements registry.AudioCodec.
func (c *Codec) Read(sr *binary.SafeReader, hints ledger.SizeInfo) bool {
	if !hints.ID3v2.Empty() || sr.Size() < xid6Start || !sr.HasPrefix(0, Signature) {
		return false
	}
	hdr, err := sr.Bytes(headerStart, headerLen, "ID666 header")
	if err != nil {
		return false
	}
	h := decodeHeader(hdr)

	// The xid6 chunk ends where an APE tag starts, or at end of file.
	limit := sr.Size()
	if !hints.APE.Empty() && hints.APE.Start >= xid6Start {
		limit = hints.APE.Start
	}
	xid6End := int64(xid6Start)
	if sr.HasPrefix(xid6Start, xid6Magic) {
		n, err := binary.ReadLE[uint32](sr, xid6Start+4, "xid6 size")
		if err != nil {
			return false
		}
		xid6End = min(xid6Start+xid6HeaderSize+int64(n), limit)
	}

	c.regions = []ledger.Region{
		{
			Standard: types.StandardNative,
			Layout:   types.LayoutEmbedded,
			Present:  true,
			Zones: []ledger.Zone{
				{Name: "header", Extent: ledger.Extent{Start: headerStart, End: headerEnd}},
				{Name: "xid6", Extent: ledger.Extent{Start: xid6Start, End: xid6End}},
			},
		},
		hints.AdditiveRegion(types.StandardAPE, false),
	}

	c.info = types.AudioInfo{
		Codec:       "SPC700",
		SampleRate:  sampleRate,
		BitDepth:    16,
		Channels:    2,
		PayloadSize: xid6Start - payloadStart,
	}
	if h.present {
		c.info.Samples = uint64(h.seconds)*sampleRate + uint64(h.fadeMS)*sampleRate/1000
	}
	c.info.Derive()
	return true
}

// Info implements registry.AudioCodec.
func (c *Codec) Info() types.AudioInfo { return c.info }

// SupportedStandards implements registry.AudioCodec.
func (c *Codec) SupportedStandards() []types.TagStandard {
	return []types.TagStandard{types.StandardNative, types.StandardAPE}
}

// Payload implements registry.AudioCodec.
func (c *Codec) Payload() ledger.Extent {
	return ledger.Extent{Start: payloadStart, End: xid6Start}
}

// Regions implements registry.AudioCodec.
func (c *Codec) Regions() []ledger.Region { return c.regions }

// SizeFields implements registry.AudioCodec. SPC has none.
func (c *Codec) SizeFields() []ledger.SizeField { return nil }

// MetaCodec implements registry.LocalMetaCodecs.
func (c *Codec) MetaCodec(std types.TagStandard) (registry.MetaCodec, bool) {
	if std == types.StandardNative {
		return nativeCodec{}, true
	}
	return nil, false
}
