// Package registry holds the codec contracts and the detection table that
// maps file signatures to structure codecs.
//
// A Registry is built once, explicitly, and is read-only afterwards; it may
// be shared by concurrent reads of different files.
package registry

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/types"
)

// DefaultMaxAlternates bounds how many candidates after the first are tried.
const DefaultMaxAlternates = 3

// probeSize is the number of bytes handed to IsValidHeader.
const probeSize = 64

// AudioCodec parses the structure of one container format.
//
// A fresh instance is created for every detection attempt, so Read may keep
// state for the accessors that follow it.
type AudioCodec interface {
	// Format returns the container format this codec parses.
	Format() types.Format

	// Read parses structural headers. It returns false, never panics, on
	// malformed input so the registry can try the next candidate.
	Read(sr *binary.SafeReader, hints ledger.SizeInfo) bool

	// Info returns the technical properties decoded by Read.
	Info() types.AudioInfo

	// SupportedStandards lists the tag standards legal for this format.
	SupportedStandards() []types.TagStandard

	// Payload returns the audio payload extent.
	Payload() ledger.Extent

	// Regions returns one region per supported standard, with insertion
	// points for absent additive standards.
	Regions() []ledger.Region

	// SizeFields returns structural integers that count tag bytes.
	SizeFields() []ledger.SizeField
}

// LocalMetaCodecs is implemented by structure codecs that own a
// format-specific tag standard (Native, Chunk).
type LocalMetaCodecs interface {
	MetaCodec(std types.TagStandard) (MetaCodec, bool)
}

// MetaCodec reads and writes one tag standard.
//
// Zones are passed in region order; Write and Remove return one byte slice
// per zone. An additive standard's Remove returns empty slices, deleting the
// region. An embedded standard's Remove returns same-length default bytes.
type MetaCodec interface {
	Standard() types.TagStandard
	Layout() types.Layout
	Read(zones []ledger.ZoneData, opts types.ReadOptions) (*types.Tag, error)
	Write(prev []ledger.ZoneData, u *types.Update) ([][]byte, error)
	Remove(prev []ledger.ZoneData) ([][]byte, error)
}

// Descriptor registers one structure codec.
type Descriptor struct {
	// IsValidHeader is a pure signature check over the bytes at the start
	// of the audio data (after any ID3v2 tag).
	IsValidHeader func(probe []byte) bool
	New           func() AudioCodec
	Name          string
	Format        types.Format
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxAlternates sets how many fallback candidates are tried after the first.
func WithMaxAlternates(n int) Option {
	return func(r *Registry) {
		r.maxAlternates = max(n, 0)
	}
}

// WithLogger sets the logger used for detection tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// Registry is the immutable detection table.
type Registry struct {
	meta          map[types.TagStandard]MetaCodec
	log           zerolog.Logger
	descriptors   []Descriptor
	maxAlternates int
}

// New builds a registry. Descriptors are tried in the given order;
// shared lists the cross-format metadata codecs (ID3v1, ID3v2, APE).
func New(descriptors []Descriptor, shared []MetaCodec, opts ...Option) *Registry {
	r := &Registry{
		descriptors:   slices.Clone(descriptors),
		meta:          make(map[types.TagStandard]MetaCodec, len(shared)),
		maxAlternates: DefaultMaxAlternates,
		log:           zerolog.Nop(),
	}
	for _, m := range shared {
		r.meta[m.Standard()] = m
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Descriptors returns the registered descriptors in priority order.
func (r *Registry) Descriptors() []Descriptor {
	return slices.Clone(r.descriptors)
}

// MaxAlternates returns the retry ceiling.
func (r *Registry) MaxAlternates() int {
	return r.maxAlternates
}

// Candidates returns the descriptors to try for a file: signature matches
// in priority order, followed by extension matches.
func (r *Registry) Candidates(probe []byte, path string) []Descriptor {
	var out []Descriptor
	used := make([]bool, len(r.descriptors))
	for i, d := range r.descriptors {
		if d.IsValidHeader != nil && d.IsValidHeader(probe) {
			out = append(out, d)
			used[i] = true
		}
	}
	for i, d := range r.descriptors {
		if !used[i] && d.Format.MatchesExtension(path) {
			out = append(out, d)
		}
	}
	return out
}

// Detect selects and reads the structure codec for a file.
//
// At most 1+MaxAlternates candidates are tried. Exhausting them returns an
// *types.UnsupportedFormatError wrapping types.ErrFormatUndetected.
func (r *Registry) Detect(ctx context.Context, sr *binary.SafeReader, hints ledger.SizeInfo) (AudioCodec, error) {
	start := hints.ID3v2.End
	n := min(int64(probeSize), sr.Size()-start)
	var probe []byte
	if n > 0 {
		b, err := sr.Bytes(start, int(n), "format probe")
		if err != nil {
			return nil, err
		}
		probe = b
	}

	candidates := r.Candidates(probe, sr.Path())
	limit := min(len(candidates), 1+r.maxAlternates)
	for i, d := range candidates[:limit] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		codec := d.New()
		ok := codec.Read(sr, hints)
		r.log.Debug().
			Str("path", sr.Path()).
			Str("codec", d.Name).
			Int("alternate", i).
			Bool("ok", ok).
			Msg("detection attempt")
		if ok {
			return codec, nil
		}
	}

	reason := "no matching signature or extension"
	if len(candidates) > 0 {
		reason = fmt.Sprintf("%d of %d candidates failed to parse", limit, len(candidates))
	}
	return nil, &types.UnsupportedFormatError{
		Path:   sr.Path(),
		Reason: reason,
		Err:    types.ErrFormatUndetected,
	}
}

// MetaCodec resolves the metadata codec for std on a detected structure.
func (r *Registry) MetaCodec(codec AudioCodec, std types.TagStandard) (MetaCodec, error) {
	if !slices.Contains(codec.SupportedStandards(), std) {
		return nil, &types.UnsupportedStandardError{Format: codec.Format(), Standard: std}
	}
	if local, ok := codec.(LocalMetaCodecs); ok {
		if m, ok := local.MetaCodec(std); ok {
			return m, nil
		}
	}
	if m, ok := r.meta[std]; ok {
		return m, nil
	}
	return nil, &types.UnsupportedStandardError{Format: codec.Format(), Standard: std}
}
