// Package ledger records which byte ranges of an audio file belong to each
// tag standard and to the audio payload.
//
// A Ledger is built once per read from the detected structure codec and is
// never updated in place: any write invalidates it and the caller rebuilds it
// from the new file.
package ledger

import (
	"fmt"
	"slices"
	"strings"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// Extent is the half-open byte range [Start, End).
type Extent struct {
	Start int64
	End   int64
}

// Len returns the number of bytes covered.
func (e Extent) Len() int64 {
	return e.End - e.Start
}

// Empty reports whether the extent covers no bytes.
func (e Extent) Empty() bool {
	return e.End <= e.Start
}

// Overlaps reports whether both extents cover at least one common byte.
func (e Extent) Overlaps(o Extent) bool {
	if e.Empty() || o.Empty() {
		return false
	}
	return e.Start < o.End && o.Start < e.End
}

func (e Extent) String() string {
	return fmt.Sprintf("[%#x, %#x)", e.Start, e.End)
}

// Zone is one contiguous byte range owned by a tag standard.
// A zero-length zone marks where an absent additive zone would be inserted.
type Zone struct {
	Name   string
	Extent Extent
}

// Region is the ordered set of zones owned by one tag standard.
type Region struct {
	Zones    []Zone
	Standard types.TagStandard
	Layout   types.Layout
	Present  bool
}

// Span returns the smallest extent covering every zone.
func (r Region) Span() Extent {
	if len(r.Zones) == 0 {
		return Extent{}
	}
	span := r.Zones[0].Extent
	for _, z := range r.Zones[1:] {
		span.Start = min(span.Start, z.Extent.Start)
		span.End = max(span.End, z.Extent.End)
	}
	return span
}

// Len returns the number of bytes owned by the region.
func (r Region) Len() int64 {
	var n int64
	for _, z := range r.Zones {
		n += z.Extent.Len()
	}
	return n
}

// SizeField is a structural integer elsewhere in the file whose value counts
// the bytes of Covers. When zones inside Covers change length the patch
// engine rewrites the field by the same delta.
type SizeField struct {
	Name   string
	Offset int64
	Width  int
	Order  binary.Endianness
	Covers Extent
}

// ZoneData pairs a zone with the bytes it held when the ledger was built.
type ZoneData struct {
	Zone
	Data []byte
}

// Ledger is the per-file map of tag regions and the audio payload.
type Ledger struct {
	regions    []Region
	sizeFields []SizeField
	payload    Extent
	size       int64
}

// New validates and assembles a ledger.
//
// Every zone must lie inside the file, no two non-empty zones may overlap,
// and no zone may overlap the audio payload.
func New(size int64, payload Extent, regions []Region, sizeFields []SizeField) (*Ledger, error) {
	if payload.Start < 0 || payload.End > size || payload.Start > payload.End {
		return nil, fmt.Errorf("payload extent %s outside file of %d bytes", payload, size)
	}

	type owned struct {
		std  types.TagStandard
		zone Zone
	}
	var all []owned
	seen := make(map[types.TagStandard]bool)
	for _, r := range regions {
		if seen[r.Standard] {
			return nil, fmt.Errorf("duplicate region for %s", r.Standard)
		}
		seen[r.Standard] = true
		for _, z := range r.Zones {
			if z.Extent.Start < 0 || z.Extent.End > size || z.Extent.Start > z.Extent.End {
				return nil, fmt.Errorf("%s zone %q extent %s outside file of %d bytes", r.Standard, z.Name, z.Extent, size)
			}
			if z.Extent.Overlaps(payload) {
				return nil, fmt.Errorf("%w: %s zone %q %s overlaps audio payload %s",
					types.ErrOverlappingZones, r.Standard, z.Name, z.Extent, payload)
			}
			for _, o := range all {
				if z.Extent.Overlaps(o.zone.Extent) {
					return nil, fmt.Errorf("%w: %s zone %q %s overlaps %s zone %q %s",
						types.ErrOverlappingZones, r.Standard, z.Name, z.Extent, o.std, o.zone.Name, o.zone.Extent)
				}
			}
			all = append(all, owned{std: r.Standard, zone: z})
		}
	}

	return &Ledger{
		regions:    slices.Clone(regions),
		sizeFields: slices.Clone(sizeFields),
		payload:    payload,
		size:       size,
	}, nil
}

// Size returns the file length the ledger was built for.
func (l *Ledger) Size() int64 {
	return l.size
}

// PayloadExtent returns the byte range of the audio payload.
func (l *Ledger) PayloadExtent() Extent {
	return l.payload
}

// ExtentOf returns the region of std when that standard is present in the file.
func (l *Ledger) ExtentOf(std types.TagStandard) (Region, bool) {
	r, ok := l.Locate(std)
	if !ok || !r.Present {
		return Region{}, false
	}
	return r, true
}

// Locate returns the region of std whether present or not. For an absent
// additive standard the zones are zero-length insertion points.
func (l *Ledger) Locate(std types.TagStandard) (Region, bool) {
	for _, r := range l.regions {
		if r.Standard == std {
			return r, true
		}
	}
	return Region{}, false
}

// Regions returns every tracked region in the order the codec declared them.
func (l *Ledger) Regions() []Region {
	return slices.Clone(l.regions)
}

// SizeFields returns the structural size fields the codec declared.
func (l *Ledger) SizeFields() []SizeField {
	return slices.Clone(l.sizeFields)
}

// Load reads the current bytes of every zone of r.
func (l *Ledger) Load(sr *binary.SafeReader, r Region) ([]ZoneData, error) {
	zones := make([]ZoneData, len(r.Zones))
	for i, z := range r.Zones {
		data, err := sr.Bytes(z.Extent.Start, int(z.Extent.Len()), r.Standard.String()+" "+z.Name)
		if err != nil {
			return nil, err
		}
		zones[i] = ZoneData{Zone: z, Data: data}
	}
	return zones, nil
}

// String renders the ledger as one line per region, for diagnostics.
func (l *Ledger) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "size %d, payload %s\n", l.size, l.payload)
	for _, r := range l.regions {
		state := "absent"
		if r.Present {
			state = "present"
		}
		fmt.Fprintf(&b, "%-6s %-8s %-7s", r.Standard, r.Layout, state)
		for _, z := range r.Zones {
			fmt.Fprintf(&b, " %s=%s", z.Name, z.Extent)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
