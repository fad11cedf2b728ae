// Package ape reads and writes APEv2 tags.
//
// The tag is a trailer: an optional 32-byte header, the items, and a
// mandatory 32-byte footer, placed before any ID3v1 tag. Tags are always
// written with both header and footer.
package ape

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/types"
)

const (
	preamble      = "APETAGEX"
	version       = 2000
	footerSize    = 32
	flagHasHeader = 1 << 31
	flagIsHeader  = 1 << 29

	itemTypeMask   = 0x6
	itemTypeBinary = 0x2

	coverArtPrefix = "COVER ART ("
	maxItems       = 4096
)

// fieldKeys lists canonical fields with the item key written for them.
var fieldKeys = []struct {
	key   string
	field types.Field
}{
	{"Title", types.FieldTitle},
	{"Artist", types.FieldArtist},
	{"Album", types.FieldAlbum},
	{"Album Artist", types.FieldAlbumArtist},
	{"Composer", types.FieldComposer},
	{"Conductor", types.FieldConductor},
	{"Publisher", types.FieldPublisher},
	{"Copyright", types.FieldCopyright},
	{"Original Artist", types.FieldOriginalArtist},
	{"Original Album", types.FieldOriginalAlbum},
	{"Comment", types.FieldComment},
	{"Genre", types.FieldGenre},
	{"Year", types.FieldDate},
	{"Track", types.FieldTrackNumber},
	{"Disc", types.FieldDiscNumber},
	{"Rating", types.FieldRating},
}

// keyFields maps upper-cased item keys, including common aliases, to fields.
var keyFields = func() map[string]types.Field {
	m := map[string]types.Field{
		"ALBUMARTIST": types.FieldAlbumArtist,
		"DATE":        types.FieldDate,
		"TRACKNUMBER": types.FieldTrackNumber,
		"DISCNUMBER":  types.FieldDiscNumber,
		"LABEL":       types.FieldPublisher,
	}
	for _, fk := range fieldKeys {
		m[strings.ToUpper(fk.key)] = fk.field
	}
	return m
}()

// Codec is the APEv2 metadata codec. It is stateless and safe for concurrent use.
type Codec struct{}

// New returns an APEv2 codec.
func New() *Codec {
	return &Codec{}
}

// Standard implements registry.MetaCodec.
func (c *Codec) Standard() types.TagStandard { return types.StandardAPE }

// Layout implements registry.MetaCodec.
func (c *Codec) Layout() types.Layout { return types.LayoutAdditive }

type item struct {
	key   string
	raw   []byte
	flags uint32
}

func (it item) isBinary() bool {
	return it.flags&itemTypeMask == itemTypeBinary
}

func (it item) text() string {
	return strings.ReplaceAll(string(it.raw), "\x00", ";")
}

func (it item) picture() bool {
	return it.isBinary() && strings.HasPrefix(strings.ToUpper(it.key), coverArtPrefix)
}

// Read implements registry.MetaCodec.
func (c *Codec) Read(zones []ledger.ZoneData, opts types.ReadOptions) (*types.Tag, error) {
	tag := types.NewTag()
	if len(zones) == 0 || len(zones[0].Data) == 0 {
		return tag, nil
	}
	z := zones[0]
	items, err := parse(z.Data, tag, z.Extent.Start)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		switch {
		case it.picture():
			if p, ok := decodePicture(it); ok {
				opts.DeliverPicture(tag, types.StandardAPE, p, z.Extent.Start)
			} else {
				tag.AddWarning("ape", z.Extent.Start, "picture item %q has no description terminator", it.key)
			}
		case it.isBinary():
			// Non-picture binary items are preserved on write but not surfaced.
		default:
			if f, ok := keyFields[strings.ToUpper(it.key)]; ok {
				if tag.Get(f) == "" {
					if err := tag.Set(f, it.text()); err != nil {
						tag.AddWarning("ape", z.Extent.Start, "item %q: %v", it.key, err)
					}
				}
				continue
			}
			tag.SetAdditional(it.key, it.text())
		}
	}
	return tag, nil
}

// Write implements registry.MetaCodec.
//
// Items keep their previous order. Items of fields the update does not
// name are emitted byte for byte, even when their value did not decode;
// new canonical fields follow in canonical order, then new additional
// fields, then replaced pictures.
func (c *Codec) Write(prev []ledger.ZoneData, u *types.Update) ([][]byte, error) {
	var prevData []byte
	if len(prev) > 0 {
		prevData = prev[0].Data
	}
	scratch := types.NewTag()
	items, err := parse(prevData, scratch, 0)
	if err != nil {
		return nil, err
	}

	tag, err := c.Read(prev, types.ReadOptions{SkipPictures: true})
	if err != nil {
		return nil, err
	}
	if err := tag.Apply(u, types.StandardAPE); err != nil {
		return nil, err
	}
	replacePictures := u.ClearPictures || len(u.Pictures) > 0

	var out []item
	emittedField := make(map[types.Field]bool)
	emittedExtra := make(map[string]bool)

	for _, it := range items {
		switch {
		case it.picture():
			if !replacePictures {
				out = append(out, it)
			}
		case it.isBinary():
			out = append(out, it)
		default:
			if f, ok := keyFields[strings.ToUpper(it.key)]; ok {
				if !u.Touches(f) {
					emittedField[f] = true
					out = append(out, it)
					continue
				}
				if emittedField[f] {
					continue
				}
				emittedField[f] = true
				if v := fieldValue(tag, f); v != "" {
					out = append(out, textItem(it, v))
				}
				continue
			}
			if v, ok := tag.AdditionalField(it.key); ok && !emittedExtra[it.key] {
				emittedExtra[it.key] = true
				out = append(out, textItem(it, v))
			}
		}
	}

	for _, fk := range fieldKeys {
		if emittedField[fk.field] {
			continue
		}
		if v := fieldValue(tag, fk.field); v != "" {
			out = append(out, item{key: fk.key, raw: []byte(v)})
		}
	}

	for id, v := range tag.Additional() {
		if emittedExtra[id] {
			continue
		}
		if _, canonical := keyFields[strings.ToUpper(id)]; canonical || !validKey(id) {
			continue
		}
		out = append(out, item{key: id, raw: []byte(v)})
	}

	if replacePictures {
		for _, p := range tag.Pictures {
			out = append(out, encodePicture(p))
		}
	}

	if len(out) == 0 {
		return [][]byte{nil}, nil
	}
	return [][]byte{serialize(out)}, nil
}

// Remove implements registry.MetaCodec: the whole trailer is deleted.
func (c *Codec) Remove(prev []ledger.ZoneData) ([][]byte, error) {
	return make([][]byte, len(prev)), nil
}

func fieldValue(tag *types.Tag, f types.Field) string {
	if f == types.FieldTrackNumber && tag.TrackNumber > 0 && tag.TrackTotal > 0 {
		return fmt.Sprintf("%d/%d", tag.TrackNumber, tag.TrackTotal)
	}
	return tag.Get(f)
}

// textItem reuses the previous item bytes when the value did not change.
func textItem(prev item, v string) item {
	if prev.text() == v {
		return prev
	}
	return item{key: prev.key, flags: prev.flags &^ itemTypeMask, raw: []byte(v)}
}

func validKey(k string) bool {
	if len(k) < 2 || len(k) > 255 {
		return false
	}
	for i := 0; i < len(k); i++ {
		if k[i] < 0x20 || k[i] > 0x7E {
			return false
		}
	}
	return true
}

// parse decodes the items of a tag region laid out as [header] items footer.
// Malformed items stop the walk with a warning; the items before them survive.
func parse(data []byte, tag *types.Tag, base int64) ([]item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < footerSize {
		return nil, fmt.Errorf("APE region of %d bytes is shorter than a footer", len(data))
	}
	footer := data[len(data)-footerSize:]
	if string(footer[:8]) != preamble {
		return nil, fmt.Errorf("APE footer preamble missing at offset %d", base+int64(len(data)-footerSize))
	}
	tagSize := int(binary.Uint(footer[12:16], 4, binary.LittleEndian))
	count := int(binary.Uint(footer[16:20], 4, binary.LittleEndian))
	if tagSize < footerSize || tagSize > len(data) {
		return nil, fmt.Errorf("APE tag size %d does not fit region of %d bytes", tagSize, len(data))
	}

	body := data[len(data)-tagSize : len(data)-footerSize]
	items := make([]item, 0, min(count, maxItems))
	pos := 0
	for i := 0; i < count && i < maxItems; i++ {
		if pos+8 > len(body) {
			tag.AddWarning("ape", base, "item %d header runs past footer", i)
			break
		}
		size := int(binary.Uint(body[pos:pos+4], 4, binary.LittleEndian))
		flags := uint32(binary.Uint(body[pos+4:pos+8], 4, binary.LittleEndian))
		keyEnd := bytes.IndexByte(body[pos+8:], 0)
		if keyEnd < 0 {
			tag.AddWarning("ape", base, "item %d key is not terminated", i)
			break
		}
		key := string(body[pos+8 : pos+8+keyEnd])
		valStart := pos + 8 + keyEnd + 1
		if size < 0 || valStart+size > len(body) {
			tag.AddWarning("ape", base, "item %q value of %d bytes runs past footer", key, size)
			break
		}
		pos = valStart + size
		if !validKey(key) {
			tag.AddWarning("ape", base, "item %d has invalid key %q", i, key)
			continue
		}
		items = append(items, item{key: key, flags: flags, raw: bytes.Clone(body[valStart:pos])})
	}
	return items, nil
}

func serialize(items []item) []byte {
	body := binary.NewSafeWriter()
	for _, it := range items {
		binary.WriteLE(body, uint32(len(it.raw)))
		binary.WriteLE(body, it.flags)
		body.WriteString(it.key)
		body.WriteZeros(1)
		body.WriteBytes(it.raw)
	}

	tagSize := uint32(body.Offset()) + footerSize
	sw := binary.NewSafeWriter()
	writeHeader(sw, tagSize, uint32(len(items)), flagHasHeader|flagIsHeader)
	sw.WriteBytes(body.Bytes())
	writeHeader(sw, tagSize, uint32(len(items)), flagHasHeader)
	return sw.Bytes()
}

func writeHeader(sw *binary.SafeWriter, tagSize, count, flags uint32) {
	sw.WriteString(preamble)
	binary.WriteLE[uint32](sw, version)
	binary.WriteLE(sw, tagSize)
	binary.WriteLE(sw, count)
	binary.WriteLE(sw, flags)
	sw.WriteZeros(8)
}

func decodePicture(it item) (types.Picture, bool) {
	desc, data, ok := bytes.Cut(it.raw, []byte{0})
	if !ok {
		return types.Picture{}, false
	}
	name := strings.TrimSuffix(it.key[len(coverArtPrefix):], ")")
	return types.Picture{
		Type:        types.ParsePictureType(name),
		Description: string(desc),
		MIMEType:    mimetype.Detect(data).String(),
		Data:        data,
	}, true
}

func encodePicture(p types.Picture) item {
	raw := make([]byte, 0, len(p.Description)+1+len(p.Data))
	raw = append(raw, p.Description...)
	raw = append(raw, 0)
	raw = append(raw, p.Data...)
	return item{
		key:   "Cover Art (" + p.Type.String() + ")",
		flags: itemTypeBinary,
		raw:   raw,
	}
}
