package vqf

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/types"
)

// chunkIDs maps canonical fields to their text chunk, in the order new
// chunks are written.
var chunkIDs = []struct {
	field types.Field
	id    string
}{
	{types.FieldTitle, "NAME"},
	{types.FieldArtist, "AUTH"},
	{types.FieldAlbum, "ALBM"},
	{types.FieldCopyright, "(c) "},
	{types.FieldComment, "COMT"},
	{types.FieldDate, "YEAR"},
	{types.FieldGenre, "GENR"},
	{types.FieldTrackNumber, "TRCK"},
}

func fieldOf(id string) (types.Field, bool) {
	for _, m := range chunkIDs {
		if m.id == id {
			return m.field, true
		}
	}
	return 0, false
}

// structural chunks carry playback data and are never surfaced as tag fields.
func structural(id string) bool {
	switch id {
	case "DSIZ", idComm, idData:
		return true
	}
	return false
}

type chunk struct {
	id   string
	data []byte
}

func (ch chunk) text() string {
	return binary.DecodeText(ch.data)
}

// parseChunks splits a chunk zone. A chunk running past the zone ends the
// walk with a warning.
func parseChunks(b []byte, tag *types.Tag, base int64) []chunk {
	var chunks []chunk
	for pos := 0; pos < len(b); {
		if pos+chunkHeaderSize > len(b) {
			tag.AddWarning("chunk", base+int64(pos), "%d stray bytes after the last chunk", len(b)-pos)
			break
		}
		id := string(b[pos : pos+4])
		n := int(binary.Uint(b[pos+4:pos+8], 4, binary.BigEndian))
		pos += chunkHeaderSize
		if n > len(b)-pos {
			tag.AddWarning("chunk", base+int64(pos), "chunk %q of %d bytes runs past the header", id, n)
			break
		}
		chunks = append(chunks, chunk{id: id, data: b[pos : pos+n]})
		pos += n
	}
	return chunks
}

func serialize(chunks []chunk) []byte {
	sw := binary.NewSafeWriter()
	for _, ch := range chunks {
		sw.WriteString(ch.id)
		binary.Write(sw, uint32(len(ch.data)))
		sw.WriteBytes(ch.data)
	}
	return sw.Bytes()
}

// chunkCodec reads and writes the text chunks of a VQF header.
type chunkCodec struct{}

func (chunkCodec) Standard() types.TagStandard { return types.StandardChunk }
func (chunkCodec) Layout() types.Layout         { return types.LayoutAdditive }

func single(zones []ledger.ZoneData) (ledger.ZoneData, error) {
	if len(zones) != 1 {
		return ledger.ZoneData{}, fmt.Errorf("VQF chunk region has %d zones, want 1", len(zones))
	}
	return zones[0], nil
}

// Read implements registry.MetaCodec. Text is read as UTF-8, or Latin-1
// when the bytes are not valid UTF-8.
func (c chunkCodec) Read(zones []ledger.ZoneData, _ types.ReadOptions) (*types.Tag, error) {
	z, err := single(zones)
	if err != nil {
		return nil, err
	}
	tag := types.NewTag()
	for _, ch := range parseChunks(z.Data, tag, z.Extent.Start) {
		if structural(ch.id) {
			continue
		}
		v := ch.text()
		f, ok := fieldOf(ch.id)
		if !ok {
			tag.SetAdditional(ch.id, v)
			continue
		}
		if err := tag.Set(f, v); err != nil {
			tag.AddWarning("chunk", z.Extent.Start, "%s chunk: %v", ch.id, err)
		}
	}
	return tag, nil
}

// fieldText renders f for its chunk. Dates keep the year only; the track
// carries its total when known.
func fieldText(t *types.Tag, f types.Field) string {
	switch {
	case f == types.FieldDate && t.Date.Year > 0:
		return strconv.Itoa(t.Date.Year)
	case f == types.FieldDate:
		return ""
	case f == types.FieldTrackNumber && t.TrackNumber > 0 && t.TrackTotal > 0:
		return fmt.Sprintf("%d/%d", t.TrackNumber, t.TrackTotal)
	}
	return t.Get(f)
}

// Write implements registry.MetaCodec. Chunks keep their previous order and
// bytes when unchanged, and chunks of fields the update does not name are
// copied verbatim; new chunks go after the last text chunk, or first
// when there was none. Structural chunks are copied verbatim.
func (c chunkCodec) Write(prev []ledger.ZoneData, u *types.Update) ([][]byte, error) {
	if err := validate(u); err != nil {
		return nil, err
	}
	z, err := single(prev)
	if err != nil {
		return nil, err
	}
	before, err := c.Read(prev, types.ReadOptions{})
	if err != nil {
		return nil, err
	}
	after := before.Clone()
	if err := after.Apply(u, types.StandardChunk); err != nil {
		return nil, err
	}
	if before.Equal(after) {
		return [][]byte{z.Data}, nil
	}

	var order []string
	want := make(map[string]string)
	add := func(id, v string) {
		if v == "" {
			return
		}
		if _, dup := want[id]; !dup {
			order = append(order, id)
		}
		want[id] = v
	}
	for _, m := range chunkIDs {
		add(m.id, fieldText(after, m.field))
	}
	for id, v := range after.Additional() {
		if _, canonical := fieldOf(id); !canonical && !structural(id) {
			add(id, v)
		}
	}

	var out []chunk
	emitted := make(map[string]bool)
	insertAt := -1
	for _, ch := range parseChunks(z.Data, types.NewTag(), 0) {
		if structural(ch.id) {
			out = append(out, ch)
			continue
		}
		if f, canonical := fieldOf(ch.id); canonical && !u.Touches(f) {
			emitted[ch.id] = true
			out = append(out, ch)
			insertAt = len(out)
			continue
		}
		v, ok := want[ch.id]
		if !ok || emitted[ch.id] {
			continue
		}
		emitted[ch.id] = true
		if ch.text() != v {
			ch = chunk{id: ch.id, data: []byte(v)}
		}
		out = append(out, ch)
		insertAt = len(out)
	}
	if insertAt < 0 {
		insertAt = 0
	}

	var fresh []chunk
	for _, id := range order {
		if !emitted[id] {
			fresh = append(fresh, chunk{id: id, data: []byte(want[id])})
		}
	}
	out = slices.Insert(out, insertAt, fresh...)
	return [][]byte{serialize(out)}, nil
}

// Remove implements registry.MetaCodec. Only structural chunks survive.
func (c chunkCodec) Remove(prev []ledger.ZoneData) ([][]byte, error) {
	z, err := single(prev)
	if err != nil {
		return nil, err
	}
	chunks := slices.DeleteFunc(parseChunks(z.Data, types.NewTag(), 0), func(ch chunk) bool {
		return !structural(ch.id)
	})
	return [][]byte{serialize(chunks)}, nil
}

func validate(u *types.Update) error {
	if u == nil {
		return nil
	}
	for _, fu := range u.Additional {
		if fu.Standard != types.StandardChunk {
			continue
		}
		if !validID(fu.ID) || structural(fu.ID) {
			return fmt.Errorf("%w: %q is not a writable VQF chunk ID", types.ErrInvalidUpdate, fu.ID)
		}
	}
	return nil
}

func validID(id string) bool {
	if len(id) != 4 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}
