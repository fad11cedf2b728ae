package spc

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/types"
)

// Additional-field keys for header slots with no xid6 counterpart. They sit
// above the documented xid6 IDs so they never collide with real items.
const (
	KeyDumper   = "162"
	KeyDumpDate = "163"
	KeySeconds  = "164"
	KeyFade     = "165"
	KeyEmulator = "166"
)

func headerKey(k string) bool {
	switch k {
	case KeyDumper, KeyDumpDate, KeySeconds, KeyFade, KeyEmulator:
		return true
	}
	return false
}

// canonicalIDs are the xid6 items backing canonical fields. Additional
// entries with these IDs are kept in memory but never written.
var canonicalIDs = map[byte]bool{
	idSong: true, idGame: true, idArtist: true, idComments: true,
	idDisc: true, idTrack: true, idPublisher: true, idCopyright: true,
}

// nativeCodec handles the ID666 header and its xid6 extension as one
// embedded region of two zones.
type nativeCodec struct{}

func (nativeCodec) Standard() types.TagStandard { return types.StandardNative }
func (nativeCodec) Layout() types.Layout         { return types.LayoutEmbedded }

type state struct {
	hdr   []byte
	items []xitem
	h     header
}

func load(zones []ledger.ZoneData, tag *types.Tag) (state, error) {
	if len(zones) != 2 {
		return state{}, fmt.Errorf("SPC native region has %d zones, want header and xid6", len(zones))
	}
	hdr := zones[0].Data
	if len(hdr) != headerLen {
		return state{}, fmt.Errorf("ID666 header is %d bytes, want %d", len(hdr), headerLen)
	}
	return state{
		hdr:   hdr,
		h:     decodeHeader(hdr),
		items: parseXID6(zones[1].Data, tag, zones[1].Extent.Start),
	}, nil
}

// Read implements registry.MetaCodec.
func (c nativeCodec) Read(zones []ledger.ZoneData, _ types.ReadOptions) (*types.Tag, error) {
	tag := types.NewEmbeddedTag()
	st, err := load(zones, tag)
	if err != nil {
		return nil, err
	}

	if h := st.h; h.present {
		tag.Title, tag.Album, tag.Artist, tag.Comment = h.title, h.game, h.artist, h.comment
		for _, kv := range [][2]string{
			{KeyDumper, h.dumper},
			{KeyDumpDate, h.dumpDate},
			{KeySeconds, itoa(h.seconds)},
			{KeyFade, itoa(h.fadeMS)},
			{KeyEmulator, itoa(h.emulator)},
		} {
			if kv[1] != "" {
				tag.SetAdditional(kv[0], kv[1])
			}
		}
	}

	for _, it := range st.items {
		if !it.surfaced() {
			continue
		}
		v := it.value()
		num := atoi(v)
		if it.typ == typeData {
			num = int(it.short)
		}
		switch it.id {
		case idSong:
			tag.Title = v
		case idGame:
			tag.Album = v
		case idArtist:
			tag.Artist = v
		case idComments:
			tag.Comment = v
		case idPublisher:
			tag.Publisher = v
		case idDisc:
			tag.DiscNumber = num
		case idTrack:
			// High byte is the track, low byte an optional letter.
			tag.TrackNumber = num >> 8
		case idCopyright:
			if num > 0 {
				tag.Date = types.Date{Year: num}
			}
		default:
			tag.SetAdditional(strconv.Itoa(int(it.id)), v)
		}
	}
	return tag, nil
}

// Write implements registry.MetaCodec. It returns the rewritten header zone,
// always the same length, and the new xid6 chunk, empty when no item is left.
func (c nativeCodec) Write(prev []ledger.ZoneData, u *types.Update) ([][]byte, error) {
	if err := validate(u); err != nil {
		return nil, err
	}
	st, err := load(prev, types.NewTag())
	if err != nil {
		return nil, err
	}
	before, err := c.Read(prev, types.ReadOptions{})
	if err != nil {
		return nil, err
	}
	after := before.Clone()
	if err := after.Apply(u, types.StandardNative); err != nil {
		return nil, err
	}
	if before.Equal(after) {
		return [][]byte{prev[0].Data, prev[1].Data}, nil
	}

	h := header{
		present: true,
		binary:  st.h.binary,
		title:   after.Title,
		game:    after.Album,
		artist:  after.Artist,
		comment: after.Comment,
	}
	h.dumper, _ = after.AdditionalField(KeyDumper)
	h.dumpDate, _ = after.AdditionalField(KeyDumpDate)
	if v, ok := after.AdditionalField(KeySeconds); ok {
		h.seconds = atoi(v)
	}
	if v, ok := after.AdditionalField(KeyFade); ok {
		h.fadeMS = atoi(v)
	}
	if v, ok := after.AdditionalField(KeyEmulator); ok {
		h.emulator = atoi(v)
	}

	return [][]byte{encodeHeader(st.hdr, h), serializeXID6(buildItems(st.items, after))}, nil
}

// buildItems computes the xid6 items for t. Items of the previous chunk keep
// their order and, when the value is unchanged, their bytes; new items follow
// in ID order.
func buildItems(prev []xitem, t *types.Tag) []xitem {
	old := make(map[byte]xitem, len(prev))
	for _, it := range prev {
		if _, dup := old[it.id]; !dup {
			old[it.id] = it
		}
	}

	want := make(map[byte]xitem)
	put := func(it xitem) {
		if o, ok := old[it.id]; ok && o.surfaced() && o.value() == it.value() {
			it = o
		}
		want[it.id] = it
	}
	// Text fields overflow into xid6 when the header slot cannot hold them,
	// and stay there once present.
	for _, f := range []struct {
		id byte
		v  string
	}{
		{idSong, t.Title}, {idGame, t.Album}, {idArtist, t.Artist}, {idComments, t.Comment},
	} {
		_, had := old[f.id]
		if f.v != "" && (had || !fits(f.v, 32)) {
			put(newItem(f.id, typeString, f.v))
		}
	}
	if t.Publisher != "" {
		put(newItem(idPublisher, typeString, t.Publisher))
	}
	if t.DiscNumber > 0 && t.DiscNumber <= 0xFFFF {
		put(xitem{id: idDisc, typ: typeData, short: uint16(t.DiscNumber)})
	}
	if t.TrackNumber > 0 && t.TrackNumber <= 0xFF {
		short := uint16(t.TrackNumber) << 8
		if o, ok := old[idTrack]; ok && o.typ == typeData {
			short |= o.short & 0xFF
		}
		put(xitem{id: idTrack, typ: typeData, short: short})
	}
	if y := t.Date.Year; y > 0 && y <= 0xFFFF {
		put(xitem{id: idCopyright, typ: typeData, short: uint16(y)})
	}

	for key, v := range t.Additional() {
		if headerKey(key) {
			continue
		}
		id, err := parseID(key)
		if err != nil || canonicalIDs[id] {
			continue
		}
		typ, known := knownTypes[id]
		if !known {
			typ = typeString
			if o, ok := old[id]; ok && (o.typ == typeData || o.typ == typeInt) {
				typ = o.typ
			}
		}
		put(newItem(id, typ, v))
	}

	var items []xitem
	emitted := make(map[byte]bool)
	for _, it := range prev {
		if emitted[it.id] {
			continue
		}
		if w, ok := want[it.id]; ok {
			items = append(items, w)
			emitted[it.id] = true
			continue
		}
		if !it.surfaced() {
			// Item types this codec does not model are carried over as is.
			items = append(items, it)
			emitted[it.id] = true
		}
	}
	for _, id := range slices.Sorted(maps.Keys(want)) {
		if !emitted[id] {
			items = append(items, want[id])
		}
	}
	return items
}

// Remove implements registry.MetaCodec. The descriptive header slots are
// zeroed in place and the xid6 chunk is dropped; the tag itself remains.
func (c nativeCodec) Remove(prev []ledger.ZoneData) ([][]byte, error) {
	st, err := load(prev, types.NewTag())
	if err != nil {
		return nil, err
	}
	return [][]byte{clearHeader(st.hdr), nil}, nil
}

func validate(u *types.Update) error {
	if u == nil {
		return nil
	}
	for _, fu := range u.Additional {
		if fu.Standard != types.StandardNative || headerKey(fu.ID) {
			continue
		}
		if _, err := parseID(fu.ID); err != nil {
			return err
		}
	}
	return nil
}
