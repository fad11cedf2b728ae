// Package id3v2 reads and writes ID3v2.3 and ID3v2.4 tags on top of
// github.com/bogem/id3v2.
//
// Rating is a 0-5 star value backed by the first POPM frame, scaled to the
// 1-255 byte the way Windows Media Player writes it.
//
// Frames with no canonical mapping are kept: text frames surface as
// additional fields keyed by frame ID, user-defined text frames as
// "TXXX:<description>", and every other frame is carried over untouched.
package id3v2

import (
	"bytes"
	"fmt"
	"maps"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/gabriel-vasile/mimetype"

	"github.com/simonhull/audiotag/internal/id3v1"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/types"
)

// UserTextPrefix prefixes additional-field IDs backed by TXXX frames.
const UserTextPrefix = "TXXX:"

const (
	frameComment  = "COMM"
	framePicture  = "APIC"
	frameRating   = "POPM"
	frameUserText = "TXXX"
	frameTrack    = "TRCK"
	frameDisc     = "TPOS"
)

// frameIDs maps canonical fields to text frame IDs shared by v2.3 and v2.4.
// Date, Comment and positions are handled separately.
var frameIDs = map[types.Field]string{
	types.FieldTitle:          "TIT2",
	types.FieldArtist:         "TPE1",
	types.FieldAlbum:          "TALB",
	types.FieldAlbumArtist:    "TPE2",
	types.FieldComposer:       "TCOM",
	types.FieldConductor:      "TPE3",
	types.FieldPublisher:      "TPUB",
	types.FieldCopyright:      "TCOP",
	types.FieldOriginalArtist: "TOPE",
	types.FieldOriginalAlbum:  "TOAL",
	types.FieldGenre:          "TCON",
}

var idFields = func() map[string]types.Field {
	m := map[string]types.Field{
		"TDRC":     types.FieldDate,
		"TYER":     types.FieldDate,
		frameTrack: types.FieldTrackNumber,
		frameDisc:  types.FieldDiscNumber,
	}
	for f, id := range frameIDs {
		m[id] = f
	}
	return m
}()

// Codec is the ID3v2 metadata codec.
type Codec struct{}

// New returns an ID3v2 codec.
func New() *Codec {
	return &Codec{}
}

// Standard implements registry.MetaCodec.
func (c *Codec) Standard() types.TagStandard { return types.StandardID3v2 }

// Layout implements registry.MetaCodec.
func (c *Codec) Layout() types.Layout { return types.LayoutAdditive }

func parse(data []byte) (*id3v2.Tag, error) {
	if len(data) == 0 {
		t := id3v2.NewEmptyTag()
		t.SetVersion(4)
		return t, nil
	}
	t, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("parse ID3v2: %w", err)
	}
	return t, nil
}

func zoneData(zones []ledger.ZoneData) ([]byte, int64) {
	if len(zones) == 0 {
		return nil, 0
	}
	return zones[0].Data, zones[0].Extent.Start
}

// Read implements registry.MetaCodec.
func (c *Codec) Read(zones []ledger.ZoneData, opts types.ReadOptions) (*types.Tag, error) {
	data, base := zoneData(zones)
	tag := types.NewTag()
	if len(data) == 0 {
		return tag, nil
	}
	bt, err := parse(data)
	if err != nil {
		return nil, err
	}

	all := bt.AllFrames()
	for _, id := range slices.Sorted(maps.Keys(all)) {
		for i, fr := range all[id] {
			switch f := fr.(type) {
			case id3v2.TextFrame:
				readText(tag, id, clean(f.Text), base)
			case id3v2.UserDefinedTextFrame:
				tag.SetAdditional(UserTextPrefix+f.Description, clean(f.Value))
			case id3v2.PopularimeterFrame:
				if tag.Rating == 0 {
					tag.Rating = stars(f.Rating)
				}
			case id3v2.CommentFrame:
				if tag.Comment == "" && (f.Description == "" || i == 0) {
					tag.Comment = clean(f.Text)
				}
			case id3v2.PictureFrame:
				mime := f.MimeType
				if mime == "" || !strings.Contains(mime, "/") {
					mime = mimetype.Detect(f.Picture).String()
				}
				opts.DeliverPicture(tag, types.StandardID3v2, types.Picture{
					Type:        types.PictureType(f.PictureType),
					MIMEType:    mime,
					Description: f.Description,
					Data:        f.Picture,
				}, base)
			}
		}
	}
	return tag, nil
}

func readText(tag *types.Tag, id, text string, base int64) {
	f, ok := idFields[id]
	if !ok {
		if id != frameUserText && strings.HasPrefix(id, "T") {
			tag.SetAdditional(id, text)
		}
		return
	}
	if f == types.FieldGenre {
		text = resolveGenre(text)
	}
	if f == types.FieldDate && tag.Get(f) != "" {
		return
	}
	if err := tag.Set(f, text); err != nil {
		tag.AddWarning("id3v2", base, "frame %s: %v", id, err)
	}
}

// resolveGenre expands "(17)", "(17)Rock" and "17" references to ID3v1 genre names.
func resolveGenre(s string) string {
	if strings.HasPrefix(s, "(") {
		ref, rest, ok := strings.Cut(s[1:], ")")
		if ok {
			if rest != "" {
				return rest
			}
			s = ref
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if name := id3v1.GenreName(n); name != "" {
			return name
		}
	}
	return s
}

func clean(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\x00"), "\x00", ";")
}

// Write implements registry.MetaCodec.
//
// The previous tag is re-parsed so frames with no canonical mapping survive.
// When the update changes nothing the previous bytes are returned as is.
func (c *Codec) Write(prev []ledger.ZoneData, u *types.Update) ([][]byte, error) {
	if err := validate(u); err != nil {
		return nil, err
	}
	data, _ := zoneData(prev)
	before, err := c.Read(prev, types.ReadOptions{})
	if err != nil {
		return nil, err
	}
	after := before.Clone()
	if err := after.Apply(u, types.StandardID3v2); err != nil {
		return nil, err
	}
	if len(data) > 0 && before.Equal(after) {
		return [][]byte{data}, nil
	}
	if after.Rating < 0 || after.Rating > maxStars {
		return nil, fmt.Errorf("%w: ID3v2 rating %d is outside 0-%d", types.ErrInvalidUpdate, after.Rating, maxStars)
	}

	bt, err := parse(data)
	if err != nil {
		return nil, err
	}
	enc := id3v2.EncodingUTF8
	if bt.Version() == 3 {
		enc = id3v2.EncodingUTF16
	}

	for _, f := range types.AllFields() {
		if before.Get(f) != after.Get(f) {
			setField(bt, f, after, enc)
		}
	}
	writeAdditional(bt, before, after, enc)

	if u.ClearPictures || len(u.Pictures) > 0 {
		bt.DeleteFrames(framePicture)
		for _, p := range after.Pictures {
			mime := p.MIMEType
			if mime == "" {
				mime = mimetype.Detect(p.Data).String()
			}
			bt.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    enc,
				MimeType:    mime,
				PictureType: byte(p.Type),
				Description: p.Description,
				Picture:     p.Data,
			})
		}
	}

	if bt.Count() == 0 {
		return [][]byte{nil}, nil
	}
	var buf bytes.Buffer
	if _, err := bt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize ID3v2: %w", err)
	}
	return [][]byte{buf.Bytes()}, nil
}

// Remove implements registry.MetaCodec: the whole tag is deleted.
func (c *Codec) Remove(prev []ledger.ZoneData) ([][]byte, error) {
	return make([][]byte, max(len(prev), 1)), nil
}

func validate(u *types.Update) error {
	if u == nil {
		return nil
	}
	for _, fu := range u.Additional {
		if fu.Standard != types.StandardID3v2 || writableID(fu.ID) {
			continue
		}
		return fmt.Errorf("%w: %q is neither a text frame ID nor %s<description>",
			types.ErrInvalidUpdate, fu.ID, UserTextPrefix)
	}
	return nil
}

func writableID(id string) bool {
	if strings.HasPrefix(id, UserTextPrefix) {
		return true
	}
	if len(id) != 4 || id[0] != 'T' || id == frameUserText {
		return false
	}
	for i := 1; i < 4; i++ {
		if (id[i] < 'A' || id[i] > 'Z') && (id[i] < '0' || id[i] > '9') {
			return false
		}
	}
	return true
}

func setField(bt *id3v2.Tag, f types.Field, t *types.Tag, enc id3v2.Encoding) {
	switch f {
	case types.FieldRating:
		setRating(bt, t.Rating)
		return
	case types.FieldComment:
		bt.DeleteFrames(frameComment)
		if t.Comment != "" {
			bt.AddCommentFrame(id3v2.CommentFrame{
				Encoding: enc,
				Language: "eng",
				Text:     t.Comment,
			})
		}
		return
	case types.FieldDate:
		bt.DeleteFrames("TDRC")
		bt.DeleteFrames("TYER")
		if t.Date.IsZero() {
			return
		}
		if bt.Version() == 3 {
			bt.AddTextFrame("TYER", enc, strconv.Itoa(t.Date.Year))
		} else {
			bt.AddTextFrame("TDRC", enc, t.Date.String())
		}
		return
	}

	id, value := frameIDs[f], t.Get(f)
	switch f {
	case types.FieldTrackNumber, types.FieldTrackTotal:
		id, value = frameTrack, position(t.TrackNumber, t.TrackTotal)
	case types.FieldDiscNumber:
		id = frameDisc
	}
	if value == "" {
		bt.DeleteFrames(id)
		return
	}
	bt.AddTextFrame(id, enc, value)
}

const maxStars = 5

// starBytes holds the POPM byte written for one to five stars.
var starBytes = [maxStars + 1]byte{0, 1, 64, 128, 196, 255}

func stars(b byte) int {
	switch {
	case b == 0:
		return 0
	case b < 32:
		return 1
	case b < 96:
		return 2
	case b < 160:
		return 3
	case b < 224:
		return 4
	}
	return 5
}

// setRating rewrites the rating byte of the first POPM frame, keeping its
// email and play counter. A zero rating drops every POPM frame.
func setRating(bt *id3v2.Tag, n int) {
	if n == 0 {
		bt.DeleteFrames(frameRating)
		return
	}
	pf := id3v2.PopularimeterFrame{Counter: big.NewInt(0)}
	for _, fr := range bt.GetFrames(frameRating) {
		if prev, ok := fr.(id3v2.PopularimeterFrame); ok {
			pf = prev
			if pf.Counter == nil {
				pf.Counter = big.NewInt(0)
			}
			break
		}
	}
	pf.Rating = starBytes[n]
	bt.AddFrame(frameRating, pf)
}

func position(n, total int) string {
	switch {
	case n <= 0:
		return ""
	case total > 0:
		return fmt.Sprintf("%d/%d", n, total)
	default:
		return strconv.Itoa(n)
	}
}

func writeAdditional(bt *id3v2.Tag, before, after *types.Tag, enc id3v2.Encoding) {
	changed := make(map[string]bool)
	for id, v := range after.Additional() {
		if old, ok := before.AdditionalField(id); !ok || old != v {
			changed[id] = true
		}
	}
	for id := range before.Additional() {
		if _, ok := after.AdditionalField(id); !ok {
			changed[id] = true
		}
	}

	userText := false
	for _, id := range slices.Sorted(maps.Keys(changed)) {
		if strings.HasPrefix(id, UserTextPrefix) {
			userText = true
			continue
		}
		if _, canonical := idFields[id]; canonical || !writableID(id) {
			continue
		}
		if v, ok := after.AdditionalField(id); ok {
			bt.AddTextFrame(id, enc, v)
		} else {
			bt.DeleteFrames(id)
		}
	}

	// TXXX frames share one ID, so the set is rebuilt from the tag.
	if userText {
		bt.DeleteFrames(frameUserText)
		for id, v := range after.Additional() {
			desc, ok := strings.CutPrefix(id, UserTextPrefix)
			if !ok {
				continue
			}
			bt.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
				Encoding:    enc,
				Description: desc,
				Value:       v,
			})
		}
	}
}
