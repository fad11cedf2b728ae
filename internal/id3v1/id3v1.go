// Package id3v1 reads and writes the 128-byte ID3v1/ID3v1.1 trailer.
package id3v1

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/types"
)

// Size is the fixed length of an ID3v1 tag.
const Size = 128

const (
	noGenre     = 0xFF
	yearOffset  = 93
	genreOffset = 127
)

// Codec is the ID3v1 metadata codec. ID3v1 has no room for additional
// fields or pictures; update entries for them are ignored.
type Codec struct{}

// New returns an ID3v1 codec.
func New() *Codec {
	return &Codec{}
}

// Standard implements registry.MetaCodec.
func (c *Codec) Standard() types.TagStandard { return types.StandardID3v1 }

// Layout implements registry.MetaCodec.
func (c *Codec) Layout() types.Layout { return types.LayoutAdditive }

// Read implements registry.MetaCodec.
func (c *Codec) Read(zones []ledger.ZoneData, _ types.ReadOptions) (*types.Tag, error) {
	t := types.NewTag()
	if len(zones) == 0 || len(zones[0].Data) == 0 {
		return t, nil
	}
	data := zones[0].Data
	if len(data) != Size {
		return nil, fmt.Errorf("ID3v1 region is %d bytes, want %d", len(data), Size)
	}

	m, err := tag.ReadID3v1Tags(bytes.NewReader(data))
	if errors.Is(err, tag.ErrNotID3v1) {
		return nil, fmt.Errorf("ID3v1 region at offset %d lacks the TAG marker", zones[0].Extent.Start)
	}
	if err != nil {
		return nil, fmt.Errorf("decode ID3v1: %w", err)
	}

	// The decoder returns raw bytes; ID3v1 text is ISO-8859-1.
	t.Title = latin1(m.Title())
	t.Artist = latin1(m.Artist())
	t.Album = latin1(m.Album())
	t.Comment = latin1(m.Comment())
	t.Genre = m.Genre()
	if y := m.Year(); y > 0 {
		t.Date = types.Date{Year: y}
	}
	t.TrackNumber, _ = m.Track()
	return t, nil
}

// Write implements registry.MetaCodec.
//
// A year or genre byte that did not decode is copied from the previous tag
// unless the update names that field.
func (c *Codec) Write(prev []ledger.ZoneData, u *types.Update) ([][]byte, error) {
	t, err := c.Read(prev, types.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if err := t.Apply(u, types.StandardID3v1); err != nil {
		return nil, err
	}
	out := Encode(t)
	if len(prev) > 0 && len(prev[0].Data) == Size {
		old := prev[0].Data
		if t.Date.IsZero() && !u.Touches(types.FieldDate) {
			copy(out[yearOffset:yearOffset+4], old[yearOffset:yearOffset+4])
		}
		if t.Genre == "" && !u.Touches(types.FieldGenre) {
			out[genreOffset] = old[genreOffset]
		}
	}
	empty := t.Title == "" && t.Artist == "" && t.Album == "" && t.Comment == "" &&
		t.Genre == "" && t.Date.IsZero() && t.TrackNumber == 0
	if empty && bytes.Equal(out, Encode(types.NewTag())) {
		return [][]byte{nil}, nil
	}
	return [][]byte{out}, nil
}

// Remove implements registry.MetaCodec: the trailer is deleted.
func (c *Codec) Remove(prev []ledger.ZoneData) ([][]byte, error) {
	return make([][]byte, max(len(prev), 1)), nil
}

// Encode renders the fields of t as an ID3v1.1 block. Track numbers above
// 255 do not fit and are dropped.
func Encode(t *types.Tag) []byte {
	sw := binary.NewSafeWriter()
	sw.WriteString("TAG")
	sw.WritePadded(binary.EncodeLatin1(t.Title), 30)
	sw.WritePadded(binary.EncodeLatin1(t.Artist), 30)
	sw.WritePadded(binary.EncodeLatin1(t.Album), 30)
	year := ""
	if !t.Date.IsZero() {
		year = strconv.Itoa(t.Date.Year)
	}
	sw.WritePadded([]byte(year), 4)
	if t.TrackNumber > 0 && t.TrackNumber <= 255 {
		sw.WritePadded(binary.EncodeLatin1(t.Comment), 28)
		sw.WriteZeros(1)
		sw.WriteBytes([]byte{byte(t.TrackNumber)})
	} else {
		sw.WritePadded(binary.EncodeLatin1(t.Comment), 30)
	}
	sw.WriteBytes([]byte{GenreIndex(t.Genre)})
	return sw.Bytes()
}

// GenreIndex returns the ID3v1 genre byte for name, or 0xFF when unknown.
func GenreIndex(name string) byte {
	for i, g := range Genres {
		if strings.EqualFold(g, name) {
			return byte(i)
		}
	}
	return noGenre
}

// GenreName returns the genre at index i, or "" when out of range.
func GenreName(i int) string {
	if i < 0 || i >= len(Genres) {
		return ""
	}
	return Genres[i]
}

func latin1(s string) string {
	return binary.DecodeLatin1([]byte(s))
}

// Genres is the ID3v1 genre table including the Winamp extensions up to 125.
var Genres = [...]string{
	"Blues", "Classic Rock", "Country", "Dance", "Disco", "Funk", "Grunge",
	"Hip-Hop", "Jazz", "Metal", "New Age", "Oldies", "Other", "Pop", "R&B",
	"Rap", "Reggae", "Rock", "Techno", "Industrial", "Alternative", "Ska",
	"Death Metal", "Pranks", "Soundtrack", "Euro-Techno", "Ambient",
	"Trip-Hop", "Vocal", "Jazz+Funk", "Fusion", "Trance", "Classical",
	"Instrumental", "Acid", "House", "Game", "Sound Clip", "Gospel",
	"Noise", "AlternRock", "Bass", "Soul", "Punk", "Space", "Meditative",
	"Instrumental Pop", "Instrumental Rock", "Ethnic", "Gothic",
	"Darkwave", "Techno-Industrial", "Electronic", "Pop-Folk",
	"Eurodance", "Dream", "Southern Rock", "Comedy", "Cult", "Gangsta",
	"Top 40", "Christian Rap", "Pop/Funk", "Jungle", "Native American",
	"Cabaret", "New Wave", "Psychadelic", "Rave", "Showtunes", "Trailer",
	"Lo-Fi", "Tribal", "Acid Punk", "Acid Jazz", "Polka", "Retro",
	"Musical", "Rock & Roll", "Hard Rock", "Folk", "Folk-Rock",
	"National Folk", "Swing", "Fast Fusion", "Bebob", "Latin", "Revival",
	"Celtic", "Bluegrass", "Avantgarde", "Gothic Rock", "Progressive Rock",
	"Psychedelic Rock", "Symphonic Rock", "Slow Rock", "Big Band",
	"Chorus", "Easy Listening", "Acoustic", "Humour", "Speech", "Chanson",
	"Opera", "Chamber Music", "Sonata", "Symphony", "Booty Bass", "Primus",
	"Porn Groove", "Satire", "Slow Jam", "Club", "Tango", "Samba",
	"Folklore", "Ballad", "Power Ballad", "Rhythmic Soul", "Freestyle",
	"Duet", "Punk Rock", "Drum Solo", "Acapella", "Euro-House", "Dance Hall",
}
