package types

import (
	"bytes"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Field names one canonical tag field.
type Field int

// Canonical fields, in display order.
const (
	FieldTitle Field = iota
	FieldArtist
	FieldAlbum
	FieldAlbumArtist
	FieldComposer
	FieldConductor
	FieldPublisher
	FieldCopyright
	FieldOriginalArtist
	FieldOriginalAlbum
	FieldComment
	FieldGenre
	FieldDate
	FieldTrackNumber
	FieldTrackTotal
	FieldDiscNumber
	FieldRating
	fieldCount
)

var fieldNames = [fieldCount]string{
	"Title", "Artist", "Album", "AlbumArtist", "Composer", "Conductor",
	"Publisher", "Copyright", "OriginalArtist", "OriginalAlbum", "Comment",
	"Genre", "Date", "TrackNumber", "TrackTotal", "DiscNumber", "Rating",
}

// AllFields lists every canonical field in display order.
func AllFields() []Field {
	fields := make([]Field, fieldCount)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

func (f Field) String() string {
	if f >= 0 && f < fieldCount {
		return fieldNames[f]
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField resolves a case-insensitive canonical field name.
// "Year" is accepted as an alias of Date.
func ParseField(name string) (Field, error) {
	if strings.EqualFold(name, "year") {
		return FieldDate, nil
	}
	for i, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

// AdditionalField is a tag entry with no canonical mapping, keyed by the
// standard's native identifier.
type AdditionalField struct {
	ID    string
	Value string
}

// Tag is the canonical in-memory representation of one tag standard's content.
//
// Canonical fields are exported; additional fields keep the order in which
// they were read so an unchanged tag serializes back to the same bytes.
// A Tag is built fresh per read and discarded after the write it feeds.
type Tag struct {
	Title          string
	Artist         string
	Album          string
	AlbumArtist    string
	Composer       string
	Conductor      string
	Publisher      string
	Copyright      string
	OriginalArtist string
	OriginalAlbum  string
	Comment        string
	Genre          string
	Date           Date
	TrackNumber    int
	TrackTotal     int
	DiscNumber     int
	Rating         int

	// Pictures embedded in the tag. Empty when a picture handler consumed them.
	Pictures []Picture

	// Warnings raised while decoding individual entries.
	Warnings []Warning

	additional []AdditionalField
	embedded   bool
}

// NewTag returns an empty tag for an additive-layout standard.
func NewTag() *Tag {
	return &Tag{}
}

// NewEmbeddedTag returns an empty tag for a native-embedded standard.
// Such a tag always exists.
func NewEmbeddedTag() *Tag {
	return &Tag{embedded: true}
}

// Embedded reports whether the tag belongs to a native-embedded standard.
func (t *Tag) Embedded() bool {
	return t.embedded
}

// Exists reports whether the tag carries any content. Embedded tags always exist.
func (t *Tag) Exists() bool {
	if t.embedded {
		return true
	}
	if len(t.Pictures) > 0 || len(t.additional) > 0 {
		return true
	}
	for _, f := range AllFields() {
		if t.Get(f) != "" {
			return true
		}
	}
	return false
}

// Get returns the string form of a canonical field, or "" when unset.
func (t *Tag) Get(f Field) string {
	switch f {
	case FieldTitle:
		return t.Title
	case FieldArtist:
		return t.Artist
	case FieldAlbum:
		return t.Album
	case FieldAlbumArtist:
		return t.AlbumArtist
	case FieldComposer:
		return t.Composer
	case FieldConductor:
		return t.Conductor
	case FieldPublisher:
		return t.Publisher
	case FieldCopyright:
		return t.Copyright
	case FieldOriginalArtist:
		return t.OriginalArtist
	case FieldOriginalAlbum:
		return t.OriginalAlbum
	case FieldComment:
		return t.Comment
	case FieldGenre:
		return t.Genre
	case FieldDate:
		return t.Date.String()
	case FieldTrackNumber:
		return itoa(t.TrackNumber)
	case FieldTrackTotal:
		return itoa(t.TrackTotal)
	case FieldDiscNumber:
		return itoa(t.DiscNumber)
	case FieldRating:
		return itoa(t.Rating)
	}
	return ""
}

// Set assigns a canonical field from its string form.
//
// Numeric fields accept a leading integer; TrackNumber also accepts "n/total"
// and fills TrackTotal. Date accepts the forms understood by ParseDate.
// An empty value clears the field.
func (t *Tag) Set(f Field, v string) error {
	v = strings.TrimSpace(v)
	switch f {
	case FieldTitle:
		t.Title = v
	case FieldArtist:
		t.Artist = v
	case FieldAlbum:
		t.Album = v
	case FieldAlbumArtist:
		t.AlbumArtist = v
	case FieldComposer:
		t.Composer = v
	case FieldConductor:
		t.Conductor = v
	case FieldPublisher:
		t.Publisher = v
	case FieldCopyright:
		t.Copyright = v
	case FieldOriginalArtist:
		t.OriginalArtist = v
	case FieldOriginalAlbum:
		t.OriginalAlbum = v
	case FieldComment:
		t.Comment = v
	case FieldGenre:
		t.Genre = v
	case FieldDate:
		if v == "" {
			t.Date = Date{}
			return nil
		}
		d, err := ParseDate(v)
		if err != nil {
			return err
		}
		t.Date = d
	case FieldTrackNumber:
		n, total, err := ParsePosition(v)
		if err != nil {
			return fmt.Errorf("track number: %w", err)
		}
		t.TrackNumber = n
		if total > 0 {
			t.TrackTotal = total
		}
	case FieldTrackTotal, FieldDiscNumber, FieldRating:
		n, _, err := ParsePosition(v)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		switch f {
		case FieldTrackTotal:
			t.TrackTotal = n
		case FieldDiscNumber:
			t.DiscNumber = n
		default:
			t.Rating = n
		}
	default:
		return fmt.Errorf("unknown field %d", int(f))
	}
	return nil
}

// Fields iterates over the canonical fields that hold a value.
func (t *Tag) Fields() iter.Seq2[Field, string] {
	return func(yield func(Field, string) bool) {
		for _, f := range AllFields() {
			v := t.Get(f)
			if v == "" {
				continue
			}
			if !yield(f, v) {
				return
			}
		}
	}
}

// Additional iterates over additional fields in stored order.
//
// Example:
//
//	for id, value := range tag.Additional() {
//		fmt.Printf("%s = %s\n", id, value)
//	}
func (t *Tag) Additional() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, a := range t.additional {
			if !yield(a.ID, a.Value) {
				return
			}
		}
	}
}

// AdditionalField returns the value stored under id.
func (t *Tag) AdditionalField(id string) (string, bool) {
	for _, a := range t.additional {
		if a.ID == id {
			return a.Value, true
		}
	}
	return "", false
}

// AdditionalCount returns the number of additional fields.
func (t *Tag) AdditionalCount() int {
	return len(t.additional)
}

// SetAdditional stores value under id, replacing an existing entry in place
// or appending a new one.
func (t *Tag) SetAdditional(id, value string) {
	for i := range t.additional {
		if t.additional[i].ID == id {
			t.additional[i].Value = value
			return
		}
	}
	t.additional = append(t.additional, AdditionalField{ID: id, Value: value})
}

// DeleteAdditional removes the entry stored under id, if any.
func (t *Tag) DeleteAdditional(id string) {
	t.additional = slices.DeleteFunc(t.additional, func(a AdditionalField) bool {
		return a.ID == id
	})
}

// AddWarning records a non-fatal decoding issue.
func (t *Tag) AddWarning(stage string, offset int64, format string, args ...any) {
	t.Warnings = append(t.Warnings, Warning{
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	})
}

// Apply merges an update into the tag for the given standard.
//
// Canonical fields in the update replace or clear prior values; fields the
// update does not mention are preserved. Additional-field entries addressed
// to another standard are ignored. Pictures are replaced when the update
// carries any, and dropped when ClearPictures is set.
func (t *Tag) Apply(u *Update, std TagStandard) error {
	if err := u.Validate(); err != nil {
		return err
	}

	for _, f := range slices.Sorted(maps.Keys(u.Fields)) {
		v := u.Fields[f]
		if v.IsDelete() {
			if err := t.Set(f, ""); err != nil {
				return err
			}
			continue
		}
		if err := t.Set(f, v.String()); err != nil {
			return fmt.Errorf("set %s: %w", f, err)
		}
	}

	for _, fu := range u.Additional {
		if fu.Standard != std {
			continue
		}
		if fu.Value.IsDelete() {
			t.DeleteAdditional(fu.ID)
		} else {
			t.SetAdditional(fu.ID, fu.Value.String())
		}
	}

	if u.ClearPictures {
		t.Pictures = nil
	}
	if len(u.Pictures) > 0 {
		t.Pictures = slices.Clone(u.Pictures)
	}
	return nil
}

// Equal reports whether both tags carry the same fields, additional fields
// and pictures. Warnings are not compared.
func (t *Tag) Equal(o *Tag) bool {
	for _, f := range AllFields() {
		if t.Get(f) != o.Get(f) {
			return false
		}
	}
	if !slices.Equal(t.additional, o.additional) {
		return false
	}
	return slices.EqualFunc(t.Pictures, o.Pictures, func(a, b Picture) bool {
		return a.Type == b.Type && a.MIMEType == b.MIMEType &&
			a.Description == b.Description && bytes.Equal(a.Data, b.Data)
	})
}

// Clone returns a deep copy of the tag.
func (t *Tag) Clone() *Tag {
	c := *t
	c.additional = slices.Clone(t.additional)
	c.Warnings = slices.Clone(t.Warnings)
	c.Pictures = make([]Picture, len(t.Pictures))
	for i, p := range t.Pictures {
		p.Data = slices.Clone(p.Data)
		c.Pictures[i] = p
	}
	return &c
}

// ParsePosition parses "n" or "n/total". Empty input yields zeros.
func ParsePosition(v string) (n, total int, err error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, 0, nil
	}
	num, tot, found := strings.Cut(v, "/")
	n, err = leadingInt(num)
	if err != nil {
		return 0, 0, err
	}
	if found {
		total, _ = leadingInt(tot)
	}
	return n, total, nil
}

func leadingInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidUpdate, s)
	}
	return strconv.Atoi(s[:end])
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
