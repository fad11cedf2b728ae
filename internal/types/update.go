package types

import (
	"fmt"
	"slices"
)

type valueOp uint8

const (
	opInvalid valueOp = iota
	opSet
	opDelete
)

// Value is either a new field value or a deletion marker.
//
// The zero Value is neither and is rejected by Update.Validate.
type Value struct {
	s  string
	op valueOp
}

// Set returns a Value that assigns v.
func Set(v string) Value {
	return Value{s: v, op: opSet}
}

// Delete returns a Value that removes the field.
func Delete() Value {
	return Value{op: opDelete}
}

// IsDelete reports whether the value is a deletion marker.
func (v Value) IsDelete() bool {
	return v.op == opDelete
}

// Valid reports whether v was built with Set or Delete.
func (v Value) Valid() bool {
	return v.op != opInvalid
}

// String returns the assigned value, or "" for a deletion marker.
func (v Value) String() string {
	return v.s
}

// FieldUpdate is one additional-field mutation addressed to a tag standard.
type FieldUpdate struct {
	ID       string
	Value    Value
	Standard TagStandard
}

// Update describes a tag mutation.
//
// Canonical fields absent from Fields are preserved. Additional-field
// entries are applied only by the codec of their Standard; entries for
// other standards are ignored.
type Update struct {
	Fields        map[Field]Value
	Additional    []FieldUpdate
	Pictures      []Picture
	ClearPictures bool
}

// NewUpdate returns an empty update.
func NewUpdate() *Update {
	return &Update{Fields: make(map[Field]Value)}
}

// Set assigns a canonical field.
func (u *Update) Set(f Field, v string) *Update {
	u.field()[f] = Set(v)
	return u
}

// Delete clears a canonical field.
func (u *Update) Delete(f Field) *Update {
	u.field()[f] = Delete()
	return u
}

// SetAdditional assigns an additional field of std.
func (u *Update) SetAdditional(std TagStandard, id, v string) *Update {
	u.Additional = append(u.Additional, FieldUpdate{Standard: std, ID: id, Value: Set(v)})
	return u
}

// DeleteAdditional removes an additional field of std.
func (u *Update) DeleteAdditional(std TagStandard, id string) *Update {
	u.Additional = append(u.Additional, FieldUpdate{Standard: std, ID: id, Value: Delete()})
	return u
}

// AddPicture appends a picture. Any picture in an update replaces all pictures.
func (u *Update) AddPicture(p Picture) *Update {
	u.Pictures = append(u.Pictures, p)
	return u
}

// Touches reports whether the update sets or deletes f. TrackNumber and
// TrackTotal touch each other since standards store them in one entry.
func (u *Update) Touches(f Field) bool {
	if u == nil {
		return false
	}
	if _, ok := u.Fields[f]; ok {
		return true
	}
	switch f {
	case FieldTrackNumber:
		_, ok := u.Fields[FieldTrackTotal]
		return ok
	case FieldTrackTotal:
		_, ok := u.Fields[FieldTrackNumber]
		return ok
	}
	return false
}

// Validate rejects zero Values, unknown fields and empty identifiers.
func (u *Update) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: nil update", ErrInvalidUpdate)
	}
	for f, v := range u.Fields {
		if f < 0 || f >= fieldCount {
			return fmt.Errorf("%w: unknown field %d", ErrInvalidUpdate, int(f))
		}
		if !v.Valid() {
			return fmt.Errorf("%w: %s has neither a value nor a deletion marker", ErrInvalidUpdate, f)
		}
	}
	for _, fu := range u.Additional {
		if fu.ID == "" {
			return fmt.Errorf("%w: empty additional field identifier", ErrInvalidUpdate)
		}
		if !fu.Value.Valid() {
			return fmt.Errorf("%w: additional field %q has neither a value nor a deletion marker", ErrInvalidUpdate, fu.ID)
		}
	}
	return nil
}

// Clone returns a copy of the update.
func (u *Update) Clone() *Update {
	c := &Update{
		Fields:        make(map[Field]Value, len(u.Fields)),
		Additional:    slices.Clone(u.Additional),
		Pictures:      slices.Clone(u.Pictures),
		ClearPictures: u.ClearPictures,
	}
	for f, v := range u.Fields {
		c.Fields[f] = v
	}
	return c
}

func (u *Update) field() map[Field]Value {
	if u.Fields == nil {
		u.Fields = make(map[Field]Value)
	}
	return u.Fields
}
