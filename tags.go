package audiotag

import (
	"github.com/simonhull/audiotag/internal/types"
)

// Tag is an alias to types.Tag.
// Re-exporting from internal/types to maintain public API.
type Tag = types.Tag

// AdditionalField is an alias to types.AdditionalField.
type AdditionalField = types.AdditionalField

// Field is an alias to types.Field.
type Field = types.Field

// Re-export all canonical field constants.
const (
	FieldTitle          = types.FieldTitle
	FieldArtist         = types.FieldArtist
	FieldAlbum          = types.FieldAlbum
	FieldAlbumArtist    = types.FieldAlbumArtist
	FieldComposer       = types.FieldComposer
	FieldConductor      = types.FieldConductor
	FieldPublisher      = types.FieldPublisher
	FieldCopyright      = types.FieldCopyright
	FieldOriginalArtist = types.FieldOriginalArtist
	FieldOriginalAlbum  = types.FieldOriginalAlbum
	FieldComment        = types.FieldComment
	FieldGenre          = types.FieldGenre
	FieldDate           = types.FieldDate
	FieldTrackNumber    = types.FieldTrackNumber
	FieldTrackTotal     = types.FieldTrackTotal
	FieldDiscNumber     = types.FieldDiscNumber
	FieldRating         = types.FieldRating
)

// ParseField resolves a case-insensitive canonical field name.
func ParseField(name string) (Field, error) {
	return types.ParseField(name)
}

// Date is an alias to types.Date.
type Date = types.Date

// Update is an alias to types.Update.
type Update = types.Update

// Value is an alias to types.Value.
type Value = types.Value

// FieldUpdate is an alias to types.FieldUpdate.
type FieldUpdate = types.FieldUpdate

// NewUpdate returns an empty update.
//
// Example:
//
//	u := audiotag.NewUpdate().
//	    Set(audiotag.FieldPublisher, "Square-Enix").
//	    DeleteAdditional(audiotag.StandardNative, "55")
func NewUpdate() *Update {
	return types.NewUpdate()
}

// Set returns a Value that assigns v.
func Set(v string) Value {
	return types.Set(v)
}

// Delete returns a Value that removes a field.
func Delete() Value {
	return types.Delete()
}

// TagStandard is an alias to types.TagStandard.
type TagStandard = types.TagStandard

// Re-export all tag standard constants.
const (
	StandardNative = types.StandardNative
	StandardID3v1  = types.StandardID3v1
	StandardID3v2  = types.StandardID3v2
	StandardAPE    = types.StandardAPE
	StandardChunk  = types.StandardChunk
)

// ParseTagStandard resolves a case-insensitive standard name.
func ParseTagStandard(name string) (TagStandard, error) {
	return types.ParseTagStandard(name)
}

// Layout is an alias to types.Layout.
type Layout = types.Layout

// Re-export layout constants.
const (
	LayoutAdditive = types.LayoutAdditive
	LayoutEmbedded = types.LayoutEmbedded
)
