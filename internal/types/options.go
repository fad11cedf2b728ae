package types

// ReadOptions controls how metadata codecs decode a region.
type ReadOptions struct {
	// PictureHandler, when set, receives each decoded picture instead of the
	// Tag keeping it.
	PictureHandler func(TagStandard, Picture)

	// MaxPictureSize skips pictures larger than this many bytes with a warning.
	// Zero means no limit.
	MaxPictureSize int

	// SkipPictures drops picture payloads entirely.
	SkipPictures bool
}

// DeliverPicture routes p to the handler or appends it to t, honoring the size limit.
func (o ReadOptions) DeliverPicture(t *Tag, std TagStandard, p Picture, offset int64) {
	if o.SkipPictures {
		return
	}
	if o.MaxPictureSize > 0 && len(p.Data) > o.MaxPictureSize {
		t.AddWarning("picture", offset, "%s picture of %d bytes exceeds limit %d", p.Type, len(p.Data), o.MaxPictureSize)
		return
	}
	if o.PictureHandler != nil {
		o.PictureHandler(std, p)
		return
	}
	t.Pictures = append(t.Pictures, p)
}
