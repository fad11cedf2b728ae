package audiotag

import (
	"slices"

	"github.com/simonhull/audiotag/internal/types"
)

// ReadOption configures behavior when reading audio files.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	file, err := eng.ReadAll(ctx, "song.tta",
//	    audiotag.WithStrictParsing(),
//	    audiotag.WithMaxPictureSize(10*1024*1024),
//	)
type ReadOption func(*readOptions)

// readOptions holds configuration for reading files.
type readOptions struct {
	pictureHandler func(TagStandard, Picture) // Receives pictures instead of the Tag
	standards      []TagStandard              // Standards to read (nil = all supported)
	maxPictureSize int                        // Maximum picture size in bytes (0 = no limit)
	strictParsing  bool                       // Fail on any warning
	ignoreWarnings bool                       // Suppress all warnings
	skipPictures   bool                       // Drop picture payloads
}

// defaultReadOptions returns the default configuration.
func defaultReadOptions() *readOptions {
	return &readOptions{}
}

func (o *readOptions) wants(std TagStandard) bool {
	return o.standards == nil || slices.Contains(o.standards, std)
}

func (o *readOptions) codecOptions() types.ReadOptions {
	return types.ReadOptions{
		PictureHandler: o.pictureHandler,
		MaxPictureSize: o.maxPictureSize,
		SkipPictures:   o.skipPictures,
	}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default, audiotag continues parsing when it encounters issues like a
// truncated xid6 item or an APE item running past its footer, returning
// warnings alongside the parsed data.
//
// Example:
//
//	file, err := eng.ReadAll(ctx, "theme.spc", audiotag.WithStrictParsing())
//	// err != nil if ANY issue is encountered
func WithStrictParsing() ReadOption {
	return func(o *readOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings suppresses all warnings.
//
// By default, warnings about non-fatal issues are collected in
// File.Warnings and on each Tag. This option discards them.
func WithIgnoreWarnings() ReadOption {
	return func(o *readOptions) {
		o.ignoreWarnings = true
	}
}

// WithPictureHandler delivers every decoded picture to fn instead of
// keeping it on the Tag, so large cover art is never retained.
//
// Example:
//
//	eng.ReadAll(ctx, path, audiotag.WithPictureHandler(func(std audiotag.TagStandard, p audiotag.Picture) {
//	    os.WriteFile(std.String()+"-cover.jpg", p.Data, 0o644)
//	}))
func WithPictureHandler(fn func(TagStandard, Picture)) ReadOption {
	return func(o *readOptions) {
		o.pictureHandler = fn
	}
}

// WithMaxPictureSize skips pictures larger than the given number of bytes
// with a warning.
//
// Default is 0 (no limit).
func WithMaxPictureSize(bytes int) ReadOption {
	return func(o *readOptions) {
		o.maxPictureSize = bytes
	}
}

// WithSkipPictures drops picture payloads while reading.
func WithSkipPictures() ReadOption {
	return func(o *readOptions) {
		o.skipPictures = true
	}
}

// WithStandards restricts ReadAll to the given tag standards.
func WithStandards(stds ...TagStandard) ReadOption {
	return func(o *readOptions) {
		o.standards = append(o.standards, stds...)
	}
}
