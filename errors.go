package audiotag

import (
	"github.com/simonhull/audiotag/internal/types"
)

// OutOfBoundsError is an alias to types.OutOfBoundsError.
// Re-exporting from internal/types to maintain public API.
type OutOfBoundsError = types.OutOfBoundsError

// UnsupportedFormatError is an alias to types.UnsupportedFormatError.
// Re-exporting from internal/types to maintain public API.
type UnsupportedFormatError = types.UnsupportedFormatError

// CorruptedFileError is an alias to types.CorruptedFileError.
// Re-exporting from internal/types to maintain public API.
type CorruptedFileError = types.CorruptedFileError

// UnsupportedWriteError is an alias to types.UnsupportedWriteError.
// Re-exporting from internal/types to maintain public API.
type UnsupportedWriteError = types.UnsupportedWriteError

// UnsupportedStandardError is an alias to types.UnsupportedStandardError.
type UnsupportedStandardError = types.UnsupportedStandardError

// Warning is an alias to types.Warning.
// Re-exporting from internal/types to maintain public API.
type Warning = types.Warning

// Sentinel errors, for use with errors.Is.
var (
	ErrFormatUndetected = types.ErrFormatUndetected
	ErrInvalidUpdate    = types.ErrInvalidUpdate
	ErrOverlappingZones = types.ErrOverlappingZones
)
