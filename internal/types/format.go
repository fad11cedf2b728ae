package types

import (
	"path/filepath"
	"strings"
)

// Format represents an audio container format with a registered structure codec.
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota
	// FormatSPC represents SNES SPC700 sound dumps.
	FormatSPC
	// FormatVQF represents TwinVQ files.
	FormatVQF
	// FormatTTA represents True Audio (TTA1) files.
	FormatTTA
)

// String returns the display name of the format.
func (f Format) String() string {
	switch f {
	case FormatSPC:
		return "SPC"
	case FormatVQF:
		return "VQF"
	case FormatTTA:
		return "TTA"
	default:
		return "Unknown"
	}
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatSPC:
		return []string{".spc"}
	case FormatVQF:
		return []string{".vqf"}
	case FormatTTA:
		return []string{".tta"}
	default:
		return nil
	}
}

// MatchesExtension reports whether path carries one of f's extensions.
func (f Format) MatchesExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range f.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}
