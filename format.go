package audiotag

import (
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/types"
)

// Format is an alias to types.Format.
// Re-exporting from internal/types to maintain public API.
type Format = types.Format

// Re-export all format constants.
const (
	FormatUnknown = types.FormatUnknown
	FormatSPC     = types.FormatSPC
	FormatVQF     = types.FormatVQF
	FormatTTA     = types.FormatTTA
)

// Extent is an alias to ledger.Extent, a half-open byte range.
type Extent = ledger.Extent

// Region is an alias to ledger.Region, the zones owned by one tag standard.
type Region = ledger.Region
