package audiotag

import (
	"context"
	"fmt"

	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/patch"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

// UpdateTag merges u into the std tag of path and rewrites the file.
//
// Canonical fields named by u replace their previous value; every other
// field of the tag, and every byte owned by other standards or by the audio
// payload, is preserved. The file is rebuilt in a scratch copy that replaces
// the original only after it is complete, so a failed or cancelled update
// leaves path untouched.
//
// Options can be provided to customize save behavior:
//
//	err := eng.UpdateTag(ctx, "song.tta", audiotag.StandardAPE,
//	    audiotag.NewUpdate().Set(audiotag.FieldTitle, "Confusing Melody"),
//	    audiotag.WithBackup(".bak"),
//	)
//
// Returns *UnsupportedStandardError when the format does not accept std.
func (e *Engine) UpdateTag(ctx context.Context, path string, std TagStandard, u *Update, opts ...SaveOption) error {
	if u == nil {
		u = NewUpdate()
	}
	if err := u.Validate(); err != nil {
		return err
	}
	return e.rewrite(ctx, path, std, "update", opts, func(m registry.MetaCodec, zones []ledger.ZoneData) ([][]byte, error) {
		return m.Write(zones, u)
	})
}

// RemoveTag deletes the std tag of path.
//
// Additive tags are cut out of the file; removing a tag that is not there
// leaves the file untouched. Native-embedded tags are reset in place and
// keep their length.
func (e *Engine) RemoveTag(ctx context.Context, path string, std TagStandard, opts ...SaveOption) error {
	return e.rewrite(ctx, path, std, "remove", opts, func(m registry.MetaCodec, zones []ledger.ZoneData) ([][]byte, error) {
		if m.Layout() == types.LayoutAdditive && zonesEmpty(zones) {
			return nil, nil
		}
		return m.Remove(zones)
	})
}

func zonesEmpty(zones []ledger.ZoneData) bool {
	for _, z := range zones {
		if len(z.Data) > 0 {
			return false
		}
	}
	return true
}

type produceFunc func(registry.MetaCodec, []ledger.ZoneData) ([][]byte, error)

// rewrite runs one write pipeline: read the region of std, let produce
// compute its new zones, then splice them into the file. A nil result from
// produce means there is nothing to write.
func (e *Engine) rewrite(ctx context.Context, path string, std TagStandard, op string, opts []SaveOption, produce produceFunc) error {
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}

	s, err := e.open(ctx, path)
	if err != nil {
		return err
	}
	m, zones, err := e.locate(s, std)
	if err != nil {
		s.Close() //nolint:errcheck // Read-only handle
		return err
	}
	out, err := produce(m, zones)
	sizeFields := s.ledger.SizeFields()
	s.Close() //nolint:errcheck // Read-only handle
	if err != nil {
		return fmt.Errorf("%s %s tag: %w", op, std, err)
	}
	if out == nil {
		e.log.Debug().Str("path", path).Stringer("standard", std).Msg("nothing to " + op)
		return nil
	}
	if len(out) != len(zones) {
		return fmt.Errorf("%s %s tag: codec returned %d zones for a region of %d", op, std, len(out), len(zones))
	}
	edits := make([]patch.Edit, len(zones))
	for i, z := range zones {
		edits[i] = patch.Edit{Extent: z.Extent, Data: out[i]}
		e.log.Debug().
			Str("path", path).
			Stringer("standard", std).
			Str("zone", z.Name).
			Stringer("extent", z.Extent).
			Int("bytes", len(out[i])).
			Msg("splice planned")
	}

	res, err := patch.Splice(ctx, path, edits, sizeFields, options.patchOptions()...)
	if err != nil {
		return fmt.Errorf("%s %s tag: %w", op, std, err)
	}
	e.log.Info().
		Str("path", path).
		Stringer("standard", std).
		Str("op", op).
		Bool("changed", res.Changed).
		Int64("old_size", res.OldSize).
		Int64("new_size", res.NewSize).
		Msg("tag written")

	if options.validate {
		if err := e.validateWritten(ctx, path, std, m, zones, out); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// locate resolves the codec and current bytes of the std region.
func (e *Engine) locate(s *session, std TagStandard) (registry.MetaCodec, []ledger.ZoneData, error) {
	m, err := e.reg.MetaCodec(s.codec, std)
	if err != nil {
		return nil, nil, err
	}
	region, ok := s.ledger.Locate(std)
	if !ok {
		return nil, nil, &types.UnsupportedWriteError{
			Format: s.codec.Format(),
			Reason: fmt.Sprintf("no %s region declared", std),
		}
	}
	zones, err := s.ledger.Load(s.sr, region)
	if err != nil {
		return nil, nil, err
	}
	return m, zones, nil
}

// validateWritten re-reads std from the rewritten file and compares it with
// a decode of the bytes that were spliced in.
func (e *Engine) validateWritten(ctx context.Context, path string, std TagStandard, m registry.MetaCodec, zones []ledger.ZoneData, out [][]byte) error {
	written := make([]ledger.ZoneData, len(zones))
	for i, z := range zones {
		written[i] = ledger.ZoneData{Zone: z.Zone, Data: out[i]}
	}
	want, err := m.Read(written, types.ReadOptions{})
	if err != nil {
		return fmt.Errorf("decode written %s tag: %w", std, err)
	}

	got, err := e.Read(ctx, path, std)
	if err != nil {
		return fmt.Errorf("re-read: %w", err)
	}
	if !got.Equal(want) {
		return fmt.Errorf("%s tag read back differs from the written tag", std)
	}
	return nil
}
