package audiotag

import (
	"context"
	"fmt"
	"os"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/types"
)

// TagState describes whether a tag standard is present in a file.
type TagState int

const (
	// TagAbsent means the standard owns no bytes in the file.
	TagAbsent TagState = iota
	// TagPresentEmpty means the standard's region exists but carries no field.
	TagPresentEmpty
	// TagPresentWithData means the standard's region carries at least one field.
	TagPresentWithData
	// TagAlwaysPresent is the state of native-embedded tags, which can be
	// reset but never removed.
	TagAlwaysPresent
)

func (s TagState) String() string {
	switch s {
	case TagPresentEmpty:
		return "present (empty)"
	case TagPresentWithData:
		return "present"
	case TagAlwaysPresent:
		return "always present"
	default:
		return "absent"
	}
}

// File is the result of reading every tag standard of an audio file.
//
// A File is a snapshot: it holds no file handle and is not updated by later
// writes. Read the file again after UpdateTag or RemoveTag.
type File struct {
	// Path to the audio file
	Path string

	// Detected container format
	Format Format

	// File size in bytes
	Size int64

	// Audio technical properties
	Audio AudioInfo

	// Tags holds one entry per supported standard that was read. Absent
	// additive standards map to an empty tag.
	Tags map[TagStandard]*Tag

	// Regions lists the byte ranges owned by each supported standard.
	Regions []Region

	// Payload is the byte range of the audio data.
	Payload Extent

	// Warnings encountered during parsing (non-fatal issues)
	Warnings []Warning

	supported []TagStandard
}

// Tag returns the tag read for std.
func (f *File) Tag(std TagStandard) (*Tag, bool) {
	t, ok := f.Tags[std]
	return t, ok
}

// Supports reports whether the file's format accepts tags of std.
func (f *File) Supports(std TagStandard) bool {
	return slices.Contains(f.supported, std)
}

// SupportedStandards lists the tag standards the format accepts.
func (f *File) SupportedStandards() []TagStandard {
	return slices.Clone(f.supported)
}

// State reports the presence of std in the file.
func (f *File) State(std TagStandard) TagState {
	for _, r := range f.Regions {
		if r.Standard != std {
			continue
		}
		switch {
		case r.Layout == types.LayoutEmbedded:
			return TagAlwaysPresent
		case !r.Present:
			return TagAbsent
		}
		if t, ok := f.Tags[std]; ok && t.Exists() {
			return TagPresentWithData
		}
		return TagPresentEmpty
	}
	return TagAbsent
}

// session is one open pipeline over a file: the handle, the detected
// structure and the ledger built from it.
type session struct {
	file   *os.File
	sr     *binary.SafeReader
	codec  registry.AudioCodec
	ledger *ledger.Ledger
}

func (s *session) Close() error {
	return s.file.Close()
}

// open detects the format of path and builds its ledger. The caller must
// Close the session.
func (e *Engine) open(ctx context.Context, path string) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck // Read-only handle
		return nil, fmt.Errorf("stat file: %w", err)
	}

	s := &session{file: f, sr: binary.NewSafeReader(f, stat.Size(), path)}
	if err := e.build(ctx, s); err != nil {
		f.Close() //nolint:errcheck // Read-only handle
		return nil, err
	}
	return s, nil
}

func (e *Engine) build(ctx context.Context, s *session) error {
	hints := ledger.Scan(s.sr)
	codec, err := e.reg.Detect(ctx, s.sr, hints)
	if err != nil {
		return err
	}

	l, err := ledger.New(s.sr.Size(), codec.Payload(), codec.Regions(), codec.SizeFields())
	if err != nil {
		return &types.CorruptedFileError{Path: s.sr.Path(), Reason: err.Error()}
	}
	e.log.Debug().
		Str("path", s.sr.Path()).
		Stringer("format", codec.Format()).
		Str("ledger", l.String()).
		Msg("ledger built")

	s.codec = codec
	s.ledger = l
	return nil
}

// DetectFormat identifies the container format of path without reading tags.
func (e *Engine) DetectFormat(ctx context.Context, path string) (Format, error) {
	s, err := e.open(ctx, path)
	if err != nil {
		return FormatUnknown, err
	}
	defer s.Close() //nolint:errcheck // Read-only handle
	return s.codec.Format(), nil
}

// ReadAll reads the audio properties and every supported tag standard of path.
//
// A standard whose region fails to decode is reported as a warning and the
// others are still read. Present regions whose individual entries are
// malformed load with per-entry warnings.
//
// Options can be provided to customize parsing behavior:
//
//	file, err := eng.ReadAll(ctx, "theme.spc",
//	    audiotag.WithStandards(audiotag.StandardNative),
//	    audiotag.WithStrictParsing(),
//	)
func (e *Engine) ReadAll(ctx context.Context, path string, opts ...ReadOption) (*File, error) {
	options := defaultReadOptions()
	for _, opt := range opts {
		opt(options)
	}

	s, err := e.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer s.Close() //nolint:errcheck // Read-only handle

	file := &File{
		Path:      path,
		Format:    s.codec.Format(),
		Size:      s.sr.Size(),
		Audio:     s.codec.Info(),
		Tags:      make(map[TagStandard]*Tag),
		Regions:   s.ledger.Regions(),
		Payload:   s.ledger.PayloadExtent(),
		supported: s.codec.SupportedStandards(),
	}

	for _, std := range types.AllStandards {
		if !file.Supports(std) || !options.wants(std) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tag, err := e.readStandard(s, std, options.codecOptions())
		if err != nil {
			e.log.Warn().Err(err).Str("path", path).Stringer("standard", std).Msg("tag read failed")
			file.Warnings = append(file.Warnings, Warning{
				Stage:   std.String(),
				Message: err.Error(),
			})
			continue
		}
		e.logWarnings(path, std, tag)
		file.Tags[std] = tag
		file.Warnings = append(file.Warnings, tag.Warnings...)
	}

	if options.strictParsing && len(file.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", file.Warnings[0])
	}
	if options.ignoreWarnings {
		file.Warnings = nil
		for _, t := range file.Tags {
			t.Warnings = nil
		}
	}
	return file, nil
}

// readStandard decodes one region. Absent additive regions yield an empty tag
// without touching the file.
func (e *Engine) readStandard(s *session, std TagStandard, opts types.ReadOptions) (*Tag, error) {
	m, err := e.reg.MetaCodec(s.codec, std)
	if err != nil {
		return nil, err
	}
	region, ok := s.ledger.Locate(std)
	if !ok {
		return nil, fmt.Errorf("no %s region declared", std)
	}
	if !region.Present && m.Layout() == types.LayoutAdditive {
		return types.NewTag(), nil
	}
	zones, err := s.ledger.Load(s.sr, region)
	if err != nil {
		return nil, err
	}
	return m.Read(zones, opts)
}

// logWarnings reports each entry the codec skipped or could not decode.
func (e *Engine) logWarnings(path string, std TagStandard, tag *Tag) {
	for _, w := range tag.Warnings {
		e.log.Warn().
			Str("path", path).
			Stringer("standard", std).
			Str("stage", w.Stage).
			Int64("offset", w.Offset).
			Msg(w.Message)
	}
}

// Read reads a single tag standard of path.
//
// Returns *UnsupportedStandardError when the format does not accept std.
func (e *Engine) Read(ctx context.Context, path string, std TagStandard, opts ...ReadOption) (*Tag, error) {
	options := defaultReadOptions()
	for _, opt := range opts {
		opt(options)
	}

	s, err := e.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer s.Close() //nolint:errcheck // Read-only handle

	tag, err := e.readStandard(s, std, options.codecOptions())
	if err != nil {
		return nil, fmt.Errorf("read %s tag: %w", std, err)
	}
	e.logWarnings(path, std, tag)
	if options.strictParsing && len(tag.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", tag.Warnings[0])
	}
	if options.ignoreWarnings {
		tag.Warnings = nil
	}
	return tag, nil
}

// ReadMany reads multiple files concurrently.
//
// At most the engine's concurrency limit of files are parsed at once.
// Results are returned in the same order as the input paths. If any file
// fails, the first error is returned and no result.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	files, err := eng.ReadMany(ctx, paths)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, f := range files {
//		fmt.Printf("%s: %s\n", f.Format, f.Audio)
//	}
func (e *Engine) ReadMany(ctx context.Context, paths []string, opts ...ReadOption) ([]*File, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	results := make([]*File, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			file, err := e.ReadAll(ctx, path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
