package audiotag

import (
	"runtime"

	"github.com/rs/zerolog"

	"github.com/simonhull/audiotag/internal/ape"
	"github.com/simonhull/audiotag/internal/id3v1"
	"github.com/simonhull/audiotag/internal/id3v2"
	"github.com/simonhull/audiotag/internal/registry"
	"github.com/simonhull/audiotag/internal/spc"
	"github.com/simonhull/audiotag/internal/tta"
	"github.com/simonhull/audiotag/internal/vqf"
)

// Registry is the immutable table of structure and metadata codecs.
type Registry = registry.Registry

// RegistryOption configures a Registry.
type RegistryOption = registry.Option

// WithMaxAlternates bounds how many fallback codecs are tried after the
// first candidate fails to parse a file.
func WithMaxAlternates(n int) RegistryOption {
	return registry.WithMaxAlternates(n)
}

// DefaultRegistry builds a registry with every bundled codec: SPC, VQF and
// TTA structures, and the shared APE, ID3v1 and ID3v2 tag codecs.
//
// The registry is read-only once built and may be shared by several engines.
func DefaultRegistry(opts ...RegistryOption) *Registry {
	return registry.New(
		[]registry.Descriptor{spc.Descriptor(), vqf.Descriptor(), tta.Descriptor()},
		[]registry.MetaCodec{ape.New(), id3v1.New(), id3v2.New()},
		opts...,
	)
}

// Engine reads and rewrites audio file tags.
//
// Engine methods may be called concurrently for different paths. Calls that
// touch the same path must be serialized by the caller: the engine rebuilds
// its view of a file on every call and does not lock it.
type Engine struct {
	reg         *registry.Registry
	log         zerolog.Logger
	concurrency int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry replaces the default codec registry.
//
// Tests use it to build engines that only know a subset of formats.
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) {
		e.reg = r
	}
}

// WithLogger sets the logger for detection, ledger and write events.
// The default discards everything.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithConcurrency bounds the number of files ReadMany parses at once.
// Values below 1 select runtime.NumCPU().
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// New creates an engine.
//
// Example:
//
//	eng := audiotag.New(audiotag.WithLogger(logger))
//	file, err := eng.ReadAll(ctx, "theme.spc")
func New(opts ...EngineOption) *Engine {
	e := &Engine{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.reg == nil {
		e.reg = DefaultRegistry(registry.WithLogger(e.log))
	}
	if e.concurrency < 1 {
		e.concurrency = runtime.NumCPU()
	}
	return e
}

// Registry returns the engine's codec registry.
func (e *Engine) Registry() *Registry {
	return e.reg
}
