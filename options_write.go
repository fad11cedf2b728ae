package audiotag

import "github.com/simonhull/audiotag/internal/patch"

// SaveOption configures behavior when rewriting audio files.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	err := eng.UpdateTag(ctx, path, audiotag.StandardID3v2, u,
//	    audiotag.WithBackup(".bak"),
//	    audiotag.WithValidation(),
//	)
type SaveOption func(*saveOptions)

// saveOptions holds configuration for saving files.
type saveOptions struct {
	backupSuffix    string // Suffix for backup file (e.g., ".bak")
	validate        bool   // Re-read after write to verify
	preserveModTime bool   // Keep original modification time
}

// defaultSaveOptions returns the default configuration for saving.
func defaultSaveOptions() *saveOptions {
	return &saveOptions{}
}

func (o *saveOptions) patchOptions() []patch.Option {
	var opts []patch.Option
	if o.backupSuffix != "" {
		opts = append(opts, patch.WithBackup(o.backupSuffix))
	}
	if o.preserveModTime {
		opts = append(opts, patch.WithPreserveModTime())
	}
	return opts
}

// WithBackup keeps a copy of the original file before it is replaced.
//
// The backup file will have the specified suffix appended to the original
// filename. For example, WithBackup(".bak") will create "song.tta.bak"
// before modifying "song.tta". No backup is made when the write turns out
// to change nothing.
//
// If the backup file already exists, it will be overwritten.
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-reads the file after writing to verify integrity.
//
// After saving, the rewritten tag is read back from disk and compared with
// the tag that was serialized. This adds overhead but provides confidence
// that the save operation succeeded.
func WithValidation() SaveOption {
	return func(o *saveOptions) {
		o.validate = true
	}
}

// WithPreserveModTime keeps the original file modification time.
//
// By default, saving updates the file's modification time to the current
// time. This option preserves the original modification time.
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) {
		o.preserveModTime = true
	}
}
