package patch

// Option configures a splice.
type Option func(*options)

type options struct {
	backupSuffix    string
	preserveModTime bool
}

func defaultOptions() *options {
	return &options{}
}

// WithBackup keeps a copy of the original file at path+suffix.
func WithBackup(suffix string) Option {
	return func(o *options) {
		o.backupSuffix = suffix
	}
}

// WithPreserveModTime restores the original modification time after the rename.
func WithPreserveModTime() Option {
	return func(o *options) {
		o.preserveModTime = true
	}
}
