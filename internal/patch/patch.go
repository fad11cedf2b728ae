// Package patch rewrites byte ranges of a file through a scratch copy.
//
// Splice builds the complete new file next to the original and only renames
// it into place after every byte has been written and synced, so a failed or
// cancelled splice leaves the original untouched.
package patch

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
)

// Edit replaces the bytes of Extent with Data. A zero-length Extent inserts.
type Edit struct {
	Data   []byte
	Extent ledger.Extent
}

// Delta returns the change in file length caused by the edit.
func (e Edit) Delta() int64 {
	return int64(len(e.Data)) - e.Extent.Len()
}

// Result describes a completed splice.
type Result struct {
	OldSize int64
	NewSize int64
	Changed bool
}

// Splice applies edits to the file at path.
//
// Bytes outside the edited extents are copied unchanged. Each size field is
// moved by the deltas of edits before it and its value adjusted by the deltas
// of edits inside its covered extent. When every edit reproduces the bytes
// already on disk the file is not touched at all.
func Splice(ctx context.Context, path string, edits []Edit, fields []ledger.SizeField, opts ...Option) (Result, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	edits = slices.Clone(edits)
	slices.SortStableFunc(edits, func(a, b Edit) int {
		if c := cmp.Compare(a.Extent.Start, b.Extent.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Extent.End, b.Extent.End)
	})
	for i := 1; i < len(edits); i++ {
		if edits[i].Extent.Start < edits[i-1].Extent.End ||
			edits[i].Extent.Start == edits[i-1].Extent.Start && edits[i].Extent.Empty() && edits[i-1].Extent.Empty() {
			return Result{}, fmt.Errorf("edits %s and %s overlap", edits[i-1].Extent, edits[i].Extent)
		}
	}

	src, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open file: %w", err)
	}
	defer src.Close() //nolint:errcheck // Read-only handle

	info, err := src.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat file: %w", err)
	}
	size := info.Size()
	res := Result{OldSize: size, NewSize: size}

	sr := binary.NewSafeReader(src, size, path)
	changed := false
	for _, e := range edits {
		if e.Extent.Start < 0 || e.Extent.End > size || e.Extent.Start > e.Extent.End {
			return res, fmt.Errorf("edit extent %s outside file of %d bytes", e.Extent, size)
		}
		res.NewSize += e.Delta()
		if changed {
			continue
		}
		old, err := sr.Bytes(e.Extent.Start, int(e.Extent.Len()), "spliced region")
		if err != nil {
			return res, err
		}
		changed = !bytes.Equal(old, e.Data)
	}
	if !changed {
		return res, nil
	}
	res.Changed = true

	if err := ctx.Err(); err != nil {
		return res, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".audiotag-*.tmp")
	if err != nil {
		return res, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()        //nolint:errcheck // Best effort cleanup
			_ = os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if err := copyWithEdits(ctx, tmp, src, size, edits); err != nil {
		return res, err
	}

	if err := fixSizeFields(tmp, sr, edits, fields); err != nil {
		return res, err
	}

	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return res, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return res, fmt.Errorf("close temp file: %w", err)
	}

	// Last point at which cancellation leaves the original in place.
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if options.backupSuffix != "" {
		if err := copyFile(path, path+options.backupSuffix, info.Mode().Perm()); err != nil {
			return res, fmt.Errorf("create backup: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return res, fmt.Errorf("rename temp to output: %w", err)
	}
	success = true

	if options.preserveModTime {
		_ = os.Chtimes(path, info.ModTime(), info.ModTime()) //nolint:errcheck // Non-fatal: file was written successfully
	}

	return res, nil
}

func copyWithEdits(ctx context.Context, dst io.Writer, src io.ReaderAt, size int64, edits []Edit) error {
	var pos int64
	for _, e := range edits {
		if err := copyRange(ctx, dst, src, pos, e.Extent.Start); err != nil {
			return err
		}
		if _, err := dst.Write(e.Data); err != nil {
			return fmt.Errorf("write spliced region: %w", err)
		}
		pos = e.Extent.End
	}
	return copyRange(ctx, dst, src, pos, size)
}

func copyRange(ctx context.Context, dst io.Writer, src io.ReaderAt, from, to int64) error {
	if to <= from {
		return nil
	}
	r := &ctxReader{ctx: ctx, r: io.NewSectionReader(src, from, to-from)}
	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("copy [%d, %d): %w", from, to, err)
	}
	return nil
}

func fixSizeFields(dst io.WriterAt, sr *binary.SafeReader, edits []Edit, fields []ledger.SizeField) error {
	for _, f := range fields {
		field := ledger.Extent{Start: f.Offset, End: f.Offset + int64(f.Width)}
		var shift, grow int64
		for _, e := range edits {
			if e.Extent.Overlaps(field) {
				return fmt.Errorf("size field %q at %d is inside edited extent %s", f.Name, f.Offset, e.Extent)
			}
			if e.Extent.End <= f.Offset {
				shift += e.Delta()
			}
			if e.Extent.Start >= f.Covers.Start && e.Extent.End <= f.Covers.End {
				grow += e.Delta()
			}
		}
		if grow == 0 {
			continue
		}

		raw, err := sr.Bytes(f.Offset, f.Width, f.Name)
		if err != nil {
			return err
		}
		value := int64(binary.Uint(raw, f.Width, f.Order)) + grow
		if value < 0 || f.Width < 8 && value >= int64(1)<<(8*f.Width) {
			return fmt.Errorf("size field %q overflows: %d", f.Name, value)
		}
		binary.PutUint(raw, uint64(value), f.Width, f.Order)
		if _, err := dst.WriteAt(raw, f.Offset+shift); err != nil {
			return fmt.Errorf("write size field %q: %w", f.Name, err)
		}
	}
	return nil
}

func copyFile(from, to string, perm os.FileMode) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // Read-only handle

	out, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close() //nolint:errcheck // Already failing
		return err
	}
	return out.Close()
}

// ctxReader fails the copy as soon as the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
