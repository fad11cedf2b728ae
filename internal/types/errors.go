package types

import (
	"errors"
	"fmt"
)

var (
	// ErrFormatUndetected is wrapped by UnsupportedFormatError when every
	// candidate structure codec failed to read the file.
	ErrFormatUndetected = errors.New("format undetected")

	// ErrInvalidUpdate is returned for update requests carrying a zero Value
	// or an empty additional-field identifier.
	ErrInvalidUpdate = errors.New("invalid update")

	// ErrOverlappingZones is returned when two tag standards claim
	// intersecting byte ranges.
	ErrOverlappingZones = errors.New("overlapping tag zones")
)

// OutOfBoundsError is returned when a tag region points beyond file bounds.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int64
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size {
		return fmt.Sprintf("%s: offset %d out of bounds (file size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

// UnsupportedFormatError is returned when no registered codec can read the file.
type UnsupportedFormatError struct {
	Err    error
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return e.Err
}

// CorruptedFileError is returned when file structure is invalid.
type CorruptedFileError struct {
	Path   string
	Reason string
	Offset int64
}

func (e *CorruptedFileError) Error() string {
	return fmt.Sprintf("%s: corrupted file at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// UnsupportedStandardError is returned when a tag standard is requested on a
// format that does not accept it.
type UnsupportedStandardError struct {
	Format   Format
	Standard TagStandard
}

func (e *UnsupportedStandardError) Error() string {
	return fmt.Sprintf("%s does not support %s tags", e.Format, e.Standard)
}

// UnsupportedWriteError indicates a write cannot be performed.
type UnsupportedWriteError struct {
	Reason string
	Format Format
}

func (e *UnsupportedWriteError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("write not supported for %s: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("write not supported for %s", e.Format)
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent metadata extraction but
// may indicate corrupted or unusual data. Examples include:
//   - An APE item whose declared size runs past the footer
//   - An xid6 item with an unknown type byte
//   - A picture larger than the configured limit
//
// Warnings are collected per tag and on File.Warnings.
type Warning struct {
	// Stage where the warning occurred ("ape", "id3v2", "xid6", "chunk", "structure")
	Stage string

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
