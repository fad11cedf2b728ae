// Package audiotag reads and rewrites the tags of audio files without
// touching their audio data.
//
// A file may carry several tag standards at once, each owning its own byte
// range: an ID3v2 tag at the start of a TTA stream, an APEv2 tag and an
// ID3v1 block at its end, the ID666 header interleaved with an SPC dump.
// audiotag maps these ranges once per call, decodes or re-encodes only the
// range it was asked about, and splices the result into a scratch copy of
// the file that replaces the original when complete.
//
// # Quick Start
//
// Reading every tag of a file:
//
//	eng := audiotag.New()
//	file, err := eng.ReadAll(ctx, "theme.spc")
//	if err != nil {
//		log.Fatal(err)
//	}
//	tag, _ := file.Tag(audiotag.StandardNative)
//	fmt.Printf("%s - %s (%s)\n", tag.Artist, tag.Title, file.Audio.Duration)
//
// Updating one field:
//
//	u := audiotag.NewUpdate().Set(audiotag.FieldPublisher, "Square-Enix")
//	err = eng.UpdateTag(ctx, "theme.spc", audiotag.StandardNative, u)
//
// # Supported Formats
//
//   - SPC: SNES SPC700 dumps with ID666 and extended (xid6) tags, plus APEv2
//   - VQF: TwinVQ files with their header text chunks
//   - TTA: True Audio streams with ID3v2, APEv2 and ID3v1
//
// # Tag Standards
//
// Additive standards (ID3v1, ID3v2, APE, VQF chunks) are containers that
// can be added and removed. Adding one to an untagged file and removing it
// again restores the original bytes. Native-embedded standards (SPC ID666)
// are interleaved with playback data: they always exist, and removing them
// resets their fields in place.
//
// Fields without a canonical mapping are kept as additional fields keyed by
// the standard's own identifier ("GERR" in VQF, "TXXX:MOOD" in ID3v2, "55"
// for an xid6 item). An update never drops additional fields it does not
// name, and an additional field never overrides a canonical one.
//
// # Error Handling
//
// audiotag distinguishes between fatal errors and warnings:
//
//   - Fatal errors stop the call (file not found, unsupported format, I/O failure)
//   - Warnings report entries that were skipped (truncated items, bad values)
//
// A failed write never modifies the original file.
//
// # Concurrency
//
// An Engine and its Registry are safe for concurrent use on different paths.
// Calls on the same path must be serialized by the caller.
package audiotag
