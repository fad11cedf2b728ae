package audiotag_test

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/simonhull/audiotag"
)

func TestUpdateTag_Backup(t *testing.T) {
	eng := audiotag.New()
	path := writeFile(t, "song.tta", ttaImage())
	orig := readBytes(t, path)

	err := eng.UpdateTag(context.Background(), path, audiotag.StandardAPE, fullUpdate(), audiotag.WithBackup(".bak"))
	if err != nil {
		t.Fatalf("UpdateTag failed: %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if !bytes.Equal(backup, orig) {
		t.Error("backup differs from the original file")
	}
	if bytes.Equal(readBytes(t, path), orig) {
		t.Error("file not rewritten")
	}
}

func TestUpdateTag_NoOpSkipsBackup(t *testing.T) {
	eng := audiotag.New()
	ctx := context.Background()
	path := writeFile(t, "song.tta", ttaImage())

	if err := eng.UpdateTag(ctx, path, audiotag.StandardAPE, fullUpdate()); err != nil {
		t.Fatal(err)
	}
	if err := eng.UpdateTag(ctx, path, audiotag.StandardAPE, fullUpdate(), audiotag.WithBackup(".bak")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Errorf("backup written for an unchanged file: %v", err)
	}
}

func TestUpdateTag_Validation(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		std  audiotag.TagStandard
	}{
		{"TTA ID3v2", "song.tta", ttaImage(), audiotag.StandardID3v2},
		{"TTA APE", "song.tta", ttaImage(), audiotag.StandardAPE},
		{"TTA ID3v1", "song.tta", ttaImage(), audiotag.StandardID3v1},
		{"SPC native", "theme.spc", spcImage(nil), audiotag.StandardNative},
		{"VQF chunks", "song.vqf", vqfImage(), audiotag.StandardChunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			err := audiotag.New().UpdateTag(context.Background(), path, tt.std, fullUpdate(), audiotag.WithValidation())
			if err != nil {
				t.Errorf("UpdateTag with validation failed: %v", err)
			}
		})
	}
}

func TestUpdateTag_PreserveModTime(t *testing.T) {
	eng := audiotag.New()
	path := writeFile(t, "theme.spc", spcImage(nil))

	past := time.Date(2001, 4, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	u := audiotag.NewUpdate().Set(audiotag.FieldTitle, "Confusing Melody")
	if err := eng.UpdateTag(context.Background(), path, audiotag.StandardNative, u, audiotag.WithPreserveModTime()); err != nil {
		t.Fatalf("UpdateTag failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(past) {
		t.Errorf("ModTime = %v, want %v", info.ModTime(), past)
	}
}

func TestUpdateTag_NilUpdate(t *testing.T) {
	eng := audiotag.New()
	path := writeFile(t, "song.vqf", vqfImage())
	before := fileSum(t, path)

	if err := eng.UpdateTag(context.Background(), path, audiotag.StandardChunk, nil); err != nil {
		t.Fatalf("UpdateTag(nil) failed: %v", err)
	}
	if fileSum(t, path) != before {
		t.Error("empty update modified the file")
	}
}
