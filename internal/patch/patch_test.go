package patch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func ext(start, end int64) ledger.Extent {
	return ledger.Extent{Start: start, End: end}
}

func TestSplice(t *testing.T) {
	original := []byte("HEADERtagPAYLOADtrailer")

	tests := []struct {
		name  string
		edits []Edit
		want  string
	}{
		{
			name:  "grow middle",
			edits: []Edit{{Extent: ext(6, 9), Data: []byte("TAGTAG")}},
			want:  "HEADERTAGTAGPAYLOADtrailer",
		},
		{
			name:  "shrink middle",
			edits: []Edit{{Extent: ext(6, 9), Data: []byte("t")}},
			want:  "HEADERtPAYLOADtrailer",
		},
		{
			name:  "remove region",
			edits: []Edit{{Extent: ext(16, 23)}},
			want:  "HEADERtagPAYLOAD",
		},
		{
			name:  "insert at start",
			edits: []Edit{{Extent: ext(0, 0), Data: []byte("ID3")}},
			want:  "ID3HEADERtagPAYLOADtrailer",
		},
		{
			name:  "append at end",
			edits: []Edit{{Extent: ext(23, 23), Data: []byte("APE")}},
			want:  "HEADERtagPAYLOADtrailerAPE",
		},
		{
			name: "two zones in one pass",
			edits: []Edit{
				{Extent: ext(16, 23), Data: []byte("xid6")},
				{Extent: ext(6, 9), Data: []byte("hdr")},
			},
			want: "HEADERhdrPAYLOADxid6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, original)
			res, err := Splice(context.Background(), path, tt.edits, nil)
			if err != nil {
				t.Fatalf("Splice: %v", err)
			}
			got := readFile(t, path)
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !res.Changed || res.NewSize != int64(len(tt.want)) || res.OldSize != int64(len(original)) {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestSplice_InsertThenRemoveRestoresOriginal(t *testing.T) {
	original := []byte("TTA1 audio payload")
	path := writeTemp(t, original)
	end := int64(len(original))

	if _, err := Splice(context.Background(), path, []Edit{{Extent: ext(end, end), Data: []byte("APETAGEX....")}}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := Splice(context.Background(), path, []Edit{{Extent: ext(end, end+12)}}, nil); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); !bytes.Equal(got, original) {
		t.Errorf("got %q, want %q", got, original)
	}
}

func TestSplice_IdenticalBytesLeaveFileUntouched(t *testing.T) {
	original := []byte("HEADERtagPAYLOAD")
	path := writeTemp(t, original)

	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	res, err := Splice(context.Background(), path, []Edit{{Extent: ext(6, 9), Data: []byte("tag")}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed {
		t.Error("identical edit reported a change")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(past) {
		t.Errorf("mtime changed: %v", info.ModTime())
	}
}

func TestSplice_SizeFields(t *testing.T) {
	// [0,4) magic, [4,8) BE size counting [8, 20), [8,20) chunks, [20,24) DATA.
	var buf bytes.Buffer
	buf.WriteString("TWIN")
	buf.Write([]byte{0, 0, 0, 12})
	buf.WriteString("COMMxxxxNAME")
	buf.WriteString("DATA")
	path := writeTemp(t, buf.Bytes())

	field := ledger.SizeField{Name: "header size", Offset: 4, Width: 4, Order: binary.BigEndian, Covers: ext(8, 20)}

	// Insertion at the covered end counts towards the size.
	edits := []Edit{{Extent: ext(20, 20), Data: []byte("AUTHabcd")}}
	if _, err := Splice(context.Background(), path, edits, []ledger.SizeField{field}); err != nil {
		t.Fatal(err)
	}
	got := readFile(t, path)
	if want := "TWIN\x00\x00\x00\x14COMMxxxxNAMEAUTHabcdDATA"; string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplice_SizeFieldShiftedByEarlierEdit(t *testing.T) {
	data := []byte("ab\x00\x04wxyz")
	path := writeTemp(t, data)
	field := ledger.SizeField{Name: "len", Offset: 2, Width: 2, Order: binary.BigEndian, Covers: ext(4, 8)}

	edits := []Edit{
		{Extent: ext(0, 2), Data: []byte("abc")},
		{Extent: ext(4, 8), Data: []byte("wxyz12")},
	}
	if _, err := Splice(context.Background(), path, edits, []ledger.SizeField{field}); err != nil {
		t.Fatal(err)
	}
	if got, want := string(readFile(t, path)), "abc\x00\x06wxyz12"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplice_Errors(t *testing.T) {
	data := []byte("0123456789")

	tests := []struct {
		name    string
		edits   []Edit
		fields  []ledger.SizeField
		wantErr string
	}{
		{"overlap", []Edit{{Extent: ext(0, 5), Data: []byte("x")}, {Extent: ext(4, 6)}}, nil, "overlap"},
		{"same insertion point", []Edit{{Extent: ext(3, 3), Data: []byte("x")}, {Extent: ext(3, 3), Data: []byte("y")}}, nil, "overlap"},
		{"out of range", []Edit{{Extent: ext(8, 12)}}, nil, "outside file"},
		{"field inside edit", []Edit{{Extent: ext(0, 4), Data: []byte("zz")}}, []ledger.SizeField{{Name: "f", Offset: 2, Width: 2, Covers: ext(0, 10)}}, "inside edited extent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, data)
			_, err := Splice(context.Background(), path, tt.edits, tt.fields)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
			if got := readFile(t, path); !bytes.Equal(got, data) {
				t.Errorf("original modified after failure: %q", got)
			}
			assertNoTempFiles(t, filepath.Dir(path))
		})
	}
}

func TestSplice_CancelledLeavesOriginal(t *testing.T) {
	data := bytes.Repeat([]byte("payload "), 1024)
	path := writeTemp(t, data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Splice(ctx, path, []Edit{{Extent: ext(0, 0), Data: []byte("ID3")}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := readFile(t, path); !bytes.Equal(got, data) {
		t.Error("original modified after cancellation")
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestSplice_Options(t *testing.T) {
	data := []byte("HEADERtag")
	path := writeTemp(t, data)

	past := time.Now().Add(-24 * time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	_, err := Splice(context.Background(), path,
		[]Edit{{Extent: ext(6, 9), Data: []byte("TAG")}}, nil,
		WithBackup(".bak"), WithPreserveModTime())
	if err != nil {
		t.Fatal(err)
	}

	if got := readFile(t, path + ".bak"); !bytes.Equal(got, data) {
		t.Errorf("backup = %q, want %q", got, data)
	}
	if got := readFile(t, path); string(got) != "HEADERTAG" {
		t.Errorf("file = %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(past) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), past)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".audiotag-*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) > 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}
