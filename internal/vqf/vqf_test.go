package vqf

import (
	"bytes"
	"encoding/binary"
	"slices"
	"testing"
	"time"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/types"
)

const payloadLen = 4000

// commChunk describes stereo 44.1 kHz at 20 kbps.
func commChunk() chunk {
	data := make([]byte, 16)
	binary.BigEndian.PutUint32(data[0:], 1)
	binary.BigEndian.PutUint32(data[4:], 20)
	binary.BigEndian.PutUint32(data[8:], 44)
	return chunk{id: idComm, data: data}
}

func dsizChunk() chunk {
	return chunk{id: "DSIZ", data: []byte{0, 0, 0x0F, 0xA0}}
}

// vqfFile assembles a VQF image: magic, version, header size, COMM, the
// given chunks, then DATA and a synthetic payload.
func vqfFile(chunks ...chunk) []byte {
	hdr := serialize(append([]chunk{commChunk()}, chunks...))
	b := []byte(Magic + "97012000")
	b = binary.BigEndian.AppendUint32(b, uint32(len(hdr)))
	b = append(b, hdr...)
	b = append(b, idData...)
	for i := 0; i < payloadLen-len(idData); i++ {
		b = append(b, byte(i*7))
	}
	return b
}

func emptyFile() []byte {
	return vqfFile(dsizChunk())
}

// taggedFile carries every mapped chunk plus an unmapped GERR chunk.
func taggedFile() []byte {
	return vqfFile(
		chunk{"NAME", []byte("Test !!")},
		chunk{"AUTH", []byte("Artist")},
		chunk{"ALBM", []byte("Bob")},
		chunk{"GENR", []byte("Rock")},
		chunk{"COMT", []byte("this is a comment")},
		chunk{"YEAR", []byte("2016")},
		chunk{"TRCK", []byte("22")},
		chunk{"(c) ", []byte("Alright")},
		chunk{"GERR", []byte("Bock")},
		dsizChunk(),
	)
}

func open(t *testing.T, data []byte) (*Codec, []ledger.ZoneData) {
	t.Helper()
	sr := binutil.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.vqf")
	c := New()
	if !c.Read(sr, ledger.Scan(sr)) {
		t.Fatal("Read rejected the file")
	}
	l, err := ledger.New(sr.Size(), c.Payload(), c.Regions(), c.SizeFields())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	r, ok := l.Locate(types.StandardChunk)
	if !ok {
		t.Fatal("chunk region missing")
	}
	zones, err := l.Load(sr, r)
	if err != nil {
		t.Fatal(err)
	}
	return c, zones
}

// splice replaces the chunk zone and adjusts the header size by the delta.
func splice(t *testing.T, data []byte, zones []ledger.ZoneData, out [][]byte) []byte {
	t.Helper()
	e := zones[0].Extent
	res := append(bytes.Clone(data[:e.Start]), out[0]...)
	res = append(res, data[e.End:]...)
	size := int64(binary.BigEndian.Uint32(res[sizeOffset:])) + int64(len(out[0])) - e.Len()
	binary.BigEndian.PutUint32(res[sizeOffset:], uint32(size))
	return res
}

func readTag(t *testing.T, data []byte) *types.Tag {
	t.Helper()
	_, zones := open(t, data)
	tag, err := chunkCodec{}.Read(zones, types.ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return tag
}

func write(t *testing.T, data []byte, u *types.Update) []byte {
	t.Helper()
	_, zones := open(t, data)
	out, err := chunkCodec{}.Write(zones, u)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	return splice(t, data, zones, out)
}

func remove(t *testing.T, data []byte) []byte {
	t.Helper()
	_, zones := open(t, data)
	out, err := chunkCodec{}.Remove(zones)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	return splice(t, data, zones, out)
}

func TestDescriptor(t *testing.T) {
	d := Descriptor()
	if !d.IsValidHeader(emptyFile()[:64]) {
		t.Error("signature not recognized")
	}
	if d.IsValidHeader([]byte("TWINxxxxxxxx\x00\x00\x00\x00")) {
		t.Error("non-numeric version accepted")
	}
	if d.New().Format() != types.FormatVQF {
		t.Error("wrong format")
	}
}

func TestRead_Structure(t *testing.T) {
	data := taggedFile()
	c, zones := open(t, data)

	info := c.Info()
	if info.SampleRate != 44100 || info.Channels != 2 || info.Bitrate != 20000 {
		t.Errorf("info = %+v", info)
	}
	// 4000 bytes at 20 kbps.
	if info.Duration != 1600*time.Millisecond {
		t.Errorf("duration = %v", info.Duration)
	}

	p := c.Payload()
	if !bytes.HasPrefix(data[p.Start:], []byte(idData)) || p.End != int64(len(data)) {
		t.Errorf("payload = %v", p)
	}
	if zones[0].Extent.End != p.Start {
		t.Errorf("chunk zone %v does not reach DATA at %d", zones[0].Extent, p.Start)
	}
	if !c.Regions()[0].Present {
		t.Error("text chunks not detected")
	}

	sf := c.SizeFields()
	if len(sf) != 1 || sf[0].Offset != sizeOffset || sf[0].Covers != (ledger.Extent{Start: chunksStart, End: p.Start}) {
		t.Errorf("size fields = %+v", sf)
	}
}

func TestRead_Rejects(t *testing.T) {
	good := emptyFile()
	noComm := vqfFile()
	copy(noComm[chunksStart:], "XXXX")

	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", append([]byte("TWIX"), good[4:]...)},
		{"bad version", append([]byte("TWIN9701ABCD"), good[12:]...)},
		{"truncated version", good[:10]},
		{"COMM not first", noComm},
		{"no DATA marker", good[:len(good)-payloadLen]},
		{"chunk past EOF", good[:chunksStart+10]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := binutil.NewSafeReader(bytes.NewReader(tt.data), int64(len(tt.data)), "bad.vqf")
			if New().Read(sr, ledger.Scan(sr)) {
				t.Error("Read accepted invalid input")
			}
		})
	}
}

func TestChunk_Read(t *testing.T) {
	tag := readTag(t, taggedFile())

	want := map[types.Field]string{
		types.FieldTitle:       "Test !!",
		types.FieldArtist:      "Artist",
		types.FieldAlbum:       "Bob",
		types.FieldGenre:       "Rock",
		types.FieldComment:     "this is a comment",
		types.FieldDate:        "2016",
		types.FieldTrackNumber: "22",
		types.FieldCopyright:   "Alright",
	}
	for f, v := range want {
		if got := tag.Get(f); got != v {
			t.Errorf("%s = %q, want %q", f, got, v)
		}
	}
	if v, _ := tag.AdditionalField("GERR"); v != "Bock" {
		t.Errorf("GERR = %q", v)
	}
	if tag.AdditionalCount() != 1 {
		t.Errorf("additional = %d, DSIZ must not surface", tag.AdditionalCount())
	}
}

func TestChunk_EmptyDoesNotExist(t *testing.T) {
	c, _ := open(t, emptyFile())
	if c.Regions()[0].Present {
		t.Error("DSIZ alone counted as a tag")
	}
	if readTag(t, emptyFile()).Exists() {
		t.Error("empty file reports a tag")
	}
}

func TestChunk_Latin1Fallback(t *testing.T) {
	data := vqfFile(chunk{"NAME", []byte{'C', 'a', 'f', 0xE9}}, dsizChunk())
	if got := readTag(t, data).Title; got != "Café" {
		t.Errorf("title = %q", got)
	}
}

func TestChunk_WriteThenRemoveRestoresFile(t *testing.T) {
	orig := emptyFile()
	u := types.NewUpdate().
		Set(types.FieldTitle, "Test !!").
		Set(types.FieldAlbum, "Album").
		Set(types.FieldArtist, "Artist").
		Set(types.FieldCopyright, "父").
		Set(types.FieldComment, "This is a test").
		Set(types.FieldDate, "01/01/2008").
		Set(types.FieldGenre, "FPS").
		Set(types.FieldTrackNumber, "22/23")
	data := write(t, orig, u)

	tag := readTag(t, data)
	if !tag.Exists() {
		t.Fatal("tag missing after write")
	}
	if tag.Copyright != "父" || tag.Date.Year != 2008 || tag.TrackNumber != 22 || tag.Genre != "FPS" {
		t.Errorf("tag = %+v", tag)
	}
	c, _ := open(t, data)
	if end := c.Payload().Start; int64(binary.BigEndian.Uint32(data[sizeOffset:])) != end-chunksStart {
		t.Error("header size not updated")
	}

	data = remove(t, data)
	if !bytes.Equal(data, orig) {
		t.Error("remove did not restore the untagged file")
	}
	if readTag(t, data).Exists() {
		t.Error("tag still present after remove")
	}
}

func TestChunk_NewChunksPrecedeDSIZ(t *testing.T) {
	data := write(t, emptyFile(), types.NewUpdate().Set(types.FieldTitle, "x"))
	_, zones := open(t, data)
	chunks := parseChunks(zones[0].Data, types.NewTag(), 0)
	if len(chunks) != 2 || chunks[0].id != "NAME" || chunks[1].id != "DSIZ" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestChunk_NoAliasing(t *testing.T) {
	data := write(t, taggedFile(), types.NewUpdate().Set(types.FieldTitle, "THE TITLE"))
	if got := readTag(t, data).Title; got != "THE TITLE" {
		t.Fatalf("title = %q", got)
	}
	data = write(t, data, types.NewUpdate().SetAdditional(types.StandardChunk, "NAME", "THAT TITLE"))
	if got := readTag(t, data).Title; got != "THE TITLE" {
		t.Errorf("additional NAME overwrote the title: %q", got)
	}
}

func TestChunk_ExistingFieldRoundTrip(t *testing.T) {
	orig := taggedFile()
	data := write(t, orig, types.NewUpdate().Set(types.FieldCopyright, "Squaresoft"))
	tag := readTag(t, data)
	if tag.Copyright != "Squaresoft" || tag.Title != "Test !!" {
		t.Fatalf("tag = %+v", tag)
	}
	if v, _ := tag.AdditionalField("GERR"); v != "Bock" {
		t.Error("unsupported chunk lost")
	}

	data = write(t, data, types.NewUpdate().Set(types.FieldCopyright, "Alright"))
	if !bytes.Equal(data, orig) {
		t.Error("restoring the copyright did not restore the file")
	}
}

func TestChunk_UndecodableChunkSurvivesUnrelatedUpdate(t *testing.T) {
	orig := vqfFile(
		chunk{"NAME", []byte("Old")},
		chunk{"YEAR", []byte("unknown")},
		dsizChunk(),
	)
	if w := readTag(t, orig).Warnings; len(w) == 0 {
		t.Fatal("expected a warning for the YEAR chunk")
	}

	data := write(t, orig, types.NewUpdate().Set(types.FieldTitle, "New"))
	_, zones := open(t, data)
	var ids []string
	for _, ch := range parseChunks(zones[0].Data, types.NewTag(), 0) {
		ids = append(ids, ch.id)
		if ch.id == "YEAR" && string(ch.data) != "unknown" {
			t.Errorf("YEAR = %q", ch.data)
		}
	}
	if want := []string{"NAME", "YEAR", "DSIZ"}; !slices.Equal(ids, want) {
		t.Errorf("chunks = %v, want %v", ids, want)
	}
	if got := readTag(t, data).Title; got != "New" {
		t.Errorf("title = %q", got)
	}

	data = write(t, data, types.NewUpdate().Set(types.FieldTitle, "Old"))
	if !bytes.Equal(data, orig) {
		t.Error("restoring the title did not restore the file")
	}

	data = write(t, data, types.NewUpdate().Set(types.FieldDate, "1999"))
	if got := readTag(t, data).Date.Year; got != 1999 {
		t.Errorf("year = %d after an explicit date update", got)
	}
}

func TestChunk_AdditionalAccounting(t *testing.T) {
	data := write(t, emptyFile(), types.NewUpdate().
		SetAdditional(types.StandardChunk, "TEST", "This is a test").
		SetAdditional(types.StandardChunk, "TES2", "This is another test"))
	tag := readTag(t, data)
	if !tag.Exists() || tag.AdditionalCount() != 2 {
		t.Fatalf("additional = %d", tag.AdditionalCount())
	}

	data = write(t, data, types.NewUpdate().DeleteAdditional(types.StandardChunk, "TEST"))
	tag = readTag(t, data)
	if tag.AdditionalCount() != 1 {
		t.Errorf("additional = %d, want 1", tag.AdditionalCount())
	}
	if v, _ := tag.AdditionalField("TES2"); v != "This is another test" {
		t.Errorf("TES2 = %q", v)
	}
}

func TestChunk_InvalidAdditional(t *testing.T) {
	_, zones := open(t, taggedFile())
	for _, id := range []string{"DSIZ", "TOOLONG", "AB", "A\x01BC"} {
		u := types.NewUpdate().SetAdditional(types.StandardChunk, id, "x")
		if _, err := (chunkCodec{}).Write(zones, u); err == nil {
			t.Errorf("%q accepted", id)
		}
	}
}

func TestChunk_NoOpKeepsBytes(t *testing.T) {
	orig := taggedFile()
	if data := write(t, orig, types.NewUpdate()); !bytes.Equal(data, orig) {
		t.Error("no-op write changed the file")
	}
}

func TestParseChunks_Truncated(t *testing.T) {
	b := serialize([]chunk{{"NAME", []byte("abcdef")}})
	tag := types.NewTag()
	if got := parseChunks(b[:len(b)-2], tag, 100); len(got) != 0 || len(tag.Warnings) != 1 {
		t.Errorf("chunks %v warnings %v", got, tag.Warnings)
	}
}
