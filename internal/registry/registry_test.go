package registry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/ledger"
	"github.com/simonhull/audiotag/internal/types"
)

// fakeCodec reports success according to ok and counts Read calls.
type fakeCodec struct {
	calls  *int
	format types.Format
	ok     bool
}

func (f *fakeCodec) Format() types.Format { return f.format }

func (f *fakeCodec) Read(*binary.SafeReader, ledger.SizeInfo) bool {
	*f.calls++
	return f.ok
}

func (f *fakeCodec) Info() types.AudioInfo { return types.AudioInfo{} }

func (f *fakeCodec) SupportedStandards() []types.TagStandard {
	return []types.TagStandard{types.StandardAPE}
}

func (f *fakeCodec) Payload() ledger.Extent          { return ledger.Extent{} }
func (f *fakeCodec) Regions() []ledger.Region        { return nil }
func (f *fakeCodec) SizeFields() []ledger.SizeField { return nil }

func descriptor(name string, format types.Format, sig string, ok bool, calls *int) Descriptor {
	return Descriptor{
		Name:   name,
		Format: format,
		IsValidHeader: func(probe []byte) bool {
			return bytes.HasPrefix(probe, []byte(sig))
		},
		New: func() AudioCodec {
			return &fakeCodec{format: format, ok: ok, calls: calls}
		},
	}
}

func reader(data []byte, path string) *binary.SafeReader {
	return binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), path)
}

func TestDetect_Alternates(t *testing.T) {
	data := []byte("TWIN97012000 ambiguous header")

	tests := []struct {
		name          string
		oks           []bool
		maxAlternates int
		wantIndex     int // -1 for undetected
		wantCalls     int
	}{
		{"first succeeds", []bool{true, true, true}, 3, 0, 1},
		{"second succeeds", []bool{false, true, true}, 3, 1, 2},
		{"all fail", []bool{false, false, false}, 3, -1, 3},
		{"bounded by ceiling", []bool{false, false, true}, 1, -1, 2},
		{"no alternates", []bool{false, true}, 0, -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			var descs []Descriptor
			for i, ok := range tt.oks {
				descs = append(descs, descriptor("c", types.Format(i+1), "TWIN", ok, &calls))
			}
			r := New(descs, nil, WithMaxAlternates(tt.maxAlternates))

			codec, err := r.Detect(context.Background(), reader(data, "x.bin"), ledger.SizeInfo{FileSize: int64(len(data))})
			if calls != tt.wantCalls {
				t.Errorf("Read called %d times, want %d", calls, tt.wantCalls)
			}
			if tt.wantIndex < 0 {
				if !errors.Is(err, types.ErrFormatUndetected) {
					t.Fatalf("expected ErrFormatUndetected, got %v", err)
				}
				var ufe *types.UnsupportedFormatError
				if !errors.As(err, &ufe) || ufe.Path != "x.bin" {
					t.Errorf("expected UnsupportedFormatError for x.bin, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if codec.Format() != types.Format(tt.wantIndex+1) {
				t.Errorf("selected %v, want %v", codec.Format(), types.Format(tt.wantIndex+1))
			}
		})
	}
}

func TestDetect_ExtensionFallback(t *testing.T) {
	calls := 0
	r := New([]Descriptor{
		descriptor("spc", types.FormatSPC, "SNES-SPC700", true, &calls),
		descriptor("tta", types.FormatTTA, "TTA1", true, &calls),
	}, nil)

	// Signature mismatch, but the extension names a registered format.
	codec, err := r.Detect(context.Background(), reader([]byte("garbage"), "song.tta"), ledger.SizeInfo{FileSize: 7})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if codec.Format() != types.FormatTTA {
		t.Errorf("format = %v, want TTA", codec.Format())
	}
}

func TestDetect_ProbesAfterID3v2(t *testing.T) {
	calls := 0
	r := New([]Descriptor{descriptor("tta", types.FormatTTA, "TTA1", true, &calls)}, nil)

	data := append(bytes.Repeat([]byte{0}, 20), []byte("TTA1....")...)
	hints := ledger.SizeInfo{ID3v2: ledger.Extent{End: 20}, FileSize: int64(len(data))}
	if _, err := r.Detect(context.Background(), reader(data, "noext"), hints); err != nil {
		t.Fatalf("Detect: %v", err)
	}
}

func TestDetect_NoCandidates(t *testing.T) {
	r := New(nil, nil)
	_, err := r.Detect(context.Background(), reader([]byte("RIFF"), "a.wav"), ledger.SizeInfo{FileSize: 4})
	if !errors.Is(err, types.ErrFormatUndetected) {
		t.Fatalf("expected ErrFormatUndetected, got %v", err)
	}
}

func TestDetect_Cancelled(t *testing.T) {
	calls := 0
	r := New([]Descriptor{descriptor("a", types.FormatSPC, "A", true, &calls)}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Detect(ctx, reader([]byte("A"), "a"), ledger.SizeInfo{FileSize: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("codec read after cancellation")
	}
}

type stubMeta struct{ std types.TagStandard }

func (s stubMeta) Standard() types.TagStandard { return s.std }
func (s stubMeta) Layout() types.Layout         { return types.LayoutAdditive }
func (s stubMeta) Read([]ledger.ZoneData, types.ReadOptions) (*types.Tag, error) {
	return types.NewTag(), nil
}
func (s stubMeta) Write([]ledger.ZoneData, *types.Update) ([][]byte, error) { return nil, nil }
func (s stubMeta) Remove([]ledger.ZoneData) ([][]byte, error)               { return nil, nil }

func TestMetaCodec(t *testing.T) {
	calls := 0
	r := New(nil, []MetaCodec{stubMeta{types.StandardAPE}, stubMeta{types.StandardID3v1}})
	codec := &fakeCodec{format: types.FormatSPC, ok: true, calls: &calls}

	m, err := r.MetaCodec(codec, types.StandardAPE)
	if err != nil || m.Standard() != types.StandardAPE {
		t.Fatalf("MetaCodec(APE) = %v, %v", m, err)
	}

	// Registered but not supported by the structure.
	_, err = r.MetaCodec(codec, types.StandardID3v1)
	var use *types.UnsupportedStandardError
	if !errors.As(err, &use) {
		t.Fatalf("expected UnsupportedStandardError, got %v", err)
	}
}
