package spc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

// The header zone spans [headerStart, headerEnd). Slot offsets below are
// absolute file offsets.
const (
	headerStart = 0x23
	headerEnd   = 0x100
	headerLen   = headerEnd - headerStart

	tagPresent = 26
	tagAbsent  = 27
)

// slot is a fixed-width field of the ID666 header.
type slot struct {
	off   int
	width int
}

func (s slot) in(hdr []byte) []byte {
	return hdr[s.off-headerStart : s.off-headerStart+s.width]
}

var (
	slotTitle   = slot{0x2E, 32}
	slotGame    = slot{0x4E, 32}
	slotDumper  = slot{0x6E, 16}
	slotComment = slot{0x7E, 32}
)

// Slots whose position differs between the text and binary layouts.
type layoutSlots struct {
	date, seconds, fade, artist, disable, emulator slot
}

var (
	textSlots = layoutSlots{
		date:     slot{0x9E, 11},
		seconds:  slot{0xA9, 3},
		fade:     slot{0xAC, 5},
		artist:   slot{0xB1, 32},
		disable:  slot{0xD1, 1},
		emulator: slot{0xD2, 1},
	}
	binarySlots = layoutSlots{
		date:     slot{0x9E, 4},
		seconds:  slot{0xA9, 3},
		fade:     slot{0xAC, 4},
		artist:   slot{0xB0, 32},
		disable:  slot{0xD0, 1},
		emulator: slot{0xD1, 1},
	}
)

// header is the decoded ID666 block.
type header struct {
	title, game, dumper, comment, artist string
	dumpDate                             string
	seconds                              int
	fadeMS                               int
	emulator                             int
	binary                               bool
	present                              bool
}

func (h header) slots() layoutSlots {
	if h.binary {
		return binarySlots
	}
	return textSlots
}

// textLayout guesses the layout from the date, length and fade slots: in the
// text layout they only hold digits, slashes and padding.
func textLayout(hdr []byte) bool {
	for off := 0x9E; off <= 0xB0; off++ {
		c := hdr[off-headerStart]
		if c != 0 && c != '/' && c != ' ' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func decodeHeader(hdr []byte) header {
	h := header{
		present: hdr[0] == tagPresent,
		binary:  !textLayout(hdr),
	}
	if !h.present {
		return h
	}
	ls := h.slots()
	h.title = binary.FixedString(slotTitle.in(hdr))
	h.game = binary.FixedString(slotGame.in(hdr))
	h.dumper = binary.FixedString(slotDumper.in(hdr))
	h.comment = binary.FixedString(slotComment.in(hdr))
	h.artist = binary.FixedString(ls.artist.in(hdr))

	if h.binary {
		if d := binary.Uint(ls.date.in(hdr), 4, binary.LittleEndian); d != 0 {
			h.dumpDate = strconv.FormatUint(d, 10)
		}
		h.seconds = int(binary.Uint(ls.seconds.in(hdr), 3, binary.LittleEndian))
		h.fadeMS = int(binary.Uint(ls.fade.in(hdr), 4, binary.LittleEndian))
		h.emulator = int(ls.emulator.in(hdr)[0])
	} else {
		h.dumpDate = binary.FixedString(ls.date.in(hdr))
		h.seconds = atoi(binary.FixedString(ls.seconds.in(hdr)))
		h.fadeMS = atoi(binary.FixedString(ls.fade.in(hdr)))
		if c := ls.emulator.in(hdr)[0]; c >= '0' && c <= '9' {
			h.emulator = int(c - '0')
		}
	}
	return h
}

// encodeHeader rewrites the ID666 slots of prev. The flag is set to "tag
// present"; bytes outside the slots are kept as they were.
func encodeHeader(prev []byte, h header) []byte {
	hdr := make([]byte, headerLen)
	copy(hdr, prev)
	hdr[0] = tagPresent

	ls := h.slots()
	putText(hdr, slotTitle, h.title)
	putText(hdr, slotGame, h.game)
	putText(hdr, slotDumper, h.dumper)
	putText(hdr, slotComment, h.comment)
	putText(hdr, ls.artist, h.artist)

	if h.binary {
		binary.PutUint(ls.date.in(hdr), uint64(binaryDate(h.dumpDate)), 4, binary.LittleEndian)
		binary.PutUint(ls.seconds.in(hdr), uint64(min(h.seconds, 999)), 3, binary.LittleEndian)
		binary.PutUint(ls.fade.in(hdr), uint64(min(h.fadeMS, 99999)), 4, binary.LittleEndian)
		ls.emulator.in(hdr)[0] = byte(h.emulator)
		return hdr
	}

	putText(hdr, ls.date, textDate(h.dumpDate))
	putText(hdr, ls.seconds, itoa(min(h.seconds, 999)))
	putText(hdr, ls.fade, itoa(min(h.fadeMS, 99999)))
	if h.emulator > 0 && h.emulator < 10 {
		ls.emulator.in(hdr)[0] = byte('0' + h.emulator)
	} else {
		ls.emulator.in(hdr)[0] = 0
	}
	return hdr
}

// clearHeader resets the descriptive slots to zero. The SPC700 registers and
// the playback timing slots are left alone. The flag falls back to "no
// ID666" once no timing is left, so a header written onto an untagged dump
// clears back to it.
func clearHeader(prev []byte) []byte {
	hdr := make([]byte, headerLen)
	copy(hdr, prev)
	ls := textSlots
	if !textLayout(hdr) {
		ls = binarySlots
	}
	for _, s := range []slot{slotTitle, slotGame, slotDumper, slotComment, ls.date, ls.artist, ls.emulator} {
		clear(s.in(hdr))
	}
	if zero(ls.seconds.in(hdr)) && zero(ls.fade.in(hdr)) {
		hdr[0] = tagAbsent
	}
	return hdr
}

func zero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func putText(hdr []byte, s slot, v string) {
	dst := s.in(hdr)
	clear(dst)
	copy(dst, binary.EncodeLatin1(v))
}

// fits reports whether v survives a round trip through a Latin-1 slot of width bytes.
func fits(v string, width int) bool {
	b := binary.EncodeLatin1(v)
	return len(b) <= width && binary.DecodeLatin1(b) == v
}

// binaryDate accepts "YYYYMMDD" or any form understood by types.ParseDate.
func binaryDate(s string) uint32 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil && len(s) == 8 {
		return uint32(n)
	}
	d, err := types.ParseDate(s)
	if err != nil {
		return 0
	}
	return uint32(d.Year*10000 + d.Month*100 + d.Day)
}

// textDate renders s as MM/DD/YYYY. Any other byte in the slot would make
// the header read back as the binary layout.
func textDate(s string) string {
	s = strings.TrimSpace(s)
	if strings.Trim(s, "0123456789/") == "" && len(s) <= textSlots.date.width {
		return s
	}
	d, err := types.ParseDate(s)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", max(d.Month, 1), max(d.Day, 1), d.Year)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func itoa(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
