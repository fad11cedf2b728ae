package spc

import (
	"encoding/binary"
	"fmt"
	"strconv"

	binutil "github.com/simonhull/audiotag/internal/binary"
	"github.com/simonhull/audiotag/internal/types"
)

const (
	xid6Magic      = "xid6"
	xid6HeaderSize = 8
	itemHeaderSize = 4
	maxStringLen   = 256
)

// Item types. Type 0 keeps its value in the length field.
const (
	typeData   byte = 0
	typeString byte = 1
	typeInt    byte = 4
)

// Extended ID666 item IDs.
const (
	idSong      byte = 0x01
	idGame      byte = 0x02
	idArtist    byte = 0x03
	idDumper    byte = 0x04
	idDumpDate  byte = 0x05
	idEmulator  byte = 0x06
	idComments  byte = 0x07
	idOST       byte = 0x10
	idDisc      byte = 0x11
	idTrack     byte = 0x12
	idPublisher byte = 0x13
	idCopyright byte = 0x14
	idIntroLen  byte = 0x30
	idLoopLen   byte = 0x31
	idEndLen    byte = 0x32
	idFadeLen   byte = 0x33
	idMuted     byte = 0x34
	idLoopCount byte = 0x35
	idAmplify   byte = 0x36
)

// knownTypes fixes the item type written for each documented ID.
var knownTypes = map[byte]byte{
	idSong:      typeString,
	idGame:      typeString,
	idArtist:    typeString,
	idDumper:    typeString,
	idDumpDate:  typeInt,
	idEmulator:  typeData,
	idComments:  typeString,
	idOST:       typeString,
	idDisc:      typeData,
	idTrack:     typeData,
	idPublisher: typeString,
	idCopyright: typeData,
	idIntroLen:  typeInt,
	idLoopLen:   typeInt,
	idEndLen:    typeInt,
	idFadeLen:   typeInt,
	idMuted:     typeData,
	idLoopCount: typeData,
	idAmplify:   typeInt,
}

// xitem is one extended ID666 item.
type xitem struct {
	body  []byte // string or integer payload, unpadded; nil for typeData
	id    byte
	typ   byte
	short uint16 // typeData value
}

func (it xitem) surfaced() bool {
	return it.typ == typeData || it.typ == typeString || (it.typ == typeInt && len(it.body) == 4)
}

// value returns the item as text: strings as-is, numbers in decimal.
func (it xitem) value() string {
	switch it.typ {
	case typeData:
		return strconv.Itoa(int(it.short))
	case typeString:
		return binutil.DecodeText(it.body)
	case typeInt:
		return strconv.Itoa(int(int32(binary.LittleEndian.Uint32(it.body))))
	}
	return ""
}

// newItem encodes v with the given type. Numeric types fall back to a string
// item when v is not a number in range.
func newItem(id, typ byte, v string) xitem {
	switch typ {
	case typeData:
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			return xitem{id: id, typ: typeData, short: uint16(n)}
		}
	case typeInt:
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(int32(n)))
			return xitem{id: id, typ: typeInt, body: b}
		}
	}
	b := []byte(v)
	if len(b) > maxStringLen-1 {
		b = b[:maxStringLen-1]
	}
	return xitem{id: id, typ: typeString, body: append(b, 0)}
}

// parseXID6 decodes an xid6 chunk. Truncated items end the walk with a warning.
func parseXID6(data []byte, tag *types.Tag, base int64) []xitem {
	if len(data) < xid6HeaderSize || string(data[:4]) != xid6Magic {
		if len(data) > 0 {
			tag.AddWarning("xid6", base, "chunk of %d bytes lacks the xid6 header", len(data))
		}
		return nil
	}
	size := int(binary.LittleEndian.Uint32(data[4:8]))
	body := data[xid6HeaderSize:]
	if size < len(body) {
		body = body[:size]
	}

	var items []xitem
	for pos := 0; pos+itemHeaderSize <= len(body); {
		it := xitem{id: body[pos], typ: body[pos+1]}
		n := int(binary.LittleEndian.Uint16(body[pos+2 : pos+4]))
		pos += itemHeaderSize
		if it.typ == typeData {
			it.short = uint16(n)
			items = append(items, it)
			continue
		}
		if pos+n > len(body) {
			tag.AddWarning("xid6", base+int64(xid6HeaderSize+pos), "item %#x of %d bytes runs past the chunk", it.id, n)
			break
		}
		it.body = append([]byte(nil), body[pos:pos+n]...)
		pos += pad4(n)
		items = append(items, it)
	}
	return items
}

func serializeXID6(items []xitem) []byte {
	if len(items) == 0 {
		return nil
	}
	body := binutil.NewSafeWriter()
	for _, it := range items {
		body.WriteBytes([]byte{it.id, it.typ})
		if it.typ == typeData {
			binutil.WriteLE(body, it.short)
			continue
		}
		binutil.WriteLE(body, uint16(len(it.body)))
		body.WritePadded(it.body, pad4(len(it.body)))
	}

	sw := binutil.NewSafeWriter()
	sw.WriteString(xid6Magic)
	binutil.WriteLE(sw, uint32(body.Offset()))
	sw.WriteBytes(body.Bytes())
	return sw.Bytes()
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

// parseID turns an additional-field key into an xid6 item ID.
func parseID(key string) (byte, error) {
	n, err := strconv.ParseUint(key, 10, 8)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q is not an xid6 item number (1-255)", types.ErrInvalidUpdate, key)
	}
	return byte(n), nil
}
