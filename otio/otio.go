/*
Package otio reads and writes the physical SFNT container of OpenType and
TrueType fonts. It deliberately stops at the table directory level: every
table is exposed as its raw byte slice and is written back untouched unless a
client replaced it. Interpreting table contents is the business of sister
packages.

https://docs.microsoft.com/en-us/typography/opentype/spec/otff

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"sort"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmeta.otio'
func tracer() tracing.Trace {
	return tracing.Select("fontmeta.otio")
}

// Scaler types an SFNT container may announce in its first 4 bytes.
// 'typ1' is obsolete and not supported.
const (
	ScalerTypeTrueType uint32 = 0x00010000 // OpenType with TrueType outlines
	ScalerTypeCFF      uint32 = 0x4F54544F // 'OTTO', OpenType with CFF outlines
	ScalerTypeApple    uint32 = 0x74727565 // 'true', Apple TrueType
)

// Tag identifies an SFNT table ('name', 'glyf', …).
type Tag uint32

// MakeTag creates a Tag from up to 4 bytes. Shorter input is left-padded
// with zeros, longer input is cut.
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// T returns a Tag for a (4-letter) string, e.g. T("name").
// Shorter strings are padded with blanks, longer ones are cut.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return MakeTag([]byte(t))
}

func (t Tag) String() string {
	return string([]byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	})
}

func (t Tag) isASCII() bool {
	for _, c := range []byte(t.String()) {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// Container is the decoded table directory of a single-font SFNT stream,
// with each table held as its original raw bytes.
type Container struct {
	ScalerType uint32
	tables     map[Tag][]byte
}

var (
	// ErrNotAFont flags input that does not start like an SFNT stream.
	ErrNotAFont = errors.New("input is not an OpenType or TrueType font")
	// ErrCorruptDirectory flags a table directory with out-of-bounds entries.
	ErrCorruptDirectory = errors.New("corrupt SFNT table directory")
)

const (
	headerSize = 12
	recordSize = 16
	// the largest table count seen in common system fonts is well below this
	maxTables = 512
)

// Decode parses the table directory of an SFNT font and slices the input
// into per-table segments. Table bytes alias the input buffer; the buffer
// must not change afterwards.
func Decode(data []byte) (*Container, error) {
	if len(data) < headerSize {
		return nil, ErrNotAFont
	}
	scalerType := binary.BigEndian.Uint32(data[0:4])
	switch scalerType {
	case ScalerTypeTrueType, ScalerTypeCFF, ScalerTypeApple:
	default:
		return nil, fmt.Errorf("%w: scaler type 0x%08x", ErrNotAFont, scalerType)
	}
	numTables := int(binary.BigEndian.Uint16(data[4:6]))
	if numTables == 0 || numTables > maxTables {
		return nil, fmt.Errorf("%w: %d tables", ErrCorruptDirectory, numTables)
	}
	if headerSize+numTables*recordSize > len(data) {
		return nil, ErrCorruptDirectory
	}
	c := &Container{
		ScalerType: scalerType,
		tables:     make(map[Tag][]byte, numTables),
	}
	for i := 0; i < numTables; i++ {
		rec := data[headerSize+i*recordSize : headerSize+(i+1)*recordSize]
		tag := MakeTag(rec[0:4])
		offset := binary.BigEndian.Uint32(rec[8:12])
		length := binary.BigEndian.Uint32(rec[12:16])
		if !tag.isASCII() {
			tracer().Infof("skipping table with non-ASCII tag 0x%08x", uint32(tag))
			continue
		}
		end := uint64(offset) + uint64(length)
		if offset < headerSize || end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: table %s extends beyond EOF", ErrCorruptDirectory, tag)
		}
		if _, ok := c.tables[tag]; ok {
			tracer().Infof("duplicate table %s, keeping first occurrence", tag)
			continue
		}
		c.tables[tag] = data[offset:end]
	}
	if len(c.tables) == 0 {
		return nil, ErrCorruptDirectory
	}
	return c, nil
}

// Table returns the raw bytes of a table, or nil if the font has no table
// with this tag.
func (c *Container) Table(tag Tag) []byte {
	if c == nil {
		return nil
	}
	return c.tables[tag]
}

// Has reports whether the container holds all of the given tables.
func (c *Container) Has(tags ...Tag) bool {
	for _, tag := range tags {
		if c.Table(tag) == nil {
			return false
		}
	}
	return true
}

// SetTable replaces a table's bytes, or adds the table to the directory.
func (c *Container) SetTable(tag Tag, data []byte) {
	if data == nil {
		data = []byte{}
	}
	c.tables[tag] = data
}

// RemoveTable drops a table from the directory. Dropping a table the font
// does not have is a no-op.
func (c *Container) RemoveTable(tag Tag) {
	delete(c.tables, tag)
}

// Tags returns the tags of all tables in the container, in ascending
// byte order.
func (c *Container) Tags() []Tag {
	tags := make([]Tag, 0, len(c.tables))
	for tag := range c.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Write serializes the container as an SFNT stream: directory entries in
// ascending tag order, table data in the recommended physical order, tables
// padded to 4-byte boundaries, and the checkSumAdjustment field of a present
// 'head' table recomputed in the output.
//
// Unchanged tables are written byte-for-byte as decoded.
func (c *Container) Write(w io.Writer) (int64, error) {
	numTables := len(c.tables)
	if numTables == 0 {
		return 0, ErrCorruptDirectory
	}

	// physical order of table data follows the recommended layout
	physical := c.Tags()
	sort.SliceStable(physical, func(i, j int) bool {
		return layoutPriority[physical[i]] > layoutPriority[physical[j]]
	})

	entrySelector := bits.Len(uint(numTables)) - 1
	header := offsetSubtable{
		ScalerType:    c.ScalerType,
		NumTables:     uint16(numTables),
		SearchRange:   uint16(1 << (entrySelector + 4)),
		EntrySelector: uint16(entrySelector),
		RangeShift:    uint16(16 * (numTables - 1<<entrySelector)),
	}

	// table bytes may alias the decoded input, so the head checksum is
	// patched on a copy
	var headCopy []byte
	if head := c.tables[T("head")]; len(head) >= 12 {
		headCopy = append([]byte(nil), head...)
		clearChecksum(headCopy)
	}
	tableBody := func(tag Tag) []byte {
		if tag == T("head") && headCopy != nil {
			return headCopy
		}
		return c.tables[tag]
	}

	var totalSum uint32
	offset := uint32(headerSize + recordSize*numTables)
	records := make([]directoryRecord, numTables)
	for i, tag := range physical {
		body := tableBody(tag)
		length := uint32(len(body))
		sum := checksum(body)
		records[i] = directoryRecord{
			Tag:      uint32(tag),
			CheckSum: sum,
			Offset:   offset,
			Length:   length,
		}
		totalSum += sum
		offset += 4 * ((length + 3) / 4)
	}
	// directory entries must be sorted by tag
	sort.Slice(records, func(i, j int) bool { return records[i].Tag < records[j].Tag })

	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.BigEndian, header)
	_ = binary.Write(buf, binary.BigEndian, records)
	headerBytes := buf.Bytes()
	totalSum += checksum(headerBytes)

	if headCopy != nil {
		patchChecksum(headCopy, totalSum)
	}

	var written int64
	n, err := w.Write(headerBytes)
	written += int64(n)
	if err != nil {
		return written, err
	}
	var pad [3]byte
	for _, tag := range physical {
		body := tableBody(tag)
		n, err := w.Write(body)
		written += int64(n)
		if err != nil {
			return written, err
		}
		if k := n % 4; k != 0 {
			l, err := w.Write(pad[:4-k])
			written += int64(l)
			if err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Bytes serializes the container into a fresh buffer; see Write.
func (c *Container) Bytes() ([]byte, error) {
	buf := &bytes.Buffer{}
	if _, err := c.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type offsetSubtable struct {
	ScalerType    uint32
	NumTables     uint16
	SearchRange   uint16
	EntrySelector uint16
	RangeShift    uint16
}

type directoryRecord struct {
	Tag      uint32
	CheckSum uint32
	Offset   uint32
	Length   uint32
}

// checksum sums a table as big-endian uint32s, the trailing partial word
// zero-padded.
func checksum(body []byte) uint32 {
	var sum uint32
	for len(body) >= 4 {
		sum += binary.BigEndian.Uint32(body[:4])
		body = body[4:]
	}
	if len(body) > 0 {
		var last [4]byte
		copy(last[:], body)
		sum += binary.BigEndian.Uint32(last[:])
	}
	return sum
}

func clearChecksum(head []byte) {
	binary.BigEndian.PutUint32(head[8:12], 0)
}

// patchChecksum sets head.checkSumAdjustment from the checksum of the whole
// font, per the 'head' table specification.
func patchChecksum(head []byte, sum uint32) {
	binary.BigEndian.PutUint32(head[8:12], 0xB1B0AFBA-sum)
}

// https://docs.microsoft.com/en-us/typography/opentype/spec/recom#optimized-table-ordering
var layoutPriority = map[Tag]int{
	T("head"): 95,
	T("hhea"): 90,
	T("maxp"): 85,
	T("OS/2"): 80,
	T("hmtx"): 75,
	T("LTSH"): 70,
	T("VDMX"): 65,
	T("hdmx"): 60,
	T("cmap"): 55,
	T("fpgm"): 50,
	T("prep"): 45,
	T("cvt "): 40,
	T("loca"): 35,
	T("glyf"): 30,
	T("kern"): 25,
	T("name"): 20,
	T("post"): 15,
	T("gasp"): 10,
	T("DSIG"): 5,
}
