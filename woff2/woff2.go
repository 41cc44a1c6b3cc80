/*
Package woff2 wraps an SFNT font into the WOFF2 container format
(https://www.w3.org/TR/WOFF2/). Table data is carried unchanged: the
encoder uses the null transform for all tables, including glyf and loca,
and compresses the concatenated table stream with Brotli, as the WOFF2
specification mandates.

This is packaging only. No table is reordered internally, subset or
otherwise rewritten, so a WOFF2 decoder reconstructs the original tables
byte for byte.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package woff2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/npillmayer/fontmeta/otio"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmeta.woff2'
func tracer() tracing.Trace {
	return tracing.Select("fontmeta.woff2")
}

// Signature is the WOFF2 magic number 'wOF2'.
const Signature uint32 = 0x774F4632

const (
	headerSize = 48
	// transform version signalling the null transform for glyf and loca
	nullTransform = 3
	// flag value signalling an explicit 4-byte tag after the flags byte
	arbitraryTag = 63
)

// Encode writes the container's tables as a WOFF2 stream. The font flavor
// is taken from the container's scaler type; metadata and private blocks
// are not written.
func Encode(w io.Writer, c *otio.Container) (int64, error) {
	tags := orderedTags(c)
	numTables := len(tags)
	if numTables == 0 {
		return 0, otio.ErrCorruptDirectory
	}

	// table directory and uncompressed data stream, in the same order
	directory := &bytes.Buffer{}
	stream := &bytes.Buffer{}
	totalSfntSize := uint32(12 + 16*numTables)
	for _, tag := range tags {
		body := c.Table(tag)
		writeDirectoryEntry(directory, tag, uint32(len(body)))
		stream.Write(body)
		totalSfntSize += 4 * ((uint32(len(body)) + 3) / 4)
	}

	compressed := &bytes.Buffer{}
	bw := brotli.NewWriterLevel(compressed, brotli.BestCompression)
	if _, err := bw.Write(stream.Bytes()); err != nil {
		return 0, fmt.Errorf("compressing font data: %w", err)
	}
	if err := bw.Close(); err != nil {
		return 0, fmt.Errorf("compressing font data: %w", err)
	}
	tracer().Debugf("compressed %d table bytes to %d", stream.Len(), compressed.Len())

	length := headerSize + directory.Len() + compressed.Len()
	padding := (4 - length%4) % 4
	length += padding

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[0:4], Signature)
	binary.BigEndian.PutUint32(header[4:8], c.ScalerType)
	binary.BigEndian.PutUint32(header[8:12], uint32(length))
	binary.BigEndian.PutUint16(header[12:14], uint16(numTables))
	// reserved at 14:16 stays zero
	binary.BigEndian.PutUint32(header[16:20], totalSfntSize)
	binary.BigEndian.PutUint32(header[20:24], uint32(compressed.Len()))
	// majorVersion/minorVersion at 24:28 and the meta/priv block fields at
	// 28:48 stay zero

	var written int64
	for _, block := range [][]byte{header, directory.Bytes(), compressed.Bytes(), make([]byte, padding)} {
		n, err := w.Write(block)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// orderedTags returns the container's tags in ascending order, except that
// loca is moved directly behind glyf as the WOFF2 specification requires.
func orderedTags(c *otio.Container) []otio.Tag {
	tags := c.Tags()
	glyf, loca := otio.T("glyf"), otio.T("loca")
	if !c.Has(glyf, loca) {
		return tags
	}
	reordered := make([]otio.Tag, 0, len(tags))
	for _, tag := range tags {
		if tag == loca {
			continue
		}
		reordered = append(reordered, tag)
		if tag == glyf {
			reordered = append(reordered, loca)
		}
	}
	return reordered
}

func writeDirectoryEntry(buf *bytes.Buffer, tag otio.Tag, origLength uint32) {
	flags := byte(arbitraryTag)
	if idx, ok := knownTagIndex[tag]; ok {
		flags = idx
	}
	if tag == otio.T("glyf") || tag == otio.T("loca") {
		flags |= nullTransform << 6
	}
	buf.WriteByte(flags)
	if flags&0x3f == arbitraryTag {
		var raw [4]byte
		binary.BigEndian.PutUint32(raw[:], uint32(tag))
		buf.Write(raw[:])
	}
	writeUIntBase128(buf, origLength)
	// the null transform carries no transformLength
}

// writeUIntBase128 emits a UIntBase128 variable-length integer: 7 bits per
// byte, most significant first, high bit set on all but the last byte.
func writeUIntBase128(buf *bytes.Buffer, v uint32) {
	var tmp [5]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			break
		}
	}
	for j := i; j < len(tmp)-1; j++ {
		tmp[j] |= 0x80
	}
	buf.Write(tmp[i:])
}

// knownTagIndex is the known table tags array of the WOFF2 specification;
// a tag's index is stored in the directory entry's flag bits 0-5.
var knownTagIndex = makeKnownTagIndex()

func makeKnownTagIndex() map[otio.Tag]byte {
	known := []string{
		"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
		"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
		"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
		"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
		"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
		"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
		"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
		"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
	}
	m := make(map[otio.Tag]byte, len(known))
	for i, name := range known {
		m[otio.T(name)] = byte(i)
	}
	return m
}
