package woff2

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/npillmayer/fontmeta/otio"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goregular"
)

// --- Test Suite Preparation ------------------------------------------------

type Woff2TestEnviron struct {
	suite.Suite
	c       *otio.Container
	encoded []byte
}

// listen for 'go test' command --> run test methods
func TestWoff2Functions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmeta.woff2")
	defer teardown()
	suite.Run(t, new(Woff2TestEnviron))
}

// run once, before test suite methods
func (env *Woff2TestEnviron) SetupSuite() {
	tracing.Select("fontmeta.woff2").SetTraceLevel(tracing.LevelError)
	c, err := otio.Decode(goregular.TTF)
	env.Require().NoError(err, "expected to decode the Go Regular test font")
	env.c = c
	buf := &bytes.Buffer{}
	n, err := Encode(buf, c)
	env.Require().NoError(err, "expected to encode the test font as WOFF2")
	env.Require().Equal(int64(buf.Len()), n)
	env.encoded = buf.Bytes()
}

// directoryEntry is a decoded table directory entry, for checking the
// encoder's output.
type directoryEntry struct {
	tag        otio.Tag
	transform  byte
	origLength uint32
}

// parseDirectory reads the table directory following the file header and
// returns the entries plus the offset of the compressed data stream.
func (env *Woff2TestEnviron) parseDirectory() ([]directoryEntry, int) {
	numTables := int(binary.BigEndian.Uint16(env.encoded[12:14]))
	pos := headerSize
	entries := make([]directoryEntry, numTables)
	for i := range entries {
		flags := env.encoded[pos]
		pos++
		var tag otio.Tag
		if flags&0x3f == arbitraryTag {
			tag = otio.Tag(binary.BigEndian.Uint32(env.encoded[pos : pos+4]))
			pos += 4
		} else {
			for t, idx := range knownTagIndex {
				if idx == flags&0x3f {
					tag = t
					break
				}
			}
		}
		var origLength uint32
		for {
			b := env.encoded[pos]
			pos++
			origLength = origLength<<7 | uint32(b&0x7f)
			if b&0x80 == 0 {
				break
			}
		}
		entries[i] = directoryEntry{tag: tag, transform: flags >> 6, origLength: origLength}
	}
	return entries, pos
}

// --- Tests -----------------------------------------------------------------

func (env *Woff2TestEnviron) TestHeaderFields() {
	env.Require().GreaterOrEqual(len(env.encoded), headerSize)
	env.Equal(Signature, binary.BigEndian.Uint32(env.encoded[0:4]), "expected wOF2 signature")
	env.Equal(env.c.ScalerType, binary.BigEndian.Uint32(env.encoded[4:8]), "flavor should be the scaler type")
	env.Equal(uint32(len(env.encoded)), binary.BigEndian.Uint32(env.encoded[8:12]), "header length should match file size")
	env.Equal(len(env.c.Tags()), int(binary.BigEndian.Uint16(env.encoded[12:14])))
	env.Zero(binary.BigEndian.Uint16(env.encoded[14:16]), "reserved field must be zero")
	env.Zero(len(env.encoded)%4, "file must be padded to 4 bytes")

	want := uint32(12 + 16*len(env.c.Tags()))
	for _, tag := range env.c.Tags() {
		want += 4 * ((uint32(len(env.c.Table(tag))) + 3) / 4)
	}
	env.Equal(want, binary.BigEndian.Uint32(env.encoded[16:20]), "totalSfntSize mismatch")
}

func (env *Woff2TestEnviron) TestDirectoryEntries() {
	entries, _ := env.parseDirectory()
	env.Equal(len(env.c.Tags()), len(entries))
	for _, e := range entries {
		body := env.c.Table(e.tag)
		env.Require().NotNil(body, "directory lists unknown table %s", e.tag)
		env.Equal(uint32(len(body)), e.origLength, "origLength mismatch for %s", e.tag)
		if e.tag == otio.T("glyf") || e.tag == otio.T("loca") {
			env.Equal(byte(nullTransform), e.transform, "glyf/loca must use the null transform")
		} else {
			env.Zero(e.transform, "unexpected transform for %s", e.tag)
		}
	}
}

func (env *Woff2TestEnviron) TestLocaFollowsGlyf() {
	entries, _ := env.parseDirectory()
	glyfAt := -1
	for i, e := range entries {
		if e.tag == otio.T("glyf") {
			glyfAt = i
		}
	}
	env.Require().GreaterOrEqual(glyfAt, 0, "test font should contain glyf")
	env.Require().Less(glyfAt+1, len(entries))
	env.Equal(otio.T("loca"), entries[glyfAt+1].tag, "loca must directly follow glyf")
}

func (env *Woff2TestEnviron) TestStreamDecompressesToTableData() {
	entries, streamStart := env.parseDirectory()
	compressedSize := int(binary.BigEndian.Uint32(env.encoded[20:24]))
	env.Require().LessOrEqual(streamStart+compressedSize, len(env.encoded))
	r := brotli.NewReader(bytes.NewReader(env.encoded[streamStart : streamStart+compressedSize]))
	stream, err := io.ReadAll(r)
	env.Require().NoError(err, "expected a valid Brotli stream")

	want := &bytes.Buffer{}
	for _, e := range entries {
		want.Write(env.c.Table(e.tag))
	}
	env.True(bytes.Equal(want.Bytes(), stream), "decompressed stream should equal concatenated tables")
}

func (env *Woff2TestEnviron) TestUIntBase128() {
	cases := map[uint32][]byte{
		0:          {0x00},
		127:        {0x7f},
		128:        {0x81, 0x00},
		0x3fff:     {0xff, 0x7f},
		0xffffffff: {0x8f, 0xff, 0xff, 0xff, 0x7f},
	}
	for v, want := range cases {
		buf := &bytes.Buffer{}
		writeUIntBase128(buf, v)
		env.Equal(want, buf.Bytes(), "UIntBase128 encoding of %d", v)
	}
}
