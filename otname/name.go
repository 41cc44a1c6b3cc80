/*
Package otname decodes, edits and re-encodes the OpenType 'name' table, the
naming subtable holding human-readable metadata strings of a font.

Records are kept in an ordered list, keyed by (platform, encoding, language,
name-ID) as defined by the NameRecord layout in the OpenType specification:
https://docs.microsoft.com/en-us/typography/opentype/spec/name

Mutations operate on the string level; records in encodings the package
cannot transcode are carried through verbatim.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otname

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// tracer writes to trace with key 'fontmeta.otname'
func tracer() tracing.Trace {
	return tracing.Select("fontmeta.otname")
}

const (
	nameHeaderSize = 6
	nameRecordSize = 12
)

type PlatformID uint16

const (
	PlatformIDUnicode   PlatformID = 0
	PlatformIDMacintosh PlatformID = 1
	PlatformIDWindows   PlatformID = 3
)

type EncodingID uint16

const (
	EncodingIDUnicodeBMP    EncodingID = 3
	EncodingIDMacRoman      EncodingID = 0
	EncodingIDWindowsSymbol EncodingID = 0
	EncodingIDWindowsBMP    EncodingID = 1
)

// LanguageIDWindowsEnUS is the Windows language ID for US English, the
// canonical language for records written by this package.
const LanguageIDWindowsEnUS uint16 = 0x0409

// Record is one NameRecord entry of a 'name' table. Value holds the string
// bytes in the record's own encoding.
type Record struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16
	Name     sfnt.NameID // see https://pkg.go.dev/golang.org/x/image/font/sfnt#NameID
	Value    []byte
}

// Decoded returns the record's string value transcoded to UTF-8, with ok
// false for encodings the package does not understand.
func (r Record) Decoded() (string, bool) {
	s, err := decodeValue(r.Platform, r.Encoding, r.Value)
	if err != nil {
		return "", false
	}
	return s, true
}

// Table is the decoded 'name' table: an ordered list of records.
type Table struct {
	records []Record
}

var ErrMalformedTable = errors.New("malformed name table")

// Decode parses the binary 'name' table. Table versions 0 and 1 are
// accepted; language-tag records of version 1 (language IDs >= 0x8000) are
// dropped, as no current consumer of this package needs them.
func Decode(data []byte) (*Table, error) {
	if len(data) < nameHeaderSize {
		return nil, ErrMalformedTable
	}
	version := u16(data[0:2])
	if version > 1 {
		return nil, fmt.Errorf("%w: version %d", ErrMalformedTable, version)
	}
	count := int(u16(data[2:4]))
	storageOffset := int(u16(data[4:6]))
	recordsEnd := nameHeaderSize + count*nameRecordSize
	if recordsEnd > len(data) || storageOffset > len(data) {
		return nil, ErrMalformedTable
	}
	t := &Table{records: make([]Record, 0, count)}
	for i := 0; i < count; i++ {
		rec := data[nameHeaderSize+i*nameRecordSize : nameHeaderSize+(i+1)*nameRecordSize]
		r := Record{
			Platform: PlatformID(u16(rec[0:2])),
			Encoding: EncodingID(u16(rec[2:4])),
			Language: u16(rec[4:6]),
			Name:     sfnt.NameID(u16(rec[6:8])),
		}
		strLen := int(u16(rec[8:10]))
		strOffset := int(u16(rec[10:12]))
		start := storageOffset + strOffset
		end := start + strLen
		if start < 0 || strLen < 0 || end > len(data) {
			tracer().Infof("skipping out-of-bounds name record %d/%d/%d",
				r.Platform, r.Encoding, r.Name)
			continue
		}
		if r.Language >= 0x8000 {
			tracer().Infof("dropping language-tag name record for name ID %d", r.Name)
			continue
		}
		r.Value = append([]byte(nil), data[start:end]...)
		t.records = append(t.records, r)
	}
	return t, nil
}

// Len returns the number of records in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the table's record list.
func (t *Table) Records() []Record {
	return append([]Record(nil), t.records...)
}

// All yields decoded (nameID, value) pairs for all records in supported
// encodings, in record order.
func (t *Table) All() iter.Seq2[sfnt.NameID, string] {
	return func(yield func(sfnt.NameID, string) bool) {
		if t == nil {
			return
		}
		for _, r := range t.records {
			value, ok := r.Decoded()
			if !ok || value == "" {
				continue
			}
			if !yield(r.Name, value) {
				return
			}
		}
	}
}

// Get returns the decoded value for a name ID. Windows/Unicode records take
// precedence over Macintosh ones, mirroring the lookup order of common text
// stacks. ok is false if no record for the ID can be decoded.
func (t *Table) Get(id sfnt.NameID) (string, bool) {
	if t == nil {
		return "", false
	}
	var fallback string
	var haveFallback bool
	for _, r := range t.records {
		if r.Name != id {
			continue
		}
		value, ok := r.Decoded()
		if !ok {
			continue
		}
		if r.Platform == PlatformIDWindows || r.Platform == PlatformIDUnicode {
			return value, true
		}
		if !haveFallback {
			fallback, haveFallback = value, true
		}
	}
	return fallback, haveFallback
}

// Set removes all records for the given name ID and adds one canonical
// Windows/Unicode-BMP/en-US record with the given value.
func (t *Table) Set(id sfnt.NameID, value string) {
	t.Remove(id)
	t.records = append(t.records, Record{
		Platform: PlatformIDWindows,
		Encoding: EncodingIDWindowsBMP,
		Language: LanguageIDWindowsEnUS,
		Name:     id,
		Value:    utf16Encode(value),
	})
}

// Remove drops all records for a name ID and returns how many were dropped.
func (t *Table) Remove(id sfnt.NameID) int {
	kept := t.records[:0]
	removed := 0
	for _, r := range t.records {
		if r.Name == id {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	t.records = kept
	return removed
}

// Rewrite replaces the string of every existing record for a name ID,
// re-encoded in each record's own encoding. Records that do not exist are
// not created, and records in unsupported encodings stay untouched.
func (t *Table) Rewrite(id sfnt.NameID, value string) {
	for i, r := range t.records {
		if r.Name != id {
			continue
		}
		encoded, err := encodeValue(r.Platform, r.Encoding, value)
		if err != nil {
			tracer().Infof("keeping name record %d/%d/%d: %v",
				r.Platform, r.Encoding, r.Name, err)
			continue
		}
		t.records[i].Value = encoded
	}
}

// Strip drops every record whose name ID is not in keep.
func (t *Table) Strip(keep []sfnt.NameID) int {
	allowed := make(map[sfnt.NameID]bool, len(keep))
	for _, id := range keep {
		allowed[id] = true
	}
	kept := t.records[:0]
	removed := 0
	for _, r := range t.records {
		if !allowed[r.Name] {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	t.records = kept
	return removed
}

// Encode serializes the table as a version 0 'name' table: records sorted
// by (platform, encoding, language, name-ID), string storage deduplicated.
func (t *Table) Encode() []byte {
	records := append([]Record(nil), t.records...)
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Platform != records[j].Platform {
			return records[i].Platform < records[j].Platform
		}
		if records[i].Encoding != records[j].Encoding {
			return records[i].Encoding < records[j].Encoding
		}
		if records[i].Language != records[j].Language {
			return records[i].Language < records[j].Language
		}
		return records[i].Name < records[j].Name
	})

	storage := newStringStorage()
	type placed struct {
		Record
		offset uint16
		length uint16
	}
	placedRecords := make([]placed, len(records))
	for i, r := range records {
		offset, length := storage.add(r.Value)
		placedRecords[i] = placed{Record: r, offset: offset, length: length}
	}

	storageStart := nameHeaderSize + len(records)*nameRecordSize
	out := make([]byte, storageStart+len(storage.data))
	put16(out[2:4], uint16(len(records)))
	put16(out[4:6], uint16(storageStart))
	for i, r := range placedRecords {
		rec := out[nameHeaderSize+i*nameRecordSize : nameHeaderSize+(i+1)*nameRecordSize]
		put16(rec[0:2], uint16(r.Platform))
		put16(rec[2:4], uint16(r.Encoding))
		put16(rec[4:6], r.Language)
		put16(rec[6:8], uint16(r.Name))
		put16(rec[8:10], r.length)
		put16(rec[10:12], r.offset)
	}
	copy(out[storageStart:], storage.data)
	return out
}

// --- String storage ---------------------------------------------------

// stringStorage collects record string bytes, re-using the slot of
// byte-identical values.
type stringStorage struct {
	data []byte
	idx  map[string]uint16
}

func newStringStorage() *stringStorage {
	return &stringStorage{idx: make(map[string]uint16)}
}

func (s *stringStorage) add(b []byte) (offset, length uint16) {
	key := string(b)
	if off, ok := s.idx[key]; ok {
		return off, uint16(len(b))
	}
	off := uint16(len(s.data))
	s.idx[key] = off
	s.data = append(s.data, b...)
	return off, uint16(len(b))
}

// --- Encodings --------------------------------------------------------

func decodeValue(platform PlatformID, encoding EncodingID, value []byte) (string, error) {
	switch {
	case platform == PlatformIDUnicode,
		platform == PlatformIDWindows:
		return utf16Decode(value)
	case platform == PlatformIDMacintosh && encoding == EncodingIDMacRoman:
		s, err := charmap.Macintosh.NewDecoder().Bytes(value)
		if err != nil {
			return "", fmt.Errorf("decoding Mac Roman error: %v", err)
		}
		return string(s), nil
	}
	return "", fmt.Errorf("unsupported name record encoding %d/%d", platform, encoding)
}

func encodeValue(platform PlatformID, encoding EncodingID, value string) ([]byte, error) {
	switch {
	case platform == PlatformIDUnicode,
		platform == PlatformIDWindows:
		return utf16Encode(value), nil
	case platform == PlatformIDMacintosh && encoding == EncodingIDMacRoman:
		b, err := charmap.Macintosh.NewEncoder().Bytes([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("encoding Mac Roman error: %v", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported name record encoding %d/%d", platform, encoding)
}

func utf16Decode(value []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	s, err := enc.NewDecoder().Bytes(value)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16 error: %v", err)
	}
	return string(s), nil
}

func utf16Encode(value string) []byte {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	b, err := enc.NewEncoder().Bytes([]byte(value))
	if err != nil {
		// UTF-16 can represent all of Unicode; this is unreachable for
		// valid UTF-8 input.
		tracer().Errorf("encoding UTF-16 error: %v", err)
		return nil
	}
	return b
}

func u16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func put16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}
