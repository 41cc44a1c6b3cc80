package fontmeta

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/npillmayer/fontmeta/otedit"
	"github.com/npillmayer/fontmeta/otio"
	"github.com/npillmayer/fontmeta/otname"
	"golang.org/x/image/font/sfnt"
)

// ScalableFont is an in-memory OpenType or TrueType font (TTF or OTF),
// holding the raw bytes, the decoded table container, and an SFNT view used
// for sanity checks and name lookups.
type ScalableFont struct {
	Fontname string
	Filepath string          // file path, empty for fonts parsed from memory
	Binary   []byte          // raw data as read
	SFNT     *sfnt.Font      // the font's container view // TODO: not threadsafe???
	Tables   *otio.Container // raw table directory, the editable representation
}

// ErrNoNameTable flags a font without a 'name' table.
var ErrNoNameTable = errors.New("font has no name table")

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	f.Tables, err = otio.Decode(f.Binary)
	if err != nil {
		return nil, err
	}
	if f.Fontname, err = f.SFNT.Name(nil, sfnt.NameIDFull); err == nil {
		tracer().Debugf("loaded and parsed SFNT %s", f.Fontname)
	}
	return f, nil
}

// Names decodes the font's 'name' table.
func (f *ScalableFont) Names() (*otname.Table, error) {
	data := f.Tables.Table(otio.T("name"))
	if data == nil {
		return nil, ErrNoNameTable
	}
	return otname.Decode(data)
}

// ApplyChange applies a metadata change set to the font's name table and
// puts the re-encoded table back into the container. No other table is
// touched. The font is unchanged if validation or decoding fails.
func (f *ScalableFont) ApplyChange(ch otedit.Change) error {
	names, err := f.Names()
	if err != nil {
		return err
	}
	if err := otedit.Apply(names, ch); err != nil {
		return err
	}
	f.Tables.SetTable(otio.T("name"), names.Encode())
	return nil
}

// Save serializes the font and writes it to path. Before anything is
// written the serialized bytes are re-parsed as a sanity gate, so a failed
// save never produces an output file.
func (f *ScalableFont) Save(path string) error {
	bytez, err := f.Tables.Bytes()
	if err != nil {
		return fmt.Errorf("cannot serialize font: %w", err)
	}
	if _, err := sfnt.Parse(bytez); err != nil {
		return fmt.Errorf("serialized font fails to parse: %w", err)
	}
	if err := os.WriteFile(path, bytez, 0o644); err != nil {
		return fmt.Errorf("cannot write font file: %w", err)
	}
	tracer().Infof("wrote font %s (%d bytes)", path, len(bytez))
	f.Binary = bytez
	return nil
}

// DerivedFilename builds the default output file name for a renamed font:
// the PostScript name plus the extension of the input file.
func (f *ScalableFont) DerivedFilename(family, subfamily string) string {
	if subfamily == "" {
		if names, err := f.Names(); err == nil {
			subfamily, _ = names.Get(sfnt.NameIDSubfamily)
		}
	}
	ext := filepath.Ext(f.Filepath)
	if ext == "" {
		ext = ".ttf"
	}
	return otedit.PostScriptName(family, subfamily) + ext
}
