/*
Package otedit implements metadata edits on a font's 'name' table: renaming
the font family, filling in license information, and setting or removing
vendor-related fields, while leaving everything else in the font untouched.

Edits are described by a Change value and applied to a decoded
otname.Table. Validation happens up front, before any mutation, so a
rejected change never leaves a half-edited table behind.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otedit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/npillmayer/fontmeta/otname"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'fontmeta.otedit'
func tracer() tracing.Trace {
	return tracing.Select("fontmeta.otedit")
}

// Field is a tri-state value for a name table entry: undefined fields are
// preserved, defined-but-empty fields remove the entry, and non-empty
// fields replace it.
type Field struct {
	Defined bool
	Value   string
}

// FieldOf returns a defined Field holding the given value.
func FieldOf(value string) Field {
	return Field{Defined: true, Value: value}
}

// Change is a set of metadata edits to apply to a font.
type Change struct {
	Family       Field    // renames the family (name IDs 1 and 16)
	Subfamily    Field    // new subfamily (name ID 2); requires Family
	License      *License // nil leaves license fields untouched
	Manufacturer Field    // name ID 8
	Designer     Field    // name ID 9
	Trademark    Field    // name ID 7
	Copyright    Field    // name ID 0
	Strip        bool     // drop records outside AllowedNameIDs
}

// AllowedNameIDs is the keep-list for Change.Strip: the name IDs a
// well-formed distribution font is expected to carry.
var AllowedNameIDs = []sfnt.NameID{
	sfnt.NameIDCopyright,
	sfnt.NameIDFamily,
	sfnt.NameIDSubfamily,
	sfnt.NameIDUniqueIdentifier,
	sfnt.NameIDFull,
	sfnt.NameIDVersion,
	sfnt.NameIDPostScript,
	sfnt.NameIDTrademark,
	sfnt.NameIDManufacturer,
	sfnt.NameIDDesigner,
	sfnt.NameIDLicense,
	sfnt.NameIDLicenseURL,
	sfnt.NameIDTypographicFamily,
	sfnt.NameIDTypographicSubfamily,
}

var (
	// ErrEmptyFamily rejects a rename to an empty family name.
	ErrEmptyFamily = errors.New("new family name must not be empty")
	// ErrSubfamilyWithoutFamily rejects a subfamily change without a family rename.
	ErrSubfamilyWithoutFamily = errors.New("subfamily requires a new family name")
)

// Validate checks a change set without touching any font data.
func (ch Change) Validate() error {
	if ch.Family.Defined && strings.TrimSpace(ch.Family.Value) == "" {
		return ErrEmptyFamily
	}
	if ch.Subfamily.Defined && !ch.Family.Defined {
		return ErrSubfamilyWithoutFamily
	}
	if ch.License != nil {
		if err := ch.License.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Apply validates the change set and performs it on a decoded name table.
// The table is not modified if validation fails.
func Apply(t *otname.Table, ch Change) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	if t == nil {
		return otname.ErrMalformedTable
	}

	if ch.Family.Defined {
		family := ch.Family.Value
		subfamily := ch.Subfamily.Value
		if !ch.Subfamily.Defined {
			// keep the font's own subfamily for the rebuilt full name
			subfamily, _ = t.Get(sfnt.NameIDSubfamily)
			if subfamily == "" {
				subfamily = "Regular"
			}
		}
		t.Rewrite(sfnt.NameIDFamily, family)
		t.Rewrite(sfnt.NameIDTypographicFamily, family)
		if ch.Subfamily.Defined {
			t.Set(sfnt.NameIDSubfamily, subfamily)
		}
		t.Rewrite(sfnt.NameIDFull, family+" "+subfamily)
		t.Rewrite(sfnt.NameIDPostScript, PostScriptName(family, subfamily))
		tracer().Infof("renamed family to %q (subfamily %q)", family, subfamily)
	}

	if ch.License != nil {
		lic := ch.License.resolved()
		t.Set(sfnt.NameIDLicense, lic.Text)
		t.Set(sfnt.NameIDLicenseURL, lic.URL)
	}

	applyField(t, sfnt.NameIDManufacturer, ch.Manufacturer)
	applyField(t, sfnt.NameIDDesigner, ch.Designer)
	applyField(t, sfnt.NameIDTrademark, ch.Trademark)
	applyField(t, sfnt.NameIDCopyright, ch.Copyright)

	if ch.Strip {
		removed := t.Strip(AllowedNameIDs)
		tracer().Infof("stripped %d non-essential name records", removed)
	}
	return nil
}

func applyField(t *otname.Table, id sfnt.NameID, f Field) {
	if !f.Defined {
		return
	}
	if f.Value == "" {
		t.Remove(id)
		return
	}
	t.Set(id, f.Value)
}

// PostScriptName derives a PostScript font name from family and subfamily,
// with blanks removed as required for name ID 6.
func PostScriptName(family, subfamily string) string {
	f := strings.ReplaceAll(family, " ", "")
	s := strings.ReplaceAll(subfamily, " ", "")
	if s == "" {
		s = "Regular"
	}
	return f + "-" + s
}

// CopyrightNotice builds a default copyright string for the current year,
// optionally crediting a manufacturer.
func CopyrightNotice(manufacturer string) string {
	year := time.Now().Year()
	if manufacturer != "" {
		return fmt.Sprintf("Copyright © %d %s. All Rights Reserved.", year, manufacturer)
	}
	return fmt.Sprintf("Copyright © %d. All Rights Reserved.", year)
}
