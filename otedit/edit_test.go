package otedit

import (
	"fmt"
	"testing"
	"time"

	"github.com/npillmayer/fontmeta/otio"
	"github.com/npillmayer/fontmeta/otname"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// --- Test Suite Preparation ------------------------------------------------

type EditTestEnviron struct {
	suite.Suite
	nameData []byte
}

// listen for 'go test' command --> run test methods
func TestEditFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmeta.otedit")
	defer teardown()
	suite.Run(t, new(EditTestEnviron))
}

// run once, before test suite methods
func (env *EditTestEnviron) SetupSuite() {
	tracing.Select("fontmeta.otedit").SetTraceLevel(tracing.LevelError)
	c, err := otio.Decode(goregular.TTF)
	env.Require().NoError(err, "expected to decode the Go Regular test font")
	env.nameData = c.Table(otio.T("name"))
	env.Require().NotNil(env.nameData, "expected test font to have a name table")
}

func (env *EditTestEnviron) table() *otname.Table {
	t, err := otname.Decode(env.nameData)
	env.Require().NoError(err, "expected to decode the name table")
	return t
}

// --- Tests -----------------------------------------------------------------

func (env *EditTestEnviron) TestValidateRejectsEmptyFamily() {
	ch := Change{Family: FieldOf("   ")}
	env.ErrorIs(ch.Validate(), ErrEmptyFamily)
}

func (env *EditTestEnviron) TestValidateRejectsOrphanSubfamily() {
	ch := Change{Subfamily: FieldOf("Bold")}
	env.ErrorIs(ch.Validate(), ErrSubfamilyWithoutFamily)
}

func (env *EditTestEnviron) TestValidateRejectsIncompleteCustomLicense() {
	ch := Change{License: &License{Type: LicenseCustom, Text: "text only"}}
	env.ErrorIs(ch.Validate(), ErrIncompleteCustomLicense)
}

func (env *EditTestEnviron) TestApplyLeavesTableOnValidationError() {
	t := env.table()
	before := t.Len()
	err := Apply(t, Change{Family: FieldOf(""), Strip: true})
	env.Error(err, "invalid change should be rejected")
	env.Equal(before, t.Len(), "rejected change must not modify the table")
}

func (env *EditTestEnviron) TestFamilyRename() {
	t := env.table()
	err := Apply(t, Change{Family: FieldOf("Fancy Sans")})
	env.Require().NoError(err)
	family, ok := t.Get(sfnt.NameIDFamily)
	env.True(ok)
	env.Equal("Fancy Sans", family)
	full, ok := t.Get(sfnt.NameIDFull)
	env.True(ok)
	env.Equal("Fancy Sans Regular", full, "full name should use existing subfamily")
	ps, ok := t.Get(sfnt.NameIDPostScript)
	env.True(ok)
	env.Equal("FancySans-Regular", ps, "PostScript name must not contain blanks")
}

func (env *EditTestEnviron) TestFamilyAndSubfamilyRename() {
	t := env.table()
	err := Apply(t, Change{
		Family:    FieldOf("Fancy Sans"),
		Subfamily: FieldOf("Semi Bold"),
	})
	env.Require().NoError(err)
	sub, ok := t.Get(sfnt.NameIDSubfamily)
	env.True(ok)
	env.Equal("Semi Bold", sub)
	full, _ := t.Get(sfnt.NameIDFull)
	env.Equal("Fancy Sans Semi Bold", full)
	ps, _ := t.Get(sfnt.NameIDPostScript)
	env.Equal("FancySans-SemiBold", ps)
}

func (env *EditTestEnviron) TestRenamePreservesVersion() {
	t := env.table()
	version, ok := t.Get(sfnt.NameIDVersion)
	env.Require().True(ok, "test font should carry a version string")
	err := Apply(t, Change{Family: FieldOf("Fancy Sans")})
	env.Require().NoError(err)
	after, ok := t.Get(sfnt.NameIDVersion)
	env.True(ok)
	env.Equal(version, after, "rename must not touch the version entry")
}

func (env *EditTestEnviron) TestLicenseTemplates() {
	for _, typ := range []LicenseType{LicenseOFL, LicenseApache, LicenseMIT} {
		t := env.table()
		err := Apply(t, Change{License: &License{Type: typ}})
		env.Require().NoError(err)
		text, ok := t.Get(sfnt.NameIDLicense)
		env.True(ok, "expected license text for %s", typ)
		url, ok := t.Get(sfnt.NameIDLicenseURL)
		env.True(ok, "expected license URL for %s", typ)
		want, _ := Template(typ)
		env.Equal(want.Text, text)
		env.Equal(want.URL, url)
	}
}

func (env *EditTestEnviron) TestCustomLicense() {
	t := env.table()
	err := Apply(t, Change{License: &License{
		Type: LicenseCustom,
		Text: "Proprietary. All rights reserved.",
		URL:  "https://example.com/license",
	}})
	env.Require().NoError(err)
	text, _ := t.Get(sfnt.NameIDLicense)
	env.Equal("Proprietary. All rights reserved.", text)
	url, _ := t.Get(sfnt.NameIDLicenseURL)
	env.Equal("https://example.com/license", url)
}

func (env *EditTestEnviron) TestParseLicenseType() {
	for input, want := range map[string]LicenseType{
		"OFL": LicenseOFL, "ofl": LicenseOFL, " Apache ": LicenseApache,
		"mit": LicenseMIT, "CUSTOM": LicenseCustom,
	} {
		typ, err := ParseLicenseType(input)
		env.NoError(err, "expected %q to parse", input)
		env.Equal(want, typ)
	}
	_, err := ParseLicenseType("GPL")
	env.Error(err, "unknown license types should be rejected")
}

func (env *EditTestEnviron) TestFieldTriState() {
	t := env.table()
	err := Apply(t, Change{Manufacturer: FieldOf("ACME Foundry")})
	env.Require().NoError(err)
	m, ok := t.Get(sfnt.NameIDManufacturer)
	env.True(ok)
	env.Equal("ACME Foundry", m)

	err = Apply(t, Change{Manufacturer: FieldOf("")})
	env.Require().NoError(err)
	_, ok = t.Get(sfnt.NameIDManufacturer)
	env.False(ok, "defined-but-empty field should remove the entry")

	before := t.Len()
	err = Apply(t, Change{})
	env.Require().NoError(err)
	env.Equal(before, t.Len(), "undefined fields should preserve everything")
}

func (env *EditTestEnviron) TestStripKeepsAllowedIDs() {
	t := env.table()
	t.Set(sfnt.NameIDSampleText, "The quick brown fox")
	err := Apply(t, Change{Strip: true})
	env.Require().NoError(err)
	allowed := make(map[sfnt.NameID]bool)
	for _, id := range AllowedNameIDs {
		allowed[id] = true
	}
	for _, r := range t.Records() {
		env.True(allowed[r.Name], "name ID %d should have been stripped", r.Name)
	}
	_, ok := t.Get(sfnt.NameIDSampleText)
	env.False(ok)
	_, ok = t.Get(sfnt.NameIDFamily)
	env.True(ok, "family must survive a strip")
}

func (env *EditTestEnviron) TestPostScriptName() {
	env.Equal("FancySans-Bold", PostScriptName("Fancy Sans", "Bold"))
	env.Equal("Fancy-Regular", PostScriptName("Fancy", ""))
}

func (env *EditTestEnviron) TestCopyrightNotice() {
	year := time.Now().Year()
	env.Equal(fmt.Sprintf("Copyright © %d ACME. All Rights Reserved.", year),
		CopyrightNotice("ACME"))
	env.Equal(fmt.Sprintf("Copyright © %d. All Rights Reserved.", year),
		CopyrightNotice(""))
}
