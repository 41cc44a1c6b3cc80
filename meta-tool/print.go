package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/fontmeta"
	"github.com/npillmayer/fontmeta/otio"
	"github.com/pterm/pterm"
	"golang.org/x/image/font/sfnt"
)

func printFontInfo(font *fontmeta.ScalableFont) {
	pterm.Printf("Path: %s\n", font.Filepath)
	pterm.Printf("Name: %s\n", font.Fontname)
	pterm.Printf("Type: %s\n", fontTypeName(font.Tables.ScalerType))

	tags := font.Tables.Tags()
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.String()
	}
	pterm.Printf("Tables (%d): %s\n", len(tags), strings.Join(names, " "))

	table, err := font.Names()
	if err != nil {
		pterm.Error.Printf("cannot decode name table: %v\n", err)
		return
	}
	data := [][]string{
		{"ID", "Field", "Plat/Enc/Lang", "Value"},
	}
	for _, r := range table.Records() {
		value, ok := r.Decoded()
		if !ok {
			value = fmt.Sprintf("<%d bytes, undecoded>", len(r.Value))
		}
		data = append(data, []string{
			fmt.Sprintf("%d", r.Name),
			nameIDLabel(r.Name),
			fmt.Sprintf("%d/%d/0x%04x", r.Platform, r.Encoding, r.Language),
			clip(value, 60),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func fontTypeName(scalerType uint32) string {
	switch scalerType {
	case otio.ScalerTypeTrueType:
		return "TrueType"
	case otio.ScalerTypeCFF:
		return "OpenType/CFF"
	case otio.ScalerTypeApple:
		return "TrueType (Apple)"
	}
	return fmt.Sprintf("unknown (0x%08x)", scalerType)
}

var nameIDLabels = map[sfnt.NameID]string{
	sfnt.NameIDCopyright:            "Copyright",
	sfnt.NameIDFamily:               "Family",
	sfnt.NameIDSubfamily:            "Subfamily",
	sfnt.NameIDUniqueIdentifier:     "Unique ID",
	sfnt.NameIDFull:                 "Full Name",
	sfnt.NameIDVersion:              "Version",
	sfnt.NameIDPostScript:           "PostScript Name",
	sfnt.NameIDTrademark:            "Trademark",
	sfnt.NameIDManufacturer:         "Manufacturer",
	sfnt.NameIDDesigner:             "Designer",
	sfnt.NameIDDescription:          "Description",
	sfnt.NameIDVendorURL:            "Vendor URL",
	sfnt.NameIDDesignerURL:          "Designer URL",
	sfnt.NameIDLicense:              "License",
	sfnt.NameIDLicenseURL:           "License URL",
	sfnt.NameIDTypographicFamily:    "Typographic Family",
	sfnt.NameIDTypographicSubfamily: "Typographic Subfamily",
	sfnt.NameIDCompatibleFull:       "Compatible Full Name",
	sfnt.NameIDSampleText:           "Sample Text",
}

func nameIDLabel(id sfnt.NameID) string {
	if label, ok := nameIDLabels[id]; ok {
		return label
	}
	return fmt.Sprintf("Name ID %d", id)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
