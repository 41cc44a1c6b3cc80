package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/fontmeta"
	"github.com/npillmayer/fontmeta/otedit"
	"github.com/npillmayer/fontmeta/woff2"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	"github.com/thatisuday/commando"
)

// tracer traces with key 'fontmeta'
func tracer() tracing.Trace {
	return tracing.Select("fontmeta")
}

// unset is the default for string flags a user did not provide; it lets us
// distinguish "not given" (preserve the font's value) from "given empty"
// (remove the entry).
const unset = "-"

func main() {
	initDisplay()
	initTracing()

	if len(os.Args) < 2 {
		// no arguments at all: prompt for everything
		runInteractive()
		return
	}

	commando.
		SetExecutableName("meta-tool").
		SetVersion("v0.1.0").
		SetDescription("CLI for editing OpenType/TrueType font metadata.")

	commando.
		Register("edit").
		SetDescription("Edit name table metadata of a font and write the result to a new file.").
		SetShortDescription("edit font metadata").
		AddArgument("font", "OpenType font file path (.otf or .ttf)", "").
		AddFlag("family,f", "new font family name", commando.String, unset).
		AddFlag("subfamily,s", "new subfamily (e.g. Bold, ExtraLight), used with --family", commando.String, unset).
		AddFlag("output,o", "output file path (default: <PostScriptName><ext>)", commando.String, unset).
		AddFlag("license,l", "license to add: OFL|Apache|MIT|Custom", commando.String, unset).
		AddFlag("custom-license", "custom license text (with --license Custom)", commando.String, unset).
		AddFlag("custom-license-url", "custom license URL (with --license Custom)", commando.String, unset).
		AddFlag("manufacturer,m", "manufacturer name (empty string removes the entry)", commando.String, unset).
		AddFlag("designer,d", "designer name (empty string removes the entry)", commando.String, unset).
		AddFlag("trademark,t", "trademark text (empty string removes the entry)", commando.String, unset).
		AddFlag("copyright,c", "copyright notice (default: derived from --manufacturer)", commando.String, unset).
		AddFlag("strip", "strip non-essential name records", commando.Bool, nil).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil).
		SetAction(runEditCommand)

	commando.
		Register("info").
		SetDescription("Print the name table and container summary of a font.").
		SetShortDescription("font metadata info").
		AddArgument("font", "OpenType font file path", "").
		AddFlag("verbose,V", "display additional output", commando.Bool, nil).
		SetAction(runInfoCommand)

	commando.
		Register("woff2").
		SetDescription("Convert a font to WOFF2 without metadata changes.").
		SetShortDescription("convert to WOFF2").
		AddArgument("font", "OpenType font file path", "").
		AddFlag("output,o", "output file path (default: <input>.woff2)", commando.String, unset).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil).
		SetAction(runWoff2Command)

	commando.Parse(nil)
}

func runEditCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	applyVerbosity(flags)
	fontPath := strings.TrimSpace(args["font"].Value)
	if fontPath == "" {
		fatalf("font path is required")
	}

	change := otedit.Change{
		Family:       flagField(flags["family"]),
		Subfamily:    flagField(flags["subfamily"]),
		Manufacturer: flagField(flags["manufacturer"]),
		Designer:     flagField(flags["designer"]),
		Trademark:    flagField(flags["trademark"]),
		Copyright:    flagField(flags["copyright"]),
		Strip:        mustFlagBool(flags["strip"], "strip"),
	}
	if lic := flagField(flags["license"]); lic.Defined {
		license, err := resolveLicense(lic.Value,
			flagField(flags["custom-license"]),
			flagField(flags["custom-license-url"]))
		if err != nil {
			fatalf("%v", err)
		}
		change.License = license
	}
	if !change.Copyright.Defined && change.Manufacturer.Defined && change.Manufacturer.Value != "" {
		change.Copyright = otedit.FieldOf(otedit.CopyrightNotice(change.Manufacturer.Value))
	}
	if err := change.Validate(); err != nil {
		fatalf("%v", err)
	}

	font := mustLoadFont(fontPath)
	output := outputPath(font, change, flagField(flags["output"]))
	pterm.Printf("Modifying font metadata for: %s\n", filepath.Base(fontPath))
	if err := processFont(font, change, output); err != nil {
		fatalf("%v", err)
	}
	pterm.Info.Printf("Success! Processed font saved to: %s\n", output)
}

func runInfoCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	applyVerbosity(flags)
	fontPath := strings.TrimSpace(args["font"].Value)
	if fontPath == "" {
		fatalf("font path is required")
	}
	font := mustLoadFont(fontPath)
	printFontInfo(font)
}

func runWoff2Command(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	applyVerbosity(flags)
	fontPath := strings.TrimSpace(args["font"].Value)
	if fontPath == "" {
		fatalf("font path is required")
	}
	font := mustLoadFont(fontPath)

	output := unset
	if f := flagField(flags["output"]); f.Defined && f.Value != "" {
		output = f.Value
	}
	if output == unset {
		output = strings.TrimSuffix(fontPath, filepath.Ext(fontPath)) + ".woff2"
	}

	pterm.Printf("Converting to WOFF2: %s\n", fontPath)
	fd, err := os.Create(output)
	if err != nil {
		fatalf("cannot create output file: %v", err)
	}
	defer fd.Close()
	if _, err := woff2.Encode(fd, font.Tables); err != nil {
		os.Remove(output)
		fatalf("error converting to WOFF2: %v", err)
	}
	pterm.Info.Printf("Success! WOFF2 file saved to %s\n", output)
}

// processFont applies a validated change set and saves the result.
func processFont(font *fontmeta.ScalableFont, change otedit.Change, output string) error {
	if err := font.ApplyChange(change); err != nil {
		return err
	}
	return font.Save(output)
}

// outputPath resolves the output file, defaulting to the PostScript-style
// name of the (possibly renamed) font next to the working directory.
func outputPath(font *fontmeta.ScalableFont, change otedit.Change, flag otedit.Field) string {
	if flag.Defined && strings.TrimSpace(flag.Value) != "" {
		return flag.Value
	}
	family := change.Family.Value
	if !change.Family.Defined {
		family = "UnknownFamily"
	}
	return font.DerivedFilename(family, change.Subfamily.Value)
}

func resolveLicense(kind string, text, url otedit.Field) (*otedit.License, error) {
	ltype, err := otedit.ParseLicenseType(kind)
	if err != nil {
		return nil, err
	}
	lic := &otedit.License{Type: ltype}
	if ltype == otedit.LicenseCustom {
		lic.Text = text.Value
		lic.URL = url.Value
	}
	return lic, lic.Validate()
}

// flagField converts a commando string flag into a tri-state field, with
// the sentinel default standing for "not given".
func flagField(flag commando.FlagValue) otedit.Field {
	s, err := flag.GetString()
	if err != nil {
		return otedit.Field{}
	}
	if s == unset {
		return otedit.Field{}
	}
	return otedit.FieldOf(s)
}

func mustLoadFont(path string) *fontmeta.ScalableFont {
	font, err := fontmeta.LoadOpenTypeFont(path)
	if err != nil {
		fatalf("cannot load font %s: %v", path, err)
	}
	tracer().Infof("loaded SFNT font = %s", font.Fontname)
	return font
}

func mustFlagBool(flag commando.FlagValue, name string) bool {
	b, err := flag.GetBool()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return b
}

func applyVerbosity(flags map[string]commando.FlagValue) {
	if mustFlagBool(flags["verbose"], "verbose") {
		tracer().SetTraceLevel(tracing.LevelDebug)
	}
}

func fatalf(format string, args ...interface{}) {
	pterm.Error.Printf(format+"\n", args...)
	os.Exit(1)
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// set up logging
func initTracing() {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
		"trace.fontmeta":  "Error",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	tracer().SetTraceLevel(tracing.LevelError)
}
