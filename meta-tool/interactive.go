package main

import (
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/fontmeta/otedit"
	"github.com/pterm/pterm"
)

// runInteractive prompts for every setting, mirroring the flag surface of
// the 'edit' command. Empty answers keep the font's current values.
func runInteractive() {
	pterm.Info.Println("Welcome to the font metadata tool")
	pterm.Println("Empty answers keep the font's current values. Quit with <ctrl>D.")

	repl, err := readline.New("fontmeta > ")
	if err != nil {
		fatalf("cannot start interactive mode: %v", err)
	}
	defer repl.Close()
	prompter := &prompter{repl: repl}

	fontPath := prompter.ask("Path to the input font file")
	if fontPath == "" {
		fatalf("font path is required")
	}
	font := mustLoadFont(fontPath)
	printFontInfo(font)

	change := otedit.Change{}
	if family := prompter.ask("New family name"); family != "" {
		change.Family = otedit.FieldOf(family)
		if subfamily := prompter.ask("New subfamily (e.g. Bold)"); subfamily != "" {
			change.Subfamily = otedit.FieldOf(subfamily)
		}
	}
	change.License = promptLicense(prompter)
	if manufacturer := prompter.ask("Manufacturer"); manufacturer != "" {
		change.Manufacturer = otedit.FieldOf(manufacturer)
	}
	if designer := prompter.ask("Designer"); designer != "" {
		change.Designer = otedit.FieldOf(designer)
	}
	if trademark := prompter.ask("Trademark"); trademark != "" {
		change.Trademark = otedit.FieldOf(trademark)
	}
	if copyright := prompter.ask("Copyright notice"); copyright != "" {
		change.Copyright = otedit.FieldOf(copyright)
	} else if change.Manufacturer.Defined {
		change.Copyright = otedit.FieldOf(otedit.CopyrightNotice(change.Manufacturer.Value))
	}
	change.Strip = prompter.confirm("Strip non-essential name records?")

	if err := change.Validate(); err != nil {
		fatalf("%v", err)
	}
	output := prompter.ask("Output file path (empty for default)")
	if output == "" {
		output = outputPath(font, change, otedit.Field{})
	}
	if err := processFont(font, change, output); err != nil {
		fatalf("%v", err)
	}
	pterm.Info.Printf("Success! Processed font saved to: %s\n", output)
}

func promptLicense(p *prompter) *otedit.License {
	kind := p.ask("License to add [OFL|Apache|MIT|Custom]")
	if kind == "" {
		return nil
	}
	ltype, err := otedit.ParseLicenseType(kind)
	if err != nil {
		pterm.Error.Println(err)
		return promptLicense(p)
	}
	lic := &otedit.License{Type: ltype}
	if ltype == otedit.LicenseCustom {
		lic.Text = p.ask("Custom license text")
		lic.URL = p.ask("Custom license URL")
	}
	if err := lic.Validate(); err != nil {
		pterm.Error.Println(err)
		return promptLicense(p)
	}
	return lic
}

type prompter struct {
	repl *readline.Instance
}

// ask poses one question and returns the trimmed answer; EOF aborts the
// whole run, as there is nothing sensible to do with half an answer set.
func (p *prompter) ask(question string) string {
	p.repl.SetPrompt(question + ": ")
	line, err := p.repl.Readline()
	if err != nil { // io.EOF
		pterm.Info.Println("Good bye!")
		os.Exit(0)
	}
	return strings.TrimSpace(line)
}

func (p *prompter) confirm(question string) bool {
	answer := strings.ToLower(p.ask(question + " [y/N]"))
	return answer == "y" || answer == "yes"
}
