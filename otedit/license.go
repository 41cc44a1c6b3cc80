package otedit

import (
	"errors"
	"fmt"
	"strings"
)

// LicenseType selects one of the predefined license templates, or Custom
// for caller-supplied license text.
type LicenseType string

const (
	LicenseOFL    LicenseType = "OFL"
	LicenseApache LicenseType = "Apache"
	LicenseMIT    LicenseType = "MIT"
	LicenseCustom LicenseType = "Custom"
)

// License describes the license entries (name IDs 13 and 14) to write.
// Text and URL are only consulted for LicenseCustom; for template licenses
// they are taken from the template.
type License struct {
	Type LicenseType
	Text string
	URL  string
}

// licenseTemplates holds the fixed text/URL pairs for non-custom licenses.
var licenseTemplates = map[LicenseType]License{
	LicenseOFL: {
		Type: LicenseOFL,
		Text: "This Font Software is licensed under the SIL Open Font License, Version 1.1.",
		URL:  "http://scripts.sil.org/OFL",
	},
	LicenseApache: {
		Type: LicenseApache,
		Text: "This Font Software is licensed under the Apache License, Version 2.0.",
		URL:  "http://www.apache.org/licenses/LICENSE-2.0",
	},
	LicenseMIT: {
		Type: LicenseMIT,
		Text: "This Font Software is licensed under the MIT License.",
		URL:  "https://opensource.org/licenses/MIT",
	},
}

// ErrIncompleteCustomLicense rejects a custom license missing text or URL.
var ErrIncompleteCustomLicense = errors.New("custom license requires text and URL")

// ParseLicenseType maps a (case-insensitive) user input to a LicenseType.
func ParseLicenseType(s string) (LicenseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ofl":
		return LicenseOFL, nil
	case "apache":
		return LicenseApache, nil
	case "mit":
		return LicenseMIT, nil
	case "custom":
		return LicenseCustom, nil
	}
	return "", fmt.Errorf("unknown license type %q (expected OFL|Apache|MIT|Custom)", s)
}

// Template returns the fixed license for a template type; ok is false for
// LicenseCustom and unknown types.
func Template(t LicenseType) (License, bool) {
	lic, ok := licenseTemplates[t]
	return lic, ok
}

// Validate checks that the license either is a known template or carries
// complete custom text.
func (lic *License) Validate() error {
	if lic.Type == LicenseCustom {
		if strings.TrimSpace(lic.Text) == "" || strings.TrimSpace(lic.URL) == "" {
			return ErrIncompleteCustomLicense
		}
		return nil
	}
	if _, ok := licenseTemplates[lic.Type]; !ok {
		return fmt.Errorf("unknown license type %q", lic.Type)
	}
	return nil
}

// resolved returns the effective text/URL pair, substituting template
// content for non-custom licenses. Validate must have passed.
func (lic *License) resolved() License {
	if lic.Type == LicenseCustom {
		return *lic
	}
	return licenseTemplates[lic.Type]
}
