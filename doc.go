/*
Package fontmeta edits the metadata of OpenType and TrueType fonts.

Fonts carry their human-readable metadata (family and subfamily names,
version, copyright, trademark, license text, manufacturer and designer) in
the 'name' table of the SFNT container. This module reads a font, applies a
set of metadata changes, and writes the font back with every other table
passing through byte-identical. Glyph outlines, hinting programs and layout
tables are never re-encoded.

The packages are layered the following way:

▪︎ fontmeta (this package) loads and saves font files and ties the physical
container to the decoded name table.

▪︎ otio reads and writes the SFNT table directory, exposing raw table bytes.

▪︎ otname decodes, mutates and re-encodes the 'name' table.

▪︎ otedit describes metadata change sets (renames, license templates,
vendor fields) and applies them to a name table.

▪︎ woff2 wraps a font into the Brotli-compressed WOFF2 container.

▪︎ meta-tool is the command line front-end, with an interactive mode when
called without arguments.

This module is not a font manipulation toolkit: it does not rasterize,
subset, hint or shape. For the structure of OpenType fonts see
https://docs.microsoft.com/en-us/typography/opentype/

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontmeta

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmeta'
func tracer() tracing.Trace {
	return tracing.Select("fontmeta")
}
