// Public domain.

/*
Command mapplot draws the map pattern of a scan template.

The plot shows map positions in visit order, joined by a line, and the off
positions placed relative to them.  Offsets are arc seconds from the
target.  It is a quick check of a pattern before running obsmaker.

Usage

  mapplot [-o <png-file>] <template>

The default output file is the template name with extension .png.  A
relative MAPLISTPATH is found next to the template, as with obsmaker.
*/
package main
