// Package source reads rule tables and commands from a specs directory.
//
// A specs directory may mix three formats:
//
//	*.csv         one decision table per file, named after the file
//	*.yaml|*.yml  commands: name → ordered list of "target -> value"
//	*.cue         "table: <name>: {...}" and "command: <name>: [...]"
//
// CSV rows are tag-first: HDR, CND, OUT or ASG followed by the row's cells.
// Lines starting with '#' are comments. Trailing empty cells are dropped, so
// spreadsheet exports may pad rows freely.
//
// Sources only produce ir definitions; shape validation and construction of
// engine objects belong to the compiler.
package source
