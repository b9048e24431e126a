package ir

import "fmt"

// Reserved names of the rule language.
const (
	// ConstantSource is the source half of a constant coordinate. The
	// field half of a constant coordinate is its literal value.
	ConstantSource = "constant"

	// Undefined is returned for fields that were never written and for
	// outcome names a table does not define.
	Undefined = "undefined"

	// Separator splits a coordinate descriptor into source and field.
	Separator = "::"

	// PlaceholderOpen and PlaceholderClose delimit a nested coordinate.
	PlaceholderOpen  = "${"
	PlaceholderClose = "}"
)

// RowKind tags one row of a rule table.
type RowKind string

const (
	// RowHeader carries the table title and the rule names.
	// Cells: [HDR, title, rule-name...]
	RowHeader RowKind = "HDR"

	// RowCondition carries one condition per rule column.
	// Cells: [CND, base-coordinate, op-per-rule-column...]
	RowCondition RowKind = "CND"

	// RowOutcome carries one outcome value per rule column, plus an
	// optional trailing else value.
	// Cells: [OUT, outcome-name, value-per-rule-column..., else?]
	RowOutcome RowKind = "OUT"

	// RowAssignment carries one assignment value per rule column.
	// Cells: [ASG, target-coordinate, value-per-rule-column...]
	RowAssignment RowKind = "ASG"
)

// ValidRowKinds lists the recognized row tags.
var ValidRowKinds = map[RowKind]bool{
	RowHeader:     true,
	RowCondition:  true,
	RowOutcome:    true,
	RowAssignment: true,
}

// Row is one categorized row of a rule table. Cells excludes the tag.
type Row struct {
	Kind  RowKind  `json:"kind" yaml:"kind"`
	Cells []string `json:"cells" yaml:"cells"`
	Line  int      `json:"line,omitempty" yaml:"-"` // 1-based source line, 0 if unknown
}

// Key returns the row's second cell (title, base coordinate, outcome name or
// assignment target), or "" for an empty row.
func (r Row) Key() string {
	if len(r.Cells) == 0 {
		return ""
	}
	return r.Cells[0]
}

// Values returns the per-rule cells that follow the key.
func (r Row) Values() []string {
	if len(r.Cells) < 2 {
		return nil
	}
	return r.Cells[1:]
}

// TableDef is the intermediate form of one decision table as yielded by a
// table source.
type TableDef struct {
	Name   string `json:"name"`
	Origin string `json:"origin,omitempty"` // file the table was read from
	Rows   []Row  `json:"rows"`
}

// Header returns the first header row, if any.
func (t TableDef) Header() (Row, bool) {
	for _, r := range t.Rows {
		if r.Kind == RowHeader {
			return r, true
		}
	}
	return Row{}, false
}

// AssignmentDef is one textual `target -> value` description.
type AssignmentDef struct {
	Target string `json:"target" yaml:"target"`
	Value  string `json:"value" yaml:"value"`
}

// String renders the assignment as `target -> value`.
func (a AssignmentDef) String() string {
	return fmt.Sprintf("%s -> %s", a.Target, a.Value)
}

// CommandDef is the intermediate form of one named command as yielded by a
// command source.
type CommandDef struct {
	Name        string          `json:"name"`
	Origin      string          `json:"origin,omitempty"`
	Assignments []AssignmentDef `json:"assignments"`
}

// Bundle is everything a specs directory yields: tables and commands in
// discovery order.
type Bundle struct {
	Tables   []TableDef   `json:"tables"`
	Commands []CommandDef `json:"commands"`
}

// Table returns the table definition with the given name.
func (b *Bundle) Table(name string) (TableDef, bool) {
	for _, t := range b.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableDef{}, false
}

// Command returns the command definition with the given name.
func (b *Bundle) Command(name string) (CommandDef, bool) {
	for _, c := range b.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandDef{}, false
}

// Merge appends other's tables and commands. Later definitions with the same
// name replace earlier ones in place, so discovery order is preserved.
func (b *Bundle) Merge(other *Bundle) {
	if other == nil {
		return
	}
	for _, t := range other.Tables {
		replaced := false
		for i := range b.Tables {
			if b.Tables[i].Name == t.Name {
				b.Tables[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			b.Tables = append(b.Tables, t)
		}
	}
	for _, c := range other.Commands {
		replaced := false
		for i := range b.Commands {
			if b.Commands[i].Name == c.Name {
				b.Commands[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			b.Commands = append(b.Commands, c)
		}
	}
}
