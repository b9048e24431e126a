package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/dtable/internal/engine"
	"github.com/roach88/dtable/internal/ir"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedIRType = "E200" // unsupported IR type for validation

	// TableDef errors (E201-E207)
	ErrRuleNames        = "E201" // missing header, empty or duplicate rule name
	ErrCellCount        = "E202" // row has more cells than rule columns
	ErrUnknownRowKind   = "E203" // row tag is not HDR/CND/OUT/ASG
	ErrMalformedCoord   = "E204" // coordinate text cannot be parsed
	ErrDuplicateOutcome = "E205" // outcome name appears on two OUT rows
	ErrElseColumns      = "E206" // more than one trailing else column
	ErrAssignmentElse   = "E207" // ASG row carries an else cell

	// Bundle errors (E208-E209)
	ErrDuplicateName = "E208" // two tables/commands share a name, or a reserved name is used
	ErrEmptyCommand  = "E209" // command has no assignments
)

// ValidationError represents a table or command shape error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is returned by Build when validation fails.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  %s", len(errs), strings.Join(msgs, "\n  "))
}

// Validate checks table, command or bundle definitions.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch def := v.(type) {
	case *ir.TableDef:
		return validateTable(def)
	case ir.TableDef:
		return validateTable(&def)
	case *ir.CommandDef:
		return validateCommand(def)
	case ir.CommandDef:
		return validateCommand(&def)
	case *ir.Bundle:
		return validateBundle(def)
	case ir.Bundle:
		return validateBundle(&def)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateBundle(b *ir.Bundle) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]string)
	claim := func(name, kind string) {
		switch {
		case name == ir.ConstantSource:
			errs = append(errs, ValidationError{
				Field:   kind + "." + name,
				Message: fmt.Sprintf("%q is reserved for constant coordinates", name),
				Code:    ErrDuplicateName,
			})
		case seen[name] != "":
			errs = append(errs, ValidationError{
				Field:   kind + "." + name,
				Message: fmt.Sprintf("name already used by %s %q", seen[name], name),
				Code:    ErrDuplicateName,
			})
		default:
			seen[name] = kind
		}
	}

	for i := range b.Tables {
		claim(b.Tables[i].Name, "table")
		errs = append(errs, validateTable(&b.Tables[i])...)
	}
	for i := range b.Commands {
		claim(b.Commands[i].Name, "command")
		errs = append(errs, validateCommand(&b.Commands[i])...)
	}
	return errs
}

// validateTable checks row tags, the header and per-row cell counts.
func validateTable(def *ir.TableDef) []ValidationError {
	var errs []ValidationError
	field := func(suffix string) string { return "table." + def.Name + suffix }

	// E203: every row tag must be known
	for _, row := range def.Rows {
		if !ir.ValidRowKinds[row.Kind] {
			errs = append(errs, ValidationError{
				Field:   field(""),
				Message: fmt.Sprintf("unknown row tag %q", row.Kind),
				Code:    ErrUnknownRowKind,
				Line:    row.Line,
			})
		}
	}

	// E201: header with unique, non-empty rule names
	header, ok := def.Header()
	if !ok {
		return append(errs, ValidationError{
			Field:   field(".HDR"),
			Message: "table has no header row",
			Code:    ErrRuleNames,
		})
	}
	rules := header.Values()
	names := make(map[string]bool, len(rules))
	for i, name := range rules {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			errs = append(errs, ValidationError{
				Field:   field(fmt.Sprintf(".HDR[%d]", i)),
				Message: "rule name is empty",
				Code:    ErrRuleNames,
				Line:    header.Line,
			})
		case names[name] || name == ElseRuleName:
			errs = append(errs, ValidationError{
				Field:   field(fmt.Sprintf(".HDR[%d]", i)),
				Message: fmt.Sprintf("duplicate or reserved rule name %q", name),
				Code:    ErrRuleNames,
				Line:    header.Line,
			})
		}
		names[name] = true
	}

	n := len(rules)
	outcomes := make(map[string]bool)

	for _, row := range def.Rows {
		values := row.Values()
		switch row.Kind {
		case ir.RowCondition:
			// E202: one op per rule column, no else
			if len(values) > n {
				errs = append(errs, ValidationError{
					Field:   field(".CND." + row.Key()),
					Message: fmt.Sprintf("condition row has %d cells for %d rules", len(values), n),
					Code:    ErrCellCount,
					Line:    row.Line,
				})
			}
			errs = append(errs, checkCoordinate(row.Key(), field(".CND"), row.Line)...)
			for _, cell := range values {
				if arg, ok := conditionArgument(cell); ok {
					errs = append(errs, checkCoordinate(arg, field(".CND."+row.Key()), row.Line)...)
				}
			}

		case ir.RowOutcome:
			name := strings.TrimSpace(row.Key())
			// E205: outcome names are unique
			if outcomes[name] {
				errs = append(errs, ValidationError{
					Field:   field(".OUT." + name),
					Message: fmt.Sprintf("duplicate outcome %q", name),
					Code:    ErrDuplicateOutcome,
					Line:    row.Line,
				})
			}
			outcomes[name] = true

			// E206: at most one trailing else column
			if len(values) > n+1 {
				errs = append(errs, ValidationError{
					Field:   field(".OUT." + name),
					Message: fmt.Sprintf("outcome row has %d cells for %d rules plus else", len(values), n),
					Code:    ErrElseColumns,
					Line:    row.Line,
				})
			}
			for _, cell := range values {
				errs = append(errs, checkCoordinate(cell, field(".OUT."+name), row.Line)...)
			}

		case ir.RowAssignment:
			// E207: assignments never carry an else value
			if len(values) > n {
				errs = append(errs, ValidationError{
					Field:   field(".ASG." + row.Key()),
					Message: "assignment row carries an else cell",
					Code:    ErrAssignmentElse,
					Line:    row.Line,
				})
			}
			errs = append(errs, checkCoordinate(row.Key(), field(".ASG"), row.Line)...)
			for _, cell := range values {
				errs = append(errs, checkCoordinate(cell, field(".ASG."+row.Key()), row.Line)...)
			}
		}
	}
	return errs
}

func validateCommand(def *ir.CommandDef) []ValidationError {
	var errs []ValidationError
	field := "command." + def.Name

	if len(def.Assignments) == 0 {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "command has no assignments",
			Code:    ErrEmptyCommand,
		})
	}
	for i, a := range def.Assignments {
		f := fmt.Sprintf("%s[%d]", field, i)
		errs = append(errs, checkCoordinate(a.Target, f+".target", 0)...)
		errs = append(errs, checkCoordinate(a.Value, f+".value", 0)...)
	}
	return errs
}

// checkCoordinate reports E204 when text is not a valid coordinate.
func checkCoordinate(text, field string, line int) []ValidationError {
	if _, err := engine.ParseCoordinate(strings.TrimSpace(text)); err != nil {
		return []ValidationError{{
			Field:   field,
			Message: err.Error(),
			Code:    ErrMalformedCoord,
			Line:    line,
		}}
	}
	return nil
}
