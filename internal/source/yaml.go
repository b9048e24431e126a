package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dtable/internal/ir"
)

// Arrow separates target and value in a textual assignment.
const Arrow = "->"

// ReadCommands parses a YAML command file. The document is a mapping from
// command name to an ordered list of assignments; each assignment is either
// a "target -> value" string or a {target, value} mapping. Command order
// follows the document.
//
//	play:
//	  - cells::${request::move} -> ${game::player}
//	  - target: game::moves
//	    value: "1"
func ReadCommands(r io.Reader, path string) ([]ir.CommandDef, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), File: path}
	}

	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), File: path}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: "command file must be a mapping of command name to assignments", File: path, Line: root.Line}
	}

	var defs []ir.CommandDef
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("command %q must be a list of assignments", key.Value), File: path, Line: val.Line}
		}

		def := ir.CommandDef{Name: key.Value, Origin: path}
		for _, item := range val.Content {
			a, err := decodeAssignment(item)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("command %q: %v", key.Value, err), File: path, Line: item.Line}
			}
			def.Assignments = append(def.Assignments, a)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func decodeAssignment(n *yaml.Node) (ir.AssignmentDef, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return ParseAssignment(n.Value)
	case yaml.MappingNode:
		var a ir.AssignmentDef
		if err := n.Decode(&a); err != nil {
			return a, err
		}
		if strings.TrimSpace(a.Target) == "" {
			return a, errors.New("assignment requires a target")
		}
		return a, nil
	default:
		return ir.AssignmentDef{}, errors.New("assignment must be a string or a {target, value} mapping")
	}
}

// ParseAssignment splits "target -> value" at the first arrow.
func ParseAssignment(text string) (ir.AssignmentDef, error) {
	target, value, ok := strings.Cut(text, Arrow)
	if !ok {
		return ir.AssignmentDef{}, fmt.Errorf("assignment %q has no %q", text, Arrow)
	}
	a := ir.AssignmentDef{Target: strings.TrimSpace(target), Value: strings.TrimSpace(value)}
	if a.Target == "" {
		return a, fmt.Errorf("assignment %q has no target", text)
	}
	return a, nil
}
