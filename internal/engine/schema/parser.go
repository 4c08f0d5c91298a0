// Package schema parses TypeScript-interface-like field descriptions into
// the typed schema tree the matcher and mapper consume. Parsing is
// line-oriented and forgiving: malformed lines are skipped, never reported,
// so a partially valid description still drives extraction.
package schema

import (
	"regexp"
	"strings"

	"github.com/turtacn/sdsmatch/pkg/types"
)

var (
	objectOpenRe = regexp.MustCompile(`^\w+:\s*\{\s*$`)
	identRe      = regexp.MustCompile(`^\w+$`)
)

// Parse converts interface source into a schema tree. The returned root is
// always a non-nil object node; empty or unparseable source yields a root
// with no children. Parse never fails.
//
// Recognized line forms:
//
//	name: {          opens a nested object scope
//	}                closes the scope as an object
//	}[]              closes the scope and retags it array-of-objects
//	name: type;      declares a leaf field
//
// Everything else (interface headers, braces-only lines, comments, garbage)
// is skipped.
func Parse(source string) *types.SchemaNode {
	root := &types.SchemaNode{Kind: types.KindObject}
	current := root
	var stack []*types.SchemaNode

	for _, raw := range splitLines(source) {
		line := strings.TrimSpace(raw)
		line = strings.TrimRight(line, ";")
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "interface ") {
			continue
		}

		switch {
		case objectOpenRe.MatchString(line):
			name := strings.TrimSpace(line[:strings.Index(line, ":")])
			node := newNode(name, types.KindObject)
			attachChild(current, node)
			stack = append(stack, current)
			current = node

		case line == "}[]":
			if len(stack) > 0 {
				current.Kind = types.KindArrayOfObjects
				current.ItemSchema = current.Children
				current.Children = nil
				current = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}

		case line == "}":
			if len(stack) > 0 {
				current = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}

		case strings.Contains(line, ":"):
			idx := strings.Index(line, ":")
			name := strings.TrimSpace(line[:idx])
			name = strings.TrimSuffix(name, "?")
			typeStr := strings.TrimSpace(line[idx+1:])
			if !identRe.MatchString(name) {
				continue
			}
			node := newNode(name, normalizeType(typeStr))
			attachChild(current, node)
		}
	}

	return root
}

// newNode builds a schema node with its generated search terms and priority.
func newNode(name string, kind types.FieldKind) *types.SchemaNode {
	return &types.SchemaNode{
		Name:        name,
		Kind:        kind,
		SearchTerms: GenerateSearchTerms(name),
		Priority:    FieldPriority(name),
	}
}

// attachChild appends node to parent, replacing an existing child of the
// same name in place so that redeclaration keeps the original position.
func attachChild(parent, node *types.SchemaNode) {
	for i, c := range parent.Children {
		if c.Name == node.Name {
			parent.Children[i] = node
			return
		}
	}
	parent.Children = append(parent.Children, node)
}

// normalizeType maps a declared type to the closed FieldKind set. Array
// suffixes win over the element type; unknown identifiers fall back to
// string so extraction still proceeds.
func normalizeType(typeStr string) types.FieldKind {
	typeStr = strings.TrimSpace(typeStr)
	if strings.HasSuffix(typeStr, "[]") {
		return types.KindArray
	}
	switch typeStr {
	case "string", "String":
		return types.KindString
	case "number", "Number":
		return types.KindNumber
	case "boolean", "Boolean":
		return types.KindBoolean
	default:
		return types.KindString
	}
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
