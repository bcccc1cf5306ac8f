package rule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned by Parse for input that is not a rule tree.
var ErrMalformed = errors.New("malformed rule tree")

// maxDepth bounds group nesting so hostile input cannot exhaust the stack.
const maxDepth = 64

const typeGroup = "group"

// wireNode is the union of the rule and group JSON shapes. Pointer fields
// distinguish a missing key from an empty value.
type wireNode struct {
	Type       string             `json:"type,omitempty"`
	Name       string             `json:"name,omitempty"`
	Join       *string            `json:"join,omitempty"`
	Rules      *[]json.RawMessage `json:"rules,omitempty"`
	Field      *string            `json:"field,omitempty"`
	Operator   *string            `json:"operator,omitempty"`
	Value      any                `json:"value,omitempty"`
	ValueStart any                `json:"valueStart,omitempty"`
	ValueEnd   any                `json:"valueEnd,omitempty"`
}

// Parse decodes a persisted rule tree. The root must be a group.
//
// Returns an error wrapping ErrMalformed when the JSON is unparseable, the
// root is not a group, a group lacks a valid join or a rules list, or a
// rule lacks the field or operator key. Unknown field and operator names
// are accepted here; they are configuration errors reported by Validate.
func Parse(data []byte) (Group, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Group{}, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return Group{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Type != "" && w.Type != typeGroup {
		return Group{}, fmt.Errorf("%w: root must be a group, got type %q", ErrMalformed, w.Type)
	}
	return decodeGroup(&w, "root", 0)
}

// ParseString is Parse for string input, the form stored on MagicShelf.
func ParseString(s string) (Group, error) {
	return Parse([]byte(s))
}

func decodeGroup(w *wireNode, path string, depth int) (Group, error) {
	if depth > maxDepth {
		return Group{}, fmt.Errorf("%w: %s: nesting exceeds %d levels", ErrMalformed, path, maxDepth)
	}
	if w.Join == nil {
		return Group{}, fmt.Errorf("%w: %s: missing join", ErrMalformed, path)
	}
	join := Join(strings.ToLower(strings.TrimSpace(*w.Join)))
	if !join.Valid() {
		return Group{}, fmt.Errorf("%w: %s: invalid join %q", ErrMalformed, path, *w.Join)
	}
	if w.Rules == nil {
		return Group{}, fmt.Errorf("%w: %s: missing rules", ErrMalformed, path)
	}

	g := Group{Name: w.Name, Join: join, Rules: make([]Node, 0, len(*w.Rules))}
	for i, raw := range *w.Rules {
		childPath := fmt.Sprintf("%s.rules[%d]", path, i)

		var child wireNode
		if err := json.Unmarshal(raw, &child); err != nil {
			return Group{}, fmt.Errorf("%w: %s: %v", ErrMalformed, childPath, err)
		}

		switch child.Type {
		case typeGroup:
			sub, err := decodeGroup(&child, childPath, depth+1)
			if err != nil {
				return Group{}, err
			}
			g.Rules = append(g.Rules, sub)
		case "", "rule":
			r, err := decodeRule(&child, childPath)
			if err != nil {
				return Group{}, err
			}
			g.Rules = append(g.Rules, r)
		default:
			return Group{}, fmt.Errorf("%w: %s: unknown node type %q", ErrMalformed, childPath, child.Type)
		}
	}
	return g, nil
}

func decodeRule(w *wireNode, path string) (Rule, error) {
	if w.Field == nil {
		return Rule{}, fmt.Errorf("%w: %s: missing field", ErrMalformed, path)
	}
	if w.Operator == nil {
		return Rule{}, fmt.Errorf("%w: %s: missing operator", ErrMalformed, path)
	}
	return Rule{
		Field:      Field(*w.Field),
		Operator:   Operator(*w.Operator),
		Value:      w.Value,
		ValueStart: w.ValueStart,
		ValueEnd:   w.ValueEnd,
	}, nil
}

// MarshalJSON encodes the rule in its persisted shape.
func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Field      Field    `json:"field"`
		Operator   Operator `json:"operator"`
		Value      any      `json:"value,omitempty"`
		ValueStart any      `json:"valueStart,omitempty"`
		ValueEnd   any      `json:"valueEnd,omitempty"`
	}{r.Field, r.Operator, r.Value, r.ValueStart, r.ValueEnd})
}

// MarshalJSON encodes the group in its persisted shape.
func (g Group) MarshalJSON() ([]byte, error) {
	rules := g.Rules
	if rules == nil {
		rules = []Node{}
	}
	return json.Marshal(struct {
		Name  string `json:"name,omitempty"`
		Type  string `json:"type"`
		Join  Join   `json:"join"`
		Rules []Node `json:"rules"`
	}{g.Name, typeGroup, g.Join, rules})
}

// UnmarshalJSON decodes a group with the same checks as Parse.
func (g *Group) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
