package compiler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/rule"
)

// CompileShelf parses a CUE shelf struct into a MagicShelf.
//
// The name comes from an explicit name field, else from the struct's
// label. The ID is left zero; the store assigns it on save.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`shelf: Finished: { rules: [...] }`)
//	ms, err := CompileShelf(v.LookupPath(cue.ParsePath("shelf.Finished")))
func CompileShelf(v cue.Value) (*book.MagicShelf, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	ms := &book.MagicShelf{Name: labelOf(v)}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ms.Name = name
	}
	ms.Name = strings.TrimSpace(ms.Name)
	if ms.Name == "" {
		return nil, &CompileError{Field: "name", Message: "name is required", Pos: v.Pos()}
	}

	if iconVal := v.LookupPath(cue.ParsePath("icon")); iconVal.Exists() {
		icon, err := iconVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ms.Icon = icon
	}

	root, err := compileGroup(v)
	if err != nil {
		return nil, err
	}
	root.Name = ms.Name
	if !rule.HasValidRule(root) {
		return nil, &CompileError{
			Field:   "rules",
			Message: "at least one rule with a field and an operator is required",
			Pos:     v.Pos(),
		}
	}

	data, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encode shelf %q: %w", ms.Name, err)
	}
	ms.FilterJSON = string(data)
	return ms, nil
}

// labelOf returns the last path selector, unquoted.
func labelOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	label := sels[len(sels)-1].String()
	if unquoted, err := strconv.Unquote(label); err == nil {
		return unquoted
	}
	return label
}

func compileGroup(v cue.Value) (rule.Group, error) {
	g := rule.Group{Join: rule.JoinAnd}

	if joinVal := v.LookupPath(cue.ParsePath("join")); joinVal.Exists() {
		s, err := joinVal.String()
		if err != nil {
			return rule.Group{}, formatCUEError(err)
		}
		g.Join = rule.Join(strings.ToLower(strings.TrimSpace(s)))
		if !g.Join.Valid() {
			return rule.Group{}, &CompileError{
				Field:   "join",
				Message: fmt.Sprintf("invalid join %q (must be \"and\" or \"or\")", s),
				Pos:     joinVal.Pos(),
			}
		}
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return rule.Group{}, &CompileError{Field: "rules", Message: "rules is required", Pos: v.Pos()}
	}
	iter, err := rulesVal.List()
	if err != nil {
		return rule.Group{}, formatCUEError(err)
	}

	g.Rules = []rule.Node{}
	for iter.Next() {
		child := iter.Value()
		if child.LookupPath(cue.ParsePath("rules")).Exists() {
			sub, err := compileGroup(child)
			if err != nil {
				return rule.Group{}, err
			}
			g.Rules = append(g.Rules, sub)
			continue
		}
		r, err := compileRule(child)
		if err != nil {
			return rule.Group{}, err
		}
		g.Rules = append(g.Rules, r)
	}
	return g, nil
}

func compileRule(v cue.Value) (rule.Rule, error) {
	field, err := requiredString(v, "field")
	if err != nil {
		return rule.Rule{}, err
	}
	op, err := requiredString(v, "operator")
	if err != nil {
		return rule.Rule{}, err
	}

	r := rule.Rule{Field: rule.Field(field), Operator: rule.Operator(op)}
	if r.Value, err = optionalValue(v, "value"); err != nil {
		return rule.Rule{}, err
	}
	if r.ValueStart, err = optionalValue(v, "valueStart"); err != nil {
		return rule.Rule{}, err
	}
	if r.ValueEnd, err = optionalValue(v, "valueEnd"); err != nil {
		return rule.Rule{}, err
	}
	return r, nil
}

func requiredString(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &CompileError{Field: name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalValue(v cue.Value, name string) (any, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return nil, nil
	}
	return decodeValue(fv, name)
}

// decodeValue converts a concrete CUE value to the shapes JSON decoding
// produces: string, float64, bool, []any or nil.
func decodeValue(v cue.Value, field string) (any, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.IntKind, cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return f, nil
	case cue.BoolKind:
		return v.Bool()
	case cue.NullKind:
		return nil, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := []any{}
		for iter.Next() {
			elem, err := decodeValue(iter.Value(), field)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value of kind %s (must be a concrete string, number, bool or list)", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}
