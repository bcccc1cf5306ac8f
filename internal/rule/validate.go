package rule

import "fmt"

// Validation error codes (R001-R099)
const (
	ErrUnknownField     = "R001" // field is not in the field table
	ErrUnknownOperator  = "R002" // operator is not recognised
	ErrIllegalOperator  = "R003" // operator not accepted by the field
	ErrMissingValue     = "R004" // value absent or not parseable for the field kind
	ErrInvalidRange     = "R005" // in_between bounds missing, unparseable, or inverted
	ErrEmptyGroup       = "R006" // group with no rules
	ErrInvalidJoin      = "R007" // join is not and/or
	ErrNoValidRule      = "R008" // root has no rule with both field and operator
	ErrValueOutOfBounds = "R009" // decimal value above the field maximum
)

// ValidationError describes one configuration problem in a rule tree.
// Path locates the node ("root.rules[1].rules[0]").
type ValidationError struct {
	Path    string `json:"path"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// Validate reports every configuration error in the tree rooted at g.
// Returns all errors found (does not fail-fast). Validation never changes
// how a tree evaluates; it exists so authors can see why a rule is inert.
func Validate(g Group) []ValidationError {
	v := &validator{}
	if !HasValidRule(g) {
		v.add("root", "", ErrNoValidRule, "at least one rule needs a field and an operator")
	}
	v.group("root", g)
	return v.errs
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(path, field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Path:    path,
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) node(path string, n Node) {
	switch x := n.(type) {
	case Rule:
		v.rule(path, x)
	case *Rule:
		if x != nil {
			v.rule(path, *x)
		}
	case Group:
		v.group(path, x)
	case *Group:
		if x != nil {
			v.group(path, *x)
		}
	default:
		v.add(path, "", ErrUnknownOperator, "unknown node type %T", n)
	}
}

func (v *validator) group(path string, g Group) {
	if !g.Join.Valid() {
		v.add(path, "", ErrInvalidJoin, "join must be %q or %q, got %q", JoinAnd, JoinOr, g.Join)
	}
	if len(g.Rules) == 0 {
		v.add(path, "", ErrEmptyGroup, "group has no rules")
	}
	for i, child := range g.Rules {
		v.node(fmt.Sprintf("%s.rules[%d]", path, i), child)
	}
}

func (v *validator) rule(path string, r Rule) {
	field := string(r.Field)
	spec, ok := Lookup(r.Field)
	if !ok {
		v.add(path, field, ErrUnknownField, "unknown field %q", r.Field)
		return
	}
	if !r.Operator.Known() {
		v.add(path, field, ErrUnknownOperator, "unknown operator %q", r.Operator)
		return
	}
	if !IsLegal(r.Field, r.Operator) {
		v.add(path, field, ErrIllegalOperator, "operator %q is not valid for %s fields", r.Operator, spec.Kind)
		return
	}

	switch r.Operator {
	case OpIsEmpty, OpIsNotEmpty:
		return
	case OpInBetween:
		v.rangeBounds(path, field, spec, r)
		return
	case OpIncludesAny, OpExcludesAll, OpIncludesAll:
		if len(valueList(r.Value)) == 0 {
			v.add(path, field, ErrMissingValue, "operator %q needs at least one value", r.Operator)
		}
		return
	}

	switch spec.Kind {
	case KindNumber, KindDecimal:
		n, ok := parseNumber(r.Value)
		if !ok {
			v.add(path, field, ErrMissingValue, "value %v is not a number", r.Value)
			return
		}
		if spec.Max > 0 && n > spec.Max {
			v.add(path, field, ErrValueOutOfBounds, "value %v exceeds maximum %v", n, spec.Max)
		}
	case KindDate:
		if _, ok := parseDate(r.Value); !ok {
			v.add(path, field, ErrMissingValue, "value %v is not a date", r.Value)
		}
	default:
		if len(valueList(r.Value)) == 0 {
			v.add(path, field, ErrMissingValue, "operator %q needs a value", r.Operator)
		}
	}
}

func (v *validator) rangeBounds(path, field string, spec FieldSpec, r Rule) {
	if spec.Kind == KindDate {
		lo, okLo := parseDate(r.ValueStart)
		hi, okHi := parseDate(r.ValueEnd)
		switch {
		case !okLo || !okHi:
			v.add(path, field, ErrInvalidRange, "in_between needs two dates")
		case lo.After(hi):
			v.add(path, field, ErrInvalidRange, "range start is after range end")
		}
		return
	}

	lo, okLo := parseNumber(r.ValueStart)
	hi, okHi := parseNumber(r.ValueEnd)
	switch {
	case !okLo || !okHi:
		v.add(path, field, ErrInvalidRange, "in_between needs two numbers")
	case lo > hi:
		v.add(path, field, ErrInvalidRange, "range start %v is greater than range end %v", lo, hi)
	}
}
