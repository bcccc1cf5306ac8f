package rule

import (
	"math"
	"strings"

	"golang.org/x/text/cases"

	"github.com/booklore-app/booklore/internal/book"
)

// decimalTolerance is the equality window for decimal fields.
const decimalTolerance = 1e-6

// Evaluate reports whether b matches the tree rooted at n.
//
// Evaluate is a pure function of (b, n) and is safe for concurrent use.
// Group semantics:
//   - AND: every child matches
//   - OR: at least one child matches
//   - no children: true (vacuous); callers guard roots with HasValidRule
//
// A rule that names an unknown field, an unknown operator, or an operator
// its field does not accept evaluates to false.
func Evaluate(b *book.Book, n Node) bool {
	e := &evaluator{fold: cases.Fold()}
	return e.node(b, n)
}

// Matcher returns a predicate bound to root, for filtering slices.
func Matcher(root Node) func(*book.Book) bool {
	return func(b *book.Book) bool {
		return Evaluate(b, root)
	}
}

// evaluator holds per-call state. cases.Caser is not safe for concurrent
// use, so each Evaluate call gets its own.
type evaluator struct {
	fold cases.Caser
}

func (e *evaluator) node(b *book.Book, n Node) bool {
	switch x := n.(type) {
	case Rule:
		return e.rule(b, x)
	case *Rule:
		return x != nil && e.rule(b, *x)
	case Group:
		return e.group(b, x)
	case *Group:
		return x != nil && e.group(b, *x)
	default:
		return false
	}
}

func (e *evaluator) group(b *book.Book, g Group) bool {
	if len(g.Rules) == 0 {
		return true
	}
	switch g.Join {
	case JoinAnd:
		for _, child := range g.Rules {
			if !e.node(b, child) {
				return false
			}
		}
		return true
	case JoinOr:
		for _, child := range g.Rules {
			if e.node(b, child) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (e *evaluator) rule(b *book.Book, r Rule) bool {
	spec, ok := Lookup(r.Field)
	if !ok || !IsLegal(r.Field, r.Operator) {
		return false
	}
	v := extract(b, r.Field)

	switch r.Operator {
	case OpIsEmpty:
		return !v.present
	case OpIsNotEmpty:
		return v.present
	case OpIncludesAny, OpExcludesAll, OpIncludesAll:
		return e.membership(r.Operator, v, valueList(r.Value))
	case OpInBetween:
		return between(spec.Kind, v, r.ValueStart, r.ValueEnd)
	case OpGreaterThan, OpGreaterThanEqualTo, OpLessThan, OpLessThanEqualTo:
		return compare(spec.Kind, r.Operator, v, r.Value)
	case OpEquals, OpNotEquals:
		if spec.Kind.Ordered() {
			return e.equalsOrdered(spec.Kind, r.Operator, v, r.Value)
		}
		return e.equalsText(r.Operator, v, valueList(r.Value))
	case OpContains, OpDoesNotContain, OpStartsWith, OpEndsWith:
		target, ok := scalarText(r.Value)
		if !ok {
			return false
		}
		return e.text(r.Operator, v, target)
	default:
		return false
	}
}

func (e *evaluator) equalsText(op Operator, v fieldValue, targets []string) bool {
	if len(targets) == 0 {
		return false
	}
	matched := e.anyText(v, func(s string) bool {
		for _, t := range targets {
			if s == e.fold.String(t) {
				return true
			}
		}
		return false
	})
	if op == OpNotEquals {
		return !matched
	}
	return matched
}

func (e *evaluator) equalsOrdered(kind Kind, op Operator, v fieldValue, raw any) bool {
	var equal bool
	switch kind {
	case KindDate:
		want, ok := parseDate(raw)
		if !ok {
			return false
		}
		equal = v.present && v.date.Equal(want)
	case KindDecimal:
		want, ok := parseNumber(raw)
		if !ok {
			return false
		}
		equal = v.present && math.Abs(v.number-want) < decimalTolerance
	default:
		want, ok := parseNumber(raw)
		if !ok {
			return false
		}
		equal = v.present && v.number == want
	}
	if op == OpNotEquals {
		return !equal
	}
	return equal
}

func (e *evaluator) text(op Operator, v fieldValue, target string) bool {
	t := e.fold.String(target)
	var test func(string) bool
	switch op {
	case OpContains, OpDoesNotContain:
		test = func(s string) bool { return strings.Contains(s, t) }
	case OpStartsWith:
		test = func(s string) bool { return strings.HasPrefix(s, t) }
	case OpEndsWith:
		test = func(s string) bool { return strings.HasSuffix(s, t) }
	default:
		return false
	}
	matched := e.anyText(v, test)
	if op == OpDoesNotContain {
		return !matched
	}
	return matched
}

func (e *evaluator) membership(op Operator, v fieldValue, targets []string) bool {
	if len(targets) == 0 {
		return false
	}
	have := make(map[string]struct{}, len(v.texts))
	for _, s := range v.texts {
		have[e.fold.String(s)] = struct{}{}
	}

	hits := 0
	for _, t := range targets {
		if _, ok := have[e.fold.String(t)]; ok {
			hits++
		}
	}

	switch op {
	case OpIncludesAny:
		return hits > 0
	case OpExcludesAll:
		return hits == 0
	case OpIncludesAll:
		return hits == len(targets)
	default:
		return false
	}
}

// anyText reports whether test holds for any case-folded text element.
func (e *evaluator) anyText(v fieldValue, test func(string) bool) bool {
	for _, s := range v.texts {
		if test(e.fold.String(s)) {
			return true
		}
	}
	return false
}

func compare(kind Kind, op Operator, v fieldValue, raw any) bool {
	if !v.present {
		return false
	}
	var c int
	switch kind {
	case KindDate:
		want, ok := parseDate(raw)
		if !ok {
			return false
		}
		c = v.date.Compare(want)
	case KindNumber, KindDecimal:
		want, ok := parseNumber(raw)
		if !ok {
			return false
		}
		c = compareFloat(v.number, want)
	default:
		return false
	}

	switch op {
	case OpGreaterThan:
		return c > 0
	case OpGreaterThanEqualTo:
		return c >= 0
	case OpLessThan:
		return c < 0
	case OpLessThanEqualTo:
		return c <= 0
	default:
		return false
	}
}

// between is inclusive on both ends. Missing, unparseable, or inverted
// bounds never match.
func between(kind Kind, v fieldValue, start, end any) bool {
	if !v.present {
		return false
	}
	switch kind {
	case KindDate:
		lo, okLo := parseDate(start)
		hi, okHi := parseDate(end)
		if !okLo || !okHi || lo.After(hi) {
			return false
		}
		return !v.date.Before(lo) && !v.date.After(hi)
	case KindNumber, KindDecimal:
		lo, okLo := parseNumber(start)
		hi, okHi := parseNumber(end)
		if !okLo || !okHi || lo > hi {
			return false
		}
		return v.number >= lo && v.number <= hi
	default:
		return false
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
