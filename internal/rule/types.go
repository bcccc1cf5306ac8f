package rule

// Node is an element of a rule tree.
//
// This is a sealed interface - only Rule and Group implement it.
type Node interface {
	ruleNode() // Marker method - seals interface to this package
}

// Join combines the results of a group's children.
type Join string

const (
	JoinAnd Join = "and" // every child must match
	JoinOr  Join = "or"  // at least one child must match
)

// Valid reports whether j is a known join.
func (j Join) Valid() bool {
	return j == JoinAnd || j == JoinOr
}

// Rule is a single predicate over one book field.
//
// Value, ValueStart and ValueEnd hold the values exactly as decoded from
// JSON: strings, float64 numbers, or []any for the multi-value operators.
// They are interpreted per field kind at evaluation time.
type Rule struct {
	Field      Field
	Operator   Operator
	Value      any
	ValueStart any // in_between lower bound (inclusive)
	ValueEnd   any // in_between upper bound (inclusive)
}

func (Rule) ruleNode() {}

// Group combines child nodes with a join. Groups nest arbitrarily.
type Group struct {
	Name  string // optional, only meaningful on the root
	Join  Join
	Rules []Node
}

func (Group) ruleNode() {}

// And builds an AND group.
func And(rules ...Node) Group {
	return Group{Join: JoinAnd, Rules: rules}
}

// Or builds an OR group.
func Or(rules ...Node) Group {
	return Group{Join: JoinOr, Rules: rules}
}

// HasValidRule reports whether any rule in the tree has both a field and
// an operator. A magic shelf whose root fails this check must not be
// saved and is treated as matching nothing.
func HasValidRule(g Group) bool {
	for _, child := range g.Rules {
		switch n := child.(type) {
		case Rule:
			if n.Field != "" && n.Operator != "" {
				return true
			}
		case *Rule:
			if n != nil && n.Field != "" && n.Operator != "" {
				return true
			}
		case Group:
			if HasValidRule(n) {
				return true
			}
		case *Group:
			if n != nil && HasValidRule(*n) {
				return true
			}
		}
	}
	return false
}
