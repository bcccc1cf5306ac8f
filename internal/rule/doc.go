// Package rule implements the Magic Shelf rule language: a recursive tree
// of field/operator/value rules combined by AND/OR groups.
//
// Node is a sealed interface implemented only by Rule and Group, so every
// type switch over a tree is exhaustive. The field table in fields.go is
// the single source of truth for which operators a field accepts; both the
// rule editor (LegalOperators) and the evaluator consult it.
//
// Evaluation is pure and fails closed: a rule naming an unknown field, an
// unknown operator, or an operator the field does not accept never matches.
// Such rules are configuration errors and are reported by Validate, never
// by the evaluator.
//
// The JSON shape produced and accepted by Parse and MarshalJSON is a
// stable interface shared with the persisted magic shelf records:
//
//	{"name": "...", "type": "group", "join": "and", "rules": [
//	  {"field": "readStatus", "operator": "equals", "value": "READ"},
//	  {"type": "group", "join": "or", "rules": [...]}
//	]}
package rule
