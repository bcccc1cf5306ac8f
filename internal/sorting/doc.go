// Package sorting orders book lists and resolves which ordering applies.
//
// Sorting is stable, places books without a value for the sort field
// last in either direction, and breaks ties by ascending book id so equal
// keys always come out in the same order. Text keys are compared as
// locale collation keys (case-insensitive, numeric-aware), computed once
// per book rather than once per comparison.
package sorting
