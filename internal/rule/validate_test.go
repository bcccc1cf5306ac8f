package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		group Group
		want  []string
	}{
		{
			name:  "valid tree",
			group: And(Rule{Field: FieldTitle, Operator: OpContains, Value: "dune"}),
			want:  []string{},
		},
		{
			name:  "empty root",
			group: And(),
			want:  []string{ErrNoValidRule, ErrEmptyGroup},
		},
		{
			name:  "unknown field",
			group: And(Rule{Field: "mood", Operator: OpEquals, Value: "x"}),
			want:  []string{ErrUnknownField},
		},
		{
			name:  "unknown operator",
			group: And(Rule{Field: FieldTitle, Operator: "sounds_like", Value: "x"}),
			want:  []string{ErrUnknownOperator},
		},
		{
			name:  "illegal operator",
			group: And(Rule{Field: FieldPageCount, Operator: OpStartsWith, Value: "1"}),
			want:  []string{ErrIllegalOperator},
		},
		{
			name:  "missing text value",
			group: And(Rule{Field: FieldTitle, Operator: OpEquals, Value: "  "}),
			want:  []string{ErrMissingValue},
		},
		{
			name:  "non numeric value",
			group: And(Rule{Field: FieldPageCount, Operator: OpGreaterThan, Value: "many"}),
			want:  []string{ErrMissingValue},
		},
		{
			name:  "bad date",
			group: And(Rule{Field: FieldDateFinished, Operator: OpLessThan, Value: "yesterday"}),
			want:  []string{ErrMissingValue},
		},
		{
			name:  "inverted range",
			group: And(Rule{Field: FieldPageCount, Operator: OpInBetween, ValueStart: 10, ValueEnd: 5}),
			want:  []string{ErrInvalidRange},
		},
		{
			name:  "missing range bound",
			group: And(Rule{Field: FieldPublishedDate, Operator: OpInBetween, ValueStart: "2001-01-01"}),
			want:  []string{ErrInvalidRange},
		},
		{
			name:  "rating over max",
			group: And(Rule{Field: FieldAmazonRating, Operator: OpGreaterThan, Value: "7"}),
			want:  []string{ErrValueOutOfBounds},
		},
		{
			name:  "empty multi-value list",
			group: And(Rule{Field: FieldCategories, Operator: OpIncludesAll, Value: []any{}}),
			want:  []string{ErrMissingValue},
		},
		{
			name: "nested empty group and bad join",
			group: And(
				Rule{Field: FieldTitle, Operator: OpIsNotEmpty},
				Group{Join: "xor", Rules: nil},
			),
			want: []string{ErrInvalidJoin, ErrEmptyGroup},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codes(Validate(tt.group))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_Paths(t *testing.T) {
	errs := Validate(And(
		Rule{Field: FieldTitle, Operator: OpIsEmpty},
		Or(Rule{Field: "bogus", Operator: OpEquals, Value: "x"}),
	))

	if assert.Len(t, errs, 1) {
		assert.Equal(t, "root.rules[1].rules[0]", errs[0].Path)
		assert.Equal(t, "bogus", errs[0].Field)
		assert.Contains(t, errs[0].Error(), "[R001]")
	}
}

func TestHasValidRule(t *testing.T) {
	assert.False(t, HasValidRule(And()))
	assert.False(t, HasValidRule(And(Or(), Rule{Field: FieldTitle})))
	assert.True(t, HasValidRule(And(Or(Rule{Field: FieldTitle, Operator: OpIsEmpty}))))
	assert.True(t, HasValidRule(Or(&Rule{Field: "bogus", Operator: "x"})))
}
