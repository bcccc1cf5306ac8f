package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/rule"
)

func compileAt(t *testing.T, src, path string) (*book.MagicShelf, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return CompileShelf(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileShelfBasic(t *testing.T) {
	ms, err := compileAt(t, `
		shelf: Finished: {
			icon: "pi pi-check"
			rules: [{field: "readStatus", operator: "equals", value: "READ"}]
		}
	`, "shelf.Finished")
	require.NoError(t, err)

	assert.Equal(t, "Finished", ms.Name)
	assert.Equal(t, "pi pi-check", ms.Icon)
	assert.Zero(t, ms.ID)
	assert.Equal(t,
		`{"name":"Finished","type":"group","join":"and","rules":[{"field":"readStatus","operator":"equals","value":"READ"}]}`,
		ms.FilterJSON)
}

func TestCompileShelfQuotedLabelAndNameOverride(t *testing.T) {
	src := `
		shelf: "Unread Dune": {
			rules: [{field: "title", operator: "contains", value: "dune"}]
		}
		shelf: renamed: {
			name: "  Sci-Fi  "
			rules: [{field: "categories", operator: "includes_any", value: ["Sci-Fi"]}]
		}
	`
	ms, err := compileAt(t, src, `shelf."Unread Dune"`)
	require.NoError(t, err)
	assert.Equal(t, "Unread Dune", ms.Name)

	ms, err = compileAt(t, src, "shelf.renamed")
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi", ms.Name)
}

func TestCompileShelfNestedGroupsAndValues(t *testing.T) {
	ms, err := compileAt(t, `
		shelf: Mixed: {
			join: "OR"
			rules: [
				{field: "amazonRating", operator: "in_between", valueStart: 4, valueEnd: 4.5},
				{join: "and", rules: [
					{field: "authors", operator: "includes_all", value: ["Frank Herbert", "Brian Herbert"]},
					{field: "seriesName", operator: "is_not_empty"},
				]},
			]
		}
	`, "shelf.Mixed")
	require.NoError(t, err)

	root, err := rule.ParseString(ms.FilterJSON)
	require.NoError(t, err)
	assert.Equal(t, rule.JoinOr, root.Join)
	require.Len(t, root.Rules, 2)

	between, ok := root.Rules[0].(rule.Rule)
	require.True(t, ok)
	assert.Equal(t, rule.OpInBetween, between.Operator)
	assert.Equal(t, 4.0, between.ValueStart)
	assert.Equal(t, 4.5, between.ValueEnd)

	nested, ok := root.Rules[1].(rule.Group)
	require.True(t, ok)
	assert.Equal(t, rule.JoinAnd, nested.Join)
	require.Len(t, nested.Rules, 2)
	assert.Equal(t, []any{"Frank Herbert", "Brian Herbert"}, nested.Rules[0].(rule.Rule).Value)
	assert.Nil(t, nested.Rules[1].(rule.Rule).Value)
}

func TestCompileShelfErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing rules",
			src:   `shelf: S: { icon: "x" }`,
			field: "rules",
		},
		{
			name:  "no valid rule",
			src:   `shelf: S: { rules: [] }`,
			field: "rules",
		},
		{
			name:  "missing operator",
			src:   `shelf: S: { rules: [{field: "title", value: "x"}] }`,
			field: "operator",
		},
		{
			name:  "missing field",
			src:   `shelf: S: { rules: [{operator: "equals", value: "x"}] }`,
			field: "field",
		},
		{
			name:  "invalid join",
			src:   `shelf: S: { join: "xor", rules: [{field: "title", operator: "equals", value: "x"}] }`,
			field: "join",
		},
		{
			name:  "non-concrete value",
			src:   `shelf: S: { rules: [{field: "title", operator: "equals", value: string}] }`,
			field: "value",
		},
		{
			name:  "blank name",
			src:   `shelf: S: { name: "  ", rules: [{field: "title", operator: "equals", value: "x"}] }`,
			field: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileAt(t, tt.src, "shelf.S")
			require.Error(t, err)

			var compileErr *CompileError
			require.True(t, errors.As(err, &compileErr), "expected CompileError, got %T", err)
			assert.Equal(t, tt.field, compileErr.Field)
		})
	}
}

func TestCompileShelfConfigErrorsCompile(t *testing.T) {
	// Unknown fields are inert, not fatal; Validate reports them.
	ms, err := compileAt(t, `
		shelf: S: {
			rules: [
				{field: "mood", operator: "equals", value: "happy"},
				{field: "readStatus", operator: "equals", value: "READ"},
			]
		}
	`, "shelf.S")
	require.NoError(t, err)

	errs := Validate(*ms)
	require.Len(t, errs, 1)
	assert.Equal(t, rule.ErrUnknownField, errs[0].Code)
	assert.Equal(t, "root.rules[0]", errs[0].Path)
}

func TestValidateMalformed(t *testing.T) {
	errs := Validate(book.MagicShelf{Name: "Broken", FilterJSON: `{"rules": [`})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMalformedShelf, errs[0].Code)
	assert.Contains(t, errs[0].Message, "malformed rule tree")
}

func TestValidateClean(t *testing.T) {
	errs := Validate(book.MagicShelf{
		Name:       "Finished",
		FilterJSON: `{"type":"group","join":"and","rules":[{"field":"readStatus","operator":"equals","value":"READ"}]}`,
	})
	assert.Empty(t, errs)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "rules", Message: "rules is required"}
	assert.Equal(t, "rules: rules is required", err.Error())
}

func TestCompileShelfPropagatesCUEErrors(t *testing.T) {
	v := cuecontext.New().CompileString(`
		shelf: S: icon: "a"
		shelf: S: icon: "b"
		shelf: S: rules: [{field: "title", operator: "equals", value: "x"}]
	`)
	_, err := CompileShelf(v.LookupPath(cue.ParsePath("shelf.S")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting values")
}
