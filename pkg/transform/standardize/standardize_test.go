package standardize

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

func names(t *testing.T, vals ...any) *sh.Frame {
	t.Helper()
	s := sh.Schema{Columns: []sh.ColumnSchema{
		{Name: "s", Type: sh.KindString, Nullable: true},
		{Name: "n", Type: sh.KindInt, Nullable: true},
	}}
	rows := make([]map[string]any, len(vals))
	for i, v := range vals {
		rows[i] = map[string]any{"s": v, "n": i}
	}
	f, err := sh.FromRows(s, rows)
	assert.NoError(t, err)
	return f
}

func column(f *sh.Frame, name string) []any {
	out := make([]any, f.Rows())
	for i := range out {
		out[i] = f.Value(i, name)
	}
	return out
}

func TestNormalizeAppliesModesInOrder(t *testing.T) {
	f := names(t, "  Foo  ", "BAR", nil)
	st := &Normalize{Columns: []string{"s"}, Modes: []string{ModeTrim, ModeLower}}
	assert.NoError(t, st.Validate())

	out, err := st.Run(context.Background(), f, sh.Settings{})
	assert.NoError(t, err)
	assert.Equal(t, []any{"foo", "bar", nil}, column(out, "s"))
	// the input frame is left alone
	assert.Equal(t, []any{"  Foo  ", "BAR", nil}, column(f, "s"))
	assert.Equal(t, []any{int64(0), int64(1), int64(2)}, column(out, "n"))
}

func TestNormalizeModes(t *testing.T) {
	cases := []struct {
		mode string
		in   string
		want string
	}{
		{ModeUpper, "abc", "ABC"},
		{ModeTitle, "hello world", "Hello World"},
		{ModeSnake, "Hello World", "hello_world"},
		{ModeSnake, "camelCase", "camel_case"},
		{ModeCollapseSpace, " a   b  c ", "a b c"},
	}
	for _, c := range cases {
		t.Run(c.mode+"/"+c.in, func(t *testing.T) {
			st := &Normalize{Columns: []string{"s"}, Modes: []string{c.mode}}
			out, err := st.Run(context.Background(), names(t, c.in), sh.Settings{})
			assert.NoError(t, err)
			assert.Equal[any](t, c.want, out.Value(0, "s"))
		})
	}
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	st := &Normalize{Columns: []string{"s"}, Modes: []string{"shout"}}
	var perr *sh.InvalidParameterError
	assert.True(t, errors.As(st.Validate(), &perr))
	assert.Equal(t, "modes", perr.Param)

	st = &Normalize{Columns: []string{"n"}, Modes: []string{ModeLower}}
	_, err := st.Run(context.Background(), names(t, "x"), sh.Settings{})
	assert.True(t, errors.Is(err, sh.ErrStepValidation))

	st = &Normalize{Columns: []string{"missing"}, Modes: []string{ModeLower}}
	_, err = st.Run(context.Background(), names(t, "x"), sh.Settings{})
	var merr *sh.MissingColumnError
	assert.True(t, errors.As(err, &merr))
	assert.Equal(t, "missing", merr.Column)
}

func TestRegexReplace(t *testing.T) {
	st := &RegexReplace{Column: "s", Pattern: "o+", Replace: "O"}
	out, err := st.Run(context.Background(), names(t, "foo", "bar", nil), sh.Settings{})
	assert.NoError(t, err)
	assert.Equal(t, []any{"fO", "bar", nil}, column(out, "s"))

	bad := &RegexReplace{Column: "s", Pattern: "("}
	assert.Error(t, bad.Validate())
}

func TestMapValues(t *testing.T) {
	st := &MapValues{Column: "s", Map: map[string]string{"bar": "baz"}}
	out, err := st.Run(context.Background(), names(t, "foo", "bar"), sh.Settings{})
	assert.NoError(t, err)
	assert.Equal(t, []any{"foo", "baz"}, column(out, "s"))

	empty := &MapValues{Column: "s"}
	assert.Error(t, empty.Validate())
}

func TestStandardizeStepsLeaveInputAlone(t *testing.T) {
	f := names(t, "  Foo  ", "bar", nil)
	before := f.Clone()
	steps := []sh.Step{
		&Normalize{Columns: []string{"s"}, Modes: []string{ModeTrim, ModeUpper}},
		&RegexReplace{Column: "s", Pattern: "o+", Replace: "0"},
		&MapValues{Column: "s", Map: map[string]string{"bar": "baz"}},
	}
	for _, st := range steps {
		_, err := st.Run(context.Background(), f, sh.Settings{})
		assert.NoError(t, err, st.Kind())
		assert.True(t, f.Equal(before), st.Kind())
	}
}
