package shaper

import (
	"math"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestCoerce(t *testing.T) {
	cases := []struct {
		kind Kind
		in   any
		want any
		ok   bool
	}{
		{KindInt, 3, int64(3), true},
		{KindInt, 3.0, int64(3), true},
		{KindInt, 3.5, nil, false},
		{KindInt, "42", int64(42), true},
		{KindFloat, int64(2), 2.0, true},
		{KindFloat, "2.5", 2.5, true},
		{KindBool, "true", true, true},
		{KindBool, 1, nil, false},
		{KindString, "x", "x", true},
		{KindString, 1, nil, false},
		{KindTime, "2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), true},
	}
	for _, c := range cases {
		got, err := Coerce(c.kind, c.in)
		if !c.ok {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestFrameFromRows(t *testing.T) {
	s := Schema{Columns: []ColumnSchema{{Name: "a", Type: KindInt, Nullable: true}, {Name: "b", Type: KindString, Nullable: true}}}
	f, err := FromRows(s, []map[string]any{{"a": 1, "b": "x"}, {"a": nil}})
	assert.NoError(t, err)
	assert.Equal(t, 2, f.Rows())
	assert.Equal(t, 2, f.Cols())
	assert.Equal(t, []map[string]any{{"a": int64(1), "b": "x"}, {"a": nil, "b": nil}}, f.Records())

	_, err = FromRows(s, []map[string]any{{"c": 1}})
	assert.Error(t, err)

	// a bad cell leaves the frame as it was
	err = f.AppendRow(map[string]any{"a": 7, "b": 3})
	assert.Error(t, err)
	assert.Equal(t, 2, f.Rows())
	a, _ := f.ColumnByName("a")
	assert.Equal(t, 2, a.Len())
}

func TestFrameTakeSelectWithColumn(t *testing.T) {
	s := Schema{Columns: []ColumnSchema{{Name: "a", Type: KindInt}, {Name: "b", Type: KindString}}}
	f, err := FromRows(s, []map[string]any{{"a": 1, "b": "x"}, {"a": 2, "b": "y"}, {"a": 3, "b": "z"}})
	assert.NoError(t, err)

	sub := f.Take([]int{2, 0})
	assert.Equal(t, []map[string]any{{"a": int64(3), "b": "z"}, {"a": int64(1), "b": "x"}}, sub.Records())

	sel, err := f.Select("b")
	assert.NoError(t, err)
	assert.Equal(t, []string{"b"}, sel.Names())
	_, err = f.Select("nope")
	assert.Error(t, err)

	c := NewFloatColumn("c", 3)
	c.Set(1, 0.5)
	wc, err := f.WithColumn(c)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, wc.Names())
	assert.Equal[any](t, 0.5, wc.Value(1, "c"))
	assert.Equal[any](t, 0.0, wc.Value(0, "c"))
	assert.False(t, f.HasColumn("c"))

	_, err = f.WithColumn(NewFloatColumn("d", 1))
	assert.Error(t, err)
}

func TestFrameCloneIsDeep(t *testing.T) {
	f := NewFrame(Schema{Columns: []ColumnSchema{{Name: "a", Type: KindInt, Nullable: true}}})
	f.AppendNullRow()
	g := f.Clone()
	assert.NoError(t, g.SetCell(0, "a", 9))
	assert.Equal[any](t, nil, f.Value(0, "a"))
	assert.False(t, f.Equal(g))
}

func TestNewFrameFromColumns(t *testing.T) {
	a := NewIntColumn("a", 2)
	b := NewStringColumn("b", 3)
	_, err := NewFrameFromColumns(a, b)
	assert.Error(t, err)
	_, err = NewFrameFromColumns(a, NewIntColumn("a", 2))
	assert.Error(t, err)

	f, err := NewFrameFromColumns(a, NewStringColumn("b", 2))
	assert.NoError(t, err)
	assert.Equal(t, 2, f.Rows())
	cs, ok := f.Schema().Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, KindString, cs.Type)
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindBool, KindInt, KindFloat, KindString, KindTime} {
		got, ok := ParseKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("decimal")
	assert.False(t, ok)
}

func TestFrameEqualTreatsNaNAsEqual(t *testing.T) {
	s := Schema{Columns: []ColumnSchema{{Name: "x", Type: KindFloat, Nullable: true}}}
	mk := func(v any) *Frame {
		f, err := FromRows(s, []map[string]any{{"x": 1.0}, {"x": v}, {"x": nil}})
		assert.NoError(t, err)
		return f
	}
	a := mk(math.NaN())
	assert.True(t, a.Equal(a.Clone()))
	assert.True(t, a.Equal(mk(math.NaN())))
	assert.False(t, a.Equal(mk(1.0)))
	assert.False(t, mk(1.0).Equal(a))
	assert.False(t, a.Equal(mk(nil)))
}
