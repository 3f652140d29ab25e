package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

func frame(t *testing.T) *sh.Frame {
	t.Helper()
	s := sh.Schema{Columns: []sh.ColumnSchema{
		{Name: "country", Type: sh.KindString, Nullable: true},
		{Name: "age", Type: sh.KindInt, Nullable: true},
	}}
	f, err := sh.FromRows(s, []map[string]any{
		{"country": "NL", "age": 30},
		{"country": "DE", "age": 150},
		{"country": nil, "age": -1},
		{"country": "XX", "age": nil},
	})
	assert.NoError(t, err)
	return f
}

func TestInSet(t *testing.T) {
	f := frame(t)
	out, err := NewInSet("country", []string{"NL", "DE", "XX"}).Run(context.Background(), f, sh.Settings{})
	assert.NoError(t, err)
	assert.True(t, out.Equal(f))

	_, err = NewInSet("country", []string{"NL", "DE"}).Run(context.Background(), f, sh.Settings{})
	var verr *sh.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, verr.Count)
	assert.Equal(t, "country", verr.Column)
	assert.True(t, errors.Is(err, sh.ErrStepValidation))

	assert.Equal(t, "country in {DE, NL}", NewInSet("country", []string{"NL", "DE"}).Describe())
	assert.Error(t, NewInSet("country", nil).Validate())
}

func TestRange(t *testing.T) {
	f := frame(t)
	lo, hi := 0.0, 120.0
	_, err := (&Range{Column: "age", Min: &lo, Max: &hi}).Run(context.Background(), f, sh.Settings{})
	var verr *sh.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 2, verr.Count)

	wide := 200.0
	out, err := (&Range{Column: "age", Max: &wide}).Run(context.Background(), f, sh.Settings{})
	assert.NoError(t, err)
	assert.Equal(t, 4, out.Rows())

	_, err = (&Range{Column: "country", Max: &wide}).Run(context.Background(), f, sh.Settings{})
	var perr *sh.InvalidParameterError
	assert.True(t, errors.As(err, &perr))

	_, err = (&Range{Column: "height", Max: &wide}).Run(context.Background(), f, sh.Settings{})
	var merr *sh.MissingColumnError
	assert.True(t, errors.As(err, &merr))
}
