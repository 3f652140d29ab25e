package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestGenerateIsSeeded(t *testing.T) {
	a := generate(200, 0.1, 7)
	b := generate(200, 0.1, 7)
	assert.Equal(t, 200, a.Rows())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(generate(200, 0.1, 8)))
}

func TestBenchCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--rows", "500", "--runs", "2", "--json", "--settings", `{"group_by": "region", "agg_col": "score", "op": "mean"}`})
	assert.NoError(t, cmd.Execute())

	var s summary
	assert.NoError(t, json.Unmarshal(out.Bytes(), &s))
	assert.Equal(t, "sales_summary", s.Template)
	assert.Equal(t, 500, s.Rows)
	assert.Equal(t, len(regions), s.OutputRows)
}

func TestBenchRejectsBadSettings(t *testing.T) {
	cmd := newCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--rows", "10", "--settings", "[1]"})
	assert.Error(t, cmd.Execute())
}
