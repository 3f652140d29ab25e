package profile

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert/v2"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

func frame(t *testing.T) *sh.Frame {
	t.Helper()
	s := sh.Schema{Columns: []sh.ColumnSchema{
		{Name: "region", Type: sh.KindString, Nullable: true},
		{Name: "sales", Type: sh.KindInt, Nullable: true},
		{Name: "active", Type: sh.KindBool, Nullable: true},
	}}
	f, err := sh.FromRows(s, []map[string]any{
		{"region": "East", "sales": 100, "active": true},
		{"region": "West", "sales": 200, "active": false},
		{"region": "East", "sales": 150},
		{"sales": nil, "active": true},
	})
	assert.NoError(t, err)
	return f
}

func TestOf(t *testing.T) {
	rep := Of(frame(t), 1)
	assert.Equal(t, 4, rep.Rows)

	region := rep.Columns[0]
	assert.Equal(t, 3, region.Count)
	assert.Equal(t, 1, region.Nulls)
	assert.Equal(t, 2, region.Distinct)
	assert.Equal(t, []Freq{{Value: "East", Count: 2}}, region.Top)

	sales := rep.Columns[1]
	assert.Equal(t, 1, sales.Nulls)
	assert.Equal(t, 100.0, sales.Num.Min)
	assert.Equal(t, 200.0, sales.Num.Max)
	assert.Equal(t, 150.0, sales.Num.Mean)
	assert.Equal(t, 50.0, sales.Num.StdDev)

	active := rep.Columns[2]
	assert.Equal(t, BoolStats{True: 2, False: 1}, *active.Bool)
}

func TestTopTiesOrderedByValue(t *testing.T) {
	got := top(map[string]int{"b": 1, "a": 1, "c": 3}, 2)
	assert.Equal(t, []Freq{{"c", 3}, {"a", 1}}, got)
	assert.Equal(t, 0, len(top(map[string]int{"a": 1}, 0)))
}

func TestReportFormats(t *testing.T) {
	rep := Of(frame(t), 2)
	txt := rep.Text()
	assert.Contains(t, txt, "Profile: 4 rows")
	assert.Contains(t, txt, "- sales (int): count=3 nulls=1 min=100 max=200 mean=150 stddev=50")
	assert.Contains(t, txt, "true=2 false=1")

	raw, err := json.Marshal(rep)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), `"name":"region"`)
	assert.Contains(t, string(raw), `"top":[{"value":"East","count":2},{"value":"West","count":1}]`)
}
