package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/alecthomas/assert/v2"
	"go.uber.org/multierr"

	"github.com/wdm0006/shaper/pkg/io/dataset"
	sh "github.com/wdm0006/shaper/pkg/shaper"
)

func configKeys(err error) []string {
	var keys []string
	for _, e := range multierr.Errors(err) {
		var ce *sh.ConfigurationError
		if errors.As(e, &ce) {
			keys = append(keys, ce.Key)
		}
	}
	return keys
}

func TestParseJSON(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"template": "sales_summary",
		"model_path": "sales.csv",
		"output_path": "summary.jsonl",
		"pipeline_settings": {"region": "East", "limit": 3}
	}`), ".json")
	assert.NoError(t, err)
	assert.Equal(t, "sales_summary", cfg.Template)

	s := cfg.Settings()
	region, err := s.String("region")
	assert.NoError(t, err)
	assert.Equal(t, "East", region)
	limit, err := s.IntOr("limit", 0)
	assert.NoError(t, err)
	assert.Equal(t, 3, limit)

	in, err := cfg.InputOptions()
	assert.NoError(t, err)
	assert.Equal(t, dataset.Options{}, in)
}

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
template: engagement_summary
model_path: events.tsv
output_path: out.csv
input:
  type: tsv
  has_header: false
pipeline_settings:
  group_by: user
  steps:
    - kind: filter_value
      column: age
      op: gt
      value: 30
`), ".yml")
	assert.NoError(t, err)
	in, err := cfg.InputOptions()
	assert.NoError(t, err)
	assert.Equal(t, dataset.Options{Format: dataset.TSV, NoHeader: true}, in)

	steps, err := cfg.Settings().List("steps")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(steps))
}

func TestParseTOML(t *testing.T) {
	cfg, err := Parse([]byte(`
template = "threshold_filter"
model_path = "people.csv"
output_path = "people.parquet"

[input]
delimiter = ";"

[output]
type = "parquet"

[pipeline_settings]
column = "age"
value = 30
`), ".toml")
	assert.NoError(t, err)
	in, err := cfg.InputOptions()
	assert.NoError(t, err)
	assert.Equal(t, ';', in.Delimiter)
	out, err := cfg.OutputOptions()
	assert.NoError(t, err)
	assert.Equal(t, dataset.Parquet, out.Format)

	v, err := cfg.Settings().Float("value")
	assert.NoError(t, err)
	assert.Equal(t, 30.0, v)
}

func TestMissingRequiredKeys(t *testing.T) {
	_, err := Parse([]byte(`{"output_path": "x.csv"}`), ".json")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, sh.ErrConfiguration))
	assert.Contains(t, err.Error(), "template")
	assert.Contains(t, err.Error(), "model_path")
}

func TestSchemaViolationsAreAllReported(t *testing.T) {
	_, err := Parse([]byte(`{
		"template": 5,
		"model_path": "in.csv",
		"output_path": "out.xml",
		"output": {"type": "xml"}
	}`), ".json")
	assert.Error(t, err)
	keys := configKeys(err)
	sort.Strings(keys)
	assert.Equal(t, []string{"output.type", "template"}, keys)
}

func TestChecksBeyondSchema(t *testing.T) {
	_, err := Parse([]byte(`{
		"template": "  ",
		"model_path": "in.csv",
		"output_path": "out.csv",
		"input": {"delimiter": "ab"}
	}`), ".json")
	assert.Error(t, err)
	assert.Equal(t, []string{"template", "input.delimiter"}, configKeys(err))

	_, err = Parse([]byte(`{"template": "t", "model_path": "same.csv", "output_path": "same.csv"}`), ".json")
	assert.Equal(t, []string{"output_path"}, configKeys(err))
}

func TestUnsupportedSyntax(t *testing.T) {
	_, err := Parse([]byte(`template=x`), ".ini")
	var ce *sh.ConfigurationError
	assert.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Reason, ".ini")

	_, err = Parse([]byte(`{"template": `), ".json")
	assert.True(t, errors.Is(err, sh.ErrConfiguration))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	body := `{"template": "sales_summary", "model_path": "in.csv", "output_path": "out.csv"}`
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, path, cfg.Path)

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, errors.Is(err, sh.ErrConfiguration))
}

func TestResolve(t *testing.T) {
	cfg := &Config{Path: filepath.Join("runs", "daily", "run.yaml")}
	assert.Equal(t, filepath.Join("runs", "daily", "in.csv"), cfg.Resolve("in.csv"))
	assert.Equal(t, "-", cfg.Resolve("-"))

	abs := filepath.Join(t.TempDir(), "in.csv")
	assert.Equal(t, abs, cfg.Resolve(abs))
	assert.Equal(t, "in.csv", (&Config{}).Resolve("in.csv"))
}
