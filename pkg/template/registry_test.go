package template

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	sh "github.com/wdm0006/shaper/pkg/shaper"
	"github.com/wdm0006/shaper/pkg/transform/project"
)

func TestCreateUnknownTemplate(t *testing.T) {
	tpl, err := Default().Create("nonexistent", salesFrame(), sh.Settings{})
	assert.True(t, tpl == nil)
	var uerr *sh.UnknownTemplateError
	assert.True(t, errors.As(err, &uerr))
	assert.Equal(t, "nonexistent", uerr.Name)
	assert.Contains(t, err.Error(), "nonexistent")
	assert.True(t, errors.Is(err, sh.ErrUnknownTemplate))
}

func TestNewRegistryRejectsBadEntries(t *testing.T) {
	ok := Entry{Name: "a", New: func() Strategy { return SalesSummary{} }}
	cases := map[string][]Entry{
		"duplicate":  {ok, ok},
		"empty name": {{New: ok.New}},
		"nil ctor":   {{Name: "b"}},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := NewRegistry(entries...)
			assert.True(t, r == nil)
			var cerr *sh.ConfigurationError
			assert.True(t, errors.As(err, &cerr))
		})
	}
}

func TestNamesSorted(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"declarative", "engagement_summary", "sales_summary", "threshold_filter"}, r.Names())
	assert.True(t, r.Has("sales_summary"))
	assert.False(t, r.Has("sales"))
	assert.NotEqual(t, "", r.Help("declarative"))
}

func describeAll(t *testing.T, name string, s sh.Settings) []sh.StepInfo {
	t.Helper()
	tpl, err := Default().Create(name, salesFrame(), s)
	assert.NoError(t, err)
	p, err := tpl.BuildPipeline()
	assert.NoError(t, err)
	return p.Describe()
}

func TestBuildPipelineIsDeterministic(t *testing.T) {
	settings := map[string]sh.Settings{
		"sales_summary":      sh.NewSettings(map[string]any{"region": "East"}),
		"engagement_summary": sh.NewSettings(map[string]any{"min_value": 1}),
		"threshold_filter":   sh.NewSettings(map[string]any{"columns": []any{"region"}}),
		"declarative": sh.NewSettings(map[string]any{"steps": []any{
			map[string]any{"kind": "sort", "column": "sales"},
			map[string]any{"kind": "rename_columns", "mapping": map[string]any{"a": "b", "c": "d"}},
		}}),
	}
	for _, name := range Default().Names() {
		t.Run(name, func(t *testing.T) {
			first := describeAll(t, name, settings[name])
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, describeAll(t, name, settings[name]))
			}
		})
	}
}

func TestCreateClonesData(t *testing.T) {
	data := salesFrame()
	tpl, err := Default().Create("sales_summary", data, sh.Settings{})
	assert.NoError(t, err)
	assert.NoError(t, data.SetCell(0, "sales", 1))
	assert.Equal[any](t, int64(100), tpl.Data().Value(0, "sales"))
}

func TestCustomStrategy(t *testing.T) {
	var events []sh.RunState
	r, err := NewRegistry(Entry{Name: "regions", New: func() Strategy {
		return StrategyFunc(func(s sh.Settings, opts ...sh.Option) (*sh.Pipeline, error) {
			return sh.NewBuilder(opts...).Add(&project.Select{Columns: []string{"region"}}).Build(s)
		})
	}})
	assert.NoError(t, err)
	tpl, err := r.Create("regions", salesFrame(), sh.Settings{}, WithObserver(func(ev sh.StepEvent) {
		events = append(events, ev.State)
	}))
	assert.NoError(t, err)
	out, err := tpl.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"region"}, out.Names())
	assert.Equal(t, []sh.RunState{sh.StatePending, sh.StateRunning, sh.StateCompleted}, events)
}
