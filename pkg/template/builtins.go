package template

import (
	sh "github.com/wdm0006/shaper/pkg/shaper"
	"github.com/wdm0006/shaper/pkg/transform/aggregate"
	"github.com/wdm0006/shaper/pkg/transform/catalog"
	"github.com/wdm0006/shaper/pkg/transform/filter"
	"github.com/wdm0006/shaper/pkg/transform/project"
	"github.com/wdm0006/shaper/pkg/transform/standardize"
)

// Builtins returns the templates shipped with shaper.
func Builtins() []Entry {
	return []Entry{
		{Name: "sales_summary", Help: "optionally filter on a region, then aggregate a value per group", New: func() Strategy { return SalesSummary{} }},
		{Name: "engagement_summary", Help: "clean a channel column and rank channels by a metric", New: func() Strategy { return EngagementSummary{} }},
		{Name: "threshold_filter", Help: "keep rows whose column passes a threshold", New: func() Strategy { return ThresholdFilter{} }},
		{Name: "declarative", Help: "run the steps listed under settings.steps", New: func() Strategy { return Declarative{} }},
	}
}

// SalesSummary filters on settings.region (when present) and aggregates
// agg_col per group_by.
//
//	region         optional value to keep
//	region_column  column compared against region (default "region")
//	group_by       group key (default region_column)
//	agg_col        aggregated column (default "sales")
//	op             aggregation (default "sum")
//	as             output column name (default agg_col)
type SalesSummary struct{}

func (SalesSummary) BuildPipeline(s sh.Settings, opts ...sh.Option) (*sh.Pipeline, error) {
	regionCol, err := s.StringOr("region_column", "region")
	if err != nil {
		return nil, err
	}
	groupBy, err := s.StringOr("group_by", regionCol)
	if err != nil {
		return nil, err
	}
	aggCol, err := s.StringOr("agg_col", "sales")
	if err != nil {
		return nil, err
	}
	op, err := s.StringOr("op", aggregate.OpSum)
	if err != nil {
		return nil, err
	}
	as, err := s.StringOr("as", "")
	if err != nil {
		return nil, err
	}
	return sh.NewBuilder(opts...).
		AddIf(s.Has("region"), &filter.ByColumnValue{Column: regionCol, Op: filter.OpEq, ValueFrom: "region"}).
		Add(&aggregate.GroupBy{GroupBy: groupBy, Column: aggCol, Op: op, As: as}).
		Build(s)
}

// EngagementSummary trims and lower-cases the channel column, drops rows under
// min_value, aggregates the metric per channel and ranks channels by it.
type EngagementSummary struct{}

func (EngagementSummary) BuildPipeline(s sh.Settings, opts ...sh.Option) (*sh.Pipeline, error) {
	channel, err := s.StringOr("channel_column", "channel")
	if err != nil {
		return nil, err
	}
	metric, err := s.StringOr("metric", "events")
	if err != nil {
		return nil, err
	}
	op, err := s.StringOr("op", aggregate.OpMean)
	if err != nil {
		return nil, err
	}
	b := sh.NewBuilder(opts...).
		Add(&standardize.Normalize{Columns: []string{channel}, Modes: []string{standardize.ModeTrim, standardize.ModeLower}})
	if s.Has("min_value") {
		lo, err := s.Float("min_value")
		if err != nil {
			return nil, err
		}
		b.Add(&filter.Range{Column: metric, Min: &lo})
	}
	return b.
		Add(&aggregate.GroupBy{GroupBy: channel, Column: metric, Op: op}).
		Add(&aggregate.Sort{Column: metric, Descending: true}).
		Build(s)
}

// ThresholdFilter keeps rows where "column op value" holds (age > 30 unless
// configured otherwise) and optionally projects onto settings.columns.
type ThresholdFilter struct{}

func (ThresholdFilter) BuildPipeline(s sh.Settings, opts ...sh.Option) (*sh.Pipeline, error) {
	col, err := s.StringOr("column", "age")
	if err != nil {
		return nil, err
	}
	op, err := s.StringOr("op", filter.OpGt)
	if err != nil {
		return nil, err
	}
	value, ok := s.Get("value")
	if !ok {
		value = 30
	}
	cols, err := s.StringsOr("columns", nil)
	if err != nil {
		return nil, err
	}
	return sh.NewBuilder(opts...).
		Add(&filter.ByColumnValue{Column: col, Op: op, Value: value}).
		AddIf(len(cols) > 0, &project.Select{Columns: cols}).
		Build(s)
}

// Declarative decodes settings.steps with a step catalog; Catalog defaults to
// catalog.Default().
type Declarative struct {
	Catalog *catalog.Catalog
}

func (d Declarative) BuildPipeline(s sh.Settings, opts ...sh.Option) (*sh.Pipeline, error) {
	if !s.Has("steps") {
		return nil, &sh.ConfigurationError{Key: "steps", Reason: "required key is missing"}
	}
	entries, err := s.List("steps")
	if err != nil {
		return nil, err
	}
	c := d.Catalog
	if c == nil {
		c = catalog.Default()
	}
	steps, err := c.DecodeAll(entries)
	if err != nil {
		return nil, err
	}
	return sh.NewPipeline(s, steps, opts...)
}
