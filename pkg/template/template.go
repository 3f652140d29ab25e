// Package template binds a named pipeline recipe (a Strategy) to a dataset
// and a settings bundle.
package template

import (
	"context"

	"github.com/go-logr/logr"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Strategy builds the pipeline of a template from its settings. Building must
// be deterministic: equal settings yield pipelines with equal Describe output.
type Strategy interface {
	BuildPipeline(s sh.Settings, opts ...sh.Option) (*sh.Pipeline, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(s sh.Settings, opts ...sh.Option) (*sh.Pipeline, error)

func (fn StrategyFunc) BuildPipeline(s sh.Settings, opts ...sh.Option) (*sh.Pipeline, error) {
	return fn(s, opts...)
}

type Option func(*Template)

// WithLogger sets the logger handed to the pipeline and used for run events.
func WithLogger(l logr.Logger) Option { return func(t *Template) { t.log = l } }

// WithObserver forwards pipeline state transitions to fn.
func WithObserver(fn sh.Observer) Option { return func(t *Template) { t.observer = fn } }

// Template is a strategy bound to its own copy of the input data. Running it
// never changes that copy, so a Template can be run any number of times.
type Template struct {
	name     string
	strategy Strategy
	data     *sh.Frame
	settings sh.Settings
	log      logr.Logger
	observer sh.Observer
}

func (t *Template) Name() string          { return t.name }
func (t *Template) Settings() sh.Settings { return t.settings }

// Data returns a copy of the bound dataset.
func (t *Template) Data() *sh.Frame { return t.data.Clone() }

// BuildPipeline asks the strategy for a pipeline over the bound settings.
func (t *Template) BuildPipeline() (*sh.Pipeline, error) {
	opts := []sh.Option{sh.WithLogger(t.log)}
	if t.observer != nil {
		opts = append(opts, sh.WithObserver(t.observer))
	}
	return t.strategy.BuildPipeline(t.settings, opts...)
}

// Run builds the pipeline and runs it over the bound data. Any failure comes
// back as a *shaper.PipelineAbortedError and no frame is returned.
func (t *Template) Run(ctx context.Context) (*sh.Frame, error) {
	p, err := t.BuildPipeline()
	if err != nil {
		return nil, &sh.PipelineAbortedError{Template: t.name, Err: err}
	}
	t.log.V(1).Info("template run started", "template", t.name, "steps", p.Len(), "rows", t.data.Rows())
	out, err := p.Run(ctx, t.data)
	if err != nil {
		return nil, &sh.PipelineAbortedError{Template: t.name, Err: err}
	}
	t.log.V(1).Info("template run finished", "template", t.name, "rows", out.Rows())
	return out, nil
}
