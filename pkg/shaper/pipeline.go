package shaper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// Step is the smallest unit of transformation: a pure function of a frame and
// the pipeline settings. Implementations never modify f.
type Step interface {
	Kind() string
	Run(ctx context.Context, f *Frame, s Settings) (*Frame, error)
}

// Validator is implemented by steps whose bound parameters can be checked
// before any data is seen. Builder.Build calls it for every step.
type Validator interface {
	Validate() error
}

// Describer lets a step control how its parameters are printed.
type Describer interface {
	Describe() string
}

// RunState is the state of a pipeline run as reported to an Observer.
type RunState int

const (
	StatePending RunState = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// StepEvent is emitted on every state transition. Index is -1 for the
// pipeline-level Pending and Completed events.
type StepEvent struct {
	Index   int
	Kind    string
	State   RunState
	Rows    int
	Elapsed time.Duration
	Err     error
}

// Observer receives run events synchronously.
type Observer func(StepEvent)

type Option func(*options)

type options struct {
	log      logr.Logger
	observer Observer
}

// WithLogger sets the logger used for per-step diagnostics.
func WithLogger(l logr.Logger) Option { return func(o *options) { o.log = l } }

// WithObserver registers a callback for run state transitions.
func WithObserver(fn Observer) Option { return func(o *options) { o.observer = fn } }

// Builder collects steps; Build freezes them into a Pipeline.
type Builder struct {
	steps []Step
	opts  []Option
}

func NewBuilder(opts ...Option) *Builder { return &Builder{opts: opts} }

func (b *Builder) Add(s Step) *Builder {
	b.steps = append(b.steps, s)
	return b
}

// AddIf adds s only when cond holds.
func (b *Builder) AddIf(cond bool, s Step) *Builder {
	if cond {
		b.steps = append(b.steps, s)
	}
	return b
}

// Build validates every step and returns an immutable pipeline. The builder
// may be reused afterwards without affecting the result.
func (b *Builder) Build(s Settings) (*Pipeline, error) {
	steps := make([]Step, len(b.steps))
	copy(steps, b.steps)
	for i, st := range steps {
		if st == nil {
			return nil, &StepExecutionError{Index: i, Kind: "<nil>", Err: InvalidParam("pipeline", "step", "nil step")}
		}
		if v, ok := st.(Validator); ok {
			if err := v.Validate(); err != nil {
				return nil, &StepExecutionError{Index: i, Kind: st.Kind(), Err: err}
			}
		}
	}
	o := options{log: logr.Discard()}
	for _, opt := range b.opts {
		opt(&o)
	}
	return &Pipeline{steps: steps, settings: s, log: o.log, observer: o.observer}, nil
}

// NewPipeline is shorthand for NewBuilder(opts...).Add(steps...).Build(s).
func NewPipeline(s Settings, steps []Step, opts ...Option) (*Pipeline, error) {
	b := NewBuilder(opts...)
	for _, st := range steps {
		b.Add(st)
	}
	return b.Build(s)
}

// Pipeline composes a fixed sequence of Steps sharing one Settings value.
type Pipeline struct {
	steps    []Step
	settings Settings
	log      logr.Logger
	observer Observer
}

func (p *Pipeline) Len() int           { return len(p.steps) }
func (p *Pipeline) Settings() Settings { return p.settings }

// Steps returns a copy of the step sequence.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// StepInfo is a printable view of one bound step.
type StepInfo struct {
	Index  int
	Kind   string
	Params string
}

func (p *Pipeline) Describe() []StepInfo {
	out := make([]StepInfo, len(p.steps))
	for i, st := range p.steps {
		out[i] = StepInfo{Index: i, Kind: st.Kind(), Params: describe(st)}
	}
	return out
}

func describe(st Step) string {
	if d, ok := st.(Describer); ok {
		return d.Describe()
	}
	return strings.TrimPrefix(fmt.Sprintf("%+v", st), "&")
}

// Run threads f through every step in order. The first failure aborts the
// run; the caller then gets a nil frame and a *StepExecutionError.
// Cancellation is honoured between steps only.
func (p *Pipeline) Run(ctx context.Context, f *Frame) (*Frame, error) {
	if f == nil {
		return nil, fmt.Errorf("pipeline: nil frame")
	}
	p.emit(StepEvent{Index: -1, State: StatePending, Rows: f.Rows()})
	start := time.Now()
	cur := f
	for i, st := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, p.fail(i, st, 0, err)
		}
		log := p.log.WithValues("index", i, "kind", st.Kind())
		log.V(1).Info("step started", "rows", cur.Rows())
		p.emit(StepEvent{Index: i, Kind: st.Kind(), State: StateRunning, Rows: cur.Rows()})

		t0 := time.Now()
		next, err := st.Run(ctx, cur, p.settings)
		if err == nil && next == nil {
			err = fmt.Errorf("step returned no frame")
		}
		if err != nil {
			return nil, p.fail(i, st, time.Since(t0), err)
		}
		cur = next
		log.V(1).Info("step finished", "rows", cur.Rows(), "duration", time.Since(t0))
	}
	p.emit(StepEvent{Index: -1, State: StateCompleted, Rows: cur.Rows(), Elapsed: time.Since(start)})
	return cur, nil
}

func (p *Pipeline) fail(i int, st Step, elapsed time.Duration, err error) error {
	serr := &StepExecutionError{Index: i, Kind: st.Kind(), Err: err}
	p.log.Error(err, "step failed", "index", i, "kind", st.Kind())
	p.emit(StepEvent{Index: i, Kind: st.Kind(), State: StateFailed, Elapsed: elapsed, Err: serr})
	return serr
}

func (p *Pipeline) emit(ev StepEvent) {
	if p.observer != nil {
		p.observer(ev)
	}
}
