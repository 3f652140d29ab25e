package shaper

import (
	"context"
	"testing"
)

func makeFrame(rows int) *Frame {
	s := Schema{Columns: []ColumnSchema{{Name: "a", Type: KindFloat, Nullable: true}, {Name: "b", Type: KindInt, Nullable: true}, {Name: "s", Type: KindString, Nullable: true}}}
	f := NewFrame(s)
	for i := 0; i < rows; i++ {
		f.AppendNullRow()
		_ = f.SetCell(i, "a", float64(i%100))
		_ = f.SetCell(i, "b", int64(i%10))
		_ = f.SetCell(i, "s", "x")
	}
	return f
}

type noopStep struct{}

func (n *noopStep) Kind() string { return "noop" }
func (n *noopStep) Run(ctx context.Context, f *Frame, s Settings) (*Frame, error) {
	return f, nil
}

type cloneStep struct{}

func (c *cloneStep) Kind() string { return "clone" }
func (c *cloneStep) Run(ctx context.Context, f *Frame, s Settings) (*Frame, error) {
	return f.Clone(), nil
}

func BenchmarkPipeline(b *testing.B) {
	f := makeFrame(100000)
	p, err := NewPipeline(Settings{}, []Step{&noopStep{}, &noopStep{}})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.Run(context.Background(), f)
	}
}

func BenchmarkPipelineClone(b *testing.B) {
	f := makeFrame(100000)
	p, err := NewPipeline(Settings{}, []Step{&cloneStep{}, &cloneStep{}})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.Run(context.Background(), f)
	}
}
