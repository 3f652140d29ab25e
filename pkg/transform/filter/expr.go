package filter

import (
	"context"
	"sort"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Expr keeps the rows for which a boolean expr-lang expression over the row's
// columns holds, e.g. `age > 30 && country == "NL"`. Rows where any referenced
// column is null are dropped without evaluating the expression.
type Expr struct {
	Expression string
}

func (t *Expr) Kind() string     { return "filter_expr" }
func (t *Expr) Describe() string { return t.Expression }

func (t *Expr) Validate() error {
	if t.Expression == "" {
		return sh.InvalidParam(t.Kind(), "expression", "must not be empty")
	}
	if _, err := parser.Parse(t.Expression); err != nil {
		return sh.InvalidParam(t.Kind(), "expression", "%v", err)
	}
	return nil
}

type identCollector struct {
	names   map[string]struct{}
	callees map[string]struct{}
}

func (c *identCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.names[n.Value] = struct{}{}
	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok {
			c.callees[id.Value] = struct{}{}
		}
	}
}

// Columns returns the sorted identifiers the expression refers to.
func (t *Expr) Columns() ([]string, error) {
	tree, err := parser.Parse(t.Expression)
	if err != nil {
		return nil, sh.InvalidParam(t.Kind(), "expression", "%v", err)
	}
	c := &identCollector{names: map[string]struct{}{}, callees: map[string]struct{}{}}
	ast.Walk(&tree.Node, c)
	out := make([]string, 0, len(c.names))
	for n := range c.names {
		if _, fn := c.callees[n]; !fn {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

func zeroOf(k sh.Kind) any {
	switch k {
	case sh.KindBool:
		return false
	case sh.KindInt:
		return int64(0)
	case sh.KindFloat:
		return float64(0)
	case sh.KindTime:
		return time.Time{}
	}
	return ""
}

func (t *Expr) compile(f *sh.Frame, cols []string) (*vm.Program, error) {
	env := make(map[string]any, len(cols))
	for _, n := range cols {
		c, _ := f.ColumnByName(n)
		env[n] = zeroOf(c.Kind())
	}
	prog, err := expr.Compile(t.Expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, sh.InvalidParam(t.Kind(), "expression", "%v", err)
	}
	return prog, nil
}

func (t *Expr) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	cols, err := t.Columns()
	if err != nil {
		return nil, err
	}
	if err := sh.RequireColumns(t.Kind(), f, cols...); err != nil {
		return nil, err
	}
	prog, err := t.compile(f, cols)
	if err != nil {
		return nil, err
	}

	refs := make([]sh.Column, len(cols))
	for i, n := range cols {
		refs[i], _ = f.ColumnByName(n)
	}
	rows := make([]int, 0, f.Rows())
	env := make(map[string]any, len(cols))
rowLoop:
	for r := 0; r < f.Rows(); r++ {
		for i, c := range refs {
			if c.IsNull(r) {
				continue rowLoop
			}
			env[cols[i]] = c.Value(r)
		}
		out, err := expr.Run(prog, env)
		if err != nil {
			return nil, sh.InvalidParam(t.Kind(), "expression", "row %d: %v", r, err)
		}
		ok, isBool := out.(bool)
		if !isBool {
			return nil, sh.InvalidParam(t.Kind(), "expression", "row %d: result %v is not a bool", r, out)
		}
		if ok {
			rows = append(rows, r)
		}
	}
	return f.Take(rows), nil
}
