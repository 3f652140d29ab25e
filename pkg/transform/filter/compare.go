// Package filter holds row-selecting steps. None of them change cell values;
// each returns a new frame holding the surviving rows in their original order.
package filter

import (
	"cmp"
	"fmt"
	"math"
	"strings"
	"time"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Comparison operators understood by ByColumnValue.
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpGt       = "gt"
	OpGe       = "ge"
	OpLt       = "lt"
	OpLe       = "le"
	OpIn       = "in"
	OpContains = "contains"
)

var opAliases = map[string]string{
	"":   OpEq,
	"==": OpEq,
	"=":  OpEq,
	"!=": OpNe,
	">":  OpGt,
	">=": OpGe,
	"<":  OpLt,
	"<=": OpLe,
}

// NormalizeOp maps symbolic operators onto their names and rejects unknown ones.
func NormalizeOp(op string) (string, error) {
	if a, ok := opAliases[op]; ok {
		return a, nil
	}
	switch op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe, OpIn, OpContains:
		return op, nil
	}
	return "", fmt.Errorf("unknown operator %q", op)
}

type predicate func(v any) bool

func ordered(op string, c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	}
	return false
}

// exactInt reports value as an int64 when it holds an integer that int64
// can represent without rounding.
func exactInt(value any) (int64, bool) {
	switch n := value.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// buildPredicate type-checks value against the column kind up front so that
// a bad parameter fails before any row is looked at.
func buildPredicate(step string, k sh.Kind, op string, value any) (predicate, error) {
	if op == OpIn {
		list, ok := value.([]any)
		if !ok {
			if ss, ok := value.([]string); ok {
				for _, s := range ss {
					list = append(list, s)
				}
			} else {
				return nil, sh.InvalidParam(step, "value", "operator in needs a list, got %T", value)
			}
		}
		set := make(map[any]struct{}, len(list))
		for _, el := range list {
			x, err := sh.Coerce(k, el)
			if err != nil {
				return nil, sh.InvalidParam(step, "value", "%v", err)
			}
			if t, ok := x.(time.Time); ok {
				x = t.UnixNano()
			}
			set[x] = struct{}{}
		}
		return func(v any) bool {
			if t, ok := v.(time.Time); ok {
				v = t.UnixNano()
			}
			_, hit := set[v]
			return hit
		}, nil
	}

	switch k {
	case sh.KindInt, sh.KindFloat:
		if op == OpContains {
			return nil, sh.InvalidParam(step, "op", "contains needs a string column")
		}
		if k == sh.KindInt {
			if n, ok := exactInt(value); ok {
				return func(v any) bool { return ordered(op, cmp.Compare(v.(int64), n)) }, nil
			}
		}
		target, ok := sh.AsFloat(value)
		if !ok {
			x, err := sh.Coerce(sh.KindFloat, value)
			if err != nil {
				return nil, sh.InvalidParam(step, "value", "%v", err)
			}
			target = x.(float64)
		}
		if math.IsNaN(target) {
			return nil, sh.InvalidParam(step, "value", "NaN is not comparable")
		}
		return func(v any) bool {
			f, _ := sh.AsFloat(v)
			return ordered(op, cmpFloat(f, target))
		}, nil
	case sh.KindString:
		target, ok := value.(string)
		if !ok {
			return nil, sh.InvalidParam(step, "value", "string column needs a string value, got %T", value)
		}
		if op == OpContains {
			return func(v any) bool { return strings.Contains(v.(string), target) }, nil
		}
		return func(v any) bool { return ordered(op, strings.Compare(v.(string), target)) }, nil
	case sh.KindBool:
		if op != OpEq && op != OpNe {
			return nil, sh.InvalidParam(step, "op", "bool columns support eq and ne only")
		}
		x, err := sh.Coerce(sh.KindBool, value)
		if err != nil {
			return nil, sh.InvalidParam(step, "value", "%v", err)
		}
		target := x.(bool)
		return func(v any) bool { return (v.(bool) == target) == (op == OpEq) }, nil
	case sh.KindTime:
		if op == OpContains {
			return nil, sh.InvalidParam(step, "op", "contains needs a string column")
		}
		x, err := sh.Coerce(sh.KindTime, value)
		if err != nil {
			return nil, sh.InvalidParam(step, "value", "%v", err)
		}
		target := x.(time.Time)
		return func(v any) bool { return ordered(op, v.(time.Time).Compare(target)) }, nil
	}
	return nil, sh.InvalidParam(step, "column", "unsupported column kind %s", k)
}

// keep returns the rows of col for which pred holds. Null and NaN cells
// never match.
func keep(col sh.Column, pred predicate) []int {
	rows := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if sh.IsMissing(col, i) {
			continue
		}
		if pred(col.Value(i)) {
			rows = append(rows, i)
		}
	}
	return rows
}
