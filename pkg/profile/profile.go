// Package profile summarises the columns of a frame.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

type NumStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

type BoolStats struct {
	True  int `json:"true"`
	False int `json:"false"`
}

type Freq struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type ColumnProfile struct {
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Count    int        `json:"count"`
	Nulls    int        `json:"nulls"`
	Distinct int        `json:"distinct,omitempty"`
	Num      *NumStats  `json:"num,omitempty"`
	Bool     *BoolStats `json:"bool,omitempty"`
	Top      []Freq     `json:"top,omitempty"`
}

type Report struct {
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// Of profiles every column of f. String and time columns keep their topK most
// frequent values; topK <= 0 keeps none.
func Of(f *sh.Frame, topK int) Report {
	rep := Report{Rows: f.Rows(), Columns: make([]ColumnProfile, 0, f.Cols())}
	for i := 0; i < f.Cols(); i++ {
		rep.Columns = append(rep.Columns, column(f.Column(i), topK))
	}
	return rep
}

func column(c sh.Column, topK int) ColumnProfile {
	cp := ColumnProfile{Name: c.Name(), Kind: c.Kind().String()}
	for r := 0; r < c.Len(); r++ {
		if c.IsNull(r) {
			cp.Nulls++
		} else {
			cp.Count++
		}
	}
	switch c.Kind() {
	case sh.KindInt, sh.KindFloat:
		xs := make([]float64, 0, cp.Count)
		for r := 0; r < c.Len(); r++ {
			if v, ok := sh.FloatAt(c, r); ok {
				xs = append(xs, v)
			}
		}
		if len(xs) > 0 {
			n := &NumStats{Min: floats.Min(xs), Max: floats.Max(xs)}
			n.Mean, n.StdDev = stat.MeanStdDev(xs, nil)
			if math.IsNaN(n.StdDev) {
				n.StdDev = 0
			}
			cp.Num = n
		}
	case sh.KindBool:
		b := &BoolStats{}
		for r := 0; r < c.Len(); r++ {
			switch c.Value(r) {
			case true:
				b.True++
			case false:
				b.False++
			}
		}
		cp.Bool = b
	default:
		freqs := map[string]int{}
		for r := 0; r < c.Len(); r++ {
			switch v := c.Value(r).(type) {
			case string:
				freqs[v]++
			case time.Time:
				freqs[v.Format(time.RFC3339)]++
			}
		}
		cp.Distinct = len(freqs)
		cp.Top = top(freqs, topK)
	}
	return cp
}

// top orders by descending count, then by value.
func top(freqs map[string]int, k int) []Freq {
	if k <= 0 || len(freqs) == 0 {
		return nil
	}
	out := make([]Freq, 0, len(freqs))
	for v, n := range freqs {
		out = append(out, Freq{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Text renders the report for a terminal.
func (r Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %d rows\n", r.Rows)
	for _, cp := range r.Columns {
		fmt.Fprintf(&b, "- %s (%s): count=%d nulls=%d", cp.Name, cp.Kind, cp.Count, cp.Nulls)
		switch {
		case cp.Num != nil:
			fmt.Fprintf(&b, " min=%.6g max=%.6g mean=%.6g stddev=%.6g", cp.Num.Min, cp.Num.Max, cp.Num.Mean, cp.Num.StdDev)
		case cp.Bool != nil:
			fmt.Fprintf(&b, " true=%d false=%d", cp.Bool.True, cp.Bool.False)
		case cp.Distinct > 0:
			fmt.Fprintf(&b, " distinct=%d", cp.Distinct)
		}
		b.WriteByte('\n')
		for _, fq := range cp.Top {
			fmt.Fprintf(&b, "    %q: %d\n", fq.Value, fq.Count)
		}
	}
	return b.String()
}
