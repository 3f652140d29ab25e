// Command shaperbench times template runs over a generated dataset.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	sh "github.com/wdm0006/shaper/pkg/shaper"
	"github.com/wdm0006/shaper/pkg/template"
)

var regions = []string{"East", "West", " north ", "South", "Central"}

// generate builds a sales-shaped frame: region (string), sales (int) and
// score (float). Each sales and score cell is null with probability missp.
func generate(rows int, missp float64, seed int64) *sh.Frame {
	rnd := rand.New(rand.NewSource(seed))
	f := sh.NewFrame(sh.Schema{Columns: []sh.ColumnSchema{
		{Name: "region", Type: sh.KindString, Nullable: true},
		{Name: "sales", Type: sh.KindInt, Nullable: true},
		{Name: "score", Type: sh.KindFloat, Nullable: true},
	}})
	for i := 0; i < rows; i++ {
		f.AppendNullRow()
		_ = f.SetCell(i, "region", regions[rnd.Intn(len(regions))])
		if rnd.Float64() >= missp {
			_ = f.SetCell(i, "sales", int64(rnd.Intn(1000)))
		}
		if rnd.Float64() >= missp {
			_ = f.SetCell(i, "score", rnd.Float64()*100)
		}
	}
	return f
}

type summary struct {
	Template       string  `json:"template"`
	Rows           int     `json:"rows"`
	Runs           int     `json:"runs"`
	OutputRows     int     `json:"output_rows"`
	MeanMillis     float64 `json:"mean_ms"`
	StdDevMillis   float64 `json:"stddev_ms"`
	RowsPerSec     float64 `json:"rows_per_sec"`
	TotalAllocMB   uint64  `json:"total_alloc_mb"`
	GCCycles       uint32  `json:"gc_cycles"`
	MissingPercent float64 `json:"missing_pct"`
}

func bench(ctx context.Context, tpl *template.Template, runs int) (summary, error) {
	runtime.GC()
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	ms := make([]float64, 0, runs)
	var out *sh.Frame
	for i := 0; i < runs; i++ {
		start := time.Now()
		var err error
		if out, err = tpl.Run(ctx); err != nil {
			return summary{}, err
		}
		ms = append(ms, float64(time.Since(start).Microseconds())/1000)
	}
	runtime.ReadMemStats(&after)

	s := summary{Template: tpl.Name(), Runs: runs, OutputRows: out.Rows()}
	s.MeanMillis, s.StdDevMillis = stat.MeanStdDev(ms, nil)
	if runs < 2 {
		s.StdDevMillis = 0
	}
	if s.MeanMillis > 0 {
		s.RowsPerSec = float64(tpl.Data().Rows()) / (s.MeanMillis / 1000)
	}
	s.TotalAllocMB = (after.TotalAlloc - before.TotalAlloc) / 1024 / 1024
	s.GCCycles = after.NumGC - before.NumGC
	return s, nil
}

func report(w io.Writer, s summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	fmt.Fprintf(w, "Template: %s (%d runs)\n", s.Template, s.Runs)
	fmt.Fprintf(w, "Rows: %d in, %d out\n", s.Rows, s.OutputRows)
	fmt.Fprintf(w, "Run time: %.2f ms (stddev %.2f)\n", s.MeanMillis, s.StdDevMillis)
	fmt.Fprintf(w, "Throughput: %.0f rows/s\n", s.RowsPerSec)
	fmt.Fprintf(w, "Total Alloc (delta): %d MB\n", s.TotalAllocMB)
	fmt.Fprintf(w, "GC cycles (delta): %d\n", s.GCCycles)
	return nil
}

func newCmd() *cobra.Command {
	var (
		rows     int
		runs     int
		missp    float64
		seed     int64
		name     string
		settings string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:          "shaperbench",
		Short:        "Time a template over generated sales data",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var m map[string]any
			if err := json.Unmarshal([]byte(settings), &m); err != nil {
				return &sh.ConfigurationError{Key: "settings", Reason: "want a JSON object", Err: err}
			}
			data := generate(rows, missp, seed)
			tpl, err := template.Default().Create(name, data, sh.NewSettings(m))
			if err != nil {
				return err
			}
			s, err := bench(cmd.Context(), tpl, runs)
			if err != nil {
				return err
			}
			s.Rows = rows
			s.MissingPercent = missp * 100
			return report(cmd.OutOrStdout(), s, asJSON)
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 1_000_000, "rows to generate")
	cmd.Flags().IntVar(&runs, "runs", 5, "timed runs")
	cmd.Flags().Float64Var(&missp, "missing", 0.05, "probability of a null sales or score cell")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().StringVar(&name, "template", "sales_summary", "template to run")
	cmd.Flags().StringVar(&settings, "settings", `{"region": "East"}`, "pipeline settings as JSON")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit a JSON summary")
	return cmd
}

func main() {
	if err := newCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
