package main

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/wdm0006/shaper/internal/config"
	"github.com/wdm0006/shaper/pkg/io/csvio"
	"github.com/wdm0006/shaper/pkg/io/dataset"
	"github.com/wdm0006/shaper/pkg/profile"
	sh "github.com/wdm0006/shaper/pkg/shaper"
	"github.com/wdm0006/shaper/pkg/template"
)

func (a *app) runCmd() *cobra.Command {
	var (
		parallel int
		preview  int
		prof     bool
		topK     int
	)
	cmd := &cobra.Command{
		Use:   "run <config>...",
		Short: "Run the template of each configuration and write its output",
		Long: `Run loads every configuration first; nothing runs unless all of them are
valid. Runs then proceed concurrently, and the first failure cancels the rest.
Outputs are written only after a successful run and replace their target
atomically.`,
		Args: usage(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgs, err := loadConfigs(args)
			if err != nil {
				return err
			}
			outs := make([]*sh.Frame, len(cfgs))
			g, ctx := errgroup.WithContext(cmd.Context())
			if parallel < 1 {
				parallel = -1
			}
			g.SetLimit(parallel)
			for i, cfg := range cfgs {
				i, cfg := i, cfg
				g.Go(func() error {
					out, err := a.runOne(ctx, cfg)
					outs[i] = out
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for i, cfg := range cfgs {
				if len(cfgs) > 1 && (preview > 0 || prof) {
					fmt.Fprintf(a.stdout, "== %s\n", cfg.Path)
				}
				if preview > 0 {
					renderPreview(a.stdout, outs[i], preview)
				}
				if prof {
					fmt.Fprint(a.stdout, profile.Of(outs[i], topK).Text())
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "p", runtime.GOMAXPROCS(0), "maximum configurations run at once")
	cmd.Flags().IntVar(&preview, "preview", 0, "print the first N output rows")
	cmd.Flags().BoolVar(&prof, "profile", false, "print a column profile of each output")
	cmd.Flags().IntVar(&topK, "top", 5, "most frequent values listed per text column in --profile")
	return cmd
}

func loadConfigs(paths []string) ([]*config.Config, error) {
	cfgs := make([]*config.Config, 0, len(paths))
	var errs []error
	for _, p := range paths {
		cfg, err := config.Load(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cfgs = append(cfgs, cfg)
	}
	if len(errs) > 0 {
		return nil, multierr.Combine(errs...)
	}
	return cfgs, nil
}

func (a *app) runOne(ctx context.Context, cfg *config.Config) (*sh.Frame, error) {
	log := a.log.WithValues("config", cfg.Path, "template", cfg.Template)
	if !a.registry.Has(cfg.Template) {
		return nil, &sh.UnknownTemplateError{Name: cfg.Template, Known: a.registry.Names()}
	}
	inOpt, err := cfg.InputOptions()
	if err != nil {
		return nil, err
	}
	outOpt, err := cfg.OutputOptions()
	if err != nil {
		return nil, err
	}

	in := cfg.Resolve(cfg.ModelPath)
	data, err := dataset.Load(in, inOpt)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", in, err)
	}
	log.Info("dataset loaded", "path", in, "rows", data.Rows(), "columns", data.Cols())

	tpl, err := a.registry.Create(cfg.Template, data, cfg.Settings(), template.WithLogger(log))
	if err != nil {
		return nil, err
	}
	out, err := tpl.Run(ctx)
	if err != nil {
		log.Error(err, "run failed")
		return nil, err
	}

	dst := cfg.Resolve(cfg.OutputPath)
	if err := dataset.Write(dst, out, outOpt); err != nil {
		return nil, fmt.Errorf("write %s: %w", dst, err)
	}
	log.Info("output written", "path", dst, "rows", out.Rows())
	return out, nil
}

func renderPreview(w io.Writer, f *sh.Frame, n int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(f.Names())
	table.SetAutoFormatHeaders(false)
	if n > f.Rows() {
		n = f.Rows()
	}
	row := make([]string, f.Cols())
	for r := 0; r < n; r++ {
		for c := 0; c < f.Cols(); c++ {
			v := f.Column(c).Value(r)
			if v == nil {
				row[c] = "NULL"
				continue
			}
			row[c] = csvio.FormatCell(v)
		}
		table.Append(row)
	}
	table.SetCaption(true, fmt.Sprintf("%d of %d rows", n, f.Rows()))
	table.Render()
}
