package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/wdm0006/shaper/internal/config"
	sh "github.com/wdm0006/shaper/pkg/shaper"
	"github.com/wdm0006/shaper/pkg/template"
)

// plan builds the pipeline of cfg without loading its dataset.
func (a *app) plan(cfg *config.Config) (*sh.Pipeline, error) {
	tpl, err := a.registry.Create(cfg.Template, sh.NewFrame(sh.Schema{}), cfg.Settings(), template.WithLogger(a.log.WithValues("config", cfg.Path)))
	if err != nil {
		return nil, err
	}
	p, err := tpl.BuildPipeline()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Path, err)
	}
	return p, nil
}

func (a *app) planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <config>",
		Short: "Print the steps a configuration would run, without running them",
		Args:  usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			p, err := a.plan(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "template %s: %s -> %s\n", cfg.Template, cfg.Resolve(cfg.ModelPath), cfg.Resolve(cfg.OutputPath))
			table := tablewriter.NewWriter(a.stdout)
			table.SetHeader([]string{"#", "kind", "params"})
			table.SetAutoFormatHeaders(false)
			table.SetAutoWrapText(false)
			for _, st := range p.Describe() {
				table.Append([]string{strconv.Itoa(st.Index), st.Kind, st.Params})
			}
			table.Render()
			return nil
		},
	}
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>...",
		Short: "Check configurations and the pipelines they describe",
		Args:  usage(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, path := range args {
				cfg, err := config.Load(path)
				if err == nil {
					_, err = a.plan(cfg)
				}
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if !a.quiet {
					fmt.Fprintf(a.stdout, "ok %s\n", path)
				}
			}
			return multierr.Combine(errs...)
		},
	}
}

func (a *app) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the registered templates",
		Args:  usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(a.stdout)
			table.SetHeader([]string{"template", "description"})
			table.SetAutoFormatHeaders(false)
			table.SetAutoWrapText(false)
			for _, name := range a.registry.Names() {
				table.Append([]string{name, a.registry.Help(name)})
			}
			table.Render()
			return nil
		},
	}
}

func (a *app) stepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the step kinds usable in declarative pipelines",
		Args:  usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(a.stdout)
			table.SetHeader([]string{"kind", "params", "description"})
			table.SetAutoFormatHeaders(false)
			table.SetAutoWrapText(false)
			for _, kind := range a.catalog.Kinds() {
				e, _ := a.catalog.Lookup(kind)
				table.Append([]string{kind, strings.Join(e.Params, ", "), e.Help})
			}
			table.Render()
			return nil
		},
	}
}
