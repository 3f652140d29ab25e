package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	sh "github.com/wdm0006/shaper/pkg/shaper"
	"github.com/wdm0006/shaper/pkg/template"
	"github.com/wdm0006/shaper/pkg/transform/catalog"
)

var version = "0.1.0-dev"

// Exit codes
const (
	exitOK              = 0
	exitConfig          = 1
	exitUnknownTemplate = 2
	exitRuntime         = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newApp(stdout, stderr).rootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	for _, e := range multierr.Errors(err) {
		fmt.Fprintln(stderr, "error:", e)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, sh.ErrUnknownTemplate):
		return exitUnknownTemplate
	case errors.Is(err, sh.ErrConfiguration):
		return exitConfig
	}
	return exitRuntime
}

type app struct {
	stdout, stderr io.Writer
	verbose, quiet bool

	log      logr.Logger
	registry *template.Registry
	catalog  *catalog.Catalog
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		log:      logr.Discard(),
		registry: template.Default(),
		catalog:  catalog.Default(),
	}
}

func init() {
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
}

func (a *app) setupLogger() {
	level := zerolog.InfoLevel
	switch {
	case a.verbose:
		level = zerolog.DebugLevel
	case a.quiet:
		level = zerolog.ErrorLevel
	}
	out := zerolog.ConsoleWriter{Out: zerolog.SyncWriter(a.stderr), TimeFormat: time.RFC3339, NoColor: true}
	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	a.log = zerologr.New(&zl).WithName("shaper")
}

// usage marks argument errors as configuration problems.
func usage(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &sh.ConfigurationError{Reason: "usage", Err: err}
		}
		return nil
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shaper",
		Short: "Run named data-processing templates over tabular datasets",
		Long: `shaper loads a dataset, builds the step pipeline of a named template from
a configuration file and writes the result.

Exit codes:
  0 - success
  1 - configuration error
  2 - unknown template
  3 - runtime error`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			a.setupLogger()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &sh.ConfigurationError{Reason: "usage", Err: err}
	})
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every step")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "log errors only")

	root.AddCommand(a.runCmd(), a.planCmd(), a.validateCmd(), a.templatesCmd(), a.stepsCmd())
	return root
}
