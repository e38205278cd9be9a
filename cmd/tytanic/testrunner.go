package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typst-community/tytanic/internal/cobraext"
	"github.com/typst-community/tytanic/internal/compiler"
	"github.com/typst-community/tytanic/internal/filterlang"
	"github.com/typst-community/tytanic/internal/logger"
	"github.com/typst-community/tytanic/internal/provide"
	"github.com/typst-community/tytanic/internal/report"
	"github.com/typst-community/tytanic/internal/runner"
	"github.com/typst-community/tytanic/internal/signal"
	"github.com/typst-community/tytanic/internal/suite"
)

const (
	verboseFlagName       = "verbose"
	rootFlagName          = "root"
	filterFlagName        = "filter"
	exactFlagName         = "exact"
	failFastFlagName      = "fail-fast"
	jobsFlagName          = "jobs"
	ppiFlagName           = "ppi"
	maxDeltaFlagName      = "max-delta"
	maxDeviationsFlagName = "max-deviations"
	formatFlagName        = "format"
)

func setupRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the project's tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuiteAction(cmd, false)
		},
	}
	addRunFlags(cmd)
	return cmd
}

func setupUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Run the project's tests and accept changed output as new references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuiteAction(cmd, true)
		},
	}
	addRunFlags(cmd)
	return cmd
}

func setupListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the project's tests",
		RunE:  listAction,
	}
	cmd.Flags().StringP(filterFlagName, "f", "", "test filter expression")
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(filterFlagName, "f", "", "test filter expression")
	cmd.Flags().Bool(exactFlagName, false, "fail when the filter selects no tests")
	cmd.Flags().Bool(failFastFlagName, false, "stop scheduling tests after the first failure")
	cmd.Flags().IntP(jobsFlagName, "j", 0, "number of tests to run in parallel (0 = sequential)")
	cmd.Flags().Float32(ppiFlagName, runner.DefaultPPI, "render resolution in pixels per inch")
	cmd.Flags().Uint8(maxDeltaFlagName, 0, "largest per-channel color difference still treated as equal")
	cmd.Flags().Int(maxDeviationsFlagName, 0, "largest number of deviating pixels a page may have")
	cmd.Flags().String(formatFlagName, "console", "report format: console, human, json, junit")
}

func discoverSuite(cmd *cobra.Command) (*project, *suite.Suite, error) {
	root, _ := cmd.Flags().GetString(rootFlagName)
	proj, err := openProject(root)
	if err != nil {
		return nil, nil, &exitError{code: exitOperationFailed, msg: err.Error()}
	}

	var expr filterlang.Expr
	if raw, _ := cmd.Flags().GetString(filterFlagName); raw != "" {
		expr, err = filterlang.Parse(raw)
		if err != nil {
			return nil, nil, &exitError{
				code: exitOperationFailed,
				msg:  cobraext.FlagParsingError(err, filterFlagName).Error(),
			}
		}
	}

	s, err := proj.discover(expr)
	if err != nil {
		return nil, nil, &exitError{code: exitOperationFailed, msg: err.Error()}
	}
	return proj, s, nil
}

func listAction(cmd *cobra.Command, args []string) error {
	_, s, err := discoverSuite(cmd)
	if err != nil {
		return err
	}

	for _, test := range s.Matched() {
		kind := test.Ident.Kind().String()
		if test.Unit != nil {
			kind = test.Unit.String()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", kind, test.Ident)
	}
	if n := s.FilteredLen(); n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d test(s) filtered\n", n)
	}
	return nil
}

func runSuiteAction(cmd *cobra.Command, update bool) error {
	proj, s, err := discoverSuite(cmd)
	if err != nil {
		return err
	}

	if exact, _ := cmd.Flags().GetBool(exactFlagName); exact && s.MatchedLen() == 0 {
		return &exitError{code: exitOperationFailed, msg: "the filter did not select any test"}
	}

	config, err := runConfig(cmd, update)
	if err != nil {
		return err
	}

	reporter, err := newReporter(cmd)
	if err != nil {
		return err
	}

	files := provide.NewFilesystemFileProvider(proj.root, nil)
	composer := &provide.Composer{
		Project: files,
		Fonts:   provide.NewEmbeddedFontProvider(defaultFonts()),
		Library: provide.NewDefaultLibraryProvider(&provide.Library{}),
	}

	// The fixture engine stands in for the embeddable typesetting
	// compiler; swapping in a real engine means providing another
	// compiler.Compiler/Renderer pair here.
	engine := &compiler.Fake{}
	r := runner.New(config, engine, engine, composer, reporter, &runner.DirExporter{})

	ctx, stop := signal.Enable(cmd.Context(), logger.Logger)
	defer stop()
	context.AfterFunc(ctx, func() { r.Cancel(runner.CancelRequest) })

	trace, err := r.RunSuite(ctx, proj, s, update)
	if err != nil {
		return &exitError{code: exitUnexpected, msg: err.Error()}
	}
	if trace.Counters.Failed > 0 {
		return &exitError{code: exitTestsFailed}
	}
	return nil
}

func runConfig(cmd *cobra.Command, update bool) (runner.Config, error) {
	flags := cmd.Flags()

	failFast, _ := flags.GetBool(failFastFlagName)
	jobs, _ := flags.GetInt(jobsFlagName)
	ppi, _ := flags.GetFloat32(ppiFlagName)
	maxDelta, _ := flags.GetUint8(maxDeltaFlagName)
	maxDeviations, _ := flags.GetInt(maxDeviationsFlagName)

	if ppi <= 0 {
		return runner.Config{}, &exitError{
			code: exitOperationFailed,
			msg:  cobraext.FlagParsingError(fmt.Errorf("must be positive, got %g", ppi), ppiFlagName).Error(),
		}
	}

	policy := runner.PostCompileComparison
	if update {
		policy = runner.PostCompilePersistentUpdate
	}

	return runner.Config{
		FailFast:      failFast,
		PostCompile:   policy,
		PPI:           ppi,
		MaxDelta:      maxDelta,
		MaxDeviations: maxDeviations,
		Jobs:          jobs,
	}, nil
}

func newReporter(cmd *cobra.Command) (runner.Reporter, error) {
	format, _ := cmd.Flags().GetString(formatFlagName)
	out := cmd.OutOrStdout()

	switch format {
	case "console":
		return &report.Console{Out: out}, nil
	case "human":
		return &report.Human{Out: out}, nil
	case "json":
		return &report.JSON{Out: out}, nil
	case "junit":
		return &report.JUnit{Out: out}, nil
	default:
		return nil, &exitError{
			code: exitOperationFailed,
			msg:  cobraext.FlagParsingError(fmt.Errorf("unknown format %q", format), formatFlagName).Error(),
		}
	}
}

// defaultFonts is the hermetic font set every project compiles
// against; the fixture engine only checks family names.
func defaultFonts() []provide.Font {
	names := []string{
		"Libertinus Serif",
		"New Computer Modern",
		"New Computer Modern Math",
		"DejaVu Sans Mono",
	}
	fonts := make([]provide.Font, len(names))
	for i, name := range names {
		fonts[i] = provide.Font{Name: name}
	}
	return fonts
}
