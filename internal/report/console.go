package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/typst-community/tytanic/internal/ident"
	"github.com/typst-community/tytanic/internal/runner"
)

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.FgYellow, color.Bold)
)

// Console streams one line per finished test, plus a suite header and
// summary footer.
type Console struct {
	Out io.Writer

	// Verbose additionally prints a line per finished stage.
	Verbose bool
}

func (c *Console) ReportSuiteStarted(run uuid.UUID, matched, filtered int) error {
	_, err := fmt.Fprintf(c.Out, "running %d test(s), %d filtered (run %s)\n", matched, filtered, run)
	return err
}

func (c *Console) ReportSuiteFinished(trace *runner.SuiteTrace) error {
	counters := trace.Counters
	_, err := fmt.Fprintf(c.Out, "%s %d passed, %d failed, %d skipped, %d filtered in %s\n",
		c.colorize(counters), counters.Passed, counters.Failed, counters.Skipped, counters.Filtered,
		elapsed(trace.Start, trace.End))
	return err
}

func (c *Console) colorize(counters runner.Counters) string {
	if counters.Failed > 0 {
		return failColor.Sprint("FAIL")
	}
	return passColor.Sprint("PASS")
}

func (c *Console) ReportTestStarted(run uuid.UUID, test ident.Test) error {
	return nil
}

func (c *Console) ReportTestFinished(run uuid.UUID, test ident.Test, trace *runner.TestTrace) error {
	var tag string
	switch trace.Kind() {
	case runner.TracePassed:
		tag = passColor.Sprint("pass")
	case runner.TraceFailed:
		tag = failColor.Sprint("fail")
	default:
		tag = skipColor.Sprint("skip")
	}

	if _, err := fmt.Fprintf(c.Out, "%s %s (%s)\n", tag, test.Ident, elapsed(trace.Start, trace.End)); err != nil {
		return err
	}

	if trace.Kind() == runner.TraceFailed {
		for _, line := range describeTrace(trace) {
			if _, err := fmt.Fprintf(c.Out, "  %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Console) ReportTestStageStarted(run uuid.UUID, test ident.Test, stage runner.Stage) error {
	return nil
}

func (c *Console) ReportTestStageFinished(run uuid.UUID, test ident.Test, stage runner.Stage, result *runner.StageResult) error {
	if !c.Verbose {
		return nil
	}
	_, err := fmt.Fprintf(c.Out, "  %s: %s: %s\n", test.Ident, stage, result.Outcome)
	return err
}
