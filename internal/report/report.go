// Package report ships the default Reporter implementations: a
// colorized console stream, a post-run summary table, and JSON and
// JUnit exports for CI. The runner core stays agnostic of all of them.
package report

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/typst-community/tytanic/internal/runner"
)

// verdict maps a trace kind to its display word.
func verdict(kind runner.TraceKind) string {
	switch kind {
	case runner.TracePassed:
		return "pass"
	case runner.TraceFailed:
		return "fail"
	default:
		return "skip"
	}
}

// describeTrace renders a failed trace's stage results as one line per
// problem, ready for indented display under the test's name.
func describeTrace(trace *runner.TestTrace) []string {
	var lines []string

	for _, stage := range []runner.Stage{
		runner.StagePrepare,
		runner.StageReferenceCompilation,
		runner.StagePrimaryCompilation,
		runner.StageComparison,
		runner.StageUpdate,
		runner.StageCleanup,
	} {
		result := trace.Result(stage)
		if result == nil || !result.Failed() {
			continue
		}

		switch {
		case result.Compilation != nil:
			for _, d := range result.Compilation.Errors {
				lines = append(lines, fmt.Sprintf("%s: %s", stage, d.Message))
			}
		case result.Comparison != nil:
			lines = append(lines, describeComparison(result)...)
		case result.Err != nil:
			lines = append(lines, fmt.Sprintf("%s: %v", stage, result.Err))
		default:
			lines = append(lines, fmt.Sprintf("%s failed", stage))
		}
	}
	return lines
}

func describeComparison(result *runner.StageResult) []string {
	cmp := result.Comparison

	var lines []string
	if cmp.Output != cmp.Reference {
		lines = append(lines, fmt.Sprintf("comparison: expected %d page(s), got %d", cmp.Reference, cmp.Output))
	}
	for _, page := range cmp.Pages {
		ordinal := humanize.Ordinal(page.Index + 1)
		switch {
		case page.Dimensions != nil:
			lines = append(lines, fmt.Sprintf("comparison: %s page: dimensions differ, output %dx%d vs reference %dx%d",
				ordinal,
				page.Dimensions.Output.X, page.Dimensions.Output.Y,
				page.Dimensions.Reference.X, page.Dimensions.Reference.Y))
		case page.Deviations != nil:
			lines = append(lines, fmt.Sprintf("comparison: %s page: %s deviating pixel(s)",
				ordinal, humanize.Comma(int64(page.Deviations.Count))))
		}
	}
	return lines
}

func elapsed(start, end time.Time) time.Duration {
	return end.Sub(start).Round(time.Millisecond)
}
