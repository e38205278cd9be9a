package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"

	"github.com/google/uuid"

	"github.com/typst-community/tytanic/internal/ident"
	"github.com/typst-community/tytanic/internal/runner"
)

// Human renders the whole run as a table once the suite finishes,
// with failure details listed above it.
type Human struct {
	Out io.Writer
}

func (h *Human) ReportSuiteStarted(uuid.UUID, int, int) error { return nil }

func (h *Human) ReportTestStarted(uuid.UUID, ident.Test) error { return nil }

func (h *Human) ReportTestFinished(uuid.UUID, ident.Test, *runner.TestTrace) error {
	return nil
}

func (h *Human) ReportTestStageStarted(uuid.UUID, ident.Test, runner.Stage) error {
	return nil
}

func (h *Human) ReportTestStageFinished(uuid.UUID, ident.Test, runner.Stage, *runner.StageResult) error {
	return nil
}

func (h *Human) ReportSuiteFinished(trace *runner.SuiteTrace) error {
	ids := make([]ident.Ident, 0, len(trace.PerTest))
	for id := range trace.PerTest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	var details strings.Builder
	for _, id := range ids {
		tt := trace.PerTest[id]
		if tt == nil || tt.Kind() != runner.TraceFailed {
			continue
		}
		if details.Len() == 0 {
			details.WriteString("FAILURE DETAILS:\n")
		}
		details.WriteString(id.String() + ":\n")
		for _, line := range describeTrace(tt) {
			details.WriteString("  " + line + "\n")
		}
	}
	if details.Len() > 0 {
		details.WriteString("\n")
		if _, err := io.WriteString(h.Out, details.String()); err != nil {
			return err
		}
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Test", "Kind", "Result", "Stages", "Time elapsed"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})

	for _, id := range ids {
		tt := trace.PerTest[id]
		if tt == nil {
			t.AppendRow(table.Row{id, kindLabel(ident.Test{Ident: id}), "filtered", "", ""})
			continue
		}
		t.AppendRow(table.Row{
			id,
			kindLabel(tt.Test),
			strings.ToUpper(verdict(tt.Kind())),
			fmt.Sprintf("%d/%d", tt.FinishedStages(), tt.TotalStages()),
			elapsed(tt.Start, tt.End),
		})
	}
	t.SetStyle(table.StyleRounded)

	if _, err := io.WriteString(h.Out, t.Render()+"\n"); err != nil {
		return err
	}

	counters := trace.Counters
	_, err := fmt.Fprintf(h.Out, "%d passed, %d failed, %d skipped, %d filtered\n",
		counters.Passed, counters.Failed, counters.Skipped, counters.Filtered)
	return err
}

func kindLabel(test ident.Test) string {
	if test.Unit != nil {
		return test.Unit.String()
	}
	return test.Ident.Kind().String()
}
