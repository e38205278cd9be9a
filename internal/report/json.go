package report

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/typst-community/tytanic/internal/ident"
	"github.com/typst-community/tytanic/internal/runner"
)

// JSON dumps the finished suite trace as a machine-readable document.
type JSON struct {
	Out io.Writer
}

type jsonSuite struct {
	RunID    string      `json:"run_id"`
	Start    time.Time   `json:"start"`
	End      time.Time   `json:"end"`
	Passed   int         `json:"passed"`
	Failed   int         `json:"failed"`
	Skipped  int         `json:"skipped"`
	Filtered int         `json:"filtered"`
	Tests    []jsonTrace `json:"tests"`
}

type jsonTrace struct {
	Ident          string   `json:"ident"`
	Kind           string   `json:"kind"`
	Result         string   `json:"result"`
	Filtered       bool     `json:"filtered,omitempty"`
	FinishedStages int      `json:"finished_stages,omitempty"`
	TotalStages    int      `json:"total_stages,omitempty"`
	TimeElapsed    string   `json:"time_elapsed,omitempty"`
	FailureDetails []string `json:"failure_details,omitempty"`
}

func (j *JSON) ReportSuiteStarted(uuid.UUID, int, int) error { return nil }

func (j *JSON) ReportTestStarted(uuid.UUID, ident.Test) error { return nil }

func (j *JSON) ReportTestFinished(uuid.UUID, ident.Test, *runner.TestTrace) error {
	return nil
}

func (j *JSON) ReportTestStageStarted(uuid.UUID, ident.Test, runner.Stage) error {
	return nil
}

func (j *JSON) ReportTestStageFinished(uuid.UUID, ident.Test, runner.Stage, *runner.StageResult) error {
	return nil
}

func (j *JSON) ReportSuiteFinished(trace *runner.SuiteTrace) error {
	ids := make([]ident.Ident, 0, len(trace.PerTest))
	for id := range trace.PerTest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, k int) bool { return ids[i].Less(ids[k]) })

	out := jsonSuite{
		RunID:    trace.RunID.String(),
		Start:    trace.Start,
		End:      trace.End,
		Passed:   trace.Counters.Passed,
		Failed:   trace.Counters.Failed,
		Skipped:  trace.Counters.Skipped,
		Filtered: trace.Counters.Filtered,
		Tests:    make([]jsonTrace, 0, len(ids)),
	}

	for _, id := range ids {
		tt := trace.PerTest[id]
		if tt == nil {
			out.Tests = append(out.Tests, jsonTrace{
				Ident:    id.String(),
				Kind:     id.Kind().String(),
				Result:   "filtered",
				Filtered: true,
			})
			continue
		}

		entry := jsonTrace{
			Ident:          id.String(),
			Kind:           kindLabel(tt.Test),
			Result:         verdict(tt.Kind()),
			FinishedStages: tt.FinishedStages(),
			TotalStages:    tt.TotalStages(),
			TimeElapsed:    elapsed(tt.Start, tt.End).String(),
		}
		if tt.Kind() == runner.TraceFailed {
			entry.FailureDetails = describeTrace(tt)
		}
		out.Tests = append(out.Tests, entry)
	}

	enc := json.NewEncoder(j.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
