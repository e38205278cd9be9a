package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/typst-community/tytanic/internal/ident"
	"github.com/typst-community/tytanic/internal/runner"
)

// JUnit exports the finished suite trace in the xUnit XML dialect most
// CI systems ingest. Tests are grouped into one testsuite per test
// kind.
type JUnit struct {
	Out io.Writer
}

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Cases    []junitCase `xml:"testcase,omitempty"`
}

type junitCase struct {
	Name    string        `xml:"name,attr"`
	Time    string        `xml:"time,attr"`
	Failure *junitFailure `xml:"failure,omitempty"`
	Skipped *struct{}     `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
}

func (j *JUnit) ReportSuiteStarted(uuid.UUID, int, int) error { return nil }

func (j *JUnit) ReportTestStarted(uuid.UUID, ident.Test) error { return nil }

func (j *JUnit) ReportTestFinished(uuid.UUID, ident.Test, *runner.TestTrace) error {
	return nil
}

func (j *JUnit) ReportTestStageStarted(uuid.UUID, ident.Test, runner.Stage) error {
	return nil
}

func (j *JUnit) ReportTestStageFinished(uuid.UUID, ident.Test, runner.Stage, *runner.StageResult) error {
	return nil
}

func (j *JUnit) ReportSuiteFinished(trace *runner.SuiteTrace) error {
	ids := make([]ident.Ident, 0, len(trace.PerTest))
	for id := range trace.PerTest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, k int) bool { return ids[i].Less(ids[k]) })

	grouped := make(map[string]*junitSuite)
	var order []string
	for _, id := range ids {
		tt := trace.PerTest[id]
		if tt == nil {
			// Filtered tests never ran; they don't belong in a CI
			// report.
			continue
		}

		kind := kindLabel(tt.Test)
		group, ok := grouped[kind]
		if !ok {
			group = &junitSuite{Name: kind}
			grouped[kind] = group
			order = append(order, kind)
		}

		c := junitCase{
			Name: id.String(),
			Time: fmt.Sprintf("%.3f", elapsed(tt.Start, tt.End).Seconds()),
		}
		switch tt.Kind() {
		case runner.TraceFailed:
			group.Failures++
			c.Failure = &junitFailure{Message: strings.Join(describeTrace(tt), "; ")}
		case runner.TraceUnfinished:
			group.Skipped++
			c.Skipped = &struct{}{}
		}
		group.Tests++
		group.Cases = append(group.Cases, c)
	}

	suites := junitSuites{}
	for _, kind := range order {
		suites.Suites = append(suites.Suites, *grouped[kind])
	}

	out, err := xml.MarshalIndent(&suites, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting run %s as xUnit: %w", trace.RunID, err)
	}
	_, err = io.WriteString(j.Out, xml.Header+string(out)+"\n")
	return err
}
