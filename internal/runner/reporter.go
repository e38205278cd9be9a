package runner

import (
	"sync"

	"github.com/google/uuid"

	"github.com/typst-community/tytanic/internal/ident"
)

// Reporter receives the run's event stream. Every event is delivered
// exactly once and in order: suite started first, then for each test a
// started event, its stage events in pipeline order, and a finished
// event, with suite finished last. A returned error aborts the run as a
// runner fault.
//
// Implementations don't need their own locking: when tests run in
// parallel, the runner buffers each test's events and flushes them as a
// contiguous block, so a Reporter never sees two tests' events
// interleaved.
type Reporter interface {
	ReportSuiteStarted(run uuid.UUID, matched, filtered int) error
	ReportSuiteFinished(trace *SuiteTrace) error
	ReportTestStarted(run uuid.UUID, test ident.Test) error
	ReportTestFinished(run uuid.UUID, test ident.Test, trace *TestTrace) error
	ReportTestStageStarted(run uuid.UUID, test ident.Test, stage Stage) error
	ReportTestStageFinished(run uuid.UUID, test ident.Test, stage Stage, result *StageResult) error
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) ReportSuiteStarted(uuid.UUID, int, int) error { return nil }
func (NopReporter) ReportSuiteFinished(*SuiteTrace) error        { return nil }
func (NopReporter) ReportTestStarted(uuid.UUID, ident.Test) error {
	return nil
}
func (NopReporter) ReportTestFinished(uuid.UUID, ident.Test, *TestTrace) error {
	return nil
}
func (NopReporter) ReportTestStageStarted(uuid.UUID, ident.Test, Stage) error {
	return nil
}
func (NopReporter) ReportTestStageFinished(uuid.UUID, ident.Test, Stage, *StageResult) error {
	return nil
}

// testEvents buffers one test's event block while it runs on a parallel
// worker, then replays it against the shared reporter in one critical
// section. Sequential runs bypass this entirely.
type testEvents struct {
	events []func(Reporter) error
}

func (b *testEvents) add(event func(Reporter) error) {
	b.events = append(b.events, event)
}

// dispatcher serializes event delivery from parallel workers.
type dispatcher struct {
	mu       sync.Mutex
	reporter Reporter
}

func (d *dispatcher) flush(b *testEvents) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, event := range b.events {
		if err := event(d.reporter); err != nil {
			return err
		}
	}
	return nil
}

// bufferedReporter implements Reporter by appending to a testEvents
// block; a worker hands it to the per-test pipeline so the pipeline
// code stays identical between sequential and parallel execution.
type bufferedReporter struct {
	buf *testEvents
}

func (r *bufferedReporter) ReportSuiteStarted(run uuid.UUID, matched, filtered int) error {
	r.buf.add(func(rep Reporter) error { return rep.ReportSuiteStarted(run, matched, filtered) })
	return nil
}

func (r *bufferedReporter) ReportSuiteFinished(trace *SuiteTrace) error {
	r.buf.add(func(rep Reporter) error { return rep.ReportSuiteFinished(trace) })
	return nil
}

func (r *bufferedReporter) ReportTestStarted(run uuid.UUID, test ident.Test) error {
	r.buf.add(func(rep Reporter) error { return rep.ReportTestStarted(run, test) })
	return nil
}

func (r *bufferedReporter) ReportTestFinished(run uuid.UUID, test ident.Test, trace *TestTrace) error {
	r.buf.add(func(rep Reporter) error { return rep.ReportTestFinished(run, test, trace) })
	return nil
}

func (r *bufferedReporter) ReportTestStageStarted(run uuid.UUID, test ident.Test, stage Stage) error {
	r.buf.add(func(rep Reporter) error { return rep.ReportTestStageStarted(run, test, stage) })
	return nil
}

func (r *bufferedReporter) ReportTestStageFinished(run uuid.UUID, test ident.Test, stage Stage, result *StageResult) error {
	r.buf.add(func(rep Reporter) error { return rep.ReportTestStageFinished(run, test, stage, result) })
	return nil
}
