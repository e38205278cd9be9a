package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/typst-community/tytanic/internal/ident"
)

// TraceKind collapses a test trace to its reportable verdict.
type TraceKind uint8

const (
	// TraceUnfinished means not every expected stage has a recorded
	// result yet; tests skipped by cancellation stay unfinished.
	TraceUnfinished TraceKind = iota
	// TracePassed means every expected stage ran and none failed.
	TracePassed
	// TraceFailed means a recorded stage failed.
	TraceFailed
)

func (k TraceKind) String() string {
	switch k {
	case TraceUnfinished:
		return "unfinished"
	case TracePassed:
		return "passed"
	case TraceFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TestTrace records one test's journey through the pipeline: one
// optional result slot per stage, plus the set of stages the test was
// expected to run, fixed at construction from the test's kind and the
// post-compile policy. Every derived property (next stage, verdict,
// progress) is a pure function of that tuple, so traces can be
// inspected and asserted on without replaying the run.
type TestTrace struct {
	Test  ident.Test
	Start time.Time
	End   time.Time

	expected [stageCount]bool
	results  [stageCount]*StageResult
}

// NewTestTrace fixes the expected-stage set for test under the given
// post-compile policy and update request.
func NewTestTrace(test ident.Test, policy PostCompilePolicy, update bool) *TestTrace {
	t := &TestTrace{Test: test}

	t.expected[StagePrepare] = true
	t.expected[StagePrimaryCompilation] = true
	t.expected[StageCleanup] = true

	if test.Unit != nil {
		kind := *test.Unit
		t.expected[StageReferenceCompilation] = kind == ident.Ephemeral

		hasReferences := kind.HasReferences()
		wantsComparison := policy == PostCompileComparison || policy == PostCompilePersistentUpdate
		if cmp, ok := test.Find(ident.AnnotationCompare); ok && !cmp.Bool {
			wantsComparison = false
		}
		t.expected[StageComparison] = hasReferences && wantsComparison
		t.expected[StageUpdate] = kind == ident.Persistent && update && t.expected[StageComparison]
	}

	return t
}

// Expected reports whether stage is part of this test's pipeline.
func (t *TestTrace) Expected(stage Stage) bool { return t.expected[stage] }

// Result returns the recorded result for stage, or nil if the stage has
// not run.
func (t *TestTrace) Result(stage Stage) *StageResult { return t.results[stage] }

// Record stores the result of an executed stage.
func (t *TestTrace) Record(stage Stage, result StageResult) {
	t.results[stage] = &result
}

// TotalStages returns how many stages this test is expected to run.
func (t *TestTrace) TotalStages() int {
	n := 0
	for _, e := range t.expected {
		if e {
			n++
		}
	}
	return n
}

// FinishedStages returns how many stages have a recorded result.
func (t *TestTrace) FinishedStages() int {
	n := 0
	for _, r := range t.results {
		if r != nil {
			n++
		}
	}
	return n
}

// LastStage returns the most recently recorded stage, checked in
// reverse pipeline order.
func (t *TestTrace) LastStage() (Stage, bool) {
	for s := stageCount - 1; s >= 0; s-- {
		if t.results[s] != nil {
			return Stage(s), true
		}
	}
	return 0, false
}

// NextStage returns the stage that would run next given the recorded
// results: a failure in prepare or either compilation jumps straight to
// cleanup, inapplicable stages are passed over, and a fully recorded
// pipeline has no next stage.
func (t *TestTrace) NextStage() (Stage, bool) {
	prepare := t.results[StagePrepare]
	if prepare == nil {
		return StagePrepare, true
	}
	if prepare.Failed() {
		return t.cleanupNext()
	}

	if t.expected[StageReferenceCompilation] {
		ref := t.results[StageReferenceCompilation]
		if ref == nil {
			return StageReferenceCompilation, true
		}
		if ref.Failed() {
			return t.cleanupNext()
		}
	}

	primary := t.results[StagePrimaryCompilation]
	if primary == nil {
		return StagePrimaryCompilation, true
	}
	if primary.Failed() {
		return t.cleanupNext()
	}

	if t.expected[StageComparison] && t.results[StageComparison] == nil {
		return StageComparison, true
	}
	if t.expected[StageUpdate] && t.results[StageUpdate] == nil {
		return StageUpdate, true
	}

	return t.cleanupNext()
}

func (t *TestTrace) cleanupNext() (Stage, bool) {
	if t.results[StageCleanup] == nil {
		return StageCleanup, true
	}
	return 0, false
}

// Kind derives the test's verdict from the recorded results. A failed
// cleanup always fails the test. A failed comparison that was followed
// by a successful update is superseded: the new references are the
// accepted output, so the test reports as passed.
func (t *TestTrace) Kind() TraceKind {
	if cleanup := t.results[StageCleanup]; cleanup != nil && cleanup.Failed() {
		return TraceFailed
	}

	for s := 0; s < stageCount; s++ {
		r := t.results[s]
		if r == nil || !r.Failed() {
			continue
		}
		if Stage(s) == StageComparison {
			if u := t.results[StageUpdate]; u != nil && u.Outcome == StagePassed {
				continue
			}
		}
		return TraceFailed
	}

	for s := 0; s < stageCount; s++ {
		if t.expected[s] && t.results[s] == nil {
			// A failed stage short-circuits the rest of the pipeline,
			// so unrecorded stages after a recorded failure don't make
			// the trace unfinished; that case is caught above.
			return TraceUnfinished
		}
	}
	return TracePassed
}

// Counters tallies a suite run's tests by their final disposition.
type Counters struct {
	Filtered int
	Skipped  int
	Passed   int
	Failed   int
}

// SuiteTrace records one full suite run. A nil entry in PerTest means
// the test was filtered; a non-nil trace whose kind is unfinished means
// it was skipped because cancellation fired first.
type SuiteTrace struct {
	RunID    uuid.UUID
	Start    time.Time
	End      time.Time
	Counters Counters
	PerTest  map[ident.Ident]*TestTrace
}
