// Package runner drives a suite of visual regression tests through the
// per-test stage pipeline, recording a trace per test and per suite.
// Compilation, rendering, artifact export, and reporting are delegated
// to collaborators passed in at construction; the runner owns only the
// pipeline itself, the cancellation policy, and the traces.
package runner

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/typst-community/tytanic/internal/compiler"
	"github.com/typst-community/tytanic/internal/doc"
	"github.com/typst-community/tytanic/internal/ident"
	"github.com/typst-community/tytanic/internal/logger"
	"github.com/typst-community/tytanic/internal/provide"
	"github.com/typst-community/tytanic/internal/suite"
)

// maxParallelTestsEnv overrides the number of tests driven in parallel.
const maxParallelTestsEnv = "TYTANIC_MAX_PARALLEL_TESTS"

// PostCompilePolicy selects which stages follow a successful
// compilation.
type PostCompilePolicy uint8

const (
	// PostCompileComparison compares rendered output against
	// references.
	PostCompileComparison PostCompilePolicy = iota
	// PostCompilePersistentUpdate compares and then rewrites persistent
	// references that changed.
	PostCompilePersistentUpdate
	// PostCompileCleanup skips straight to cleanup; compilation alone
	// decides the outcome.
	PostCompileCleanup
)

// CancelReason orders cancellation requests by priority; Cancel only
// ever raises the current reason.
type CancelReason uint8

const (
	// CancelNone means no cancellation was requested.
	CancelNone CancelReason = iota
	// CancelTestFailed is raised after every failed test; it only stops
	// the run when fail-fast is configured.
	CancelTestFailed
	// CancelRequest is an explicit stop, e.g. from a SIGINT handler.
	CancelRequest
)

// Project exposes the per-test file ids and artifact directories the
// pipeline needs. The on-disk convention itself lives with the caller;
// an empty directory string disables that artifact for the test.
type Project interface {
	// TestSource is the main file id of the test's primary script.
	TestSource(test ident.Test) provide.FileID
	// ReferenceSource is the sibling reference script of an ephemeral
	// test.
	ReferenceSource(test ident.Test) provide.FileID
	// ReferenceDir is the directory holding a persistent test's
	// reference pages.
	ReferenceDir(test ident.Test) string
	// OutputDir receives the rendered primary pages.
	OutputDir(test ident.Test) string
	// DiffDir receives rendered difference pages of failed comparisons.
	DiffDir(test ident.Test) string
}

// Config carries the per-run settings; individual tests override most
// of them through annotations.
type Config struct {
	// FailFast stops scheduling new tests once one has failed.
	FailFast bool
	// PostCompile selects the stages that follow compilation.
	PostCompile PostCompilePolicy
	// Warnings is the default warnings policy, overridden per test by
	// the warnings annotation.
	Warnings ident.WarningsPolicy
	// PPI is the default render resolution; ppp = PPI / 72.
	PPI float32
	// MaxDelta is the default per-channel difference threshold.
	MaxDelta uint8
	// MaxDeviations is the default differing-pixel count threshold.
	MaxDeviations int
	// Origin aligns differently-sized pages in diff images.
	Origin doc.Origin
	// Timestamp, if set, pins "today" for every test not annotated with
	// its own timestamp.
	Timestamp *time.Time
	// ForbidPackages rejects package imports in every test not
	// annotated with its own allow-packages value.
	ForbidPackages bool
	// Jobs caps how many tests run concurrently. Zero or one runs the
	// suite sequentially, the default.
	Jobs int
}

// DefaultPPI is the render resolution used when none is configured.
const DefaultPPI = 144.0

// Runner executes suites. One Runner handles one run at a time; Reset
// prepares it for the next.
type Runner struct {
	config   Config
	compiler compiler.Compiler
	renderer compiler.Renderer
	composer *provide.Composer
	reporter Reporter
	exporter Exporter

	mu     sync.RWMutex
	reason CancelReason
}

// New assembles a Runner. Reporter and exporter may be nil, which
// disables eventing and artifact export respectively.
func New(config Config, comp compiler.Compiler, renderer compiler.Renderer, composer *provide.Composer, reporter Reporter, exporter Exporter) *Runner {
	if config.PPI == 0 {
		config.PPI = DefaultPPI
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	if exporter == nil {
		exporter = NopExporter{}
	}
	return &Runner{
		config:   config,
		compiler: comp,
		renderer: renderer,
		composer: composer,
		reporter: reporter,
		exporter: exporter,
	}
}

// Cancel raises the cancellation reason to the maximum of the current
// and requested one. It never lowers it.
func (r *Runner) Cancel(reason CancelReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reason > r.reason {
		r.reason = reason
	}
}

// Reset clears cancellation and resets the provider caches, preparing
// the runner for a new run. It must not be called while a run is in
// progress.
func (r *Runner) Reset() {
	r.mu.Lock()
	r.reason = CancelNone
	r.mu.Unlock()

	if r.composer != nil {
		r.composer.Reset()
	}
}

// IsCancellationRequested reports whether the runner should stop
// scheduling work: always after an explicit request, and after a test
// failure when fail-fast is on. The pipeline consults it between stages
// and between tests, never within a stage.
func (r *Runner) IsCancellationRequested() bool {
	r.mu.RLock()
	reason := r.reason
	r.mu.RUnlock()

	switch reason {
	case CancelRequest:
		return true
	case CancelTestFailed:
		return r.config.FailFast
	default:
		return false
	}
}

// RunSuite executes every matched test of s against project, in
// identifier order, and returns the suite trace. Filtered tests are
// recorded as nil traces; tests reached after cancellation keep an
// unfinished trace. The returned error is reserved for runner faults:
// test failures live in the trace.
func (r *Runner) RunSuite(ctx context.Context, project Project, s *suite.Suite, update bool) (*SuiteTrace, error) {
	r.Reset()

	trace := &SuiteTrace{
		RunID:   uuid.New(),
		Start:   time.Now(),
		PerTest: make(map[ident.Ident]*TestTrace, s.Len()),
	}
	logger.Debugf("starting run %s: %d matched, %d filtered", trace.RunID, s.MatchedLen(), s.FilteredLen())

	if err := r.reporter.ReportSuiteStarted(trace.RunID, s.MatchedLen(), s.FilteredLen()); err != nil {
		return nil, &Fault{Err: err}
	}

	for _, t := range s.Filtered() {
		trace.PerTest[t.Ident] = nil
		trace.Counters.Filtered++
	}

	var err error
	if r.jobs() > 1 {
		err = r.runParallel(ctx, project, trace, s.Matched(), update)
	} else {
		err = r.runSequential(ctx, project, trace, s.Matched(), update)
	}
	trace.End = time.Now()
	if err != nil {
		return trace, err
	}

	if err := r.reporter.ReportSuiteFinished(trace); err != nil {
		return trace, &Fault{Err: err}
	}
	return trace, nil
}

func (r *Runner) jobs() int {
	if v, ok := os.LookupEnv(maxParallelTestsEnv); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		logger.Warnf("ignoring invalid %s value %q", maxParallelTestsEnv, v)
	}
	if r.config.Jobs > 0 {
		return r.config.Jobs
	}
	return 1
}

func (r *Runner) runSequential(ctx context.Context, project Project, trace *SuiteTrace, tests []ident.Test, update bool) error {
	for _, test := range tests {
		tt, err := r.driveTest(ctx, project, r.reporter, trace.RunID, test, update)
		if err != nil {
			return err
		}
		trace.PerTest[test.Ident] = tt
		trace.Counters.add(tt)
	}
	return nil
}

// runParallel drives matched tests on a bounded worker pool. Each
// worker buffers its test's events and flushes them as one contiguous
// block, so reporters observe the same per-test ordering as in a
// sequential run; only the relative order of whole tests changes.
func (r *Runner) runParallel(ctx context.Context, project Project, trace *SuiteTrace, tests []ident.Test, update bool) error {
	jobs := r.jobs()
	if procs := runtime.GOMAXPROCS(0); jobs > procs {
		jobs = procs
	}
	logger.Debugf("running tests in parallel, at most %d at a time", jobs)

	d := &dispatcher{reporter: r.reporter}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, test := range tests {
		test := test
		g.Go(func() error {
			buf := &testEvents{}
			tt, err := r.driveTest(ctx, project, &bufferedReporter{buf: buf}, trace.RunID, test, update)
			if err != nil {
				return err
			}
			if err := d.flush(buf); err != nil {
				return &Fault{Err: err}
			}

			mu.Lock()
			trace.PerTest[test.Ident] = tt
			trace.Counters.add(tt)
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

func (c *Counters) add(tt *TestTrace) {
	switch tt.Kind() {
	case TracePassed:
		c.Passed++
	case TraceFailed:
		c.Failed++
	default:
		c.Skipped++
	}
}

// driveTest wraps the per-test pipeline with the cancellation check
// shared by both execution modes, and raises the fail cancel reason
// after a failed test. Skip annotations are a filtering concern: a
// matched test always runs, even one annotated `[skip]` that the user
// selected back in explicitly.
func (r *Runner) driveTest(ctx context.Context, project Project, rep Reporter, run uuid.UUID, test ident.Test, update bool) (*TestTrace, error) {
	if test.Ident.Kind() == ident.Doc {
		return nil, &TestError{Ident: test.Ident, Err: ErrDocTestsUnsupported}
	}

	if r.IsCancellationRequested() {
		tt := NewTestTrace(test, r.config.PostCompile, update)
		now := time.Now()
		tt.Start, tt.End = now, now
		return tt, nil
	}

	tt, err := r.RunTest(ctx, project, rep, run, test, update)
	if err != nil {
		return nil, err
	}
	if tt.Kind() == TraceFailed {
		r.Cancel(CancelTestFailed)
	}
	return tt, nil
}

// RunTest executes the pipeline for a single test, reporting each
// stage through rep and recording results in the returned trace.
func (r *Runner) RunTest(ctx context.Context, project Project, rep Reporter, run uuid.UUID, test ident.Test, update bool) (*TestTrace, error) {
	if rep == nil {
		rep = r.reporter
	}

	settings := resolveSettings(r.config, test)
	tt := NewTestTrace(test, r.config.PostCompile, update)
	tt.Start = time.Now()

	if err := rep.ReportTestStarted(run, test); err != nil {
		return nil, &Fault{Err: err}
	}

	state := &testState{}
	for {
		stage, ok := tt.NextStage()
		if !ok {
			break
		}

		// Cancellation is honored between stages only; a test whose
		// prepare already ran still gets its cleanup.
		if stage != StageCleanup && r.IsCancellationRequested() {
			if prepare := tt.Result(StagePrepare); prepare == nil || prepare.Failed() {
				break
			}
			stage = StageCleanup
		}

		if err := rep.ReportTestStageStarted(run, test, stage); err != nil {
			return nil, &Fault{Err: err}
		}

		result, err := r.executeStage(ctx, project, rep, test, settings, state, stage, update)
		if err != nil {
			return nil, &TestError{Ident: test.Ident, Err: err}
		}
		tt.Record(stage, result)

		if err := rep.ReportTestStageFinished(run, test, stage, tt.Result(stage)); err != nil {
			return nil, &Fault{Err: err}
		}

		if stage == StageCleanup {
			break
		}
	}
	tt.End = time.Now()

	if err := rep.ReportTestFinished(run, test, tt); err != nil {
		return nil, &Fault{Err: err}
	}
	return tt, nil
}
