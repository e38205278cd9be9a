package runner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/typst-community/tytanic/internal/compare"
	"github.com/typst-community/tytanic/internal/compiler"
	"github.com/typst-community/tytanic/internal/doc"
	"github.com/typst-community/tytanic/internal/ident"
	"github.com/typst-community/tytanic/internal/provide"
)

// testSettings is the per-test view of the run configuration after
// annotations have been applied. A later annotation of the same kind
// overrides an earlier one, and any annotation overrides the config.
type testSettings struct {
	warnings      ident.WarningsPolicy
	ppi           float32
	maxDelta      uint8
	maxDeviations int
	origin        doc.Origin
	timestamp     *time.Time
	systemFonts   bool
	systemTime    bool
	augmented     bool
	allowPackages bool
	inputs        map[string]string
}

func resolveSettings(config Config, test ident.Test) testSettings {
	s := testSettings{
		warnings:      config.Warnings,
		ppi:           config.PPI,
		maxDelta:      config.MaxDelta,
		maxDeviations: config.MaxDeviations,
		origin:        config.Origin,
		timestamp:     config.Timestamp,
		allowPackages: !config.ForbidPackages,
	}

	for _, a := range test.Annotations {
		switch a.Kind {
		case ident.AnnotationWarnings:
			s.warnings = a.Warnings
		case ident.AnnotationPPI:
			s.ppi = a.PPI
		case ident.AnnotationMaxDelta:
			s.maxDelta = a.MaxDelta
		case ident.AnnotationMaxDeviations:
			s.maxDeviations = a.MaxDevs
		case ident.AnnotationDir:
			// RTL scripts grow leftwards, so anchor diffs to the top
			// right corner to keep the shared region aligned.
			if a.Dir == ident.DirRTL {
				s.origin = doc.TopRight
			} else {
				s.origin = doc.TopLeft
			}
		case ident.AnnotationTimestamp:
			ts := a.Timestamp
			s.timestamp = &ts
		case ident.AnnotationUseSystemFonts:
			s.systemFonts = a.Bool
		case ident.AnnotationUseSystemDatetime:
			s.systemTime = a.Bool
		case ident.AnnotationUseAugmentedLibrary:
			s.augmented = a.Bool
		case ident.AnnotationAllowPackages:
			s.allowPackages = a.Bool
		case ident.AnnotationInput:
			if s.inputs == nil {
				s.inputs = make(map[string]string)
			}
			s.inputs[a.InputKey] = a.InputVal
		}
	}
	return s
}

func (s *testSettings) pixelPerPt() float64 { return float64(s.ppi) / 72 }

// testState carries intermediate products between a single test's
// stages; it lives only for that test's run.
type testState struct {
	referenceDoc  compiler.Document
	primaryDoc    compiler.Document
	primaryPages  []image.Image
	comparePassed bool
}

// executeStage runs one stage and returns its recorded result. The
// returned error is reserved for runner faults (engine or exporter
// breakage); everything a test can cause comes back as a StageResult.
func (r *Runner) executeStage(ctx context.Context, project Project, rep Reporter, test ident.Test, settings testSettings, state *testState, stage Stage, update bool) (StageResult, error) {
	switch stage {
	case StagePrepare:
		return r.prepare(project, test), nil
	case StageReferenceCompilation:
		res, err := r.compile(ctx, test, settings, project.ReferenceSource(test))
		if err != nil {
			return StageResult{}, err
		}
		if res.Compilation.Passed() {
			state.referenceDoc = res.Compilation.Document
		}
		return res, nil
	case StagePrimaryCompilation:
		res, err := r.compile(ctx, test, settings, project.TestSource(test))
		if err != nil {
			return StageResult{}, err
		}
		if res.Compilation.Passed() {
			state.primaryDoc = res.Compilation.Document
		}
		return res, nil
	case StageComparison:
		return r.comparePages(project, test, settings, state)
	case StageUpdate:
		return r.update(project, test, state)
	case StageCleanup:
		return StageResult{Outcome: StagePassed}, nil
	default:
		return StageResult{}, fmt.Errorf("unknown stage %d", stage)
	}
}

// prepare ensures the artifact directories this test writes to exist
// and are empty. Compile-only tests produce no artifacts, so nothing is
// created for them. A prepare failure is test data: the pipeline jumps
// to cleanup and the test reports as failed.
func (r *Runner) prepare(project Project, test ident.Test) StageResult {
	var dirs []string
	if test.Unit != nil && test.Unit.HasReferences() {
		dirs = append(dirs, project.OutputDir(test), project.DiffDir(test))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return StageResult{Outcome: StageFailed, Err: err}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return StageResult{Outcome: StageFailed, Err: err}
		}
	}
	return StageResult{Outcome: StagePassed}
}

func (r *Runner) compile(ctx context.Context, test ident.Test, settings testSettings, source provide.FileID) (StageResult, error) {
	env := r.composer.NewEnvironment(settings.inputs)
	env.MainID = source

	if !settings.allowPackages {
		env.Files = &provide.NoPackagesFileProvider{Inner: env.Files}
	}
	if settings.systemFonts && r.composer.SystemFonts != nil {
		env.Fonts = r.composer.SystemFonts
	}
	if settings.augmented && r.composer.AugmentedLibrary != nil {
		lib := r.composer.AugmentedLibrary
		if len(settings.inputs) > 0 {
			lib = provide.NewAugmentedLibraryProvider(lib, settings.inputs)
		}
		env.Libraries = lib
	}
	switch {
	case settings.timestamp != nil:
		env.Datetimes = provide.NewFixedDatetimeProvider(*settings.timestamp)
	case !settings.systemTime:
		// Hermetic default: a stable epoch so golden output never
		// drifts with the host clock.
		env.Datetimes = provide.NewFixedDatetimeProvider(time.Unix(0, 0))
	}

	res, err := r.compiler.Compile(ctx, env)
	if err != nil {
		return StageResult{}, fmt.Errorf("compiling %s: %w", source, err)
	}
	applyWarningsPolicy(res, settings.warnings)

	outcome := StagePassed
	if !res.Passed() {
		outcome = StageFailed
	}
	return StageResult{Outcome: outcome, Compilation: res}, nil
}

// applyWarningsPolicy rewrites a compilation result in place. Under
// promote, a document that compiled with warnings is dropped so no
// later stage can run off it.
func applyWarningsPolicy(res *compiler.Result, policy ident.WarningsPolicy) {
	switch policy {
	case ident.WarningsIgnore:
		res.Warnings = nil
	case ident.WarningsPromote:
		if len(res.Warnings) == 0 {
			return
		}
		res.Errors = append(res.Errors, res.Warnings...)
		res.Warnings = nil
		res.Document = nil
	}
}

func (r *Runner) comparePages(project Project, test ident.Test, settings testSettings, state *testState) (StageResult, error) {
	primary, err := r.renderer.Render(state.primaryDoc, settings.pixelPerPt())
	if err != nil {
		return StageResult{}, fmt.Errorf("rendering output: %w", err)
	}
	state.primaryPages = primary

	if err := r.exporter.ExportPages(project, test, ArtifactOutput, primary); err != nil {
		return StageResult{}, err
	}

	reference, result, err := r.referencePages(project, test, settings, state)
	if err != nil || result != nil {
		return orStageResult(result), err
	}

	var cmpErr *compare.Error
	if err := compare.Compare(doc.New(primary), doc.New(reference), compare.Strategy{
		MaxDelta:      settings.maxDelta,
		MaxDeviations: settings.maxDeviations,
	}); err != nil {
		if !errors.As(err, &cmpErr) {
			return StageResult{}, err
		}
	}

	if cmpErr == nil {
		state.comparePassed = true
		return StageResult{Outcome: StagePassed}, nil
	}

	if err := r.exportDiffs(project, test, settings, primary, reference); err != nil {
		return StageResult{}, err
	}
	return StageResult{Outcome: StageFailed, Comparison: cmpErr}, nil
}

// referencePages obtains the pages to compare against: rendered from
// the reference compilation for ephemeral tests, loaded from disk for
// persistent ones. A broken persistent reference store is a test
// failure, returned as a non-nil StageResult.
func (r *Runner) referencePages(project Project, test ident.Test, settings testSettings, state *testState) ([]image.Image, *StageResult, error) {
	if state.referenceDoc != nil {
		pages, err := r.renderer.Render(state.referenceDoc, settings.pixelPerPt())
		if err != nil {
			return nil, nil, fmt.Errorf("rendering reference: %w", err)
		}
		return pages, nil, nil
	}

	loaded, err := doc.Load(project.ReferenceDir(test))
	if err != nil {
		return nil, &StageResult{Outcome: StageFailed, Err: err}, nil
	}
	return loaded.Pages, nil, nil
}

func orStageResult(r *StageResult) StageResult {
	if r == nil {
		return StageResult{}
	}
	return *r
}

func (r *Runner) exportDiffs(project Project, test ident.Test, settings testSettings, primary, reference []image.Image) error {
	n := len(primary)
	if len(reference) < n {
		n = len(reference)
	}

	diffs := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		diffs = append(diffs, doc.RenderDiff(primary[i], reference[i], settings.origin))
	}
	return r.exporter.ExportPages(project, test, ArtifactDiff, diffs)
}

// update writes the rendered primary pages as the new persistent
// references, clearing the store first so pages beyond the new count
// don't linger. When the comparison already passed there is nothing to
// accept, and the stage records as skipped instead.
func (r *Runner) update(project Project, test ident.Test, state *testState) (StageResult, error) {
	if state.comparePassed {
		return StageResult{Outcome: StageSkippedUnchanged}, nil
	}
	if dir := project.ReferenceDir(test); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			return StageResult{Outcome: StageFailed, Err: err}, nil
		}
	}
	if err := r.exporter.ExportPages(project, test, ArtifactReference, state.primaryPages); err != nil {
		return StageResult{Outcome: StageFailed, Err: err}, nil
	}
	return StageResult{Outcome: StagePassed}, nil
}
