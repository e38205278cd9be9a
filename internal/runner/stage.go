package runner

import (
	"github.com/typst-community/tytanic/internal/compare"
	"github.com/typst-community/tytanic/internal/compiler"
)

// Stage is one step of the per-test pipeline, in execution order.
type Stage uint8

const (
	StagePrepare Stage = iota
	StageReferenceCompilation
	StagePrimaryCompilation
	StageComparison
	StageUpdate
	StageCleanup

	stageCount = int(StageCleanup) + 1
)

func (s Stage) String() string {
	switch s {
	case StagePrepare:
		return "prepare"
	case StageReferenceCompilation:
		return "reference compilation"
	case StagePrimaryCompilation:
		return "primary compilation"
	case StageComparison:
		return "comparison"
	case StageUpdate:
		return "update"
	case StageCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// StageOutcome is the recorded verdict of a single executed stage.
type StageOutcome uint8

const (
	// StagePassed marks a stage that ran and succeeded.
	StagePassed StageOutcome = iota
	// StageFailed marks a stage that ran and failed; the failure is
	// test data, not a runner fault.
	StageFailed
	// StageSkippedUnchanged marks an update stage that had nothing to
	// write because the comparison already passed. Distinct from the
	// stage being inapplicable, which leaves its slot empty.
	StageSkippedUnchanged
)

func (o StageOutcome) String() string {
	switch o {
	case StagePassed:
		return "passed"
	case StageFailed:
		return "failed"
	case StageSkippedUnchanged:
		return "skipped (unchanged)"
	default:
		return "unknown"
	}
}

// StageResult is one stage's recorded outcome. Exactly the payload
// fields relevant to the stage are set: Compilation for the two compile
// stages, Comparison for a failed comparison, Err for any other
// failure's cause.
type StageResult struct {
	Outcome     StageOutcome
	Compilation *compiler.Result
	Comparison  *compare.Error
	Err         error
}

// Failed reports whether the stage ran and failed.
func (r *StageResult) Failed() bool { return r.Outcome == StageFailed }
