package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typst-community/tytanic/internal/ident"
)

func unitTest(t *testing.T, id string, kind ident.UnitKind) ident.Test {
	t.Helper()
	return ident.NewUnitTest(ident.MustParse(id), kind)
}

func TestTraceExpectedStages(t *testing.T) {
	cases := []struct {
		name     string
		test     ident.Test
		policy   PostCompilePolicy
		update   bool
		expected []Stage
	}{
		{
			name:     "compile-only",
			test:     unitTest(t, "a", ident.CompileOnly),
			policy:   PostCompileComparison,
			expected: []Stage{StagePrepare, StagePrimaryCompilation, StageCleanup},
		},
		{
			name:   "ephemeral",
			test:   unitTest(t, "a", ident.Ephemeral),
			policy: PostCompileComparison,
			expected: []Stage{
				StagePrepare, StageReferenceCompilation, StagePrimaryCompilation,
				StageComparison, StageCleanup,
			},
		},
		{
			name:     "persistent without update",
			test:     unitTest(t, "a", ident.Persistent),
			policy:   PostCompileComparison,
			expected: []Stage{StagePrepare, StagePrimaryCompilation, StageComparison, StageCleanup},
		},
		{
			name:   "persistent with update",
			test:   unitTest(t, "a", ident.Persistent),
			policy: PostCompilePersistentUpdate,
			update: true,
			expected: []Stage{
				StagePrepare, StagePrimaryCompilation, StageComparison,
				StageUpdate, StageCleanup,
			},
		},
		{
			name:     "cleanup policy skips comparison",
			test:     unitTest(t, "a", ident.Ephemeral),
			policy:   PostCompileCleanup,
			expected: []Stage{StagePrepare, StageReferenceCompilation, StagePrimaryCompilation, StageCleanup},
		},
		{
			name: "compare(false) disables comparison",
			test: ident.NewUnitTest(ident.MustParse("a"), ident.Ephemeral,
				ident.Annotation{Kind: ident.AnnotationCompare, Bool: false}),
			policy:   PostCompileComparison,
			expected: []Stage{StagePrepare, StageReferenceCompilation, StagePrimaryCompilation, StageCleanup},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trace := NewTestTrace(tc.test, tc.policy, tc.update)

			var got []Stage
			for s := 0; s < stageCount; s++ {
				if trace.Expected(Stage(s)) {
					got = append(got, Stage(s))
				}
			}
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, len(tc.expected), trace.TotalStages())
		})
	}
}

func TestTraceNextStageWalksPipeline(t *testing.T) {
	trace := NewTestTrace(unitTest(t, "a", ident.Ephemeral), PostCompileComparison, false)

	var walked []Stage
	for {
		stage, ok := trace.NextStage()
		if !ok {
			break
		}
		walked = append(walked, stage)
		trace.Record(stage, StageResult{Outcome: StagePassed})
	}

	assert.Equal(t, []Stage{
		StagePrepare, StageReferenceCompilation, StagePrimaryCompilation,
		StageComparison, StageCleanup,
	}, walked)
	assert.Equal(t, trace.TotalStages(), trace.FinishedStages())
	assert.Equal(t, TracePassed, trace.Kind())
}

func TestTraceFailedPrepareJumpsToCleanup(t *testing.T) {
	trace := NewTestTrace(unitTest(t, "a", ident.Ephemeral), PostCompileComparison, false)

	trace.Record(StagePrepare, StageResult{Outcome: StageFailed, Err: errors.New("mkdir")})
	stage, ok := trace.NextStage()
	require.True(t, ok)
	assert.Equal(t, StageCleanup, stage)

	trace.Record(StageCleanup, StageResult{Outcome: StagePassed})
	_, ok = trace.NextStage()
	assert.False(t, ok)
	assert.Equal(t, TraceFailed, trace.Kind())
}

func TestTraceFailedCompilationJumpsToCleanup(t *testing.T) {
	trace := NewTestTrace(unitTest(t, "a", ident.Ephemeral), PostCompileComparison, false)

	trace.Record(StagePrepare, StageResult{Outcome: StagePassed})
	trace.Record(StageReferenceCompilation, StageResult{Outcome: StageFailed})

	stage, ok := trace.NextStage()
	require.True(t, ok)
	assert.Equal(t, StageCleanup, stage)
}

func TestTraceLastStage(t *testing.T) {
	trace := NewTestTrace(unitTest(t, "a", ident.Persistent), PostCompileComparison, false)

	_, ok := trace.LastStage()
	assert.False(t, ok)

	trace.Record(StagePrepare, StageResult{Outcome: StagePassed})
	trace.Record(StagePrimaryCompilation, StageResult{Outcome: StagePassed})

	last, ok := trace.LastStage()
	require.True(t, ok)
	assert.Equal(t, StagePrimaryCompilation, last)
}

func TestTraceKindIsOrderIndependent(t *testing.T) {
	// Recording the same multiset of stage results in any order must
	// collapse to the same kind.
	build := func(order []Stage) *TestTrace {
		trace := NewTestTrace(unitTest(t, "a", ident.Persistent), PostCompilePersistentUpdate, true)
		results := map[Stage]StageResult{
			StagePrepare:            {Outcome: StagePassed},
			StagePrimaryCompilation: {Outcome: StagePassed},
			StageComparison:         {Outcome: StageFailed},
			StageUpdate:             {Outcome: StagePassed},
			StageCleanup:            {Outcome: StagePassed},
		}
		for _, s := range order {
			trace.Record(s, results[s])
		}
		return trace
	}

	forward := build([]Stage{StagePrepare, StagePrimaryCompilation, StageComparison, StageUpdate, StageCleanup})
	backward := build([]Stage{StageCleanup, StageUpdate, StageComparison, StagePrimaryCompilation, StagePrepare})

	assert.Equal(t, forward.Kind(), backward.Kind())
	assert.Equal(t, TracePassed, forward.Kind())
}

func TestTraceUpdateSupersedesFailedComparison(t *testing.T) {
	trace := NewTestTrace(unitTest(t, "a", ident.Persistent), PostCompilePersistentUpdate, true)
	trace.Record(StagePrepare, StageResult{Outcome: StagePassed})
	trace.Record(StagePrimaryCompilation, StageResult{Outcome: StagePassed})
	trace.Record(StageComparison, StageResult{Outcome: StageFailed})

	// Until the update runs, the failed comparison decides the kind.
	assert.Equal(t, TraceFailed, trace.Kind())

	trace.Record(StageUpdate, StageResult{Outcome: StagePassed})
	trace.Record(StageCleanup, StageResult{Outcome: StagePassed})
	assert.Equal(t, TracePassed, trace.Kind())
}

func TestTraceFailedUpdateStaysFailed(t *testing.T) {
	trace := NewTestTrace(unitTest(t, "a", ident.Persistent), PostCompilePersistentUpdate, true)
	trace.Record(StagePrepare, StageResult{Outcome: StagePassed})
	trace.Record(StagePrimaryCompilation, StageResult{Outcome: StagePassed})
	trace.Record(StageComparison, StageResult{Outcome: StageFailed})
	trace.Record(StageUpdate, StageResult{Outcome: StageFailed, Err: errors.New("disk full")})
	trace.Record(StageCleanup, StageResult{Outcome: StagePassed})

	assert.Equal(t, TraceFailed, trace.Kind())
}

func TestTraceFailedCleanupFailsTest(t *testing.T) {
	trace := NewTestTrace(unitTest(t, "a", ident.CompileOnly), PostCompileComparison, false)
	trace.Record(StagePrepare, StageResult{Outcome: StagePassed})
	trace.Record(StagePrimaryCompilation, StageResult{Outcome: StagePassed})
	trace.Record(StageCleanup, StageResult{Outcome: StageFailed})

	assert.Equal(t, TraceFailed, trace.Kind())
}

func TestTraceEmptyIsUnfinished(t *testing.T) {
	trace := NewTestTrace(unitTest(t, "a", ident.Ephemeral), PostCompileComparison, false)
	assert.Equal(t, TraceUnfinished, trace.Kind())
	assert.Equal(t, 0, trace.FinishedStages())
}
