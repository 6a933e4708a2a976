package pipeline_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/docsync"
	"github.com/fwojciec/docsync/analyze"
	"github.com/fwojciec/docsync/gitdiff"
	"github.com/fwojciec/docsync/mock"
	"github.com/fwojciec/docsync/pipeline"
	"github.com/fwojciec/docsync/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run_StagesWired(t *testing.T) {
	t.Parallel()

	parsed := &docsync.Diff{Files: []docsync.FileDiff{{Path: "a.py"}, {Path: "b.py"}}}
	planned := []docsync.DocumentationTask{{Type: docsync.TaskChangelogEntry}}

	parser := &mock.Parser{
		ParseFn: func(r io.Reader) (*docsync.Diff, error) {
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "some diff", string(data))
			return parsed, nil
		},
	}
	analyzer := &mock.Analyzer{
		AnalyzeFileFn: func(fd docsync.FileDiff) docsync.StructuredChange {
			return docsync.StructuredChange{FilePath: fd.Path}
		},
	}
	planner := &mock.Planner{
		PlanFn: func(changes []docsync.StructuredChange) []docsync.DocumentationTask {
			// Results arrive in diff order regardless of worker scheduling.
			require.Len(t, changes, 2)
			assert.Equal(t, "a.py", changes[0].FilePath)
			assert.Equal(t, "b.py", changes[1].FilePath)
			return planned
		},
	}

	r := pipeline.NewRunner(parser, analyzer, planner)

	tasks, err := r.Run(context.Background(), "some diff")

	require.NoError(t, err)
	assert.Equal(t, planned, tasks)
}

func TestRunner_Run_ParserErrorPropagates(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("parse failed")
	parser := &mock.Parser{
		ParseFn: func(io.Reader) (*docsync.Diff, error) { return nil, wantErr },
	}

	r := pipeline.NewRunner(parser, &mock.Analyzer{}, &mock.Planner{})

	_, err := r.Run(context.Background(), "whatever")

	assert.ErrorIs(t, err, wantErr)
}

func TestRunner_Run_AnalysisOrderWithManyFiles(t *testing.T) {
	t.Parallel()

	const n = 50
	files := make([]docsync.FileDiff, n)
	for i := range files {
		files[i] = docsync.FileDiff{Path: string(rune('a'+i%26)) + ".py", Lines: []string{string(rune('0' + i%10))}}
	}

	parser := &mock.Parser{
		ParseFn: func(io.Reader) (*docsync.Diff, error) {
			return &docsync.Diff{Files: files}, nil
		},
	}
	analyzer := &mock.Analyzer{
		AnalyzeFileFn: func(fd docsync.FileDiff) docsync.StructuredChange {
			return docsync.StructuredChange{FilePath: fd.Path, DiffLines: fd.Lines}
		},
	}
	planner := &mock.Planner{
		PlanFn: func(changes []docsync.StructuredChange) []docsync.DocumentationTask {
			require.Len(t, changes, n)
			for i, c := range changes {
				assert.Equal(t, files[i].Path, c.FilePath)
				assert.Equal(t, files[i].Lines, c.DiffLines)
			}
			return nil
		},
	}

	r := pipeline.NewRunner(parser, analyzer, planner)
	r.Workers = 8

	_, err := r.Run(context.Background(), "")

	require.NoError(t, err)
}

func TestRunner_Run_CanceledContext(t *testing.T) {
	t.Parallel()

	parser := &mock.Parser{
		ParseFn: func(io.Reader) (*docsync.Diff, error) {
			return &docsync.Diff{Files: make([]docsync.FileDiff, 10)}, nil
		},
	}
	analyzer := &mock.Analyzer{
		AnalyzeFileFn: func(fd docsync.FileDiff) docsync.StructuredChange {
			return docsync.StructuredChange{}
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := pipeline.NewRunner(parser, analyzer, &mock.Planner{})

	_, err := r.Run(ctx, "")

	assert.ErrorIs(t, err, context.Canceled)
}

// Full pipeline with real components: a new FastAPI endpoint produces an
// auto-generatable API reference task.
func TestRunner_Run_EndToEnd(t *testing.T) {
	t.Parallel()

	input := `diff --git a/app/api/widgets.py b/app/api/widgets.py
--- a/app/api/widgets.py
+++ b/app/api/widgets.py
@@ -10,2 +10,5 @@
 import fastapi
+@router.post("/widgets")
+def create_widget(data):
+    return save(data)
 router = fastapi.APIRouter()
`

	r := pipeline.NewRunner(
		gitdiff.NewParser(),
		analyze.NewAnalyzer(nil),
		plan.NewPlanner(),
	)

	tasks, err := r.Run(context.Background(), input)

	require.NoError(t, err)
	require.NotEmpty(t, tasks)

	api := tasks[0]
	assert.Equal(t, docsync.TaskAPIReference, api.Type)
	assert.Equal(t, docsync.SectionAPIDocs, api.TargetSection)
	assert.True(t, api.AutoGenerate)
	assert.GreaterOrEqual(t, api.Confidence, 0.8)
	require.NotNil(t, api.SourceChange)
	assert.Equal(t, "app/api/widgets.py", api.SourceChange.FilePath)

	var sections []docsync.TargetSection
	for _, task := range tasks {
		sections = append(sections, task.TargetSection)
	}
	assert.Contains(t, sections, docsync.SectionChangelog)
}
