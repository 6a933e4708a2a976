// Package pipeline wires the parser, analyzer and planner into the
// diff-to-tasks pipeline.
package pipeline

import (
	"context"
	"strings"

	"github.com/fwojciec/docsync"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds parallel per-file analysis.
const DefaultWorkers = 4

// Runner executes the pure half of the pipeline: diff text in, ordered
// documentation tasks out. Per-file analysis has no cross-file state, so
// files are analyzed on parallel workers and gathered in source order
// before planning.
type Runner struct {
	// Workers bounds the analysis pool. Zero means DefaultWorkers.
	Workers int

	parser   docsync.Parser
	analyzer docsync.Analyzer
	planner  docsync.Planner
}

// NewRunner creates a Runner from its three stages.
func NewRunner(parser docsync.Parser, analyzer docsync.Analyzer, planner docsync.Planner) *Runner {
	return &Runner{
		parser:   parser,
		analyzer: analyzer,
		planner:  planner,
	}
}

// Run parses diffText, analyzes each file and plans documentation tasks.
func (r *Runner) Run(ctx context.Context, diffText string) ([]docsync.DocumentationTask, error) {
	diff, err := r.parser.Parse(strings.NewReader(diffText))
	if err != nil {
		return nil, err
	}

	changes, err := r.analyzeParallel(ctx, diff)
	if err != nil {
		return nil, err
	}

	return r.planner.Plan(changes), nil
}

// analyzeParallel fans file analysis out over a bounded worker pool,
// collecting results indexed by original position so output order matches
// the diff.
func (r *Runner) analyzeParallel(ctx context.Context, diff *docsync.Diff) ([]docsync.StructuredChange, error) {
	workers := r.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}

	changes := make([]docsync.StructuredChange, len(diff.Files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range diff.Files {
		fd := diff.Files[i]

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			changes[i] = r.analyzer.AnalyzeFile(fd)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return changes, nil
}
