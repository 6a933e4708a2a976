package mock

import (
	"context"

	"github.com/fwojciec/docsync"
)

// Compile-time interface verification.
var (
	_ docsync.ContentGenerator   = (*ContentGenerator)(nil)
	_ docsync.TargetFileResolver = (*TargetFileResolver)(nil)
	_ docsync.Publisher          = (*Publisher)(nil)
)

// ContentGenerator is a mock implementation of docsync.ContentGenerator.
type ContentGenerator struct {
	GenerateFn func(ctx context.Context, task docsync.DocumentationTask) (string, error)
}

func (g *ContentGenerator) Generate(ctx context.Context, task docsync.DocumentationTask) (string, error) {
	return g.GenerateFn(ctx, task)
}

// TargetFileResolver is a mock implementation of docsync.TargetFileResolver.
type TargetFileResolver struct {
	ResolveFn func(ctx context.Context, task docsync.DocumentationTask) ([]docsync.TargetCandidate, error)
}

func (r *TargetFileResolver) Resolve(ctx context.Context, task docsync.DocumentationTask) ([]docsync.TargetCandidate, error) {
	return r.ResolveFn(ctx, task)
}

// Publisher is a mock implementation of docsync.Publisher.
type Publisher struct {
	PublishFn func(ctx context.Context, set *docsync.PatchSet) (string, error)
}

func (p *Publisher) Publish(ctx context.Context, set *docsync.PatchSet) (string, error) {
	return p.PublishFn(ctx, set)
}
