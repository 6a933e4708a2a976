package mock

import "github.com/fwojciec/docsync"

// Compile-time interface verification.
var _ docsync.Planner = (*Planner)(nil)

// Planner is a mock implementation of docsync.Planner.
type Planner struct {
	PlanFn func(changes []docsync.StructuredChange) []docsync.DocumentationTask
}

func (p *Planner) Plan(changes []docsync.StructuredChange) []docsync.DocumentationTask {
	return p.PlanFn(changes)
}
