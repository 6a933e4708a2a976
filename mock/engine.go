package mock

import "github.com/fwojciec/docsync"

// Compile-time interface verification.
var _ docsync.PatchEngine = (*PatchEngine)(nil)

// PatchEngine is a mock implementation of docsync.PatchEngine.
type PatchEngine struct {
	GenerateFn            func(action docsync.PatchAction, filePath, originalContent, newContent string, meta docsync.PatchMetadata) (*docsync.Patch, error)
	GenerateIncrementalFn func(base *docsync.Patch, newContent string, meta docsync.PatchMetadata) (*docsync.Patch, error)
	ValidateFn            func(p *docsync.Patch) error
	ApplyFn               func(p *docsync.Patch) error
	RollbackFn            func(p *docsync.Patch) error
	ValidateSetFn         func(s *docsync.PatchSet) []error
	ApplySetFn            func(s *docsync.PatchSet) []error
	RollbackSetFn         func(s *docsync.PatchSet) []error
	ExportPatchesFn       func(ids ...string) (string, error)
}

func (e *PatchEngine) Generate(action docsync.PatchAction, filePath, originalContent, newContent string, meta docsync.PatchMetadata) (*docsync.Patch, error) {
	return e.GenerateFn(action, filePath, originalContent, newContent, meta)
}

func (e *PatchEngine) GenerateIncremental(base *docsync.Patch, newContent string, meta docsync.PatchMetadata) (*docsync.Patch, error) {
	return e.GenerateIncrementalFn(base, newContent, meta)
}

func (e *PatchEngine) Validate(p *docsync.Patch) error {
	return e.ValidateFn(p)
}

func (e *PatchEngine) Apply(p *docsync.Patch) error {
	return e.ApplyFn(p)
}

func (e *PatchEngine) Rollback(p *docsync.Patch) error {
	return e.RollbackFn(p)
}

func (e *PatchEngine) ValidateSet(s *docsync.PatchSet) []error {
	return e.ValidateSetFn(s)
}

func (e *PatchEngine) ApplySet(s *docsync.PatchSet) []error {
	return e.ApplySetFn(s)
}

func (e *PatchEngine) RollbackSet(s *docsync.PatchSet) []error {
	return e.RollbackSetFn(s)
}

func (e *PatchEngine) ExportPatches(ids ...string) (string, error) {
	return e.ExportPatchesFn(ids...)
}
