package docsync

import (
	"errors"
	"fmt"
	"time"
)

// PatchAction identifies the file mutation a patch performs.
type PatchAction string

// Patch actions.
const (
	PatchCreate PatchAction = "create"
	PatchUpdate PatchAction = "update"
	PatchDelete PatchAction = "delete"
	PatchRename PatchAction = "rename"
)

// Valid reports whether the action is a known patch action.
func (a PatchAction) Valid() bool {
	switch a {
	case PatchCreate, PatchUpdate, PatchDelete, PatchRename:
		return true
	}
	return false
}

// PatchMetadata carries bookkeeping attached to a patch.
type PatchMetadata struct {
	Timestamp     time.Time `json:"timestamp"`
	Author        string    `json:"author,omitempty"`
	Checksum      string    `json:"checksum,omitempty"`
	Confidence    float64   `json:"confidence,omitempty"`
	ParentPatchID string    `json:"parent_patch_id,omitempty"`
}

// RollbackData is the action-specific payload needed to undo an applied
// patch. Create patches carry none: undoing a create is deletion.
type RollbackData interface {
	rollbackData()
}

// UpdateRollback restores the pre-update content of a file.
type UpdateRollback struct {
	OriginalContent string
}

// DeleteRollback restores a deleted file's content, snapshotted at apply
// time.
type DeleteRollback struct {
	Content string
}

// RenameRollback moves a renamed file back to its original path.
type RenameRollback struct {
	OriginalPath string
}

func (UpdateRollback) rollbackData() {}
func (DeleteRollback) rollbackData() {}
func (RenameRollback) rollbackData() {}

// Patch is an addressable, reversible description of one file mutation.
//
// Invariant: Rollback is populated before Applied is set true for every
// action except create.
type Patch struct {
	ID              string
	Action          PatchAction
	FilePath        string // Target path; original path for renames
	NewPath         string // Rename destination, empty otherwise
	OriginalContent string
	NewContent      string
	Diff            string // Unified diff text, when derivable
	Metadata        PatchMetadata
	Applied         bool
	Rollback        RollbackData
}

// PatchSet groups patches applied or rolled back as one unit.
//
// Invariant: when Atomic is true, either all member patches end up applied
// or none do.
type PatchSet struct {
	ID      string
	Patches []*Patch
	Atomic  bool
	Applied bool
}

// RollbackOrder returns the set's patches in reverse application order, so
// later-dependent patches are undone before their prerequisites.
func (s *PatchSet) RollbackOrder() []*Patch {
	out := make([]*Patch, len(s.Patches))
	for i, p := range s.Patches {
		out[len(s.Patches)-1-i] = p
	}
	return out
}

// Patch state sentinels.
var (
	ErrPatchAlreadyApplied = errors.New("patch already applied")
	ErrPatchNotApplied     = errors.New("patch not applied")
	ErrSetNotApplied       = errors.New("patch set not applied")
)

// ConflictError reports on-disk content that no longer matches a patch's
// recorded original beyond the similarity tolerance. The file is left
// unmodified.
type ConflictError struct {
	Path string
}

// Error implements the error interface.
func (e ConflictError) Error() string {
	return fmt.Sprintf("%s: original content doesn't match current file content", e.Path)
}

// RollbackError reports a failure to undo a single patch. It does not
// prevent rolling back sibling patches in the same set.
type RollbackError struct {
	PatchID string
	Reason  string
}

// Error implements the error interface.
func (e RollbackError) Error() string {
	return fmt.Sprintf("rollback %s: %s", e.PatchID, e.Reason)
}

// PatchEngine generates, applies, and rolls back patches against a file
// tree. It is the only component of the pipeline that performs filesystem
// I/O; operations on the same target path serialize, disjoint paths may
// proceed concurrently.
type PatchEngine interface {
	// Generate builds a registered, reversible patch. For rename patches
	// newContent carries the destination path.
	Generate(action PatchAction, filePath, originalContent, newContent string, meta PatchMetadata) (*Patch, error)

	// GenerateIncremental builds a patch on top of base, chaining via
	// metadata's parent patch id. The new patch's original content is the
	// current on-disk content when base is applied, base's new content
	// otherwise.
	GenerateIncremental(base *Patch, newContent string, meta PatchMetadata) (*Patch, error)

	// Validate checks a patch's preconditions without touching the file
	// tree.
	Validate(p *Patch) error

	// Apply performs the patch's mutation. On success the patch is marked
	// applied and an audit record is persisted.
	Apply(p *Patch) error

	// Rollback undoes a previously applied patch and marks it unapplied.
	Rollback(p *Patch) error

	// ValidateSet checks every member patch, returning one error per
	// failing member.
	ValidateSet(s *PatchSet) []error

	// ApplySet applies member patches in order. For an atomic set, the
	// first failure triggers compensating rollback of every member applied
	// so far, in reverse order; all errors encountered are returned.
	ApplySet(s *PatchSet) []error

	// RollbackSet rolls back an applied set in reverse application order,
	// collecting but not stopping on individual errors.
	RollbackSet(s *PatchSet) []error

	// ExportPatches concatenates the stored or synthesized unified diffs of
	// the selected patches, or of all registered patches when no ids are
	// given.
	ExportPatches(ids ...string) (string, error)
}
