package fs_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/docsync"
	"github.com/fwojciec/docsync/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (*fs.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	return fs.NewEngine(dir), dir
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEngine_Generate_Update(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t)

	p, err := e.Generate(docsync.PatchUpdate, "docs/api.md", "old content\n", "new content\n", docsync.PatchMetadata{Author: "planner"})

	require.NoError(t, err)
	assert.Len(t, p.ID, 12)
	assert.Equal(t, docsync.PatchUpdate, p.Action)
	assert.Equal(t, "docs/api.md", p.FilePath)
	assert.False(t, p.Applied)
	assert.False(t, p.Metadata.Timestamp.IsZero())
	assert.Equal(t, "planner", p.Metadata.Author)
	assert.NotEmpty(t, p.Metadata.Checksum)
	assert.Contains(t, p.Diff, "a/docs/api.md")
	assert.Contains(t, p.Diff, "b/docs/api.md")

	rb, ok := p.Rollback.(docsync.UpdateRollback)
	require.True(t, ok)
	assert.Equal(t, "old content\n", rb.OriginalContent)

	// Generated patches are registered and addressable by id.
	got, ok := e.Patch(p.ID)
	require.True(t, ok)
	assert.Same(t, p, got)
}

func TestEngine_Generate_Rename(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t)

	p, err := e.Generate(docsync.PatchRename, "docs/old.md", "", "docs/new.md", docsync.PatchMetadata{})

	require.NoError(t, err)
	assert.Equal(t, "docs/new.md", p.NewPath)
	assert.Empty(t, p.NewContent)
	assert.Empty(t, p.Metadata.Checksum)

	rb, ok := p.Rollback.(docsync.RenameRollback)
	require.True(t, ok)
	assert.Equal(t, "docs/old.md", rb.OriginalPath)
}

func TestEngine_Generate_Invalid(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t)

	_, err := e.Generate("explode", "x.md", "", "content", docsync.PatchMetadata{})
	assert.ErrorContains(t, err, "invalid patch action")

	_, err = e.Generate(docsync.PatchCreate, "", "", "content", docsync.PatchMetadata{})
	assert.ErrorContains(t, err, "file path is empty")
}

func TestEngine_ApplyRollback_Create(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	target := filepath.Join(dir, "docs", "guide.md")

	p, err := e.Generate(docsync.PatchCreate, target, "", "# Guide\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	require.NoError(t, e.Apply(p))
	assert.True(t, p.Applied)
	assert.Equal(t, "# Guide\n", mustRead(t, target))

	require.NoError(t, e.Rollback(p))
	assert.False(t, p.Applied)
	assert.NoFileExists(t, target)
}

func TestEngine_ApplyRollback_Update(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	target := filepath.Join(dir, "api.md")
	mustWrite(t, target, "old content\n")

	p, err := e.Generate(docsync.PatchUpdate, target, "old content\n", "new content\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	require.NoError(t, e.Apply(p))
	assert.Equal(t, "new content\n", mustRead(t, target))

	require.NoError(t, e.Rollback(p))
	assert.Equal(t, "old content\n", mustRead(t, target))
}

func TestEngine_ApplyRollback_Delete(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	target := filepath.Join(dir, "stale.md")
	mustWrite(t, target, "stale docs\n")

	p, err := e.Generate(docsync.PatchDelete, target, "stale docs\n", "", docsync.PatchMetadata{})
	require.NoError(t, err)

	require.NoError(t, e.Apply(p))
	assert.NoFileExists(t, target)

	// Content was snapshotted at apply time.
	rb, ok := p.Rollback.(docsync.DeleteRollback)
	require.True(t, ok)
	assert.Equal(t, "stale docs\n", rb.Content)

	require.NoError(t, e.Rollback(p))
	assert.Equal(t, "stale docs\n", mustRead(t, target))
}

func TestEngine_ApplyRollback_Rename(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	oldPath := filepath.Join(dir, "old.md")
	newPath := filepath.Join(dir, "new.md")
	mustWrite(t, oldPath, "content\n")

	p, err := e.Generate(docsync.PatchRename, oldPath, "", newPath, docsync.PatchMetadata{})
	require.NoError(t, err)

	require.NoError(t, e.Apply(p))
	assert.NoFileExists(t, oldPath)
	assert.Equal(t, "content\n", mustRead(t, newPath))

	require.NoError(t, e.Rollback(p))
	assert.NoFileExists(t, newPath)
	assert.Equal(t, "content\n", mustRead(t, oldPath))
}

func TestEngine_Apply_AlreadyApplied(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	target := filepath.Join(dir, "f.md")

	p, err := e.Generate(docsync.PatchCreate, target, "", "x\n", docsync.PatchMetadata{})
	require.NoError(t, err)
	require.NoError(t, e.Apply(p))

	err = e.Apply(p)

	assert.ErrorIs(t, err, docsync.ErrPatchAlreadyApplied)
}

func TestEngine_Rollback_NotApplied(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)

	p, err := e.Generate(docsync.PatchCreate, filepath.Join(dir, "f.md"), "", "x\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	err = e.Rollback(p)

	assert.ErrorIs(t, err, docsync.ErrPatchNotApplied)
}

func TestEngine_Validate(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	existing := filepath.Join(dir, "existing.md")
	mustWrite(t, existing, "x\n")
	missing := filepath.Join(dir, "missing.md")

	tests := []struct {
		name    string
		patch   docsync.Patch
		wantErr string
	}{
		{
			name:  "create for new file",
			patch: docsync.Patch{Action: docsync.PatchCreate, FilePath: missing, NewContent: "x"},
		},
		{
			name:    "create for existing file",
			patch:   docsync.Patch{Action: docsync.PatchCreate, FilePath: existing, NewContent: "x"},
			wantErr: "already exists",
		},
		{
			name:    "create without content",
			patch:   docsync.Patch{Action: docsync.PatchCreate, FilePath: missing},
			wantErr: "no content",
		},
		{
			name:  "update existing file",
			patch: docsync.Patch{Action: docsync.PatchUpdate, FilePath: existing, NewContent: "x"},
		},
		{
			name:    "update missing file",
			patch:   docsync.Patch{Action: docsync.PatchUpdate, FilePath: missing, NewContent: "x"},
			wantErr: "does not exist",
		},
		{
			name:    "delete missing file",
			patch:   docsync.Patch{Action: docsync.PatchDelete, FilePath: missing},
			wantErr: "does not exist",
		},
		{
			name:    "rename without destination",
			patch:   docsync.Patch{Action: docsync.PatchRename, FilePath: existing},
			wantErr: "no destination",
		},
		{
			name:    "rename onto existing file",
			patch:   docsync.Patch{Action: docsync.PatchRename, FilePath: existing, NewPath: existing},
			wantErr: "destination already exists",
		},
		{
			name:    "invalid action",
			patch:   docsync.Patch{Action: "explode", FilePath: existing},
			wantErr: "invalid patch action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := e.Validate(&tt.patch)

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

// A file modified externally after patch generation must not be clobbered.
func TestEngine_Apply_ConflictLeavesFileUntouched(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	target := filepath.Join(dir, "api.md")
	mustWrite(t, target, "line one\nline two\n")

	p, err := e.Generate(docsync.PatchUpdate, target, "line one\nline two\n", "rewritten\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	mustWrite(t, target, "Z")

	err = e.Apply(p)

	var conflict docsync.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, target, conflict.Path)
	assert.False(t, p.Applied)
	assert.Equal(t, "Z", mustRead(t, target))
}

func TestEngine_Apply_ToleratesWhitespaceDrift(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	target := filepath.Join(dir, "api.md")
	mustWrite(t, target, "alpha beta gamma\n")

	p, err := e.Generate(docsync.PatchUpdate, target, "alpha  beta\tgamma\n", "rewritten\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	require.NoError(t, e.Apply(p))
	assert.Equal(t, "rewritten\n", mustRead(t, target))
}

func TestEngine_Apply_SimilarityThresholdOverride(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	e.SimilarityThreshold = 0.5
	target := filepath.Join(dir, "api.md")
	mustWrite(t, target, "alpha beta gamma CHANGED\n")

	// 3 of 4 tokens shared: ratio 0.75, below the default threshold but
	// above the override.
	p, err := e.Generate(docsync.PatchUpdate, target, "alpha beta gamma delta\n", "rewritten\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	require.NoError(t, e.Apply(p))
	assert.Equal(t, "rewritten\n", mustRead(t, target))
}

func TestEngine_ApplySet_AtomicRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	fileA := filepath.Join(dir, "a.md")
	fileB := filepath.Join(dir, "b.md")
	mustWrite(t, fileB, "keep\n")

	ok, err := e.Generate(docsync.PatchCreate, fileA, "", "created\n", docsync.PatchMetadata{})
	require.NoError(t, err)
	// Fails validation: recorded content does not match what's on disk.
	bad, err := e.Generate(docsync.PatchUpdate, fileB, "something else\n", "updated\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	set := fs.NewPatchSet(true, ok, bad)
	errs := e.ApplySet(set)

	require.NotEmpty(t, errs)
	assert.False(t, set.Applied)
	assert.False(t, ok.Applied)
	assert.False(t, bad.Applied)
	// The tree is exactly as it was before ApplySet.
	assert.NoFileExists(t, fileA)
	assert.Equal(t, "keep\n", mustRead(t, fileB))
}

func TestEngine_ApplySet_NonAtomicKeepsEarlierPatches(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	fileA := filepath.Join(dir, "a.md")
	fileB := filepath.Join(dir, "b.md")
	mustWrite(t, fileB, "keep\n")

	ok, err := e.Generate(docsync.PatchCreate, fileA, "", "created\n", docsync.PatchMetadata{})
	require.NoError(t, err)
	bad, err := e.Generate(docsync.PatchUpdate, fileB, "something else\n", "updated\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	set := fs.NewPatchSet(false, ok, bad)
	errs := e.ApplySet(set)

	require.NotEmpty(t, errs)
	assert.True(t, ok.Applied)
	assert.Equal(t, "created\n", mustRead(t, fileA))
}

func TestEngine_ApplySet_RollbackSet_RoundTrip(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	fileA := filepath.Join(dir, "a.md")
	fileB := filepath.Join(dir, "b.md")
	mustWrite(t, fileB, "before\n")

	create, err := e.Generate(docsync.PatchCreate, fileA, "", "created\n", docsync.PatchMetadata{})
	require.NoError(t, err)
	update, err := e.Generate(docsync.PatchUpdate, fileB, "before\n", "after\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	set := fs.NewPatchSet(true, create, update)
	require.NotEmpty(t, set.ID)

	require.Empty(t, e.ApplySet(set))
	assert.True(t, set.Applied)
	assert.Equal(t, "created\n", mustRead(t, fileA))
	assert.Equal(t, "after\n", mustRead(t, fileB))

	// Applying an applied set is refused.
	errs := e.ApplySet(set)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], docsync.ErrPatchAlreadyApplied)

	require.Empty(t, e.RollbackSet(set))
	assert.False(t, set.Applied)
	assert.NoFileExists(t, fileA)
	assert.Equal(t, "before\n", mustRead(t, fileB))
}

// Rolling back only the later of two stacked patches restores the
// intermediate state, not the original one.
func TestEngine_SequentialPatches_PartialRollback(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	target := filepath.Join(dir, "docs", "a.md")

	create, err := e.Generate(docsync.PatchCreate, target, "", "# A", docsync.PatchMetadata{})
	require.NoError(t, err)
	require.NoError(t, e.Apply(create))

	update, err := e.GenerateIncremental(create, "# A\n## More", docsync.PatchMetadata{})
	require.NoError(t, err)
	assert.Equal(t, "# A", update.OriginalContent)
	require.NoError(t, e.Apply(update))
	assert.Equal(t, "# A\n## More", mustRead(t, target))

	require.NoError(t, e.Rollback(update))
	assert.Equal(t, "# A", mustRead(t, target))
	assert.True(t, create.Applied)
}

func TestEngine_RollbackSet_NotApplied(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t)

	set := fs.NewPatchSet(true)
	errs := e.RollbackSet(set)

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], docsync.ErrSetNotApplied)
}

func TestEngine_Apply_WritesAuditRecord(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	target := filepath.Join(dir, "f.md")

	p, err := e.Generate(docsync.PatchCreate, target, "", "x\n", docsync.PatchMetadata{Author: "planner", Confidence: 0.9})
	require.NoError(t, err)
	require.NoError(t, e.Apply(p))

	record, err := e.Audit().Load(p.ID)

	require.NoError(t, err)
	assert.Equal(t, p.ID, record.PatchID)
	assert.Equal(t, docsync.PatchCreate, record.Action)
	assert.Equal(t, target, record.FilePath)
	assert.True(t, record.Applied)
	assert.Equal(t, "planner", record.Metadata.Author)
	assert.InDelta(t, 0.9, record.Metadata.Confidence, 1e-9)

	records, err := e.Audit().List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, p.ID, records[0].PatchID)
}

func TestEngine_GenerateIncremental(t *testing.T) {
	t.Parallel()

	e, dir := newEngine(t)
	target := filepath.Join(dir, "f.md")
	mustWrite(t, target, "v1\n")

	base, err := e.Generate(docsync.PatchUpdate, target, "v1\n", "v2\n", docsync.PatchMetadata{})
	require.NoError(t, err)

	// Unapplied base: the incremental patch stacks on base's new content.
	inc, err := e.GenerateIncremental(base, "v3\n", docsync.PatchMetadata{})
	require.NoError(t, err)
	assert.Equal(t, base.ID, inc.Metadata.ParentPatchID)
	assert.Equal(t, "v2\n", inc.OriginalContent)

	// Applied base: the incremental patch reads the tree.
	require.NoError(t, e.Apply(base))
	inc2, err := e.GenerateIncremental(base, "v3\n", docsync.PatchMetadata{})
	require.NoError(t, err)
	assert.Equal(t, "v2\n", inc2.OriginalContent)
	assert.Equal(t, base.ID, inc2.Metadata.ParentPatchID)
}

func TestEngine_ExportPatches(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t)

	create, err := e.Generate(docsync.PatchCreate, "docs/new.md", "", "hello\n", docsync.PatchMetadata{})
	require.NoError(t, err)
	del, err := e.Generate(docsync.PatchDelete, "docs/gone.md", "goodbye\n", "", docsync.PatchMetadata{})
	require.NoError(t, err)
	ren, err := e.Generate(docsync.PatchRename, "docs/old.md", "", "docs/renamed.md", docsync.PatchMetadata{})
	require.NoError(t, err)

	out, err := e.ExportPatches()
	require.NoError(t, err)

	// Registration order.
	createIdx := strings.Index(out, "diff --git a/docs/new.md")
	delIdx := strings.Index(out, "diff --git a/docs/gone.md")
	renIdx := strings.Index(out, "diff --git a/docs/old.md")
	require.NotEqual(t, -1, createIdx)
	require.NotEqual(t, -1, delIdx)
	require.NotEqual(t, -1, renIdx)
	assert.Less(t, createIdx, delIdx)
	assert.Less(t, delIdx, renIdx)

	assert.Contains(t, out, "/dev/null")
	assert.Contains(t, out, "rename from docs/old.md")
	assert.Contains(t, out, "rename to docs/renamed.md")

	// Selection by id.
	only, err := e.ExportPatches(del.ID, ren.ID)
	require.NoError(t, err)
	assert.Contains(t, only, "docs/gone.md")
	assert.Contains(t, only, "docs/renamed.md")
	assert.NotContains(t, only, create.FilePath)

	_, err = e.ExportPatches("nonexistent")
	assert.ErrorContains(t, err, "unknown patch id")
}

func TestEngine_Rollback_MissingDataIsRollbackError(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t)

	p := &docsync.Patch{
		ID:       "abc",
		Action:   docsync.PatchDelete,
		FilePath: "whatever.md",
		Applied:  true,
	}

	err := e.Rollback(p)

	var rbErr docsync.RollbackError
	require.ErrorAs(t, err, &rbErr)
	assert.Equal(t, "abc", rbErr.PatchID)
	assert.True(t, p.Applied, "patch stays applied when rollback fails")
}

func TestDefaultWorkspaceDir(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state")
	t.Setenv("XDG_STATE_HOME", state)

	assert.Equal(t, filepath.Join(state, "docsync"), fs.DefaultWorkspaceDir())
}

func TestEngine_ConflictError_Unwrap(t *testing.T) {
	t.Parallel()

	err := error(docsync.ConflictError{Path: "x.md"})

	var conflict docsync.ConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, "x.md: original content doesn't match current file content", err.Error())
}
