package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	udiff "github.com/aymanbagabas/go-udiff"
	"github.com/fwojciec/docsync"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ docsync.PatchEngine = (*Engine)(nil)

// defaultSimilarityThreshold tolerates trivial drift between a patch's
// recorded original content and the current file content during update.
const defaultSimilarityThreshold = 0.95

// Engine generates, applies and rolls back patches against the file tree.
//
// Applying or rolling back holds an exclusive in-process lock keyed by the
// normalized target path for the whole read-compare-write sequence, so
// operations on the same path serialize while disjoint paths proceed
// concurrently.
type Engine struct {
	// SimilarityThreshold overrides the update drift tolerance. The zero
	// value means the default of 0.95.
	SimilarityThreshold float64

	// Logger receives non-fatal warnings such as audit write failures.
	// Defaults to slog.Default().
	Logger *slog.Logger

	audit *AuditStore

	mu      sync.Mutex
	patches map[string]*docsync.Patch
	order   []string
	locks   map[string]*sync.Mutex
}

// NewEngine creates an Engine whose audit trail lives under
// workspaceDir/audit.
func NewEngine(workspaceDir string) *Engine {
	return &Engine{
		audit:   NewAuditStore(filepath.Join(workspaceDir, "audit")),
		patches: make(map[string]*docsync.Patch),
		locks:   make(map[string]*sync.Mutex),
	}
}

// NewPatchSet groups patches into a set with a fresh id.
func NewPatchSet(atomic bool, patches ...*docsync.Patch) *docsync.PatchSet {
	return &docsync.PatchSet{
		ID:      uuid.NewString(),
		Patches: patches,
		Atomic:  atomic,
	}
}

// Generate builds a registered, reversible patch. For rename patches
// newContent carries the destination path.
func (e *Engine) Generate(action docsync.PatchAction, filePath, originalContent, newContent string, meta docsync.PatchMetadata) (*docsync.Patch, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("invalid patch action %q", action)
	}
	if filePath == "" {
		return nil, fmt.Errorf("patch file path is empty")
	}

	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	if newContent != "" && action != docsync.PatchRename {
		meta.Checksum = checksum(newContent)
	}

	p := &docsync.Patch{
		ID:              patchID(filePath, newContent, meta.Timestamp),
		Action:          action,
		FilePath:        filePath,
		OriginalContent: originalContent,
		NewContent:      newContent,
		Metadata:        meta,
	}

	switch action {
	case docsync.PatchUpdate:
		if originalContent != "" && newContent != "" {
			p.Diff = udiff.Unified("a/"+filePath, "b/"+filePath, originalContent, newContent)
		}
		p.Rollback = docsync.UpdateRollback{OriginalContent: originalContent}
	case docsync.PatchRename:
		p.NewPath = newContent
		p.NewContent = ""
		p.Rollback = docsync.RenameRollback{OriginalPath: filePath}
	}
	// Create needs no rollback data; delete snapshots content at apply
	// time.

	e.register(p)

	return p, nil
}

// GenerateIncremental builds an update patch on top of base, forming a
// causal chain via the parent patch id. The new patch's original content
// is read from disk when base is applied, and is base's new content
// otherwise.
func (e *Engine) GenerateIncremental(base *docsync.Patch, newContent string, meta docsync.PatchMetadata) (*docsync.Patch, error) {
	original := base.NewContent
	if base.Applied {
		data, err := os.ReadFile(base.FilePath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", base.FilePath, err)
		}
		original = string(data)
	}

	meta.ParentPatchID = base.ID

	return e.Generate(docsync.PatchUpdate, base.FilePath, original, newContent, meta)
}

// Validate checks the patch's preconditions without touching the file
// tree.
func (e *Engine) Validate(p *docsync.Patch) error {
	if !p.Action.Valid() {
		return fmt.Errorf("invalid patch action %q", p.Action)
	}

	switch p.Action {
	case docsync.PatchCreate:
		if p.NewContent == "" {
			return fmt.Errorf("%s: create patch has no content", p.FilePath)
		}
		if exists(p.FilePath) {
			return fmt.Errorf("%s: file already exists", p.FilePath)
		}
	case docsync.PatchUpdate:
		if p.NewContent == "" {
			return fmt.Errorf("%s: update patch has no content", p.FilePath)
		}
		if !exists(p.FilePath) {
			return fmt.Errorf("%s: file does not exist", p.FilePath)
		}
	case docsync.PatchDelete:
		if !exists(p.FilePath) {
			return fmt.Errorf("%s: file does not exist", p.FilePath)
		}
	case docsync.PatchRename:
		if p.NewPath == "" {
			return fmt.Errorf("%s: rename patch has no destination", p.FilePath)
		}
		if !exists(p.FilePath) {
			return fmt.Errorf("%s: file does not exist", p.FilePath)
		}
		if exists(p.NewPath) {
			return fmt.Errorf("%s: destination already exists", p.NewPath)
		}
	}

	return nil
}

// Apply performs the patch's mutation. Rollback data is populated before
// the patch is marked applied; on success an audit record is persisted.
func (e *Engine) Apply(p *docsync.Patch) error {
	if p.Applied {
		return fmt.Errorf("%s: %w", p.ID, docsync.ErrPatchAlreadyApplied)
	}

	unlock := e.lockPaths(p.FilePath, p.NewPath)
	defer unlock()

	if err := e.Validate(p); err != nil {
		return err
	}

	switch p.Action {
	case docsync.PatchCreate:
		if err := writeFile(p.FilePath, p.NewContent); err != nil {
			return err
		}

	case docsync.PatchUpdate:
		data, err := os.ReadFile(p.FilePath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p.FilePath, err)
		}
		current := string(data)
		if current != p.OriginalContent &&
			similarity(current, p.OriginalContent) < e.threshold() {
			return docsync.ConflictError{Path: p.FilePath}
		}
		if _, ok := p.Rollback.(docsync.UpdateRollback); !ok {
			p.Rollback = docsync.UpdateRollback{OriginalContent: p.OriginalContent}
		}
		if err := writeFile(p.FilePath, p.NewContent); err != nil {
			return err
		}

	case docsync.PatchDelete:
		data, err := os.ReadFile(p.FilePath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p.FilePath, err)
		}
		p.Rollback = docsync.DeleteRollback{Content: string(data)}
		if err := os.Remove(p.FilePath); err != nil {
			return fmt.Errorf("removing %s: %w", p.FilePath, err)
		}

	case docsync.PatchRename:
		if err := os.Rename(p.FilePath, p.NewPath); err != nil {
			return fmt.Errorf("renaming %s: %w", p.FilePath, err)
		}
	}

	p.Applied = true

	if err := e.audit.Append(p); err != nil {
		e.logger().Warn("audit record not persisted", "patch", p.ID, "error", err)
	}

	return nil
}

// Rollback undoes a previously applied patch and marks it unapplied.
func (e *Engine) Rollback(p *docsync.Patch) error {
	if !p.Applied {
		return fmt.Errorf("%s: %w", p.ID, docsync.ErrPatchNotApplied)
	}

	unlock := e.lockPaths(p.FilePath, p.NewPath)
	defer unlock()

	switch p.Action {
	case docsync.PatchCreate:
		if err := os.Remove(p.FilePath); err != nil {
			if !os.IsNotExist(err) {
				return docsync.RollbackError{PatchID: p.ID, Reason: err.Error()}
			}
			e.logger().Warn("created file already missing", "patch", p.ID, "path", p.FilePath)
		}

	case docsync.PatchUpdate:
		content := p.OriginalContent
		if rb, ok := p.Rollback.(docsync.UpdateRollback); ok {
			content = rb.OriginalContent
		}
		if err := writeFile(p.FilePath, content); err != nil {
			return docsync.RollbackError{PatchID: p.ID, Reason: err.Error()}
		}

	case docsync.PatchDelete:
		rb, ok := p.Rollback.(docsync.DeleteRollback)
		if !ok {
			return docsync.RollbackError{PatchID: p.ID, Reason: "no rollback data for delete"}
		}
		if err := writeFile(p.FilePath, rb.Content); err != nil {
			return docsync.RollbackError{PatchID: p.ID, Reason: err.Error()}
		}

	case docsync.PatchRename:
		rb, ok := p.Rollback.(docsync.RenameRollback)
		if !ok {
			return docsync.RollbackError{PatchID: p.ID, Reason: "no rollback data for rename"}
		}
		if err := os.Rename(p.NewPath, rb.OriginalPath); err != nil {
			return docsync.RollbackError{PatchID: p.ID, Reason: err.Error()}
		}

	default:
		return docsync.RollbackError{PatchID: p.ID, Reason: fmt.Sprintf("invalid action %q", p.Action)}
	}

	p.Applied = false

	return nil
}

// ValidateSet checks every member patch, returning one error per failing
// member.
func (e *Engine) ValidateSet(s *docsync.PatchSet) []error {
	var errs []error
	for _, p := range s.Patches {
		if err := e.Validate(p); err != nil {
			errs = append(errs, fmt.Errorf("patch %s: %w", p.ID, err))
		}
	}
	return errs
}

// ApplySet applies member patches strictly in list order, stopping at the
// first failure. For an atomic set, every member applied so far is then
// rolled back in reverse order; a rollback failure is recorded as an
// additional error but does not stop the remaining compensation. Callers
// therefore end with either a fully applied set or a fully reverted tree,
// plus the complete error list.
func (e *Engine) ApplySet(s *docsync.PatchSet) []error {
	if s.Applied {
		return []error{fmt.Errorf("patch set %s: %w", s.ID, docsync.ErrPatchAlreadyApplied)}
	}

	var applied []*docsync.Patch
	for _, p := range s.Patches {
		if err := e.Apply(p); err != nil {
			errs := []error{fmt.Errorf("patch %s: %w", p.ID, err)}
			if s.Atomic {
				for i := len(applied) - 1; i >= 0; i-- {
					if rbErr := e.Rollback(applied[i]); rbErr != nil {
						errs = append(errs, rbErr)
					}
				}
			}
			return errs
		}
		applied = append(applied, p)
	}

	s.Applied = true

	return nil
}

// RollbackSet rolls back an applied set in reverse application order,
// collecting but not stopping on individual errors. The set is marked
// unapplied only when every member rolled back cleanly.
func (e *Engine) RollbackSet(s *docsync.PatchSet) []error {
	if !s.Applied {
		return []error{fmt.Errorf("patch set %s: %w", s.ID, docsync.ErrSetNotApplied)}
	}

	var errs []error
	for _, p := range s.RollbackOrder() {
		if !p.Applied {
			continue
		}
		if err := e.Rollback(p); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		s.Applied = false
	}

	return errs
}

// ExportPatches concatenates the unified diffs of the selected patches, or
// of all registered patches in registration order when no ids are given.
// Patches without a stored diff get a synthesized /dev/null-style one.
func (e *Engine) ExportPatches(ids ...string) (string, error) {
	e.mu.Lock()
	if len(ids) == 0 {
		ids = append([]string(nil), e.order...)
	}
	selected := make([]*docsync.Patch, 0, len(ids))
	for _, id := range ids {
		p, ok := e.patches[id]
		if !ok {
			e.mu.Unlock()
			return "", fmt.Errorf("unknown patch id %q", id)
		}
		selected = append(selected, p)
	}
	e.mu.Unlock()

	var b strings.Builder
	for _, p := range selected {
		b.WriteString(exportPatch(p))
	}

	return b.String(), nil
}

func exportPatch(p *docsync.Patch) string {
	var b strings.Builder

	switch p.Action {
	case docsync.PatchRename:
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", p.FilePath, p.NewPath)
		fmt.Fprintf(&b, "rename from %s\n", p.FilePath)
		fmt.Fprintf(&b, "rename to %s\n", p.NewPath)
		return b.String()
	case docsync.PatchCreate:
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", p.FilePath, p.FilePath)
		b.WriteString(udiff.Unified("/dev/null", "b/"+p.FilePath, "", p.NewContent))
		return b.String()
	case docsync.PatchDelete:
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", p.FilePath, p.FilePath)
		b.WriteString(udiff.Unified("a/"+p.FilePath, "/dev/null", p.OriginalContent, ""))
		return b.String()
	default:
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", p.FilePath, p.FilePath)
		diff := p.Diff
		if diff == "" {
			diff = udiff.Unified("a/"+p.FilePath, "b/"+p.FilePath, p.OriginalContent, p.NewContent)
		}
		b.WriteString(diff)
		return b.String()
	}
}

// Patch returns a registered patch by id.
func (e *Engine) Patch(id string) (*docsync.Patch, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.patches[id]
	return p, ok
}

// Audit exposes the engine's audit store.
func (e *Engine) Audit() *AuditStore {
	return e.audit
}

func (e *Engine) register(p *docsync.Patch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.patches[p.ID] = p
	e.order = append(e.order, p.ID)
}

func (e *Engine) threshold() float64 {
	if e.SimilarityThreshold > 0 {
		return e.SimilarityThreshold
	}
	return defaultSimilarityThreshold
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// lockPaths acquires the per-path locks for the given paths in sorted
// order and returns the matching unlock function. Empty paths are
// ignored.
func (e *Engine) lockPaths(paths ...string) func() {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			keys = append(keys, normalizePath(p))
		}
	}
	sort.Strings(keys)

	var locked []*sync.Mutex
	for i, key := range keys {
		if i > 0 && key == keys[i-1] {
			continue
		}
		mu := e.pathLock(key)
		mu.Lock()
		locked = append(locked, mu)
	}

	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}

func (e *Engine) pathLock(key string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	mu, ok := e.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[key] = mu
	}
	return mu
}

func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func patchID(filePath, content string, ts time.Time) string {
	h := sha256.New()
	h.Write([]byte(filePath))
	h.Write([]byte(content))
	h.Write([]byte(strconv.FormatInt(ts.UnixNano(), 10)))
	return hex.EncodeToString(h.Sum(nil))[:12]
}

func checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
