// Package analyze extracts structured changes from parsed diffs using
// pattern-matching heuristics.
package analyze

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fwojciec/docsync"
)

// Compile-time interface verification.
var _ docsync.Analyzer = (*Analyzer)(nil)

// Analyzer converts file diffs into structured changes. It is stateless and
// safe for concurrent use; each file is analyzed independently.
type Analyzer struct {
	detector docsync.LanguageDetector
}

// NewAnalyzer creates a new Analyzer. The detector is optional; when nil,
// changes carry no language metadata.
func NewAnalyzer(detector docsync.LanguageDetector) *Analyzer {
	return &Analyzer{detector: detector}
}

// Analyze returns one StructuredChange per file in the diff, in source
// order.
func (a *Analyzer) Analyze(diff *docsync.Diff) []docsync.StructuredChange {
	changes := make([]docsync.StructuredChange, 0, len(diff.Files))
	for _, fd := range diff.Files {
		changes = append(changes, a.AnalyzeFile(fd))
	}
	return changes
}

// AnalyzeFile extracts everything semantically relevant from one file's
// diff. Files matching no patterns yield an empty, other-category change
// rather than an error.
func (a *Analyzer) AnalyzeFile(fd docsync.FileDiff) docsync.StructuredChange {
	change := docsync.StructuredChange{
		FilePath:   fd.Path,
		ChangeType: changeType(fd.Operation),
		DiffLines:  fd.Lines,
	}
	if a.detector != nil {
		change.Language = a.detector.DetectFromPath(fd.Path)
	}

	a.extractSymbols(fd, &change)
	a.extractEndpoints(fd, &change)
	a.extractConfigs(fd, &change)
	a.extractMigrations(fd, &change)
	a.findBreakingChanges(fd, &change)
	a.findNewFeatures(&change)
	a.findBehaviorChanges(fd, &change)

	change.Category = categorize(fd, change)
	change.ImpactScore = impactScore(change)

	return change
}

func changeType(op docsync.FileOp) docsync.ChangeType {
	switch op {
	case docsync.FileAdded:
		return docsync.ChangeAdded
	case docsync.FileDeleted:
		return docsync.ChangeDeleted
	case docsync.FileRenamed:
		return docsync.ChangeRenamed
	default:
		return docsync.ChangeModified
	}
}

// extractSymbols matches added lines against the function and class
// patterns. Removed symbols become breaking-change notes rather than
// symbol entries.
func (a *Analyzer) extractSymbols(fd docsync.FileDiff, change *docsync.StructuredChange) {
	if !codeExtensions[strings.ToLower(filepath.Ext(fd.Path))] {
		return
	}

	removedFuncs := removedFunctionNames(fd)

	for i, ref := range fd.Added {
		if m := funcRe.FindStringSubmatch(ref.Content); m != nil {
			kind := docsync.SymbolFunction
			if m[1] != "" {
				kind = docsync.SymbolAsyncFunction
			}
			name := m[2]
			sym := docsync.ChangedSymbol{
				Name:       name,
				Kind:       kind,
				ChangeType: docsync.ChangeAdded,
				FilePath:   fd.Path,
				StartLine:  ref.Line,
				EndLine:    ref.Line,
				Signature:  fmt.Sprintf("%s(%s)", name, m[3]),
				IsPublic:   !strings.HasPrefix(name, "_"),
			}
			if removedFuncs[name] {
				sym.ChangeType = docsync.ChangeModified
			}
			sym.Docstring = docstringAfter(fd.Added, i)
			sym.Decorators = decoratorsBefore(fd.Added, i)
			change.Symbols = append(change.Symbols, sym)
			continue
		}

		if m := classRe.FindStringSubmatch(ref.Content); m != nil {
			name := m[1]
			change.Symbols = append(change.Symbols, docsync.ChangedSymbol{
				Name:       name,
				Kind:       docsync.SymbolClass,
				ChangeType: docsync.ChangeAdded,
				FilePath:   fd.Path,
				StartLine:  ref.Line,
				EndLine:    ref.Line,
				Signature:  strings.TrimSpace(ref.Content),
				IsPublic:   !strings.HasPrefix(name, "_"),
				Docstring:  docstringAfter(fd.Added, i),
			})
		}
	}

	// Every removed definition line is flagged breaking, including one half
	// of a signature change; the matching behavior-change note is recorded
	// separately.
	for _, ref := range fd.Removed {
		if m := funcRe.FindStringSubmatch(ref.Content); m != nil {
			change.BreakingChanges = append(change.BreakingChanges,
				fmt.Sprintf("Removed function %q at line %d", m[2], ref.Line))
		} else if m := classRe.FindStringSubmatch(ref.Content); m != nil {
			change.BreakingChanges = append(change.BreakingChanges,
				fmt.Sprintf("Removed class %q at line %d", m[1], ref.Line))
		}
	}
}

func removedFunctionNames(fd docsync.FileDiff) map[string]bool {
	names := make(map[string]bool)
	for _, ref := range fd.Removed {
		if m := funcRe.FindStringSubmatch(ref.Content); m != nil {
			names[m[2]] = true
		}
	}
	return names
}

func docstringAfter(added []docsync.LineRef, i int) string {
	if i+1 >= len(added) {
		return ""
	}
	next := strings.TrimSpace(added[i+1].Content)
	if strings.HasPrefix(next, `"""`) || strings.HasPrefix(next, "'''") {
		return strings.Trim(next, `"'`)
	}
	return ""
}

func decoratorsBefore(added []docsync.LineRef, i int) []string {
	var decorators []string
	for j := i - 1; j >= 0; j-- {
		line := strings.TrimSpace(added[j].Content)
		if !strings.HasPrefix(line, "@") {
			break
		}
		decorators = append([]string{line}, decorators...)
	}
	return decorators
}

// extractEndpoints matches @app/@router decorator lines in Python files,
// capturing the following function definition as the handler.
func (a *Analyzer) extractEndpoints(fd docsync.FileDiff, change *docsync.StructuredChange) {
	if strings.ToLower(filepath.Ext(fd.Path)) != ".py" {
		return
	}

	for i, ref := range fd.Added {
		m := endpointRe.FindStringSubmatch(ref.Content)
		if m == nil {
			continue
		}

		ep := docsync.ChangedEndpoint{
			Method:     strings.ToUpper(m[1]),
			Path:       m[2],
			ChangeType: docsync.ChangeAdded,
			FilePath:   fd.Path,
		}
		if i+1 < len(fd.Added) {
			if fm := funcRe.FindStringSubmatch(fd.Added[i+1].Content); fm != nil {
				ep.Handler = fm[2]
				ep.Parameters = splitParams(fm[3])
			}
		}
		change.Endpoints = append(change.Endpoints, ep)
	}
}

func splitParams(raw string) []string {
	var params []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" && p != "self" {
			params = append(params, p)
		}
	}
	return params
}

// extractConfigs matches key = value assignments in config files. A key
// present in both removed and added sets is a modification; added-only keys
// are additions.
func (a *Analyzer) extractConfigs(fd docsync.FileDiff, change *docsync.StructuredChange) {
	if !isConfigFile(fd.Path) {
		return
	}

	removed := configAssignments(fd.Removed)

	for _, ref := range fd.Added {
		if strings.HasPrefix(strings.TrimSpace(ref.Content), "#") {
			continue
		}
		m := configRe.FindStringSubmatch(ref.Content)
		if m == nil {
			continue
		}

		cc := docsync.ConfigChange{
			Key:         m[1],
			NewValue:    m[2],
			FilePath:    fd.Path,
			ChangeType:  docsync.ChangeAdded,
			Environment: environment(fd.Path),
		}
		if old, ok := removed[m[1]]; ok {
			cc.ChangeType = docsync.ChangeModified
			cc.OldValue = old
		}
		change.Configs = append(change.Configs, cc)
	}
}

func isConfigFile(path string) bool {
	if configExtensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	base := filepath.Base(path)
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return true
	}
	lower := strings.ToLower(path)
	return strings.Contains(lower, "settings") || strings.Contains(lower, "config")
}

func configAssignments(refs []docsync.LineRef) map[string]string {
	out := make(map[string]string)
	for _, ref := range refs {
		if strings.HasPrefix(strings.TrimSpace(ref.Content), "#") {
			continue
		}
		if m := configRe.FindStringSubmatch(ref.Content); m != nil {
			out[m[1]] = m[2]
		}
	}
	return out
}

func environment(path string) string {
	if m := envFileRe.FindStringSubmatch(filepath.Base(path)); m != nil {
		return m[1]
	}
	return ""
}

// extractMigrations derives version and description from the migration
// filename and collects affected tables and schema operations from added
// lines.
func (a *Analyzer) extractMigrations(fd docsync.FileDiff, change *docsync.StructuredChange) {
	lower := strings.ToLower(fd.Path)
	if !strings.Contains(lower, "migration") && !strings.Contains(lower, "alembic") {
		return
	}

	mc := docsync.MigrationChange{
		FilePath:   fd.Path,
		ChangeType: changeType(fd.Operation),
	}

	base := strings.TrimSuffix(filepath.Base(fd.Path), filepath.Ext(fd.Path))
	if m := versionRe.FindStringSubmatch(base); m != nil {
		mc.Version = m[1]
		mc.Description = strings.ReplaceAll(m[2], "_", " ")
	}

	tables := make(map[string]bool)
	ops := make(map[string]bool)
	for _, ref := range fd.Added {
		for _, m := range migrationRe.FindAllStringSubmatch(ref.Content, -1) {
			ops[strings.ToUpper(m[1])] = true
			tables[m[3]] = true
		}
	}
	mc.TablesAffected = sortedKeys(tables)
	mc.Operations = sortedKeys(ops)

	if mc.Version == "" && len(mc.Operations) == 0 {
		return
	}
	change.Migrations = append(change.Migrations, mc)
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// findBreakingChanges flags any line containing a breaking-change
// indicator phrase. Removed definitions were already flagged during symbol
// extraction.
func (a *Analyzer) findBreakingChanges(fd docsync.FileDiff, change *docsync.StructuredChange) {
	scan := func(refs []docsync.LineRef) {
		for _, ref := range refs {
			lower := strings.ToLower(ref.Content)
			for _, indicator := range breakingIndicators {
				if strings.Contains(lower, indicator) {
					change.BreakingChanges = append(change.BreakingChanges,
						fmt.Sprintf("Line %d mentions %q: %s", ref.Line, indicator, strings.TrimSpace(ref.Content)))
					break
				}
			}
		}
	}
	scan(fd.Added)
	scan(fd.Removed)
}

// findNewFeatures records one note per new endpoint and per new public
// symbol.
func (a *Analyzer) findNewFeatures(change *docsync.StructuredChange) {
	for _, ep := range change.Endpoints {
		if ep.ChangeType == docsync.ChangeAdded {
			change.NewFeatures = append(change.NewFeatures,
				fmt.Sprintf("New endpoint: %s %s", ep.Method, ep.Path))
		}
	}
	for _, sym := range change.Symbols {
		if sym.ChangeType == docsync.ChangeAdded && sym.IsPublic {
			change.NewFeatures = append(change.NewFeatures,
				fmt.Sprintf("New %s: %s", sym.Kind, sym.Name))
		}
	}
}

// findBehaviorChanges flags functions whose definition appears in both the
// removed and added line sets: same name, changed body or signature.
func (a *Analyzer) findBehaviorChanges(fd docsync.FileDiff, change *docsync.StructuredChange) {
	removed := removedFunctionNames(fd)
	if len(removed) == 0 {
		return
	}

	seen := make(map[string]bool)
	for _, ref := range fd.Added {
		m := funcRe.FindStringSubmatch(ref.Content)
		if m == nil {
			continue
		}
		name := m[2]
		if removed[name] && !seen[name] {
			seen[name] = true
			change.BehaviorChanges = append(change.BehaviorChanges,
				"Modified function: "+name)
		}
	}
}

// categorize picks the change category by fixed priority: breaking >
// migration > endpoint > config > new feature > test path > doc path >
// behavior change > bug-fix keyword > other.
func categorize(fd docsync.FileDiff, change docsync.StructuredChange) docsync.Category {
	lower := strings.ToLower(fd.Path)

	switch {
	case len(change.BreakingChanges) > 0:
		return docsync.CategoryBreakingChange
	case len(change.Migrations) > 0:
		return docsync.CategoryMigration
	case len(change.Endpoints) > 0:
		return docsync.CategoryAPIChange
	case len(change.Configs) > 0:
		return docsync.CategoryConfigChange
	case len(change.NewFeatures) > 0:
		return docsync.CategoryNewFeature
	case strings.Contains(lower, "test"):
		return docsync.CategoryTest
	case docExtensions[filepath.Ext(lower)] || strings.Contains(lower, "docs"):
		return docsync.CategoryDocumentation
	case len(change.BehaviorChanges) > 0:
		return docsync.CategoryRefactor
	case containsBugFixKeyword(fd):
		return docsync.CategoryBugFix
	default:
		return docsync.CategoryOther
	}
}

func containsBugFixKeyword(fd docsync.FileDiff) bool {
	for _, ref := range fd.Added {
		lower := strings.ToLower(ref.Content)
		for _, kw := range bugFixIndicators {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// impactScore is the maximum over triggered category contributions, never
// a sum, clamped to [0,1].
func impactScore(change docsync.StructuredChange) float64 {
	score := 0.0

	if len(change.BreakingChanges) > 0 {
		score = max(score, 0.9)
	}
	if len(change.Endpoints) > 0 {
		score = max(score, 0.8)
	}
	if len(change.NewFeatures) > 0 {
		score = max(score, 0.7)
	}
	if len(change.Configs) > 0 {
		score = max(score, 0.6)
	}
	if len(change.Migrations) > 0 {
		score = max(score, 0.5)
	}
	if n := len(change.PublicSymbols()); n > 0 {
		score = max(score, 0.4+min(0.4, 0.1*float64(n)))
	}
	if len(change.BehaviorChanges) > 0 {
		score = max(score, 0.3)
	}

	return min(score, 1.0)
}
