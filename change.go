package docsync

// ChangeType describes the lifecycle of a changed entity.
type ChangeType string

// Change types.
const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
	ChangeRenamed  ChangeType = "renamed"
)

// Category classifies what kind of change a file diff represents.
type Category string

// Change categories, from most to least documentation-critical.
const (
	CategoryBreakingChange Category = "breaking_change"
	CategoryMigration      Category = "migration"
	CategoryAPIChange      Category = "api_change"
	CategoryConfigChange   Category = "config_change"
	CategoryNewFeature     Category = "new_feature"
	CategoryTest           Category = "test"
	CategoryDocumentation  Category = "documentation"
	CategoryBugFix         Category = "bug_fix"
	CategoryRefactor       Category = "refactor"
	CategoryOther          Category = "other"
)

// SymbolKind identifies the kind of a changed code symbol.
type SymbolKind string

// Symbol kinds.
const (
	SymbolFunction      SymbolKind = "function"
	SymbolAsyncFunction SymbolKind = "async_function"
	SymbolClass         SymbolKind = "class"
	SymbolMethod        SymbolKind = "method"
)

// ChangedSymbol is a function or class touched by a diff.
type ChangedSymbol struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	ChangeType ChangeType `json:"change_type"`
	FilePath   string     `json:"file_path"`
	StartLine  int        `json:"start_line"` // Approximate, see LineRef
	EndLine    int        `json:"end_line"`   // Approximate, see LineRef
	Signature  string     `json:"signature,omitempty"`
	Docstring  string     `json:"docstring,omitempty"`
	IsPublic   bool       `json:"is_public"` // Name does not start with an underscore
	Decorators []string   `json:"decorators,omitempty"`
}

// ChangedEndpoint is an HTTP endpoint touched by a diff.
type ChangedEndpoint struct {
	Method         string     `json:"method"`
	Path           string     `json:"path"`
	ChangeType     ChangeType `json:"change_type"`
	FilePath       string     `json:"file_path"`
	Handler        string     `json:"handler,omitempty"`
	Parameters     []string   `json:"parameters,omitempty"`
	ResponseSchema string     `json:"response_schema,omitempty"`
	AuthRequired   bool       `json:"auth_required"`
}

// ConfigChange is a configuration key touched by a diff.
type ConfigChange struct {
	Key         string     `json:"key"`
	OldValue    string     `json:"old_value,omitempty"`
	NewValue    string     `json:"new_value,omitempty"`
	FilePath    string     `json:"file_path"`
	ChangeType  ChangeType `json:"change_type"`
	Environment string     `json:"environment,omitempty"`
}

// MigrationChange is a database migration touched by a diff.
type MigrationChange struct {
	Version        string     `json:"version"`
	Description    string     `json:"description"`
	FilePath       string     `json:"file_path"`
	ChangeType     ChangeType `json:"change_type"`
	TablesAffected []string   `json:"tables_affected,omitempty"`
	Operations     []string   `json:"operations,omitempty"` // CREATE/ALTER/DROP tokens
}

// StructuredChange is the typed, queryable representation of everything
// semantically relevant in one file's diff. Produced once per FileDiff by an
// Analyzer and immutable thereafter.
type StructuredChange struct {
	FilePath        string            `json:"file_path"`
	ChangeType      ChangeType        `json:"change_type"`
	Category        Category          `json:"category"`
	Language        string            `json:"language,omitempty"`
	Symbols         []ChangedSymbol   `json:"symbols,omitempty"`
	Endpoints       []ChangedEndpoint `json:"endpoints,omitempty"`
	Configs         []ConfigChange    `json:"configs,omitempty"`
	Migrations      []MigrationChange `json:"migrations,omitempty"`
	BreakingChanges []string          `json:"breaking_changes,omitempty"`
	NewFeatures     []string          `json:"new_features,omitempty"`
	BehaviorChanges []string          `json:"behavior_changes,omitempty"`
	DiffLines       []string          `json:"diff_lines,omitempty"`
	ImpactScore     float64           `json:"impact_score"` // In [0,1]
}

// PublicSymbols returns the public symbols in the change.
func (c StructuredChange) PublicSymbols() []ChangedSymbol {
	var out []ChangedSymbol
	for _, s := range c.Symbols {
		if s.IsPublic {
			out = append(out, s)
		}
	}
	return out
}

// HasPublicSymbol reports whether any public symbol of the given kinds was
// added or modified. With no kinds, any kind matches.
func (c StructuredChange) HasPublicSymbol(kinds ...SymbolKind) bool {
	for _, s := range c.Symbols {
		if !s.IsPublic {
			continue
		}
		if len(kinds) == 0 {
			return true
		}
		for _, k := range kinds {
			if s.Kind == k {
				return true
			}
		}
	}
	return false
}
