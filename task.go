package docsync

import "context"

// TaskType identifies the kind of documentation work a task calls for.
type TaskType string

// Task types.
const (
	TaskAPIReference       TaskType = "api_reference"
	TaskConfigReference    TaskType = "config_reference"
	TaskUpgradeGuide       TaskType = "upgrade_guide"
	TaskMigrationGuide     TaskType = "migration_guide"
	TaskFeatureGuide       TaskType = "feature_guide"
	TaskChangelogEntry     TaskType = "changelog_entry"
	TaskCodeExample        TaskType = "code_example"
	TaskArchitectureUpdate TaskType = "architecture_update"
	TaskTroubleshooting    TaskType = "troubleshooting"
	TaskReleaseNotes       TaskType = "release_notes"
)

// TargetSection identifies where in a documentation tree a task's output
// belongs.
type TargetSection string

// Target sections.
const (
	SectionAPIDocs         TargetSection = "api_docs"
	SectionConfiguration   TargetSection = "configuration"
	SectionMigration       TargetSection = "migration"
	SectionTutorials       TargetSection = "tutorials"
	SectionReference       TargetSection = "reference"
	SectionChangelog       TargetSection = "changelog"
	SectionExamples        TargetSection = "examples"
	SectionArchitecture    TargetSection = "architecture"
	SectionTroubleshooting TargetSection = "troubleshooting"
	SectionReleaseNotes    TargetSection = "release_notes"
)

// TaskMetadata carries category-specific payload for downstream content
// generation: the matched functions, endpoints or config keys a template's
// placeholders refer to.
type TaskMetadata struct {
	Functions  []ChangedSymbol   `json:"functions,omitempty"`
	Classes    []ChangedSymbol   `json:"classes,omitempty"`
	Endpoints  []ChangedEndpoint `json:"endpoints,omitempty"`
	Configs    []ConfigChange    `json:"configs,omitempty"`
	Migrations []MigrationChange `json:"migrations,omitempty"`
	Breaking   []string          `json:"breaking,omitempty"`
	Features   []string          `json:"features,omitempty"`
}

// DocumentationTask is one unit of documentation work derived from a
// structured change. Content is a placeholder skeleton; an external
// ContentGenerator fills it with real prose.
type DocumentationTask struct {
	Type            TaskType          `json:"type"`
	TargetSection   TargetSection     `json:"target_section"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	ContentTemplate string            `json:"content_template"`
	SourceChange    *StructuredChange `json:"source_change,omitempty"`
	Confidence      float64           `json:"confidence"` // In [0,1]
	Priority        int               `json:"priority"`   // In [1,10]
	AutoGenerate    bool              `json:"auto_generate"` // Confidence >= 0.8
	Metadata        TaskMetadata      `json:"metadata"`
	SuggestedFiles  []string          `json:"suggested_files,omitempty"`
}

// Planner evaluates structured changes and emits deduplicated, ordered
// documentation tasks. Plan is deterministic for a given input.
type Planner interface {
	Plan(changes []StructuredChange) []DocumentationTask
}

// ContentGenerator fills a task's content template with real prose. It is
// an external collaborator (typically an LLM call) invoked between planning
// and patching; the core only consumes its finished output.
type ContentGenerator interface {
	Generate(ctx context.Context, task DocumentationTask) (string, error)
}

// TargetCandidate is one possible target file for a task's patch.
type TargetCandidate struct {
	Path       string
	Confidence float64
}

// TargetFileResolver selects which file(s) a task's patch should target.
// Implementations are external (semantic search, repo conventions); the
// core accepts the chosen path as the patch's file path.
type TargetFileResolver interface {
	Resolve(ctx context.Context, task DocumentationTask) ([]TargetCandidate, error)
}

// Publisher pushes an applied patch set to a hosting system and returns a
// URL for the published change. External collaborator.
type Publisher interface {
	Publish(ctx context.Context, set *PatchSet) (string, error)
}
