package plan

import "github.com/fwojciec/docsync"

// categoryBase is the per-category starting confidence.
var categoryBase = map[docsync.Category]float64{
	docsync.CategoryAPIChange:      0.8,
	docsync.CategoryBreakingChange: 0.9,
	docsync.CategoryConfigChange:   0.75,
	docsync.CategoryMigration:      0.85,
	docsync.CategoryNewFeature:     0.7,
	docsync.CategoryDocumentation:  0.6,
	docsync.CategoryBugFix:         0.4,
	docsync.CategoryRefactor:       0.3,
	docsync.CategoryTest:           0.2,
	docsync.CategoryOther:          0.1,
}

// taskAdjustment nudges confidence by how mechanical each task type is to
// produce.
var taskAdjustment = map[docsync.TaskType]float64{
	docsync.TaskAPIReference:       0.05,
	docsync.TaskUpgradeGuide:       0.1,
	docsync.TaskMigrationGuide:     0.1,
	docsync.TaskChangelogEntry:     0.15,
	docsync.TaskConfigReference:    0.05,
	docsync.TaskCodeExample:        -0.05,
	docsync.TaskArchitectureUpdate: -0.1,
	docsync.TaskTroubleshooting:    -0.15,
	docsync.TaskReleaseNotes:       0.1,
	docsync.TaskFeatureGuide:       0.0,
}

// ConfidenceCalculator estimates how reliable an automatically planned task
// is, in [0,1].
type ConfidenceCalculator struct{}

// NewConfidenceCalculator creates a new ConfidenceCalculator.
func NewConfidenceCalculator() *ConfidenceCalculator {
	return &ConfidenceCalculator{}
}

// Calculate scores a task against its source change: category base, task
// type adjustment, a penalty growing with symbol count, bonuses for
// endpoint and config evidence, and a bonus for documented symbols.
func (c *ConfidenceCalculator) Calculate(change docsync.StructuredChange, task docsync.DocumentationTask) float64 {
	score, ok := categoryBase[change.Category]
	if !ok {
		score = 0.5
	}

	score += taskAdjustment[task.Type]
	score -= min(0.1, 0.02*float64(len(change.Symbols)))

	if len(change.Endpoints) > 0 {
		score += 0.1
	}
	if len(change.Configs) > 0 {
		score += 0.05
	}

	documented := 0
	for _, sym := range change.Symbols {
		if sym.Docstring != "" {
			documented++
		}
	}
	score += min(0.1, 0.03*float64(documented))

	return clamp01(score)
}

func clamp01(v float64) float64 {
	return min(1.0, max(0.0, v))
}
