// Package plan implements the rule engine that maps structured changes to
// documentation tasks.
package plan

import (
	"log/slog"
	"math"
	"sort"

	"github.com/fwojciec/docsync"
)

// Compile-time interface verification.
var _ docsync.Planner = (*Planner)(nil)

// Planner evaluates an ordered rule table against structured changes and
// emits deduplicated, priority-ordered documentation tasks.
type Planner struct {
	// Logger receives skipped-rule warnings. Defaults to slog.Default().
	Logger *slog.Logger

	rules []Rule
	calc  *ConfidenceCalculator
}

// NewPlanner creates a Planner with the default rule table and templates.
func NewPlanner() *Planner {
	return NewPlannerWithRules(defaultRules(NewTemplates()))
}

// NewPlannerWithRules creates a Planner with a caller-supplied rule table,
// evaluated in the given order.
func NewPlannerWithRules(rules []Rule) *Planner {
	return &Planner{
		rules: rules,
		calc:  NewConfidenceCalculator(),
	}
}

// Rules returns the rule table in evaluation order.
func (p *Planner) Rules() []Rule {
	return p.rules
}

// Plan evaluates every rule against every change. Each matching rule fires
// independently, so one change may yield several tasks; tasks sharing
// (type, section, file path) are then deduplicated keeping the higher
// confidence, and the result is ordered by priority then confidence,
// descending. Deterministic for a given input.
func (p *Planner) Plan(changes []docsync.StructuredChange) []docsync.DocumentationTask {
	var tasks []docsync.DocumentationTask

	for i := range changes {
		change := changes[i]
		for _, rule := range p.rules {
			if !rule.Condition(change) {
				continue
			}

			task, err := rule.Build(change)
			if err != nil {
				// An individual rule failure never aborts planning for the
				// remaining rules or changes.
				p.logger().Warn("rule skipped",
					"rule", rule.Name,
					"file", change.FilePath,
					"error", err)
				continue
			}

			task.SourceChange = &changes[i]
			task.Confidence = clamp01(p.calc.Calculate(change, task) + rule.ConfidenceModifier)
			task.AutoGenerate = task.Confidence >= 0.8
			task.Priority = boundedPriority(rule.Priority, change.ImpactScore)

			tasks = append(tasks, task)
		}
	}

	tasks = dedupe(tasks)

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority > tasks[j].Priority
		}
		return tasks[i].Confidence > tasks[j].Confidence
	})

	return tasks
}

func (p *Planner) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// boundedPriority raises the rule's base priority with the change's impact,
// capped at 10.
func boundedPriority(base int, impact float64) int {
	return min(10, base+int(math.Round(impact*3)))
}

type dedupeKey struct {
	taskType docsync.TaskType
	section  docsync.TargetSection
	filePath string
}

// dedupe merges tasks sharing (type, section, file path), keeping the one
// with strictly higher confidence. First occurrence wins ties, preserving
// rule order.
func dedupe(tasks []docsync.DocumentationTask) []docsync.DocumentationTask {
	index := make(map[dedupeKey]int, len(tasks))
	out := make([]docsync.DocumentationTask, 0, len(tasks))

	for _, task := range tasks {
		key := dedupeKey{task.Type, task.TargetSection, filePathOf(task)}
		if at, ok := index[key]; ok {
			if task.Confidence > out[at].Confidence {
				out[at] = task
			}
			continue
		}
		index[key] = len(out)
		out = append(out, task)
	}

	return out
}

func filePathOf(task docsync.DocumentationTask) string {
	if task.SourceChange == nil {
		return ""
	}
	return task.SourceChange.FilePath
}
