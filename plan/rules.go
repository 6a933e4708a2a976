package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/docsync"
)

// Rule maps change characteristics to a documentation task. Rules are
// declarative data: an ordered table of predicate, factory, priority and
// confidence weight, built once at planner construction and inspectable
// afterwards.
type Rule struct {
	Name               string
	Condition          func(change docsync.StructuredChange) bool
	Build              func(change docsync.StructuredChange) (docsync.DocumentationTask, error)
	Priority           int     // Base priority, 1-10
	ConfidenceModifier float64 // Additive, may be negative
}

// defaultRules returns the standard rule table in evaluation order.
func defaultRules(t Templates) []Rule {
	return []Rule{
		{
			Name: "new_public_function",
			Condition: func(c docsync.StructuredChange) bool {
				return c.HasPublicSymbol(docsync.SymbolFunction, docsync.SymbolAsyncFunction)
			},
			Build:              buildFunctionReference(t),
			Priority:           7,
			ConfidenceModifier: 0.1,
		},
		{
			Name: "endpoint_change",
			Condition: func(c docsync.StructuredChange) bool {
				return len(c.Endpoints) > 0
			},
			Build:              buildEndpointReference(t),
			Priority:           9,
			ConfidenceModifier: 0.2,
		},
		{
			Name: "config_change",
			Condition: func(c docsync.StructuredChange) bool {
				return len(c.Configs) > 0
			},
			Build:              buildConfigReference(t),
			Priority:           6,
			ConfidenceModifier: 0.15,
		},
		{
			Name: "breaking_change",
			Condition: func(c docsync.StructuredChange) bool {
				return len(c.BreakingChanges) > 0
			},
			Build:              buildUpgradeGuide(t),
			Priority:           10,
			ConfidenceModifier: 0.25,
		},
		{
			Name: "migration",
			Condition: func(c docsync.StructuredChange) bool {
				return len(c.Migrations) > 0
			},
			Build:              buildMigrationGuide(t),
			Priority:           8,
			ConfidenceModifier: 0.2,
		},
		{
			Name: "new_feature",
			Condition: func(c docsync.StructuredChange) bool {
				return len(c.NewFeatures) > 0 && len(c.BreakingChanges) == 0
			},
			Build:              buildFeatureGuide(t),
			Priority:           7,
			ConfidenceModifier: 0.1,
		},
		{
			Name: "public_class",
			Condition: func(c docsync.StructuredChange) bool {
				return c.HasPublicSymbol(docsync.SymbolClass)
			},
			Build:              buildArchitectureUpdate(t),
			Priority:           5,
			ConfidenceModifier: 0.05,
		},
		{
			Name: "notable_change",
			Condition: func(c docsync.StructuredChange) bool {
				return c.ImpactScore > 0.3
			},
			Build:              buildChangelogEntry(t),
			Priority:           4,
			ConfidenceModifier: 0.3,
		},
	}
}

func buildFunctionReference(t Templates) func(docsync.StructuredChange) (docsync.DocumentationTask, error) {
	return func(c docsync.StructuredChange) (docsync.DocumentationTask, error) {
		var funcs []docsync.ChangedSymbol
		for _, sym := range c.Symbols {
			if sym.IsPublic && (sym.Kind == docsync.SymbolFunction || sym.Kind == docsync.SymbolAsyncFunction) {
				funcs = append(funcs, sym)
			}
		}
		if len(funcs) == 0 {
			return docsync.DocumentationTask{}, errors.New("no public functions to document")
		}

		names := make([]string, len(funcs))
		for i, f := range funcs {
			names[i] = f.Name
		}

		return docsync.DocumentationTask{
			Type:            docsync.TaskAPIReference,
			TargetSection:   docsync.SectionAPIDocs,
			Title:           fmt.Sprintf("Document %s in %s", joinNames(names), c.FilePath),
			Description:     fmt.Sprintf("Public functions changed in %s: %s", c.FilePath, strings.Join(names, ", ")),
			ContentTemplate: t.APIReference,
			Metadata:        docsync.TaskMetadata{Functions: funcs},
			SuggestedFiles:  suggestedFiles(docsync.SectionAPIDocs),
		}, nil
	}
}

func buildEndpointReference(t Templates) func(docsync.StructuredChange) (docsync.DocumentationTask, error) {
	return func(c docsync.StructuredChange) (docsync.DocumentationTask, error) {
		if len(c.Endpoints) == 0 {
			return docsync.DocumentationTask{}, errors.New("no endpoints to document")
		}

		routes := make([]string, len(c.Endpoints))
		for i, ep := range c.Endpoints {
			routes[i] = ep.Method + " " + ep.Path
		}

		return docsync.DocumentationTask{
			Type:            docsync.TaskAPIReference,
			TargetSection:   docsync.SectionAPIDocs,
			Title:           fmt.Sprintf("Update API reference for %s", c.FilePath),
			Description:     "Endpoints changed: " + strings.Join(routes, ", "),
			ContentTemplate: t.APIReference,
			Metadata:        docsync.TaskMetadata{Endpoints: c.Endpoints},
			SuggestedFiles:  suggestedFiles(docsync.SectionAPIDocs),
		}, nil
	}
}

func buildConfigReference(t Templates) func(docsync.StructuredChange) (docsync.DocumentationTask, error) {
	return func(c docsync.StructuredChange) (docsync.DocumentationTask, error) {
		if len(c.Configs) == 0 {
			return docsync.DocumentationTask{}, errors.New("no config changes to document")
		}

		keys := make([]string, len(c.Configs))
		for i, cc := range c.Configs {
			keys[i] = cc.Key
		}

		return docsync.DocumentationTask{
			Type:            docsync.TaskConfigReference,
			TargetSection:   docsync.SectionConfiguration,
			Title:           fmt.Sprintf("Update configuration reference for %s", c.FilePath),
			Description:     "Configuration keys changed: " + strings.Join(keys, ", "),
			ContentTemplate: t.ConfigReference,
			Metadata:        docsync.TaskMetadata{Configs: c.Configs},
			SuggestedFiles:  suggestedFiles(docsync.SectionConfiguration),
		}, nil
	}
}

func buildUpgradeGuide(t Templates) func(docsync.StructuredChange) (docsync.DocumentationTask, error) {
	return func(c docsync.StructuredChange) (docsync.DocumentationTask, error) {
		if len(c.BreakingChanges) == 0 {
			return docsync.DocumentationTask{}, errors.New("no breaking changes to document")
		}

		return docsync.DocumentationTask{
			Type:            docsync.TaskUpgradeGuide,
			TargetSection:   docsync.SectionMigration,
			Title:           fmt.Sprintf("Document breaking changes in %s", c.FilePath),
			Description:     fmt.Sprintf("%d breaking change(s) detected in %s", len(c.BreakingChanges), c.FilePath),
			ContentTemplate: t.UpgradeGuide,
			Metadata:        docsync.TaskMetadata{Breaking: c.BreakingChanges},
			SuggestedFiles:  suggestedFiles(docsync.SectionMigration),
		}, nil
	}
}

func buildMigrationGuide(t Templates) func(docsync.StructuredChange) (docsync.DocumentationTask, error) {
	return func(c docsync.StructuredChange) (docsync.DocumentationTask, error) {
		if len(c.Migrations) == 0 {
			return docsync.DocumentationTask{}, errors.New("no migrations to document")
		}

		versions := make([]string, len(c.Migrations))
		for i, m := range c.Migrations {
			versions[i] = m.Version
		}

		return docsync.DocumentationTask{
			Type:            docsync.TaskMigrationGuide,
			TargetSection:   docsync.SectionMigration,
			Title:           fmt.Sprintf("Document database migration %s", strings.Join(versions, ", ")),
			Description:     fmt.Sprintf("Schema changes in %s", c.FilePath),
			ContentTemplate: t.MigrationGuide,
			Metadata:        docsync.TaskMetadata{Migrations: c.Migrations},
			SuggestedFiles:  suggestedFiles(docsync.SectionMigration),
		}, nil
	}
}

func buildFeatureGuide(t Templates) func(docsync.StructuredChange) (docsync.DocumentationTask, error) {
	return func(c docsync.StructuredChange) (docsync.DocumentationTask, error) {
		if len(c.NewFeatures) == 0 {
			return docsync.DocumentationTask{}, errors.New("no new features to document")
		}

		return docsync.DocumentationTask{
			Type:            docsync.TaskFeatureGuide,
			TargetSection:   docsync.SectionTutorials,
			Title:           fmt.Sprintf("Write a guide for new functionality in %s", c.FilePath),
			Description:     strings.Join(c.NewFeatures, "; "),
			ContentTemplate: t.FeatureGuide,
			Metadata:        docsync.TaskMetadata{Features: c.NewFeatures},
			SuggestedFiles:  suggestedFiles(docsync.SectionTutorials),
		}, nil
	}
}

func buildArchitectureUpdate(t Templates) func(docsync.StructuredChange) (docsync.DocumentationTask, error) {
	return func(c docsync.StructuredChange) (docsync.DocumentationTask, error) {
		var classes []docsync.ChangedSymbol
		for _, sym := range c.Symbols {
			if sym.IsPublic && sym.Kind == docsync.SymbolClass {
				classes = append(classes, sym)
			}
		}
		if len(classes) == 0 {
			return docsync.DocumentationTask{}, errors.New("no public classes to document")
		}

		names := make([]string, len(classes))
		for i, cl := range classes {
			names[i] = cl.Name
		}

		return docsync.DocumentationTask{
			Type:            docsync.TaskArchitectureUpdate,
			TargetSection:   docsync.SectionArchitecture,
			Title:           fmt.Sprintf("Update architecture docs for %s", joinNames(names)),
			Description:     fmt.Sprintf("Public classes changed in %s: %s", c.FilePath, strings.Join(names, ", ")),
			ContentTemplate: t.ArchitectureUpdate,
			Metadata:        docsync.TaskMetadata{Classes: classes},
			SuggestedFiles:  suggestedFiles(docsync.SectionArchitecture),
		}, nil
	}
}

func buildChangelogEntry(t Templates) func(docsync.StructuredChange) (docsync.DocumentationTask, error) {
	return func(c docsync.StructuredChange) (docsync.DocumentationTask, error) {
		subject := c.FilePath
		if c.Language != "" {
			subject = fmt.Sprintf("%s (%s)", c.FilePath, c.Language)
		}
		return docsync.DocumentationTask{
			Type:            docsync.TaskChangelogEntry,
			TargetSection:   docsync.SectionChangelog,
			Title:           fmt.Sprintf("Add changelog entry for %s", c.FilePath),
			Description:     fmt.Sprintf("%s change in %s (impact %.2f)", c.Category, subject, c.ImpactScore),
			ContentTemplate: t.ChangelogEntry,
			SuggestedFiles:  suggestedFiles(docsync.SectionChangelog),
		}, nil
	}
}

// suggestedFiles maps a target section to conventional documentation
// paths. An external TargetFileResolver may override these.
func suggestedFiles(section docsync.TargetSection) []string {
	switch section {
	case docsync.SectionAPIDocs:
		return []string{"docs/api/reference.md"}
	case docsync.SectionConfiguration:
		return []string{"docs/configuration.md"}
	case docsync.SectionMigration:
		return []string{"docs/upgrading.md"}
	case docsync.SectionTutorials:
		return []string{"docs/guides/index.md"}
	case docsync.SectionChangelog:
		return []string{"CHANGELOG.md"}
	case docsync.SectionArchitecture:
		return []string{"docs/architecture.md"}
	default:
		return nil
	}
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return fmt.Sprintf("%s and %d others", names[0], len(names)-1)
	}
}
