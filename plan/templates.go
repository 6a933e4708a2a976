package plan

// Templates holds the markdown skeletons that seed each kind of task's
// content. They are placeholder prose for the external content generator,
// never rendered by the planner itself. Constructed explicitly so callers
// can substitute their own set.
type Templates struct {
	APIReference       string
	ConfigReference    string
	UpgradeGuide       string
	MigrationGuide     string
	FeatureGuide       string
	ChangelogEntry     string
	ArchitectureUpdate string
}

// NewTemplates returns the default template set.
func NewTemplates() Templates {
	return Templates{
		APIReference: `## {title}

{description}

### Signature

` + "```" + `
{signature}
` + "```" + `

### Parameters

{parameters}

### Returns

{returns}

### Example

{example}
`,
		ConfigReference: `## {title}

{description}

| Key | Default | Description |
|-----|---------|-------------|
{config_rows}
`,
		UpgradeGuide: `## Upgrading

{description}

### What changed

{breaking_changes}

### Migration steps

{steps}
`,
		MigrationGuide: `## Migration {version}

{description}

### Affected tables

{tables}

### Operations

{operations}

### Rollback

{rollback}
`,
		FeatureGuide: `## {title}

{description}

### Getting started

{getting_started}

### Usage

{usage}
`,
		ChangelogEntry: `- {summary} ({file_path})
`,
		ArchitectureUpdate: `## {title}

{description}

### Components

{components}
`,
	}
}
