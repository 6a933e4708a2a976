package analyze

import "regexp"

// Extraction is heuristic by design: compiled regular expressions over diff
// lines, not a per-language parser. A stricter implementation can swap in a
// real parser behind the same Analyzer contract.
var (
	funcRe      = regexp.MustCompile(`^\s*(async\s+)?def\s+([A-Za-z_]\w*)\s*\(([^)]*)\)`)
	classRe     = regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*:`)
	endpointRe  = regexp.MustCompile(`^\s*@(?:app|router)\.(get|post|put|delete|patch|head|options)\(\s*["']([^"']+)["']`)
	configRe    = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.]*)\s*=\s*(.+?)\s*$`)
	migrationRe = regexp.MustCompile(`(?i)(create|alter|drop)_(table|column|index)\(\s*["']([A-Za-z0-9_]+)["']`)
	versionRe   = regexp.MustCompile(`^(\d+)_(\w+)`)
	envFileRe   = regexp.MustCompile(`^\.env\.(\w+)$`)
)

// codeExtensions gates symbol extraction to source files.
var codeExtensions = map[string]bool{
	".py":  true,
	".js":  true,
	".ts":  true,
	".jsx": true,
	".tsx": true,
	".java": true,
	".go":  true,
	".rs":  true,
	".cpp": true,
	".c":   true,
	".h":   true,
	".hpp": true,
	".cs":  true,
	".rb":  true,
}

// configExtensions gates config-change extraction.
var configExtensions = map[string]bool{
	".env":  true,
	".ini":  true,
	".cfg":  true,
	".yaml": true,
	".yml":  true,
	".json": true,
	".toml": true,
}

// breakingIndicators flag a line as describing a breaking change,
// case-insensitively.
var breakingIndicators = []string{
	"breaking",
	"incompatible",
	"removed",
	"deprecated",
	"changed signature",
	"no longer supported",
}

// docExtensions gates the documentation category.
var docExtensions = map[string]bool{
	".md":  true,
	".rst": true,
	".txt": true,
}

// bugFixIndicators flag a change as a bug fix when nothing stronger
// categorizes it.
var bugFixIndicators = []string{"fix", "bug", "issue #"}
