// Package docsync provides domain types for turning version-control diffs
// into documentation patches.
package docsync

import "io"

// Diff represents a complete diff containing one or more file changes.
type Diff struct {
	Files []FileDiff
}

// FileDiff represents changes to a single file.
type FileDiff struct {
	Path      string    // "b/" path with prefix stripped, or old path for deletions
	OldPath   string    // Previous path for renames, empty otherwise
	Operation FileOp    // Added, Deleted, Modified, Renamed
	Lines     []string  // Raw lines of the file's diff section
	Added     []LineRef // "+" content lines, excluding the "+++" marker
	Removed   []LineRef // "-" content lines, excluding the "---" marker
	Hunks     []Hunk
}

// Stats returns the number of added and removed content lines in the file.
func (f FileDiff) Stats() (added, removed int) {
	return len(f.Added), len(f.Removed)
}

// FileOp represents the type of operation performed on a file.
type FileOp int

// File operation types.
const (
	FileModified FileOp = iota
	FileAdded
	FileDeleted
	FileRenamed
)

// String returns the lowercase name of the operation.
func (op FileOp) String() string {
	switch op {
	case FileAdded:
		return "added"
	case FileDeleted:
		return "deleted"
	case FileRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// Hunk represents a contiguous block of changes within a file.
type Hunk struct {
	OldStart int // From @@ -X,...
	OldCount int // From @@ -X,Y ... (defaults to 1 when omitted)
	NewStart int // From @@ ...,+X
	NewCount int // From @@ ...,+X,Y (defaults to 1 when omitted)
	Lines    []string
}

// LineRef pairs diff line content with an approximate line number.
//
// The number is derived from the enclosing hunk's declared new-file start
// plus the number of lines recorded in that hunk so far. It is a heuristic,
// not an exact post-application line number; consumers treat symbol line
// ranges built from it as approximate.
type LineRef struct {
	Line    int
	Content string
}

// Parser parses unified diff content into a structured Diff.
//
// Parsing is best-effort: sections or hunks that cannot be parsed are
// omitted from the structured result rather than failing the whole parse.
type Parser interface {
	Parse(r io.Reader) (*Diff, error)
}

// Analyzer turns parsed file diffs into structured changes.
//
// Analysis is pure and per-file independent: AnalyzeFile never fails and
// files may be analyzed in any order or in parallel.
type Analyzer interface {
	Analyze(diff *Diff) []StructuredChange
	AnalyzeFile(fd FileDiff) StructuredChange
}

// LanguageDetector identifies the programming language of a file path.
type LanguageDetector interface {
	// DetectFromPath returns the language name for the given path,
	// or an empty string if the language cannot be determined.
	DetectFromPath(path string) string
}
