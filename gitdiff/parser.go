// Package gitdiff implements diff parsing using bluekeyes/go-gitdiff.
package gitdiff

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/fwojciec/docsync"
)

// Compile-time interface verification.
var _ docsync.Parser = (*Parser)(nil)

var (
	headerRe = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkRe   = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// Parser parses unified diff content using go-gitdiff.
//
// Input is split into per-file sections first, so a section go-gitdiff
// rejects degrades to a lenient line scan of that section instead of
// failing the whole parse. Sections with no recognizable header are
// dropped.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads diff content and returns the parsed result, one FileDiff per
// "diff --git" section in source order.
func (p *Parser) Parse(r io.Reader) (*docsync.Diff, error) {
	sections, err := splitSections(r)
	if err != nil {
		return nil, err
	}

	result := &docsync.Diff{
		Files: make([]docsync.FileDiff, 0, len(sections)),
	}

	for _, section := range sections {
		fd, ok := parseSection(section)
		if !ok {
			continue
		}
		result.Files = append(result.Files, fd)
	}

	return result, nil
}

// ParseString is a convenience wrapper over Parse.
func (p *Parser) ParseString(diffText string) (*docsync.Diff, error) {
	return p.Parse(strings.NewReader(diffText))
}

// splitSections groups input lines by "diff --git" header. Content before
// the first header (commit metadata, mail headers) is ignored.
func splitSections(r io.Reader) ([][]string, error) {
	var sections [][]string
	var current []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "diff --git ") {
			if current != nil {
				sections = append(sections, current)
			}
			current = []string{line}
			continue
		}
		if current != nil {
			current = append(current, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		sections = append(sections, current)
	}

	return sections, nil
}

func parseSection(lines []string) (docsync.FileDiff, bool) {
	text := strings.Join(lines, "\n") + "\n"

	// go-gitdiff stops at a malformed hunk header without erroring, leaving
	// a fragment-less file; only trust its result when it consumed the
	// section's content lines.
	files, _, err := gitdiff.Parse(strings.NewReader(text))
	if err == nil && len(files) == 1 {
		f := files[0]
		if len(f.TextFragments) > 0 || f.IsBinary || !hasContentLines(lines) {
			return convertFile(f, lines), true
		}
	}

	return scanSection(lines)
}

// hasContentLines reports whether the section carries hunk headers or +/-
// content lines beyond the file markers.
func hasContentLines(lines []string) bool {
	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, "@@"):
			return true
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"), strings.HasPrefix(line, "-"):
			return true
		}
	}
	return false
}

func convertFile(f *gitdiff.File, raw []string) docsync.FileDiff {
	fd := docsync.FileDiff{
		Path:  f.NewName,
		Lines: raw,
	}
	if fd.Path == "" {
		fd.Path = f.OldName
	}

	switch {
	case f.IsNew:
		fd.Operation = docsync.FileAdded
	case f.IsDelete:
		fd.Operation = docsync.FileDeleted
	case f.IsRename:
		fd.Operation = docsync.FileRenamed
		fd.OldPath = f.OldName
	default:
		fd.Operation = docsync.FileModified
	}

	fd.Hunks = make([]docsync.Hunk, 0, len(f.TextFragments))
	for _, frag := range f.TextFragments {
		hunk := docsync.Hunk{
			OldStart: int(frag.OldPosition),
			OldCount: int(frag.OldLines),
			NewStart: int(frag.NewPosition),
			NewCount: int(frag.NewLines),
		}

		for i, l := range frag.Lines {
			content := strings.TrimSuffix(l.Line, "\n")
			// Approximate line number: hunk start plus lines recorded in
			// the hunk so far. Intentionally not an exact post-application
			// number.
			approx := int(frag.NewPosition) + i

			switch l.Op {
			case gitdiff.OpAdd:
				hunk.Lines = append(hunk.Lines, "+"+content)
				fd.Added = append(fd.Added, docsync.LineRef{Line: approx, Content: content})
			case gitdiff.OpDelete:
				hunk.Lines = append(hunk.Lines, "-"+content)
				fd.Removed = append(fd.Removed, docsync.LineRef{Line: approx, Content: content})
			default:
				hunk.Lines = append(hunk.Lines, " "+content)
			}
		}

		fd.Hunks = append(fd.Hunks, hunk)
	}

	return fd
}

// scanSection is the lenient fallback for sections go-gitdiff rejects.
// Malformed hunk headers are skipped; their content lines still land in
// Added/Removed so no +/- line is lost.
func scanSection(lines []string) (docsync.FileDiff, bool) {
	if len(lines) == 0 {
		return docsync.FileDiff{}, false
	}

	m := headerRe.FindStringSubmatch(lines[0])
	if m == nil {
		return docsync.FileDiff{}, false
	}

	fd := docsync.FileDiff{
		Path:  m[2],
		Lines: lines,
	}
	oldPath := m[1]

	var hunk *docsync.Hunk
	flush := func() {
		if hunk != nil {
			fd.Hunks = append(fd.Hunks, *hunk)
			hunk = nil
		}
	}

	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, "new file mode"):
			fd.Operation = docsync.FileAdded
		case strings.HasPrefix(line, "deleted file mode"):
			fd.Operation = docsync.FileDeleted
		case strings.HasPrefix(line, "rename from "):
			fd.Operation = docsync.FileRenamed
			fd.OldPath = strings.TrimPrefix(line, "rename from ")
		case strings.HasPrefix(line, "@@"):
			flush()
			if hm := hunkRe.FindStringSubmatch(line); hm != nil {
				hunk = &docsync.Hunk{
					OldStart: atoi(hm[1], 0),
					OldCount: atoi(hm[2], 1),
					NewStart: atoi(hm[3], 0),
					NewCount: atoi(hm[4], 1),
				}
			}
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// File markers, not content.
		case strings.HasPrefix(line, "+"):
			fd.Added = append(fd.Added, docsync.LineRef{Line: approxLine(hunk), Content: line[1:]})
			record(hunk, line)
		case strings.HasPrefix(line, "-"):
			fd.Removed = append(fd.Removed, docsync.LineRef{Line: approxLine(hunk), Content: line[1:]})
			record(hunk, line)
		default:
			record(hunk, line)
		}
	}
	flush()

	if fd.Operation == docsync.FileRenamed && fd.OldPath == "" {
		fd.OldPath = oldPath
	}

	return fd, true
}

func approxLine(h *docsync.Hunk) int {
	if h == nil {
		return 0
	}
	return h.NewStart + len(h.Lines)
}

func record(h *docsync.Hunk, line string) {
	if h != nil {
		h.Lines = append(h.Lines, line)
	}
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
