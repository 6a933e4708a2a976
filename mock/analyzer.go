package mock

import "github.com/fwojciec/docsync"

// Compile-time interface verification.
var _ docsync.Analyzer = (*Analyzer)(nil)

// Analyzer is a mock implementation of docsync.Analyzer.
type Analyzer struct {
	AnalyzeFn     func(diff *docsync.Diff) []docsync.StructuredChange
	AnalyzeFileFn func(fd docsync.FileDiff) docsync.StructuredChange
}

func (a *Analyzer) Analyze(diff *docsync.Diff) []docsync.StructuredChange {
	return a.AnalyzeFn(diff)
}

func (a *Analyzer) AnalyzeFile(fd docsync.FileDiff) docsync.StructuredChange {
	return a.AnalyzeFileFn(fd)
}
