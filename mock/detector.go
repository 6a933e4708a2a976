package mock

import "github.com/fwojciec/docsync"

// Compile-time interface verification.
var _ docsync.LanguageDetector = (*LanguageDetector)(nil)

// LanguageDetector is a mock implementation of docsync.LanguageDetector.
type LanguageDetector struct {
	DetectFromPathFn func(path string) string
}

func (d *LanguageDetector) DetectFromPath(path string) string {
	return d.DetectFromPathFn(path)
}
