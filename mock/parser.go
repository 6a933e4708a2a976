// Package mock provides test doubles for docsync interfaces.
package mock

import (
	"io"

	"github.com/fwojciec/docsync"
)

// Compile-time interface verification.
var _ docsync.Parser = (*Parser)(nil)

// Parser is a mock implementation of docsync.Parser.
type Parser struct {
	ParseFn func(r io.Reader) (*docsync.Diff, error)
}

func (p *Parser) Parse(r io.Reader) (*docsync.Diff, error) {
	return p.ParseFn(r)
}
