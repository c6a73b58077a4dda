//go:build !cgo

package lang

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when parsing is unavailable due to missing CGO.
var ErrNoCGO = errors.New("structural parsing requires CGO (tree-sitter)")

// Parser wraps tree-sitter parsing functionality.
// This is a stub implementation for non-CGO builds.
type Parser struct{}

// NewParser creates a new tree-sitter parser.
// Returns nil when CGO is disabled.
func NewParser() *Parser {
	return nil
}

// Parse parses source code and returns the AST root node.
// Stub implementation returns an error.
func (p *Parser) Parse(ctx context.Context, source []byte, lang Language) (interface{}, error) {
	return nil, ErrNoCGO
}

// IsAvailable returns whether tree-sitter parsing is available.
// Returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}
