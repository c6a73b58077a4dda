//go:build !cgo

package locator

// DefaultRegistry returns an empty registry when CGO is disabled.
// Every lookup then degrades to "no enclosing method" and extraction
// falls back to fixed-width line windows.
func DefaultRegistry() *Registry {
	return NewRegistry()
}
