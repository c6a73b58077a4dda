package locator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	vcerrors "vulnctx/internal/errors"
	"vulnctx/internal/lang"
	"vulnctx/internal/paths"
)

// defaultCacheSize bounds the number of per-file indexes held in memory.
const defaultCacheSize = 512

// Capability indexes source of one language into method descriptors.
// New languages are supported by registering a new Capability, not by
// subclassing anything.
type Capability interface {
	Index(ctx context.Context, path string, source []byte) ([]MethodDescriptor, error)
}

// Registry maps languages to their indexing capability.
type Registry struct {
	byLanguage map[lang.Language]Capability
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{byLanguage: map[lang.Language]Capability{}}
}

// Register installs a capability for a language, replacing any previous one.
func (r *Registry) Register(l lang.Language, c Capability) {
	r.byLanguage[l] = c
}

// Lookup returns the capability for a language.
func (r *Registry) Lookup(l lang.Language) (Capability, bool) {
	c, ok := r.byLanguage[l]
	return c, ok
}

// indexEntry is what the cache holds per file: the sorted descriptors
// plus the degradation error, if indexing failed.
type indexEntry struct {
	methods []MethodDescriptor
	err     error
}

// Locator resolves (file, line) pairs to enclosing methods. The file
// index cache is owned by the Locator instance and shared read-only
// across lookups, so one Locator can serve a whole batch.
type Locator struct {
	repoRoot string
	registry *Registry
	cache    *lru.Cache[string, indexEntry]
	logger   *slog.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) { l.logger = logger }
}

// WithRegistry replaces the default capability registry.
func WithRegistry(r *Registry) Option {
	return func(l *Locator) { l.registry = r }
}

// WithCacheSize overrides the index cache capacity.
func WithCacheSize(n int) Option {
	return func(l *Locator) {
		if cache, err := lru.New[string, indexEntry](n); err == nil {
			l.cache = cache
		}
	}
}

// New creates a Locator for the repository at repoRoot. The default
// registry carries a tree-sitter capability for every supported
// language; without CGO the registry is empty and every lookup
// degrades to "no enclosing method".
func New(repoRoot string, opts ...Option) *Locator {
	cache, _ := lru.New[string, indexEntry](defaultCacheSize)
	l := &Locator{
		repoRoot: repoRoot,
		registry: DefaultRegistry(),
		cache:    cache,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IndexFile parses and indexes one file, returning its methods sorted
// by start line. Results are cached per file; a parse failure yields an
// empty index and an UnparsableFile error so callers can degrade to
// fixed-width windows while still reporting the condition.
func (l *Locator) IndexFile(ctx context.Context, file string) ([]MethodDescriptor, error) {
	key := paths.Normalize(file)
	if entry, ok := l.cache.Get(key); ok {
		return entry.methods, entry.err
	}

	entry := l.buildIndex(ctx, key)
	l.cache.Add(key, entry)
	return entry.methods, entry.err
}

// FindMethodForLine returns the innermost method containing the given
// 1-based line, or false when the line is top-level, the file is
// unparsable, or its language has no registered capability.
func (l *Locator) FindMethodForLine(ctx context.Context, file string, line int) (MethodDescriptor, bool) {
	if line < 1 {
		return MethodDescriptor{}, false
	}
	methods, err := l.IndexFile(ctx, file)
	if err != nil || len(methods) == 0 {
		return MethodDescriptor{}, false
	}
	return innermost(methods, line)
}

func (l *Locator) buildIndex(ctx context.Context, file string) indexEntry {
	ext := strings.ToLower(filepath.Ext(file))
	language, ok := lang.FromExtension(ext)
	if !ok {
		return indexEntry{err: vcerrors.Newf(vcerrors.UnsupportedLanguage,
			"no language for extension %q", ext)}
	}

	capability, ok := l.registry.Lookup(language)
	if !ok {
		l.logger.Warn("no indexer registered, degrading to line windows",
			"file", file, "language", string(language))
		return indexEntry{err: vcerrors.Newf(vcerrors.UnsupportedLanguage,
			"no indexer registered for %s", language)}
	}

	source, err := os.ReadFile(paths.JoinRepo(l.repoRoot, file))
	if err != nil {
		l.logger.Warn("cannot read file for indexing", "file", file, "error", err)
		return indexEntry{err: vcerrors.New(vcerrors.UnparsableFile,
			"cannot read "+file, err)}
	}

	methods, err := capability.Index(ctx, file, source)
	if err != nil {
		l.logger.Warn("structural indexing failed, degrading to line windows",
			"file", file, "error", err)
		return indexEntry{err: vcerrors.New(vcerrors.UnparsableFile,
			"cannot index "+file, err)}
	}

	sortDescriptors(methods)
	return indexEntry{methods: methods}
}
