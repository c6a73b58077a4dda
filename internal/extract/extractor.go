package extract

import (
	"context"
	"log/slog"
	"os"

	vcerrors "vulnctx/internal/errors"
	"vulnctx/internal/locator"
	"vulnctx/internal/logging"
	"vulnctx/internal/paths"
	"vulnctx/internal/trace"
	"vulnctx/internal/vuln"
)

// Extractor runs the full pipeline for one vulnerability: trace
// building, intra- and inter-procedural segment extraction, merging,
// and budgeting. It is safe for concurrent use; the only shared state
// is the locator's read-mostly index cache.
type Extractor struct {
	repoRoot string
	locator  *locator.Locator
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the extraction logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New creates an Extractor over the repository at repoRoot, resolving
// methods through loc. Pass the same locator to every extractor in a
// batch to share its file-index cache.
func New(repoRoot string, loc *locator.Locator, opts ...Option) *Extractor {
	e := &Extractor{
		repoRoot: repoRoot,
		locator:  loc,
		logger:   logging.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the extracted, budgeted context for one vulnerability.
type Result struct {
	// Segments is sorted by file then start line; within a file the
	// ranges are pairwise disjoint with at least a one-line gap.
	Segments []Segment `json:"segments"`

	// Truncated flags the BudgetUnsatisfiable condition: must-keep
	// content alone exceeded MaxLines and was returned in full anyway.
	Truncated bool `json:"truncated,omitempty"`

	// DegradedFiles lists files whose structural index could not be
	// built; their trace points got fixed-width line windows instead of
	// method-bounded segments.
	DegradedFiles []string `json:"degradedFiles,omitempty"`

	// TotalLines is the summed size of all segments.
	TotalLines int `json:"totalLines"`
}

// ExtractContext is the extractor's main entry point: a pure function
// of (vulnerability, repo snapshot, budget) apart from file reads.
func (e *Extractor) ExtractContext(ctx context.Context, v *vuln.VulnerabilityInfo, budget Budget) (*Result, error) {
	v.Normalize()
	if err := v.Validate(); err != nil {
		return nil, err
	}

	if err := e.preflight(v); err != nil {
		return nil, err
	}

	points, err := trace.Build(ctx, v, e.locator)
	if err != nil {
		return nil, err
	}

	var degraded []string
	for _, file := range v.Files() {
		if _, err := e.locator.IndexFile(ctx, file); vcerrors.IsUnparsable(err) {
			degraded = append(degraded, file)
		}
	}

	segments := ExtractIntra(points, budget.Padding)
	segments = append(segments, ExtractInter(points, budget.CallsiteWindow)...)
	merged := Merge(segments)

	budgeted, truncated := ApplyBudget(merged, budget.MaxLines)
	if truncated {
		e.logger.Warn("budget unsatisfiable, returning must-keep content in full",
			"maxLines", budget.MaxLines, "totalLines", TotalLines(budgeted))
	}

	if len(budgeted) == 0 {
		return nil, vcerrors.Newf(vcerrors.EmptyContext, "extraction produced no segments")
	}

	return &Result{
		Segments:      budgeted,
		Truncated:     truncated,
		DegradedFiles: degraded,
		TotalLines:    TotalLines(budgeted),
	}, nil
}

// preflight verifies every referenced file is present and readable
// before any segment is built, so a missing file fails the whole
// vulnerability instead of producing partial context.
func (e *Extractor) preflight(v *vuln.VulnerabilityInfo) error {
	var missing, unreadable []string

	for _, file := range v.Files() {
		abs := paths.JoinRepo(e.repoRoot, file)
		info, err := os.Stat(abs)
		if err != nil {
			missing = append(missing, file)
			continue
		}
		if info.IsDir() {
			unreadable = append(unreadable, file)
			continue
		}
		f, err := os.Open(abs)
		if err != nil {
			unreadable = append(unreadable, file)
			continue
		}
		f.Close()
	}

	if len(missing) > 0 || len(unreadable) > 0 {
		return vcerrors.Newf(vcerrors.RepoUnreadable,
			"referenced source files are not accessible (%d missing, %d unreadable)",
			len(missing), len(unreadable)).
			WithDetails(map[string][]string{
				"missing":    missing,
				"unreadable": unreadable,
			})
	}
	return nil
}
