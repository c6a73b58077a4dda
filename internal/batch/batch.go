// Package batch runs context extraction over many vulnerabilities in
// parallel. Runs share one read-mostly locator cache; a failure in one
// vulnerability skips it and never aborts the rest.
package batch

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	vcerrors "vulnctx/internal/errors"
	"vulnctx/internal/extract"
	"vulnctx/internal/logging"
	"vulnctx/internal/render"
	"vulnctx/internal/vuln"
)

// ResultEntry is one successfully extracted vulnerability context.
type ResultEntry struct {
	ID            string                   `json:"id"`
	VulnID        string                   `json:"vulnId"`
	RuleID        string                   `json:"ruleId,omitempty"`
	Rendered      string                   `json:"rendered"`
	Segments      []render.RenderedSegment `json:"segments"`
	TotalLines    int                      `json:"totalLines"`
	Truncated     bool                     `json:"truncated,omitempty"`
	DegradedFiles []string                 `json:"degradedFiles,omitempty"`
}

// SkippedEntry records a vulnerability the batch could not extract.
type SkippedEntry struct {
	VulnID string             `json:"vulnId"`
	Code   vcerrors.ErrorCode `json:"code"`
	Reason string             `json:"reason"`
}

// Report aggregates one batch run.
type Report struct {
	RunID   string         `json:"runId"`
	Results []ResultEntry  `json:"results"`
	Skipped []SkippedEntry `json:"skipped"`
}

// Runner executes extraction plus rendering per vulnerability.
type Runner struct {
	repoRoot  string
	extractor *extract.Extractor
	renderer  *render.Renderer
	budget    extract.Budget
	workers   int
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers caps the number of concurrent extractions.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the batch logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithRenderOptions overrides the render cleanup settings.
func WithRenderOptions(opts render.Options) Option {
	return func(r *Runner) { r.renderer = render.New(r.repoRoot, opts) }
}

// NewRunner creates a batch Runner. The extractor and renderer share
// repoRoot; pass one extractor per batch so its locator cache is reused
// across vulnerabilities.
func NewRunner(repoRoot string, extractor *extract.Extractor, budget extract.Budget, opts ...Option) *Runner {
	r := &Runner{
		repoRoot:  repoRoot,
		extractor: extractor,
		renderer:  render.New(repoRoot, render.DefaultOptions()),
		budget:    budget,
		workers:   runtime.NumCPU(),
		logger:    logging.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run extracts every vulnerability and returns the aggregated report.
// Result and skip order follows the input order regardless of worker
// scheduling. Only an unreadable repository root is fatal.
func (r *Runner) Run(ctx context.Context, vulns []vuln.VulnerabilityInfo) (*Report, error) {
	if info, err := os.Stat(r.repoRoot); err != nil || !info.IsDir() {
		return nil, vcerrors.New(vcerrors.RepoUnreadable, "repository root is not a readable directory: "+r.repoRoot, err)
	}

	type slot struct {
		result  *ResultEntry
		skipped *SkippedEntry
	}
	slots := make([]slot, len(vulns))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.workers)

	for i := range vulns {
		i := i
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			v := vulns[i]
			if v.ID == "" {
				v.ID = uuid.NewString()
			}

			entry, err := r.runOne(gctx, &v)
			if err != nil {
				r.logger.Warn("skipping vulnerability",
					"vulnId", v.ID, "code", string(vcerrors.CodeOf(err)), "error", err)
				slots[i].skipped = &SkippedEntry{
					VulnID: v.ID,
					Code:   vcerrors.CodeOf(err),
					Reason: err.Error(),
				}
				return nil
			}
			slots[i].result = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString()}
	for _, s := range slots {
		switch {
		case s.result != nil:
			report.Results = append(report.Results, *s.result)
		case s.skipped != nil:
			report.Skipped = append(report.Skipped, *s.skipped)
		}
	}

	r.logger.Info("batch complete",
		"runId", report.RunID,
		"results", len(report.Results),
		"skipped", len(report.Skipped))
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, v *vuln.VulnerabilityInfo) (*ResultEntry, error) {
	result, err := r.extractor.ExtractContext(ctx, v, r.budget)
	if err != nil {
		return nil, err
	}

	segments, err := r.renderer.RenderSegments(result.Segments)
	if err != nil {
		return nil, err
	}
	text, err := r.renderer.Render(result)
	if err != nil {
		return nil, err
	}

	return &ResultEntry{
		ID:            uuid.NewString(),
		VulnID:        v.ID,
		RuleID:        v.RuleID,
		Rendered:      text,
		Segments:      segments,
		TotalLines:    result.TotalLines,
		Truncated:     result.Truncated,
		DegradedFiles: result.DegradedFiles,
	}, nil
}
