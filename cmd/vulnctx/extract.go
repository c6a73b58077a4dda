package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vulnctx/internal/config"
	"vulnctx/internal/extract"
	"vulnctx/internal/locator"
	"vulnctx/internal/render"
	"vulnctx/internal/vuln"
)

var (
	extractFormat         string
	extractMaxLines       int
	extractPadding        int
	extractCallsiteWindow int
)

var extractCmd = &cobra.Command{
	Use:   "extract <vuln-file>",
	Short: "Extract annotated source context for vulnerability traces",
	Long: `Extract method-bounded source context for each vulnerability in the
metadata file. The file may be JSON, YAML, or SARIF.

Examples:
  vulnctx extract findings.json
  vulnctx extract --format=json report.sarif
  vulnctx extract --max-lines=200 --padding=2 vulns.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractFormat, "format", "text", "Output format (text, json)")
	extractCmd.Flags().IntVar(&extractMaxLines, "max-lines", 0, "Line budget override (0: from config)")
	extractCmd.Flags().IntVar(&extractPadding, "padding", -1, "Trace-line padding override (-1: from config)")
	extractCmd.Flags().IntVar(&extractCallsiteWindow, "callsite-window", -1, "Callsite window override (-1: from config)")
	rootCmd.AddCommand(extractCmd)
}

// extractedEntry is the per-vulnerability JSON output of the extract command.
type extractedEntry struct {
	VulnID   string          `json:"vulnId"`
	RuleID   string          `json:"ruleId,omitempty"`
	Result   *extract.Result `json:"result"`
	Rendered string          `json:"rendered"`
}

func runExtract(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	vulns, err := vuln.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(vulns) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no vulnerabilities in input")
		os.Exit(1)
	}

	budget := budgetFromFlags(cfg)
	loc := locator.New(repoRoot,
		locator.WithLogger(logger),
		locator.WithCacheSize(cfg.Locator.CacheSize))
	extractor := extract.New(repoRoot, loc, extract.WithLogger(logger))
	renderer := render.New(repoRoot, cfg.RenderOptions())

	ctx := context.Background()
	var entries []extractedEntry
	failures := 0

	for i := range vulns {
		v := vulns[i]
		result, err := extractor.ExtractContext(ctx, &v, budget)
		if err != nil {
			logger.Error("extraction failed", "vulnId", v.ID, "error", err)
			failures++
			continue
		}
		text, err := renderer.Render(result)
		if err != nil {
			logger.Error("rendering failed", "vulnId", v.ID, "error", err)
			failures++
			continue
		}
		entries = append(entries, extractedEntry{
			VulnID:   v.ID,
			RuleID:   v.RuleID,
			Result:   result,
			Rendered: text,
		})
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no vulnerability could be extracted")
		os.Exit(1)
	}

	switch OutputFormat(extractFormat) {
	case FormatJSON:
		out, err := formatJSON(entries)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
	default:
		for i, e := range entries {
			if i > 0 {
				fmt.Println()
			}
			if e.VulnID != "" {
				fmt.Printf("=== VULNERABILITY: %s ===\n\n", e.VulnID)
			}
			fmt.Print(e.Rendered)
		}
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d of %d vulnerabilities failed\n", failures, len(vulns))
	}
}

// budgetFromFlags merges flag overrides over the config budget.
func budgetFromFlags(cfg *config.Config) extract.Budget {
	budget := cfg.Budget()
	if extractMaxLines > 0 {
		budget.MaxLines = extractMaxLines
	}
	if extractPadding >= 0 {
		budget.Padding = extractPadding
	}
	if extractCallsiteWindow >= 0 {
		budget.CallsiteWindow = extractCallsiteWindow
	}
	return budget
}
