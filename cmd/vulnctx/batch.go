package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vulnctx/internal/batch"
	"vulnctx/internal/export"
	"vulnctx/internal/extract"
	"vulnctx/internal/locator"
	"vulnctx/internal/render"
	"vulnctx/internal/vuln"
)

var (
	batchWorkers int
	batchOutput  string
	batchBundle  string
)

var batchCmd = &cobra.Command{
	Use:   "batch <vuln-file>",
	Short: "Extract context for many vulnerabilities in parallel",
	Long: `Run extraction over every vulnerability in the metadata file and
aggregate a JSON report. Malformed or unextractable entries are skipped
and listed in the report; they never abort the batch.

Examples:
  vulnctx batch findings.sarif
  vulnctx batch --workers=8 --output=report.json vulns.json
  vulnctx batch --bundle=contexts.tar.gz vulns.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Concurrent extractions (0: from config)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "Write the JSON report to this file instead of stdout")
	batchCmd.Flags().StringVar(&batchBundle, "bundle", "", "Also write a gzip bundle of rendered contexts to this path")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	vulns, err := vuln.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	workers := cfg.Batch.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}

	loc := locator.New(repoRoot,
		locator.WithLogger(logger),
		locator.WithCacheSize(cfg.Locator.CacheSize))
	extractor := extract.New(repoRoot, loc, extract.WithLogger(logger))
	runner := batch.NewRunner(repoRoot, extractor, cfg.Budget(),
		batch.WithWorkers(workers),
		batch.WithLogger(logger),
		batch.WithRenderOptions(render.Options{
			CommentElideThreshold: cfg.Render.CommentElideThreshold,
		}))

	report, err := runner.Run(context.Background(), vulns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, err := formatJSON(report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting report: %v\n", err)
		os.Exit(1)
	}

	if batchOutput != "" {
		if err := os.WriteFile(batchOutput, []byte(out+"\n"), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
		logger.Info("report written", "path", batchOutput)
	} else {
		fmt.Println(out)
	}

	if batchBundle != "" {
		if err := export.WriteBundle(report, batchBundle); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing bundle: %v\n", err)
			os.Exit(1)
		}
		logger.Info("bundle written", "path", batchBundle, "results", len(report.Results))
	}
}
