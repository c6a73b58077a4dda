package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vulnctx/internal/config"
	"vulnctx/internal/logging"
	"vulnctx/internal/paths"
	"vulnctx/internal/version"
)

var (
	// repoRootFlag is the CLI --repo-root flag value
	repoRootFlag string
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "vulnctx",
	Short: "vulnctx - vulnerability context extractor",
	Long: `vulnctx extracts compact, method-bounded source context around a
vulnerability's source-to-sink trace. Given trace metadata (JSON, YAML, or
SARIF) and a repository checkout, it selects non-overlapping line ranges
anchored on method boundaries, budgets them to a line limit, and renders
them as annotated text for downstream consumers.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("vulnctx version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoRootFlag, "repo-root", "",
		"Repository root to extract from (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error (default: from config)")
}

// mustGetRepoRoot resolves the repository root from the flag or the
// working directory.
func mustGetRepoRoot() string {
	if repoRootFlag != "" {
		abs, err := filepath.Abs(repoRootFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return abs
	}
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

// mustLoadConfig loads .vulnctx/config.json under the repo root,
// falling back to defaults.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the CLI logger; the flag outranks the config level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	return logging.NewStderrLogger(logging.LevelFromString(level))
}

// mustRepoRelative converts a CLI file argument to the canonical
// repo-relative form: absolute paths are made relative to the root,
// relative ones are taken as repo-relative already.
func mustRepoRelative(arg, repoRoot string) string {
	if !filepath.IsAbs(arg) {
		return paths.Normalize(arg)
	}
	rel, err := paths.Canonicalize(arg, repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return rel
}
