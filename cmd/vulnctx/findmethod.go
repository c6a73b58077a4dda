package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"vulnctx/internal/lang"
	"vulnctx/internal/locator"
)

var findMethodFormat string

var findMethodCmd = &cobra.Command{
	Use:   "find-method <file> <line>",
	Short: "Resolve the innermost method enclosing a line",
	Long: `Resolve one (file, line) pair to its innermost enclosing method, the
same lookup the extractor uses to anchor trace points.

Examples:
  vulnctx find-method src/main/java/App.java 42
  vulnctx find-method --format=json internal/server/handler.go 118`,
	Args: cobra.ExactArgs(2),
	Run:  runFindMethod,
}

func init() {
	findMethodCmd.Flags().StringVar(&findMethodFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(findMethodCmd)
}

// findMethodResponse is the JSON output of the find-method command.
type findMethodResponse struct {
	File   string                    `json:"file"`
	Line   int                       `json:"line"`
	Found  bool                      `json:"found"`
	Method *locator.MethodDescriptor `json:"method,omitempty"`
}

func runFindMethod(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	if !lang.IsAvailable() {
		fmt.Fprintln(os.Stderr, "Error: structural indexing requires CGO (tree-sitter)")
		os.Exit(1)
	}

	line, err := strconv.Atoi(args[1])
	if err != nil || line < 1 {
		fmt.Fprintf(os.Stderr, "Error: invalid line number %q\n", args[1])
		os.Exit(1)
	}

	file := mustRepoRelative(args[0], repoRoot)
	loc := locator.New(repoRoot,
		locator.WithLogger(logger),
		locator.WithCacheSize(cfg.Locator.CacheSize))

	method, found := loc.FindMethodForLine(context.Background(), file, line)

	resp := &findMethodResponse{File: file, Line: line, Found: found}
	if found {
		resp.Method = &method
	}

	if OutputFormat(findMethodFormat) == FormatJSON {
		out, err := formatJSON(resp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
		return
	}

	if !found {
		fmt.Printf("%s:%d: no enclosing method\n", file, line)
		return
	}
	fmt.Printf("%s:%d -> %s [%d-%d]\n", file, line, method.Name, method.StartLine, method.EndLine)
	if method.Signature != "" {
		fmt.Printf("  %s\n", method.Signature)
	}
}
