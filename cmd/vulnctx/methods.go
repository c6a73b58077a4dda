package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vulnctx/internal/lang"
	"vulnctx/internal/locator"
)

var methodsFormat string

var methodsCmd = &cobra.Command{
	Use:   "methods <file>",
	Short: "List the methods indexed in a source file",
	Long: `List every method the structural index finds in a source file, with
its line bounds and signature. Useful for checking what the extractor
will anchor on.

Examples:
  vulnctx methods src/main/java/App.java
  vulnctx methods --format=json internal/server/handler.go`,
	Args: cobra.ExactArgs(1),
	Run:  runMethods,
}

func init() {
	methodsCmd.Flags().StringVar(&methodsFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(methodsCmd)
}

// methodsResponse is the JSON output of the methods command.
type methodsResponse struct {
	File    string                     `json:"file"`
	Methods []locator.MethodDescriptor `json:"methods"`
}

func runMethods(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)

	if !lang.IsAvailable() {
		fmt.Fprintln(os.Stderr, "Error: structural indexing requires CGO (tree-sitter)")
		fmt.Fprintln(os.Stderr, "This binary was built without CGO support.")
		os.Exit(1)
	}

	file := mustRepoRelative(args[0], repoRoot)

	loc := locator.New(repoRoot,
		locator.WithLogger(logger),
		locator.WithCacheSize(cfg.Locator.CacheSize))

	methods, err := loc.IndexFile(context.Background(), file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error indexing file: %v\n", err)
		os.Exit(1)
	}

	if OutputFormat(methodsFormat) == FormatJSON {
		out, err := formatJSON(&methodsResponse{File: file, Methods: methods})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
		return
	}

	if len(methods) == 0 {
		fmt.Printf("%s: no methods found\n", file)
		return
	}

	fmt.Printf("%s (%d methods)\n", file, len(methods))
	fmt.Println(strings.Repeat("-", 60))
	for _, m := range methods {
		sig := m.Signature
		if sig == "" {
			sig = m.Name
		}
		fmt.Printf("  [%d-%d] %s\n", m.StartLine, m.EndLine, sig)
	}
}
