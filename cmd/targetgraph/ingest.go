package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/targetgraph"
)

var (
	flagForce      bool
	flagBuildFiles string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.json|-]",
	Short: "Load the target universe into the database",
	Long: `Reads target descriptors and replaces the stored universe with them.

Descriptors come from a JSON file (or stdin with "-"), typically produced by
a Bazel query or aspect, or from BUILD files read statically with
--build-files. Unchanged targets are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&flagForce, "force", false, "drop every stored target before ingesting")
	ingestCmd.Flags().StringVar(&flagBuildFiles, "build-files", "", "read BUILD files under this directory instead of JSON")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if flagBuildFiles == "" && len(args) == 0 {
		return outputError("ingest", fmt.Errorf("requires a JSON file, \"-\" for stdin, or --build-files <dir>"))
	}
	if flagBuildFiles != "" && len(args) > 0 {
		return outputError("ingest", fmt.Errorf("--build-files and a JSON input are mutually exclusive"))
	}

	start := time.Now()
	engine, _, err := openEngine(false)
	if err != nil {
		return outputError("ingest", err)
	}
	defer engine.Close()

	if flagForce {
		if err := engine.Reset(); err != nil {
			return outputError("ingest", err)
		}
		fmt.Fprintln(os.Stderr, "Cleared stored targets")
	}

	ctx := context.Background()
	var res *targetgraph.IngestResult
	if flagBuildFiles != "" {
		dir, err := resolveDir(flagBuildFiles)
		if err != nil {
			return outputError("ingest", err)
		}
		res, err = engine.IngestBuildFiles(ctx, dir)
		if err != nil {
			return outputError("ingest", err)
		}
	} else {
		targets, err := readTargets(args[0])
		if err != nil {
			return outputError("ingest", err)
		}
		res, err = engine.IngestTargets(ctx, targets)
		if err != nil {
			return outputError("ingest", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Ingested in %s\n", time.Since(start).Round(time.Millisecond))
	return outputResult(CLIResult{Command: "ingest", Results: ingestResultToCLI(res)})
}

// readTargets decodes descriptors from path, or stdin when path is "-".
func readTargets(path string) ([]targetgraph.TargetInfo, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	return targetgraph.ReadTargetsJSON(r)
}

// resolveDir returns the absolute path of an existing directory.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
