package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/targetgraph"
	"github.com/jward/targetgraph/internal/config"
	"github.com/jward/targetgraph/scripts"
)

var (
	flagDB      string
	flagConfig  string
	flagFormat  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "targetgraph",
	Short:         "Dependency graph engine for Bazel build targets",
	Long:          "targetgraph stores a universe of Bazel targets in SQLite, answers dependency queries over it, and computes which targets a project view materializes as source.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run, so bare invocation prints help.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: db_path from config, relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.FileName+" in repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(queryCmd)
}

var flagWithPolicy bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + config.FileName + " in the repo root",
	Long: `Writes a default configuration file in the repo root. With --with-policy
it also writes the example policy script next to it and points
policy_script at it.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&flagWithPolicy, "with-policy", false, "also write the example policy script")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting cwd: %w", err)
	}
	root := findRepoRoot(cwd)
	path := filepath.Join(root, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg := config.Default()
	if flagWithPolicy {
		src, err := fs.ReadFile(scripts.FS, scripts.ThirdPartyPolicy)
		if err != nil {
			return fmt.Errorf("reading embedded policy: %w", err)
		}
		policyPath := filepath.Join(root, policyFileName)
		if err := os.WriteFile(policyPath, src, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", policyPath, err)
		}
		cfg.PolicyScript = policyFileName
		fmt.Fprintf(os.Stderr, "Wrote %s\n", policyPath)
	}
	if err := config.Write(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

// policyFileName is where init --with-policy writes the example policy.
const policyFileName = "policy.risor"

// newLogger returns the stderr logger: warnings only, debug with --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config, or the config file in repoRoot when present.
func loadConfig(repoRoot string) (config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	return config.LoadDir(repoRoot)
}

// openEngine resolves the repo root, configuration and database from the
// working directory and flags. With mustExist, a missing database is an
// error instead of being created.
func openEngine(mustExist bool) (*targetgraph.Engine, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot := findRepoRoot(cwd)

	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return nil, "", err
	}
	dbPath := resolveDBPath(repoRoot, cfg)

	if mustExist {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, "", fmt.Errorf("database not found: %s (run 'targetgraph ingest' first)", dbPath)
		}
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, "", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	e, err := targetgraph.New(dbPath,
		targetgraph.WithConfig(cfg),
		targetgraph.WithLogger(newLogger()),
		targetgraph.WithScriptsDir(repoRoot),
	)
	if err != nil {
		return nil, "", fmt.Errorf("creating engine: %w", err)
	}
	return e, repoRoot, nil
}

// findRepoRoot walks up from startDir looking for a Bazel workspace marker
// or a .git directory. Returns startDir if neither is found.
func findRepoRoot(startDir string) string {
	markers := []string{"MODULE.bazel", "WORKSPACE", "WORKSPACE.bazel", ".git"}
	dir := startDir
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding a marker.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the config.
func resolveDBPath(repoRoot string, cfg config.Config) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return cfg.ResolveDBPath(repoRoot)
}
