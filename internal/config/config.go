// Package config loads the per-project .targetgraph.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/targetgraph/internal/depgraph"
)

// FileName is the project configuration file looked up in the workspace root.
const FileName = ".targetgraph.yaml"

// Config is the project view: which targets to materialize and how the
// graph engine classifies what it finds.
type Config struct {
	// DBPath is the SQLite database, relative to the workspace root unless absolute.
	DBPath string `yaml:"db_path"`
	// Targets are the default root labels for sync.
	Targets []string `yaml:"targets,omitempty"`
	// ImportDepth bounds expansion from the roots; negative means unbounded.
	ImportDepth int `yaml:"import_depth"`
	// WorkspaceRepos lists external repositories treated as workspace code.
	WorkspaceRepos []string `yaml:"workspace_repos,omitempty"`
	// StrictDepsKinds lists rule kinds whose compile classpath is exactly
	// their declared compile deps.
	StrictDepsKinds []string `yaml:"strict_deps_kinds"`
	// PolicyScript is an optional Risor script that adjusts classification.
	PolicyScript string `yaml:"policy_script,omitempty"`
	// GraphCacheSize is the number of built graphs kept in memory.
	GraphCacheSize int `yaml:"graph_cache_size"`
	// IngestWorkers bounds parallel BUILD parsing; 0 means one per CPU.
	IngestWorkers int `yaml:"ingest_workers"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DBPath:      filepath.Join(".targetgraph", "graph.db"),
		ImportDepth: -1,
		StrictDepsKinds: []string{
			"java_library",
			"java_binary",
			"java_test",
			"java_plugin",
			"java_import",
		},
		GraphCacheSize: 8,
	}
}

// Load reads the YAML file at path on top of Default and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDir loads FileName from dir, falling back to Default when the file
// does not exist.
func LoadDir(dir string) (Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// WriteDefault writes the default configuration to path, creating parent
// directories as needed.
func WriteDefault(path string) error {
	return Write(path, Default())
}

// Write writes cfg to path as YAML, creating parent directories as needed.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	for i, r := range c.WorkspaceRepos {
		c.WorkspaceRepos[i] = strings.TrimLeft(strings.TrimSpace(r), "@")
	}
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if c.ImportDepth < -1 {
		errs = append(errs, fmt.Errorf("import_depth must be >= -1, got %d", c.ImportDepth))
	}
	if c.GraphCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("graph_cache_size must be positive, got %d", c.GraphCacheSize))
	}
	if c.IngestWorkers < 0 {
		errs = append(errs, fmt.Errorf("ingest_workers must not be negative, got %d", c.IngestWorkers))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path must not be empty"))
	}
	for _, t := range c.Targets {
		if _, err := depgraph.ParseLabel(t); err != nil {
			errs = append(errs, fmt.Errorf("targets: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RootLabels parses Targets. Call Validate first.
func (c Config) RootLabels() []depgraph.Label {
	out := make([]depgraph.Label, 0, len(c.Targets))
	for _, t := range c.Targets {
		if l, err := depgraph.ParseLabel(t); err == nil {
			out = append(out, l)
		}
	}
	return out
}

// ResolveDBPath returns DBPath made absolute against root.
func (c Config) ResolveDBPath(root string) string {
	if filepath.IsAbs(c.DBPath) {
		return c.DBPath
	}
	return filepath.Join(root, c.DBPath)
}
