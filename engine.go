package targetgraph

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/jward/targetgraph/internal/config"
	"github.com/jward/targetgraph/internal/depgraph"
	tgruntime "github.com/jward/targetgraph/internal/runtime"
	"github.com/jward/targetgraph/internal/store"
)

// Engine owns the persisted target universe and everything derived from it:
// incremental ingest, the in-memory graph cache, predicate construction and
// sync.
type Engine struct {
	store      *store.Store
	runtime    *tgruntime.Runtime
	cfg        config.Config
	logger     *slog.Logger
	cache      *graphCache
	workers    int
	scriptsDir string
	scriptsFS  fs.FS
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default project configuration.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithWorkers bounds the number of BUILD files parsed concurrently.
// Values <= 0 use one worker per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithScriptsDir sets the directory policy scripts are resolved against.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithScriptsFS loads policy scripts from fsys instead of the scripts
// directory on disk. This enables embedding scripts via go:embed.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("targetgraph: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("targetgraph: migrate: %w", err)
	}

	e := &Engine{
		store:      s,
		cfg:        config.Default(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		scriptsDir: ".",
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = e.cfg.IngestWorkers
	}
	if e.workers <= 0 {
		e.workers = runtime.NumCPU()
	}

	cache, err := newGraphCache(e.cfg.GraphCacheSize)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("targetgraph: %w", err)
	}
	e.cache = cache

	rtOpts := []tgruntime.RuntimeOption{tgruntime.WithRuntimeLogger(e.logger)}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, tgruntime.WithRuntimeFS(e.scriptsFS))
	}
	e.runtime = tgruntime.NewRuntime(s, e.scriptsDir, rtOpts...)

	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Config returns the configuration the Engine was built with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Query returns a QueryBuilder over the Engine's universe.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{engine: e}
}

// Reset drops every stored target so the next ingest starts from scratch.
// Metadata and sync history are kept.
func (e *Engine) Reset() error {
	if err := e.store.Reset(); err != nil {
		return fmt.Errorf("targetgraph: reset: %w", err)
	}
	e.cache.purge()
	return nil
}

// IngestResult summarizes one ingest. Label lists are sorted.
type IngestResult struct {
	Added     []string
	Changed   []string
	Removed   []string
	Unchanged int
	// Affected is every stored label whose transitive dependencies may have
	// changed: the added, changed and removed labels plus all their
	// transitive reverse dependencies.
	Affected []string
}

// sourcedTarget pairs a descriptor with where it was read from.
type sourcedTarget struct {
	info   TargetInfo
	source string
}

// IngestTargets replaces the stored universe with targets. Targets whose
// fingerprint is unchanged are left alone; changed and vanished targets are
// deleted and new or changed ones are written in a single transaction.
func (e *Engine) IngestTargets(ctx context.Context, targets []TargetInfo) (*IngestResult, error) {
	sourced := make([]sourcedTarget, len(targets))
	for i, t := range targets {
		sourced[i] = sourcedTarget{info: t}
	}
	return e.ingest(ctx, sourced)
}

func (e *Engine) ingest(ctx context.Context, targets []sourcedTarget) (*IngestResult, error) {
	start := time.Now()

	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		label := t.info.Label.String()
		if seen[label] {
			return nil, fmt.Errorf("targetgraph: ingest: duplicate target %s", label)
		}
		seen[label] = true
	}

	stored, err := e.store.TargetHashes()
	if err != nil {
		return nil, fmt.Errorf("targetgraph: ingest: load hashes: %w", err)
	}

	result := &IngestResult{}
	var pending []sourcedTarget
	var pendingHashes []string
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := t.info.Label.String()
		hash := store.ComputeTargetHash(label, t.info.Kind, storeDependencies(t.info.Dependencies))
		old, exists := stored[label]
		switch {
		case !exists:
			result.Added = append(result.Added, label)
		case old != hash:
			result.Changed = append(result.Changed, label)
		default:
			result.Unchanged++
			continue
		}
		pending = append(pending, t)
		pendingHashes = append(pendingHashes, hash)
	}
	for label := range stored {
		if !seen[label] {
			result.Removed = append(result.Removed, label)
		}
	}

	stale := append(append([]string(nil), result.Changed...), result.Removed...)

	now := time.Now().UTC()
	batch := store.NewBatchedStore(e.store)
	batch.DeleteTargets(stale)
	for i, t := range pending {
		if err := writeTarget(batch, t, pendingHashes[i], now); err != nil {
			return nil, fmt.Errorf("targetgraph: ingest: %w", err)
		}
	}
	if err := e.store.CommitBatch(batch); err != nil {
		return nil, fmt.Errorf("targetgraph: ingest: %w", err)
	}
	if len(pending) > 0 || len(stale) > 0 {
		e.cache.purge()
	}

	touched := append(append([]string(nil), result.Added...), stale...)
	if len(touched) > 0 {
		result.Affected, err = e.store.BlastRadius(touched)
		if err != nil {
			return nil, fmt.Errorf("targetgraph: ingest: %w", err)
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Changed)
	sort.Strings(result.Removed)

	if err := e.store.SetMetadata("last_ingest", now.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("targetgraph: ingest: %w", err)
	}

	ingestTargetsTotal.WithLabelValues("added").Add(float64(len(result.Added)))
	ingestTargetsTotal.WithLabelValues("changed").Add(float64(len(result.Changed)))
	ingestTargetsTotal.WithLabelValues("removed").Add(float64(len(result.Removed)))
	ingestTargetsTotal.WithLabelValues("unchanged").Add(float64(result.Unchanged))

	e.logger.Info("ingest complete",
		"added", len(result.Added),
		"changed", len(result.Changed),
		"removed", len(result.Removed),
		"unchanged", result.Unchanged,
		"affected", len(result.Affected),
		"duration", time.Since(start))
	return result, nil
}

// writeTarget buffers one target row and its ordered dependency entries.
func writeTarget(ds store.DataStore, t sourcedTarget, hash string, now time.Time) error {
	id, err := ds.InsertTarget(&store.Target{
		Label:        t.info.Label.String(),
		Kind:         t.info.Kind,
		Hash:         hash,
		Source:       t.source,
		LastIngested: now,
	})
	if err != nil {
		return fmt.Errorf("insert target %s: %w", t.info.Label, err)
	}
	for _, d := range storeDependencies(t.info.Dependencies) {
		d.TargetID = id
		if _, err := ds.InsertDependency(&d); err != nil {
			return fmt.Errorf("insert dependency %s -> %s: %w", t.info.Label, d.Label, err)
		}
	}
	return nil
}

func storeDependencies(deps []Dependency) []store.Dependency {
	out := make([]store.Dependency, len(deps))
	for i, d := range deps {
		out[i] = store.Dependency{
			Label:   d.Label.String(),
			DepType: d.Type.String(),
			Ordinal: i,
		}
	}
	return out
}

// toTargetInfo rebuilds a descriptor from its stored row and dependency
// entries. deps must already be in ordinal order.
func toTargetInfo(t *store.Target, deps []*store.Dependency) (TargetInfo, error) {
	label, err := depgraph.ParseLabel(t.Label)
	if err != nil {
		return TargetInfo{}, fmt.Errorf("stored target: %w", err)
	}
	info := TargetInfo{Label: label, Kind: t.Kind}
	if len(deps) > 0 {
		info.Dependencies = make([]Dependency, 0, len(deps))
	}
	for _, d := range deps {
		dl, err := depgraph.ParseLabel(d.Label)
		if err != nil {
			return TargetInfo{}, fmt.Errorf("stored dependency of %s: %w", t.Label, err)
		}
		dt, err := depgraph.ParseDependencyType(d.DepType)
		if err != nil {
			return TargetInfo{}, fmt.Errorf("stored dependency of %s: %w", t.Label, err)
		}
		info.Dependencies = append(info.Dependencies, Dependency{Label: dl, Type: dt})
	}
	return info, nil
}
