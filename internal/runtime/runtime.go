package runtime

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/targetgraph/internal/store"
)

// Runtime embeds a Risor VM and exposes the stored target universe and the
// policy marking builtins to user scripts.
type Runtime struct {
	store      *store.Store
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS loads policy scripts, and anything they import, from fsys
// rather than from scriptsDir.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger routes the script-visible log object to logger.
func WithRuntimeLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime wired to the given Store and scripts directory.
// The Store may be nil, in which case the store query builtins are omitted.
func NewRuntime(s *store.Store, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		store:      s,
		scriptsDir: scriptsDir,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript evaluates the script at scriptPath with the standard globals and
// extraGlobals.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource is RunScript for inline source.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter resolves "import" statements against the same place scripts
// are loaded from. nil means imports are disabled.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript returns the source of the policy script at path. Paths are
// slash-separated relative to the embedded FS when one is configured, and
// relative to scriptsDir otherwise.
func (r *Runtime) LoadScript(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case r.fsys != nil:
		path = strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err = fs.ReadFile(r.fsys, path)
	case filepath.IsAbs(path):
		data, err = os.ReadFile(path)
	default:
		path = filepath.Join(r.scriptsDir, path)
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("runtime: load policy %s: %w", path, err)
	}
	return string(data), nil
}

// buildGlobals merges the always-present globals, the store bridges and
// extra. extra wins on collisions.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: r.logger}),
	}

	if r.store != nil {
		// Risor cannot construct Go struct pointers, so these return maps
		// built Go-side.
		globals["stored_targets"] = makeStoredTargetsFn(r.store)
		globals["targets_by_kind"] = makeTargetsByKindFn(r.store)
		globals["dependencies_of"] = makeDependenciesOfFn(r.store)
		globals["dependents_of"] = makeDependentsOfFn(r.store)
		globals["db_query"] = makeDBQueryFn(r.store)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

// logObject provides log.Debug/Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) {
	l.logger.Debug(msg, "source", "policy")
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "policy")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "policy")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "policy")
}
