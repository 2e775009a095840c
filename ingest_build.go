package targetgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/jward/targetgraph/internal/buildfile"
)

// IngestBuildFiles discovers every BUILD and BUILD.bazel file under root,
// parses them concurrently and ingests the resulting universe.
//
//	Phase A (serial):   discover BUILD files.
//	Phase B (parallel): parse on a bounded worker pool.
//	Phase C (serial):   diff against the store and commit one batch.
//
// A file that fails to parse aborts the ingest before anything is written,
// since a partial universe would report its targets as removed.
func (e *Engine) IngestBuildFiles(ctx context.Context, root string) (*IngestResult, error) {
	paths, err := buildfile.Discover(root)
	if err != nil {
		return nil, fmt.Errorf("targetgraph: discover: %w", err)
	}
	e.logger.Debug("build files discovered", "root", root, "files", len(paths))

	perFile := make([][]sourcedTarget, len(paths))
	fileErrs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			targets, err := buildfile.ParseFile(gctx, root, path)
			if err != nil {
				fileErrs[i] = err
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)
			out := make([]sourcedTarget, len(targets))
			for j, t := range targets {
				out[j] = sourcedTarget{info: t, source: rel}
			}
			perFile[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Report the first failure in path order.
	var errs []error
	for _, err := range fileErrs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("targetgraph: ingest build files had %d error(s): %w", len(errs), errs[0])
	}

	var all []sourcedTarget
	for _, targets := range perFile {
		all = append(all, targets...)
	}
	return e.ingest(ctx, all)
}

// ReadTargetsJSON decodes a JSON array of target descriptors:
//
//	[{"label": "//a:a", "kind": "java_library",
//	  "dependencies": [{"label": "//b:b", "type": "COMPILE"}]}]
//
// A dependency without a type is a compile dependency.
func ReadTargetsJSON(r io.Reader) ([]TargetInfo, error) {
	var targets []TargetInfo
	dec := json.NewDecoder(r)
	if err := dec.Decode(&targets); err != nil {
		return nil, fmt.Errorf("targetgraph: decode targets: %w", err)
	}
	return targets, nil
}
