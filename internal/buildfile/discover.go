package buildfile

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/targetgraph/internal/depgraph"
)

// skipDirs are excluded from the filesystem walk fallback.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// IsBuildFile reports whether path names a Bazel BUILD file.
func IsBuildFile(path string) bool {
	switch filepath.Base(path) {
	case "BUILD", "BUILD.bazel":
		return true
	}
	return false
}

// PackageForFile returns the Bazel package of a BUILD file: its directory
// relative to root, slash-separated, "" for the root package.
func PackageForFile(root, path string) (string, error) {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("buildfile: package for %s: %w", path, err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("buildfile: %s is outside %s", path, root)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", nil
	}
	return rel, nil
}

// ParseFile reads and parses the BUILD file at path, deriving its package
// from root.
func ParseFile(ctx context.Context, root, path string) ([]depgraph.TargetInfo, error) {
	pkg, err := PackageForFile(root, path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("buildfile: read %s: %w", path, err)
	}
	targets, err := Parse(ctx, src, pkg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return targets, nil
}

// Discover lists BUILD files under root. Inside a git repository it uses
// git ls-files so .gitignore is respected; otherwise it walks the
// filesystem, skipping hidden directories, node_modules, vendor and
// __pycache__. When both BUILD and BUILD.bazel exist in one directory only
// BUILD.bazel is returned, matching Bazel. Paths are sorted.
func Discover(root string) ([]string, error) {
	paths, err := gitListFiles(root)
	if err != nil {
		paths, err = walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}
	return preferBazelSuffix(paths), nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) BUILD files under root.
func gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !IsBuildFile(line) {
			continue
		}
		paths = append(paths, filepath.Join(root, line))
	}
	return paths, nil
}

// walkListFiles discovers BUILD files by walking the filesystem.
func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsBuildFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func preferBazelSuffix(paths []string) []string {
	hasBazel := make(map[string]bool)
	for _, p := range paths {
		if filepath.Base(p) == "BUILD.bazel" {
			hasBazel[filepath.Dir(p)] = true
		}
	}
	out := paths[:0]
	for _, p := range paths {
		if filepath.Base(p) == "BUILD" && hasBazel[filepath.Dir(p)] {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
