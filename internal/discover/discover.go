package discover

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ManifestName is the file name that marks a Cargo package or workspace.
const ManifestName = "Cargo.toml"

// Resolver maps a manifest path to the root of the workspace that owns it.
// For a standalone package that is the package's own directory.
type Resolver interface {
	WorkspaceRoot(ctx context.Context, manifestPath string) (string, error)
}

// Skipped records a manifest that could not be resolved.
type Skipped struct {
	Manifest string
	Err      error
}

// Resolution is the outcome of resolving a set of manifests.
type Resolution struct {
	Roots   []string  // distinct workspace roots, sorted
	Skipped []Skipped // manifests the resolver rejected
}

// FindManifests returns every Cargo.toml under root at any depth, sorted.
// Symlinked directories are followed, each resolved directory is visited
// once, and manifests below a linked directory are reported under its
// resolved path. Entries that cannot be read are skipped.
func FindManifests(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	w := &walker{visited: make(map[string]bool)}
	w.walk(root)

	slices.Sort(w.found)
	return w.found, nil
}

type walker struct {
	visited map[string]bool // resolved directories already walked
	found   []string
}

func (w *walker) walk(dir string) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}

		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			switch {
			case err != nil:
				// dangling link
			case info.IsDir():
				if target, err := filepath.EvalSymlinks(path); err == nil {
					w.walk(target)
				}
			case d.Name() == ManifestName:
				w.found = append(w.found, path)
			}
			return nil
		}

		if d.IsDir() {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || w.visited[resolved] {
				return filepath.SkipDir
			}
			w.visited[resolved] = true
			return nil
		}
		if d.Name() == ManifestName {
			w.found = append(w.found, path)
		}
		return nil
	})
}

// ResolveRoots resolves each manifest and collects the distinct roots. A
// manifest the resolver fails on is recorded in Skipped and does not stop
// the others from resolving.
func ResolveRoots(ctx context.Context, manifests []string, r Resolver) Resolution {
	seen := make(map[string]bool)
	var res Resolution

	for _, m := range manifests {
		root, err := r.WorkspaceRoot(ctx, m)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Manifest: m, Err: err})
			continue
		}
		root = filepath.Clean(root)
		if !seen[root] {
			seen[root] = true
			res.Roots = append(res.Roots, root)
		}
	}

	slices.Sort(res.Roots)
	return res
}

// Members converts workspace roots into member paths relative to wsRoot,
// using forward slashes. Roots outside wsRoot are dropped. wsRoot itself
// maps to the empty path, which is kept only when the root manifest is also
// a package. The result is sorted and free of duplicates.
func Members(roots []string, wsRoot string, isRootPackage bool) []string {
	wsRoot = filepath.Clean(wsRoot)
	seen := make(map[string]bool)
	members := []string{}

	for _, root := range roots {
		rel, ok := relativeTo(wsRoot, filepath.Clean(root))
		if !ok {
			continue
		}
		if rel == "" && !isRootPackage {
			continue
		}
		if !seen[rel] {
			seen[rel] = true
			members = append(members, rel)
		}
	}

	slices.Sort(members)
	return members
}

// relativeTo returns path relative to base when path is base or one of its
// descendants.
func relativeTo(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil || filepath.IsAbs(rel) {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
