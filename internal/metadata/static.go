package metadata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrNotPackage is returned for a manifest with neither a [package] nor
	// a [workspace] table.
	ErrNotPackage = errors.New("manifest declares neither a package nor a workspace")

	// ErrNotMember is returned when a package sits below a workspace that
	// neither lists nor excludes it. Cargo refuses such packages.
	ErrNotMember = errors.New("package believes it is in a workspace when it is not")
)

// cargoManifest holds the fields of Cargo.toml that decide workspace
// membership.
type cargoManifest struct {
	Package *struct {
		Workspace string `toml:"workspace"`
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
		Exclude []string `toml:"exclude"`
	} `toml:"workspace"`
}

// Static resolves workspace roots by reading manifests directly, following
// Cargo's search rules: an explicit package.workspace wins, otherwise the
// nearest ancestor with a [workspace] table that lists the package.
// Packages pulled in only as path dependencies are not considered.
type Static struct{}

// WorkspaceRoot returns the root of the workspace that owns manifestPath.
func (Static) WorkspaceRoot(ctx context.Context, manifestPath string) (string, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return "", err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(abs)

	m, err := readManifest(abs)
	if err != nil {
		return "", err
	}
	if m.Workspace != nil {
		return dir, nil
	}
	if m.Package == nil {
		return "", fmt.Errorf("%s: %w", abs, ErrNotPackage)
	}

	if m.Package.Workspace != "" {
		root := filepath.Join(dir, filepath.FromSlash(m.Package.Workspace))
		ws, err := readManifest(filepath.Join(root, filepath.Base(abs)))
		if err != nil {
			return "", err
		}
		if ws.Workspace == nil {
			return "", fmt.Errorf("%s: package.workspace points at %s, which has no [workspace] table", abs, root)
		}
		return root, nil
	}

	for parent := filepath.Dir(dir); ; parent = filepath.Dir(parent) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := filepath.Join(parent, filepath.Base(abs))
		if _, err := os.Stat(candidate); err == nil {
			ws, err := readManifest(candidate)
			if err != nil {
				return "", err
			}
			if ws.Workspace != nil {
				rel, err := filepath.Rel(parent, dir)
				if err != nil {
					return "", err
				}
				rel = filepath.ToSlash(rel)
				switch {
				case excluded(rel, ws.Workspace.Exclude):
					return dir, nil
				case listed(rel, ws.Workspace.Members):
					return parent, nil
				default:
					return "", fmt.Errorf("%s (workspace %s): %w", abs, parent, ErrNotMember)
				}
			}
		}

		if filepath.Dir(parent) == parent {
			break
		}
	}

	return dir, nil
}

func readManifest(p string) (*cargoManifest, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return &m, nil
}

// listed reports whether the slash-separated relative path rel matches one
// of the workspace member patterns. Patterns are matched one path segment
// at a time, the way Cargo expands them against the filesystem.
func listed(rel string, members []string) bool {
	for _, pattern := range members {
		pattern = path.Clean(filepath.ToSlash(pattern))
		if pattern == rel {
			return true
		}
		if ok, err := path.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// excluded reports whether rel is an excluded path or lies below one.
func excluded(rel string, exclude []string) bool {
	for _, ex := range exclude {
		ex = path.Clean(filepath.ToSlash(ex))
		if rel == ex || strings.HasPrefix(rel, ex+"/") {
			return true
		}
	}
	return false
}
