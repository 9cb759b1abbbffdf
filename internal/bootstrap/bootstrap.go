package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/agentx-labs/cargo-ws/internal/vcs"
)

// Reporter receives the non-fatal problems hit while bootstrapping.
type Reporter interface {
	Warn(label, msg string)
}

// EnsureRepo makes sure path is a directory. When it does not exist yet it
// is created with its parents, initialized as a repository and given a
// .gitignore entry for build output. Failing to create the directory is an
// error; failing to initialize the repository or to write .gitignore is
// reported as a warning. It reports whether the directory was created.
func EnsureRepo(ctx context.Context, path string, repo vcs.Initializer, r Reporter) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, fmt.Errorf("creating workspace directory %s: not a directory", path)
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("checking workspace directory %s: %w", path, err)
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating workspace directory %s: %w", dir, err)
	}

	if err := repo.Init(ctx, dir); err != nil {
		r.Warn("git repository init failed", fmt.Sprintf("%s: %v", dir, err))
	}

	if err := EnsureIgnored(dir, IgnoreEntry); err != nil {
		r.Warn("create or write .gitignore failed", fmt.Sprintf("%s: %v", filepath.Join(dir, ".gitignore"), err))
	}

	return true, nil
}
