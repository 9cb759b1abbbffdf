// Package vcs initializes version control in a new workspace directory.
package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Initializer creates a repository in dir.
type Initializer interface {
	Init(ctx context.Context, dir string) error
}

// Git initializes repositories with the git CLI.
type Git struct {
	// Bin is the git executable. Defaults to "git".
	Bin string
}

func (g Git) bin() string {
	if g.Bin == "" {
		return "git"
	}
	return g.Bin
}

// Init runs `git init` in dir.
func (g Git) Init(ctx context.Context, dir string) error {
	if _, err := exec.LookPath(g.bin()); err != nil {
		return fmt.Errorf("%s is required but not found in PATH", g.bin())
	}

	cmd := exec.CommandContext(ctx, g.bin(), "init")
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init in %s: %w\n%s", dir, err, strings.TrimSpace(string(output)))
	}
	return nil
}
