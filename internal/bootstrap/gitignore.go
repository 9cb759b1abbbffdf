package bootstrap

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// IgnoreEntry matches the target/ build output directory of every package
// in the tree.
const IgnoreEntry = "**/target"

// EnsureIgnored makes sure dir/.gitignore lists pattern on a line of its
// own. The file is created when missing; other lines are never touched.
func EnsureIgnored(dir, pattern string) error {
	path := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for line := range bytes.Lines(content) {
		if string(bytes.TrimSpace(line)) == pattern {
			return nil
		}
	}

	entry := pattern + "\n"
	if len(content) > 0 && content[len(content)-1] != '\n' {
		entry = "\n" + entry
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
