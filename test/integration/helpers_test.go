//go:build integration

package integration_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestEnv isolates HOME so no user config leaks into the run, and
// returns a canonical scratch directory for the workspace. The rustup and
// cargo homes are pinned first so rustup proxies still find the toolchain.
func setupTestEnv(t *testing.T) string {
	t.Helper()

	home, _ := os.UserHomeDir()
	for env, dir := range map[string]string{
		"RUSTUP_HOME": ".rustup",
		"CARGO_HOME":  ".cargo",
	} {
		value := os.Getenv(env)
		if value == "" && home != "" {
			value = filepath.Join(home, dir)
		}
		if value != "" {
			t.Setenv(env, value)
		}
	}
	t.Setenv("HOME", t.TempDir())
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolving temp dir: %v", err)
	}
	return dir
}

// requireTool skips the test when name is not on PATH.
func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found in PATH", name)
	}
}

// writeCrate creates a library crate at dir/<rel> with a Cargo.toml and an
// empty src/lib.rs, which is the least Cargo accepts as a package.
func writeCrate(t *testing.T, dir, rel string) {
	t.Helper()
	name := strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
	writeFile(t, filepath.Join(dir, rel, "Cargo.toml"), `[package]
name = "`+name+`"
version = "0.1.0"
edition = "2021"
`)
	writeFile(t, filepath.Join(dir, rel, "src", "lib.rs"), "")
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// readFile returns the contents of path, failing the test on error.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
