package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/agentx-labs/cargo-ws/internal/manifest"
	"github.com/agentx-labs/cargo-ws/internal/metadata"
)

const pkg = "[package]\nname = \"p\"\nversion = \"0.1.0\"\n"

type fakeVCS struct {
	dirs []string
}

func (f *fakeVCS) Init(_ context.Context, dir string) error {
	f.dirs = append(f.dirs, dir)
	return nil
}

// ownDir resolves every manifest to its own directory.
type ownDir struct{}

func (ownDir) WorkspaceRoot(_ context.Context, manifestPath string) (string, error) {
	return filepath.Dir(manifestPath), nil
}

// failing rejects the manifests listed in it and resolves the rest to their
// own directory.
type failing map[string]bool

func (f failing) WorkspaceRoot(ctx context.Context, manifestPath string) (string, error) {
	if f[filepath.Base(filepath.Dir(manifestPath))] {
		return "", errors.New("could not parse manifest")
	}
	return ownDir{}.WorkspaceRoot(ctx, manifestPath)
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func readManifest(t *testing.T, root string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, manifest.FileName))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestInit_NestedPackages(t *testing.T) {
	root := tempRoot(t)
	writeTree(t, root, map[string]string{
		"a/Cargo.toml":     pkg,
		"b/Cargo.toml":     pkg,
		"c/sub/Cargo.toml": pkg,
	})
	repo := &fakeVCS{}

	res, err := Init(context.Background(), Options{Path: root, Metadata: metadata.Static{}, VCS: repo})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if want := []string{"a", "b", "c/sub"}; !slices.Equal(res.Members, want) {
		t.Errorf("Members = %q, want %q", res.Members, want)
	}
	if res.Resolver != "3" || !res.ResolverSet {
		t.Errorf("Resolver = %q (set %v), want \"3\" written", res.Resolver, res.ResolverSet)
	}
	if res.AlreadyInitialized || res.Bootstrapped {
		t.Errorf("unexpected result flags: %+v", res)
	}
	if len(repo.dirs) != 0 {
		t.Errorf("existing directory should not be re-initialized: %v", repo.dirs)
	}

	want := `[workspace]
members = [
    "a",
    "b",
    "c/sub",
]
resolver = "3"
`
	if got := readManifest(t, root); got != want {
		t.Errorf("Cargo.toml mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestInit_Idempotent(t *testing.T) {
	root := tempRoot(t)
	writeTree(t, root, map[string]string{
		"a/Cargo.toml":        pkg,
		"a/nested/Cargo.toml": pkg,
		"b/Cargo.toml":        pkg,
	})
	opts := Options{Path: root, Metadata: metadata.Static{}, VCS: &fakeVCS{}}

	if _, err := Init(context.Background(), opts); err != nil {
		t.Fatalf("first Init() error = %v", err)
	}
	first := readManifest(t, root)

	opts.Resolver = ResolverV1
	res, err := Init(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if !res.AlreadyInitialized {
		t.Error("second run should report already initialized")
	}
	if second := readManifest(t, root); second != first {
		t.Errorf("manifest changed on second run\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if want := []string{"a", "a/nested", "b"}; !slices.Equal(res.Members, want) {
		t.Errorf("Members = %q, want %q", res.Members, want)
	}
}

func TestInit_AlreadyInitialized(t *testing.T) {
	root := tempRoot(t)
	original := "[workspace]\nmembers = [\"a\"]\n"
	writeTree(t, root, map[string]string{
		"Cargo.toml":   original,
		"a/Cargo.toml": pkg,
		"b/Cargo.toml": pkg,
	})

	res, err := Init(context.Background(), Options{Path: root, Metadata: ownDir{}, VCS: &fakeVCS{}})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !res.AlreadyInitialized {
		t.Error("expected AlreadyInitialized")
	}
	if got := readManifest(t, root); got != original {
		t.Errorf("manifest modified:\n%s", got)
	}
}

func TestInit_RootPackageMember(t *testing.T) {
	tests := []struct {
		name string
		root string
		want []string
	}{
		{"pure workspace", "[workspace]\n", []string{"a", "b"}},
		{"root package", pkg, []string{"", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := tempRoot(t)
			writeTree(t, root, map[string]string{
				"Cargo.toml":   tt.root,
				"a/Cargo.toml": pkg,
				"b/Cargo.toml": pkg,
			})

			res, err := Init(context.Background(), Options{Path: root, Metadata: ownDir{}, VCS: &fakeVCS{}})
			if err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			if !slices.Equal(res.Members, tt.want) {
				t.Errorf("Members = %q, want %q", res.Members, tt.want)
			}

			doc, err := manifest.Load(filepath.Join(root, manifest.FileName))
			if err != nil {
				t.Fatal(err)
			}
			got, err := doc.Members()
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("written members = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInit_KeepsExistingResolver(t *testing.T) {
	root := tempRoot(t)
	writeTree(t, root, map[string]string{
		"Cargo.toml":   "[workspace]\nresolver = \"1\"\n",
		"a/Cargo.toml": pkg,
	})

	res, err := Init(context.Background(), Options{Path: root, Resolver: ResolverV3, Metadata: ownDir{}, VCS: &fakeVCS{}})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if res.Resolver != "1" || res.ResolverSet {
		t.Errorf("Resolver = %q (set %v), want existing \"1\" kept", res.Resolver, res.ResolverSet)
	}

	want := "[workspace]\nresolver = \"1\"\nmembers = [\n    \"a\",\n]\n"
	if got := readManifest(t, root); got != want {
		t.Errorf("Cargo.toml mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestInit_PreservesUnrelatedContent(t *testing.T) {
	root := tempRoot(t)
	original := `# The root crate.
[package]
name = "root"   # keep alignment
version = "0.1.0"

[dependencies]
serde = { version = "1", features = ["derive"] }

# trailing comment
`
	writeTree(t, root, map[string]string{
		"Cargo.toml":   original,
		"a/Cargo.toml": pkg,
	})

	if _, err := Init(context.Background(), Options{Path: root, Resolver: ResolverV2, Metadata: ownDir{}, VCS: &fakeVCS{}}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	want := original + `
[workspace]
members = [
    "",
    "a",
]
resolver = "2"
`
	if got := readManifest(t, root); got != want {
		t.Errorf("Cargo.toml mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestInit_SkipsUnresolvableManifests(t *testing.T) {
	root := tempRoot(t)
	writeTree(t, root, map[string]string{
		"a/Cargo.toml":      pkg,
		"broken/Cargo.toml": "[package\n",
		"c/Cargo.toml":      pkg,
	})

	res, err := Init(context.Background(), Options{Path: root, Metadata: failing{"broken": true}, VCS: &fakeVCS{}})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if want := []string{"a", "c"}; !slices.Equal(res.Members, want) {
		t.Errorf("Members = %q, want %q", res.Members, want)
	}
	if len(res.Skipped) != 1 || filepath.Base(filepath.Dir(res.Skipped[0].Manifest)) != "broken" {
		t.Errorf("Skipped = %+v, want the broken manifest", res.Skipped)
	}
}

func TestInit_AllManifestsUnresolved(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"existing root manifest", map[string]string{
			"Cargo.toml":   "# root\n[workspace]\n",
			"a/Cargo.toml": pkg,
			"b/Cargo.toml": pkg,
		}},
		{"no root manifest", map[string]string{
			"a/Cargo.toml": pkg,
			"b/Cargo.toml": pkg,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := tempRoot(t)
			writeTree(t, root, tt.files)

			res, err := Init(context.Background(), Options{Path: root, Metadata: failing{"a": true, "b": true}, VCS: &fakeVCS{}})
			if !errors.Is(err, ErrUnresolved) {
				t.Fatalf("Init() error = %v, want ErrUnresolved", err)
			}
			if res == nil || len(res.Skipped) != 2 {
				t.Fatalf("Result = %+v, want both manifests skipped", res)
			}

			original, hadManifest := tt.files["Cargo.toml"]
			if !hadManifest {
				if _, err := os.Stat(filepath.Join(root, manifest.FileName)); !os.IsNotExist(err) {
					t.Error("Cargo.toml created although no manifest resolved")
				}
				return
			}
			if got := readManifest(t, root); got != original {
				t.Errorf("manifest modified:\n%s", got)
			}
		})
	}
}

func TestInit_BootstrapsMissingDirectory(t *testing.T) {
	root := filepath.Join(tempRoot(t), "new-ws")
	repo := &fakeVCS{}

	res, err := Init(context.Background(), Options{Path: root, Metadata: ownDir{}, VCS: repo})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !res.Bootstrapped {
		t.Error("expected Bootstrapped")
	}
	if len(repo.dirs) != 1 || repo.dirs[0] != root {
		t.Errorf("VCS init dirs = %v, want [%s]", repo.dirs, root)
	}

	ignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		t.Fatalf("reading .gitignore: %v", err)
	}
	if string(ignore) != "**/target\n" {
		t.Errorf(".gitignore = %q", ignore)
	}

	want := "[workspace]\nmembers = []\nresolver = \"3\"\n"
	if got := readManifest(t, root); got != want {
		t.Errorf("Cargo.toml mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestInit_FormatErrorWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"workspace not a table", "workspace = \"yes\"\n"},
		{"members not an array", "[workspace]\nmembers = \"a\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := tempRoot(t)
			writeTree(t, root, map[string]string{
				"Cargo.toml":   tt.content,
				"a/Cargo.toml": pkg,
			})

			_, err := Init(context.Background(), Options{Path: root, Metadata: ownDir{}, VCS: &fakeVCS{}})
			if !errors.Is(err, manifest.ErrFormat) {
				t.Fatalf("Init() error = %v, want ErrFormat", err)
			}
			if got := readManifest(t, root); got != tt.content {
				t.Errorf("manifest modified:\n%s", got)
			}
		})
	}
}

func TestInit_InvalidManifest(t *testing.T) {
	root := tempRoot(t)
	writeTree(t, root, map[string]string{"Cargo.toml": "[workspace\n"})

	if _, err := Init(context.Background(), Options{Path: root, Metadata: ownDir{}, VCS: &fakeVCS{}}); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestResolverVersion_Set(t *testing.T) {
	var v ResolverVersion
	if got := v.String(); got != "3" {
		t.Errorf("zero value String() = %q, want default \"3\"", got)
	}

	for _, in := range []string{"1", "2", "3", " 2 "} {
		if err := v.Set(in); err != nil {
			t.Errorf("Set(%q) error = %v", in, err)
		}
	}
	if v != ResolverV2 {
		t.Errorf("after Set(\" 2 \") value = %q", v)
	}

	for _, in := range []string{"", "0", "4", "v3"} {
		if err := v.Set(in); err == nil {
			t.Errorf("Set(%q) expected error", in)
		}
	}
	if v.Type() != "resolver" {
		t.Errorf("Type() = %q", v.Type())
	}
}
