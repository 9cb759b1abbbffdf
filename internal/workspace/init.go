package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/agentx-labs/cargo-ws/internal/bootstrap"
	"github.com/agentx-labs/cargo-ws/internal/discover"
	"github.com/agentx-labs/cargo-ws/internal/manifest"
	"github.com/agentx-labs/cargo-ws/internal/metadata"
	"github.com/agentx-labs/cargo-ws/internal/vcs"
)

// ErrUnresolved is returned when manifests were found but none of them
// could be resolved. An empty members list would make Cargo reject every
// package below the new workspace, so nothing is written.
var ErrUnresolved = errors.New("no manifest could be resolved to a workspace")

// Reporter receives warnings raised during Init.
type Reporter interface {
	Warn(label, msg string)
}

type discardReporter struct{}

func (discardReporter) Warn(string, string) {}

// Options configures Init. Zero values select the defaults: the current
// directory, DefaultResolver, `cargo metadata` and git.
type Options struct {
	Path     string
	Resolver ResolverVersion
	Metadata discover.Resolver
	VCS      vcs.Initializer
	Reporter Reporter
}

// Result describes what Init did.
type Result struct {
	// Root is the canonical workspace directory.
	Root string
	// ManifestPath is the root Cargo.toml.
	ManifestPath string
	// Members are the workspace members, as written or as already declared.
	Members []string
	// Resolver is the workspace resolver in effect, empty when the manifest
	// was already initialized without one.
	Resolver string
	// ResolverSet reports whether Init wrote the resolver.
	ResolverSet bool
	// AlreadyInitialized is set when members were already declared and
	// nothing was written.
	AlreadyInitialized bool
	// Bootstrapped is set when the directory was created by this run.
	Bootstrapped bool
	// Skipped lists manifests whose workspace root could not be resolved.
	Skipped []discover.Skipped
}

// Init declares every package under opts.Path as a member of the root
// workspace manifest. It is a no-op on a manifest whose members list is
// already populated. On ErrUnresolved the partial Result is returned with the
// error so callers can report what was skipped.
func Init(ctx context.Context, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	created, err := bootstrap.EnsureRepo(ctx, opts.Path, opts.VCS, opts.Reporter)
	if err != nil {
		return nil, err
	}

	root, err := canonical(opts.Path)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Root:         root,
		ManifestPath: filepath.Join(root, manifest.FileName),
		Bootstrapped: created,
	}

	doc, err := manifest.Load(res.ManifestPath)
	if err != nil {
		return nil, err
	}
	existing, err := doc.Members()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.ManifestPath, err)
	}
	if len(existing) > 0 {
		res.AlreadyInitialized = true
		res.Members = existing
		res.Resolver, _, _ = doc.Resolver()
		return res, nil
	}

	manifests, err := discover.FindManifests(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	resolution := discover.ResolveRoots(ctx, manifests, opts.Metadata)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Skipped = resolution.Skipped
	res.Members = discover.Members(resolution.Roots, root, doc.HasPackage())
	if len(res.Members) == 0 && len(res.Skipped) > 0 {
		first := res.Skipped[0]
		return res, fmt.Errorf("%w under %s (%d skipped; first %s: %v)",
			ErrUnresolved, root, len(res.Skipped), first.Manifest, first.Err)
	}

	if err := doc.SetMembers(res.Members); err != nil {
		return nil, fmt.Errorf("%s: %w", res.ManifestPath, err)
	}
	res.ResolverSet, err = doc.SetResolver(string(opts.Resolver))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.ManifestPath, err)
	}
	res.Resolver, _, _ = doc.Resolver()

	if err := doc.WriteFile(res.ManifestPath); err != nil {
		return nil, err
	}
	return res, nil
}

func withDefaults(opts Options) Options {
	if opts.Path == "" {
		opts.Path = "."
	}
	if opts.Resolver == "" {
		opts.Resolver = DefaultResolver
	}
	if opts.Metadata == nil {
		opts.Metadata = metadata.Cargo{}
	}
	if opts.VCS == nil {
		opts.VCS = vcs.Git{}
	}
	if opts.Reporter == nil {
		opts.Reporter = discardReporter{}
	}
	return opts
}

// canonical returns the absolute path of dir with symlinks resolved, the
// form workspace roots are reported in.
func canonical(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", abs, err)
	}
	return resolved, nil
}
