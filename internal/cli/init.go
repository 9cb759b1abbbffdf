package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentx-labs/cargo-ws/internal/config"
	"github.com/agentx-labs/cargo-ws/internal/discover"
	"github.com/agentx-labs/cargo-ws/internal/metadata"
	"github.com/agentx-labs/cargo-ws/internal/vcs"
	"github.com/agentx-labs/cargo-ws/internal/workspace"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	initResolver workspace.ResolverVersion
	initVerbose  bool
)

var printer = message.NewPrinter(language.English)

// Collaborators used by init. Tests replace them with fakes.
var (
	newMetadataResolver = defaultMetadataResolver
	newVCS              = func() vcs.Initializer { return vcs.Git{Bin: config.GitBin()} }
	cargoVersion        = func(ctx context.Context) (string, error) {
		return metadata.ToolchainVersion(ctx, config.CargoBin())
	}
)

// defaultMetadataResolver picks the metadata backend named in the config.
func defaultMetadataResolver() (discover.Resolver, error) {
	switch backend := config.MetadataBackend(); backend {
	case config.BackendCargo:
		return metadata.Cargo{Bin: config.CargoBin()}, nil
	case config.BackendStatic:
		return metadata.Static{}, nil
	default:
		return nil, fmt.Errorf("unknown metadata backend %q (use %q or %q)", backend, config.BackendCargo, config.BackendStatic)
	}
}

func init() {
	initCmd.Flags().VarP(&initResolver, "resolver", "r", "Feature resolver for the workspace (1, 2 or 3; default from config, else 3)")
	initCmd.Flags().BoolVarP(&initVerbose, "verbose", "v", false, "Report why each skipped manifest could not be resolved")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Declare every package below PATH as a workspace member",
	Long: `Initialize a Cargo workspace at PATH (default: the current directory).

Every Cargo.toml below PATH is resolved to the workspace that owns it, and the
distinct roots are written to workspace.members of PATH/Cargo.toml, which is
created when missing. Comments and formatting of the existing file are kept.
A workspace.resolver is added unless one is already set.

A manifest that already lists members is left untouched. When PATH does not
exist it is created, initialized as a git repository and given a .gitignore
that excludes build output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		return runInit(cmd, path)
	},
}

func runInit(cmd *cobra.Command, path string) error {
	out := newReporter(cmd.OutOrStdout(), cmd.ErrOrStderr())

	resolver := initResolver
	if !cmd.Flags().Changed("resolver") {
		v, err := workspace.ParseResolver(config.Resolver())
		if err != nil {
			return fmt.Errorf("config key %s: %w", config.KeyResolver, err)
		}
		resolver = v
	}

	meta, err := newMetadataResolver()
	if err != nil {
		return err
	}

	res, err := workspace.Init(cmd.Context(), workspace.Options{
		Path:     path,
		Resolver: resolver,
		Metadata: meta,
		VCS:      newVCS(),
		Reporter: out,
	})
	if res != nil {
		reportSkipped(out, res.Skipped)
	}
	if err != nil {
		return err
	}

	if res.AlreadyInitialized {
		out.Status("already initialized", res.ManifestPath)
		return nil
	}

	names := make([]string, len(res.Members))
	for i, m := range res.Members {
		if m == "" {
			m = "."
		}
		names[i] = m
	}
	out.Status("crates", strings.Join(names, ", "))
	if res.ResolverSet {
		checkToolchain(cmd.Context(), out, res.Resolver)
	}

	out.Status("initialized", fmt.Sprintf("%s (%s)", res.Root, plural(len(res.Members), "crate", "crates")))
	return nil
}

// reportSkipped prints how many manifests could not be resolved, and with
// --verbose the reason for each.
func reportSkipped(out *reporter, skipped []discover.Skipped) {
	if len(skipped) == 0 {
		return
	}
	if initVerbose {
		for _, s := range skipped {
			out.Warn("skipped", fmt.Sprintf("%s: %v", s.Manifest, s.Err))
		}
	}
	out.Warn("skipped", plural(len(skipped), "manifest", "manifests")+" could not be resolved")
}

// checkToolchain warns when the installed cargo is too old for the resolver
// just written. A missing or unreadable cargo is not reported.
func checkToolchain(ctx context.Context, out *reporter, resolver string) {
	version, err := cargoVersion(ctx)
	if err != nil {
		return
	}
	ok, minimum, err := metadata.SupportsResolver(version, resolver)
	if err != nil || ok {
		return
	}
	out.Warn("resolver", fmt.Sprintf("resolver %q requires cargo %s or newer, found %s", resolver, minimum, version))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return printer.Sprintf("%d %s", n, one)
	}
	return printer.Sprintf("%d %s", n, many)
}
