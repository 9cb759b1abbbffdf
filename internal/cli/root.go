package cli

import (
	"context"
	"os"

	"github.com/agentx-labs/cargo-ws/internal/branding"
	"github.com/agentx-labs/cargo-ws/internal/config"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` turns a directory tree of Cargo packages into one workspace.
It finds every Cargo.toml below a directory, asks Cargo which workspace each one
belongs to, and declares the results as members of the root Cargo.toml.

Installed on PATH it also runs as a cargo subcommand: cargo ws init.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
	},
}

// Execute runs the root command with build info injected via ldflags.
// Errors are printed to stderr before being returned.
func Execute(ctx context.Context, version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return execute(ctx, subcommandArgs(os.Args[1:]))
}

func execute(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// subcommandArgs drops the "ws" argument cargo passes first when the binary
// is run as `cargo ws`.
func subcommandArgs(args []string) []string {
	if len(args) > 0 && args[0] == "ws" {
		return args[1:]
	}
	return args
}
