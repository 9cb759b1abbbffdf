package metadata

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// resolverMinimum is the first stable Cargo release that understands each
// feature resolver version.
var resolverMinimum = map[string]string{
	"1": "1.0.0",
	"2": "1.51.0",
	"3": "1.84.0",
}

// ToolchainVersion runs `cargo --version` and returns the version it
// reports, e.g. "1.84.0" for "cargo 1.84.0 (66221abde 2024-11-19)".
func ToolchainVersion(ctx context.Context, bin string) (string, error) {
	if bin == "" {
		bin = "cargo"
	}
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("running %s --version: %w", bin, err)
	}
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return "", fmt.Errorf("unexpected %s --version output %q", bin, strings.TrimSpace(string(out)))
	}
	return fields[1], nil
}

// SupportsResolver reports whether a Cargo release understands the given
// resolver version, along with the minimum release that does. Pre-release
// suffixes such as "-nightly" are ignored.
func SupportsResolver(cargoVersion, resolver string) (bool, string, error) {
	minimum, ok := resolverMinimum[resolver]
	if !ok {
		return false, "", fmt.Errorf("unknown resolver version %q", resolver)
	}

	v, err := semver.NewVersion(strings.TrimPrefix(cargoVersion, "v"))
	if err != nil {
		return false, minimum, fmt.Errorf("parsing cargo version %q: %w", cargoVersion, err)
	}
	release := semver.New(v.Major(), v.Minor(), v.Patch(), "", "")

	floor := semver.MustParse(minimum)
	return !release.LessThan(floor), minimum, nil
}
