package workspace

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// ResolverVersion is a Cargo feature resolver version. It implements
// pflag.Value so invalid versions are rejected while flags are parsed.
type ResolverVersion string

const (
	ResolverV1 ResolverVersion = "1"
	ResolverV2 ResolverVersion = "2"
	ResolverV3 ResolverVersion = "3"

	// DefaultResolver is the newest resolver Cargo understands.
	DefaultResolver = ResolverV3
)

var _ pflag.Value = (*ResolverVersion)(nil)

// ResolverVersions lists the accepted versions, oldest first.
var ResolverVersions = []ResolverVersion{ResolverV1, ResolverV2, ResolverV3}

// ParseResolver validates s as a resolver version.
func ParseResolver(s string) (ResolverVersion, error) {
	v := ResolverVersion(strings.TrimSpace(s))
	for _, known := range ResolverVersions {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid resolver version %q (must be one of %s)", s, strings.Join(resolverNames(), ", "))
}

func resolverNames() []string {
	names := make([]string, len(ResolverVersions))
	for i, v := range ResolverVersions {
		names[i] = string(v)
	}
	return names
}

func (v *ResolverVersion) String() string {
	if *v == "" {
		return string(DefaultResolver)
	}
	return string(*v)
}

func (v *ResolverVersion) Set(s string) error {
	parsed, err := ParseResolver(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v *ResolverVersion) Type() string {
	return "resolver"
}
