package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agentx-labs/cargo-ws/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyResolver        = "resolver"
	KeyMetadataBackend = "metadata.backend"
	KeyCargoBin        = "cargo.bin"
	KeyGitBin          = "git.bin"
)

// Metadata backends.
const (
	BackendCargo  = "cargo"
	BackendStatic = "static"
)

// Keys lists every supported configuration key.
var Keys = []string{KeyResolver, KeyMetadataBackend, KeyCargoBin, KeyGitBin}

var defaults = map[string]string{
	KeyResolver:        "3",
	KeyMetadataBackend: BackendCargo,
	KeyCargoBin:        "cargo",
	KeyGitBin:          "git",
}

// Dir returns the path to the config directory (~/.cargo-ws/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.cargo-ws/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set validates a key-value pair, applies it and saves the config file.
func Set(key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)
	if err := viper.WriteConfigAs(FilePath()); err != nil {
		return fmt.Errorf("writing config file %s: %w", FilePath(), err)
	}
	return nil
}

func validate(key, value string) error {
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("unknown key (known keys: %s)", strings.Join(Keys, ", "))
	}
	switch key {
	case KeyResolver:
		if value != "1" && value != "2" && value != "3" {
			return fmt.Errorf("resolver must be 1, 2 or 3, got %q", value)
		}
	case KeyMetadataBackend:
		if value != BackendCargo && value != BackendStatic {
			return fmt.Errorf("metadata backend must be %q or %q, got %q", BackendCargo, BackendStatic, value)
		}
	default:
		if value == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}
	return nil
}

// Resolver returns the default resolver version for new workspaces.
func Resolver() string { return Get(KeyResolver) }

// MetadataBackend returns how workspace roots are resolved: "cargo" or
// "static".
func MetadataBackend() string { return Get(KeyMetadataBackend) }

// CargoBin returns the cargo executable.
func CargoBin() string { return Get(KeyCargoBin) }

// GitBin returns the git executable.
func GitBin() string { return Get(KeyGitBin) }
