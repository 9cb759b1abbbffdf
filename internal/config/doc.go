// Package config manages user-level settings stored at
// ~/.cargo-ws/config.yaml, with environment overrides such as
// CARGO_WS_RESOLVER. Keys cover the default resolver version, the metadata
// backend and the cargo and git executables.
package config
