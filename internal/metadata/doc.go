// Package metadata resolves a Cargo manifest to the root of the workspace
// that owns it. The Cargo resolver asks `cargo metadata`; the Static
// resolver reads manifests directly and needs no toolchain. The package
// also checks whether the installed toolchain understands a requested
// feature resolver version.
package metadata
