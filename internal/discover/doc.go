// Package discover finds the Cargo packages under a directory tree and turns
// them into workspace member paths. Each Cargo.toml found is resolved to the
// workspace root that owns it, so a package and the workspace that already
// encloses it collapse into a single member.
package discover
