// Package workspace turns a directory of Cargo packages into a single
// workspace. Init bootstraps the directory when it is missing, discovers the
// packages below it and records them as members of the root Cargo.toml,
// leaving an already populated members list untouched.
package workspace
