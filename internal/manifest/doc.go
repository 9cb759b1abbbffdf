// Package manifest edits Cargo.toml workspace manifests in place. Documents
// keep their original bytes; edits to workspace.members and
// workspace.resolver are spliced into them so comments, whitespace and every
// untouched table survive byte for byte. go-toml/v2 provides both the
// semantic view of the document and the byte offsets used to place edits.
package manifest
