// Package bootstrap prepares the directory a new workspace will live in. A
// missing directory is created, turned into a git repository and given a
// .gitignore that keeps build output out of version control. Only the
// directory creation can fail the run; the rest is best effort.
package bootstrap
