package metadata

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/metadata.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// ErrInvalidMetadata is returned when `cargo metadata` output does not have
// the expected shape.
var ErrInvalidMetadata = errors.New("invalid cargo metadata output")

// Cargo resolves workspace roots by running `cargo metadata`.
type Cargo struct {
	// Bin is the cargo executable. Defaults to "cargo".
	Bin string
}

func (c Cargo) bin() string {
	if c.Bin == "" {
		return "cargo"
	}
	return c.Bin
}

// WorkspaceRoot runs `cargo metadata` for the manifest and returns the
// workspace_root it reports.
func (c Cargo) WorkspaceRoot(ctx context.Context, manifestPath string) (string, error) {
	cmd := exec.CommandContext(ctx, c.bin(), "metadata",
		"--format-version", "1",
		"--no-deps",
		"--manifest-path", manifestPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("cargo metadata for %s: %w\n%s", manifestPath, err, strings.TrimSpace(stderr.String()))
	}

	root, err := ParseMetadata(out)
	if err != nil {
		return "", fmt.Errorf("cargo metadata for %s: %w", manifestPath, err)
	}
	return root, nil
}

// ParseMetadata validates `cargo metadata --format-version 1` output and
// returns its workspace_root.
func ParseMetadata(data []byte) (string, error) {
	schema, err := getSchema()
	if err != nil {
		return "", fmt.Errorf("loading schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if err := schema.Validate(inst); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	var meta struct {
		WorkspaceRoot string `json:"workspace_root"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return meta.WorkspaceRoot, nil
}

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("metadata.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("metadata.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}
