package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the manifest file name Cargo looks for.
const FileName = "Cargo.toml"

// ErrFormat reports a manifest whose workspace entries do not have the shape
// this tool edits: workspace must be a table and workspace.members an array
// of strings.
var ErrFormat = errors.New("bad workspace format")

// ErrMembersDeclared is returned by SetMembers when the members list is
// already populated.
var ErrMembersDeclared = errors.New("workspace members already declared")

// Document is an editable Cargo manifest.
type Document struct {
	data []byte
	tree map[string]any
	loc  *layout
	nl   string
}

// Parse parses manifest text. Invalid TOML is returned as a
// *toml.DecodeError.
func Parse(data []byte) (*Document, error) {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	loc, err := locate(data)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		tree = map[string]any{}
	}

	nl := "\n"
	if bytes.Contains(data, []byte("\r\n")) {
		nl = "\r\n"
	}
	return &Document{data: data, tree: tree, loc: loc, nl: nl}, nil
}

// Load reads the manifest at path. A missing file yields an empty document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("parsing %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// Bytes returns the serialized document.
func (d *Document) Bytes() []byte {
	return d.data
}

// String returns the serialized document as a string.
func (d *Document) String() string {
	return string(d.data)
}

// HasPackage reports whether the manifest declares a [package] table, making
// the workspace root a package of its own.
func (d *Document) HasPackage() bool {
	_, ok := d.tree["package"]
	return ok
}

func (d *Document) workspace() (map[string]any, error) {
	v, ok := d.tree["workspace"]
	if !ok {
		return nil, nil
	}
	ws, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: no workspace table found in workspace %s", ErrFormat, FileName)
	}
	return ws, nil
}

// Members returns workspace.members. An absent workspace table or members
// key yields an empty list.
func (d *Document) Members() ([]string, error) {
	ws, err := d.workspace()
	if err != nil || ws == nil {
		return nil, err
	}
	v, ok := ws["members"]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: members was not an array in workspace %s", ErrFormat, FileName)
	}

	members := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: members entry %v is not a string", ErrFormat, item)
		}
		members = append(members, s)
	}
	return members, nil
}

// Resolver returns workspace.resolver and whether it is set.
func (d *Document) Resolver() (string, bool, error) {
	ws, err := d.workspace()
	if err != nil || ws == nil {
		return "", false, err
	}
	v, ok := ws["resolver"]
	if !ok {
		return "", false, nil
	}
	return fmt.Sprint(v), true, nil
}

// SetMembers writes members into an absent or empty workspace.members list,
// one entry per line. The workspace table is created when missing.
func (d *Document) SetMembers(members []string) error {
	current, err := d.Members()
	if err != nil {
		return err
	}
	if len(current) > 0 {
		return ErrMembersDeclared
	}

	l := d.loc
	var next []byte
	switch {
	case l.members != nil:
		value := d.renderList(members, l.inline != nil)
		next = splice(d.data, l.members.valueStart, l.members.valueEnd, value)
	default:
		next = d.insertKey("members", d.renderList(members, l.inline != nil), d.renderList(members, true))
	}

	if err := d.replace(next); err != nil {
		return err
	}
	got, err := d.Members()
	if err != nil {
		return err
	}
	if !slices.Equal(got, members) {
		return fmt.Errorf("%w: members edit produced %q, want %q", ErrFormat, got, members)
	}
	return nil
}

// SetResolver sets workspace.resolver unless the manifest already has one.
// It reports whether the document changed.
func (d *Document) SetResolver(version string) (bool, error) {
	_, ok, err := d.Resolver()
	if err != nil || ok {
		return false, err
	}
	value := basicString(version)
	if err := d.replace(d.insertKey("resolver", value, value)); err != nil {
		return false, err
	}
	return true, nil
}

// insertKey adds key = value to the workspace table wherever it lives and
// returns the new document bytes. inlineValue is used inside an inline
// workspace table, which cannot span lines.
func (d *Document) insertKey(key, value, inlineValue string) []byte {
	l := d.loc
	line := key + " = " + value + d.nl

	switch {
	case l.header >= 0:
		at := l.body
		if l.lastKey != nil {
			at = l.lastKey.end
		}
		return d.insertLine(at, line)

	case l.inline != nil:
		pair := key + " = " + inlineValue
		if l.inlineCount == 0 {
			return splice(d.data, l.inline.valueStart, l.inline.valueEnd, "{ "+pair+" }")
		}
		at := l.lastInlineMember
		return splice(d.data, at, at, ", "+pair)

	case l.dotted != nil:
		return d.insertLine(l.dotted.end, "workspace."+line)

	case l.subTable >= 0:
		return splice(d.data, l.subTable, l.subTable, "[workspace]"+d.nl+line+d.nl)

	default:
		var b strings.Builder
		b.Write(d.data)
		if len(d.data) > 0 {
			if !bytes.HasSuffix(d.data, []byte("\n")) {
				b.WriteString(d.nl)
			}
			b.WriteString(d.nl)
		}
		b.WriteString("[workspace]" + d.nl + line)
		return []byte(b.String())
	}
}

// insertLine inserts a full line at offset at, starting a new line first if
// at is the end of an unterminated last line.
func (d *Document) insertLine(at int, line string) []byte {
	if at > 0 && d.data[at-1] != '\n' {
		line = d.nl + line
	}
	return splice(d.data, at, at, line)
}

// replace swaps in edited bytes after checking they still parse.
func (d *Document) replace(data []byte) error {
	next, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%w: edit produced invalid TOML: %v", ErrFormat, err)
	}
	*d = *next
	return nil
}

// renderList formats a list of strings the way Cargo manifests are usually
// written: one entry per line with a trailing comma on the last one. inline
// renders the list on a single line.
func (d *Document) renderList(items []string, inline bool) string {
	if len(items) == 0 {
		return "[]"
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if inline {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(basicString(item))
			continue
		}
		b.WriteString(d.nl + "    " + basicString(item) + ",")
	}
	if !inline {
		b.WriteString(d.nl)
	}
	b.WriteByte(']')
	return b.String()
}

func splice(data []byte, start, end int, text string) []byte {
	out := make([]byte, 0, len(data)-(end-start)+len(text))
	out = append(out, data[:start]...)
	out = append(out, text...)
	return append(out, data[end:]...)
}

// basicString quotes s as a TOML basic string.
func basicString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
