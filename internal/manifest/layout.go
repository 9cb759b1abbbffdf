package manifest

import (
	"github.com/pelletier/go-toml/v2/unstable"
)

// keyval records where a key/value pair sits in the document.
type keyval struct {
	start      int // first byte of the key
	valueStart int
	valueEnd   int
	end        int // just past the line holding the end of the value
}

// layout locates the parts of the workspace table that edits touch. Offsets
// are -1 when the corresponding element is absent.
type layout struct {
	header  int     // '[' of the [workspace] header
	body    int     // first byte after the header line
	lastKey *keyval // last key/value pair under the [workspace] header

	subTable int // '[' of the first [workspace.*] header

	inline *keyval // workspace = { ... }
	dotted *keyval // last root-level workspace.* key

	members          *keyval
	resolver         *keyval
	inlineCount      int // key/value pairs inside an inline workspace table
	lastInlineMember int // end of the last value inside the inline table
}

func locate(data []byte) (*layout, error) {
	l := &layout{header: -1, body: -1, subTable: -1, lastInlineMember: -1}

	var p unstable.Parser
	p.Reset(data)

	root := true
	inWorkspace := false
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table, unstable.ArrayTable:
			keys, first, last := keyPath(e.Key())
			open := headerStart(data, first)
			root = false
			inWorkspace = false
			if keys[0] != "workspace" {
				continue
			}
			if len(keys) == 1 && e.Kind == unstable.Table {
				l.header = open
				l.body = lineEnd(data, closingBracket(data, last))
				inWorkspace = true
			} else if len(keys) > 1 && l.subTable < 0 {
				l.subTable = open
			}

		case unstable.KeyValue:
			keys, first, last := keyPath(e.Key())
			kv := keyvalAt(data, first, last)
			switch {
			case inWorkspace:
				l.lastKey = &kv
				if len(keys) == 1 {
					l.assign(keys[0], &kv)
				}
			case root && keys[0] == "workspace":
				if len(keys) == 1 {
					l.inline = &kv
					l.locateInline(data, e.Value())
					continue
				}
				l.dotted = &kv
				if len(keys) == 2 {
					l.assign(keys[1], &kv)
				}
			}
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *layout) assign(key string, kv *keyval) {
	switch key {
	case "members":
		l.members = kv
	case "resolver":
		l.resolver = kv
	}
}

func (l *layout) locateInline(data []byte, table *unstable.Node) {
	if table == nil || table.Kind != unstable.InlineTable {
		return
	}
	it := table.Children()
	for it.Next() {
		child := it.Node()
		if child.Kind != unstable.KeyValue {
			continue
		}
		keys, first, last := keyPath(child.Key())
		kv := keyvalAt(data, first, last)
		l.inlineCount++
		l.lastInlineMember = kv.valueEnd
		if len(keys) == 1 {
			l.assign(keys[0], &kv)
		}
	}
}

// keyPath returns the decoded parts of a possibly dotted key along with the
// offsets of its first byte and of the byte just past its last part.
func keyPath(it unstable.Iterator) (keys []string, first, last int) {
	first = -1
	for it.Next() {
		n := it.Node()
		keys = append(keys, string(n.Data))
		if first < 0 {
			first = int(n.Raw.Offset)
		}
		last = int(n.Raw.Offset + n.Raw.Length)
	}
	return keys, first, last
}

func keyvalAt(data []byte, start, keyEnd int) keyval {
	i := skipBlank(data, keyEnd)
	if i < len(data) && data[i] == '=' {
		i++
	}
	vs := skipBlank(data, i)
	ve := valueEnd(data, vs)
	return keyval{start: start, valueStart: vs, valueEnd: ve, end: lineEnd(data, ve)}
}

// closingBracket returns the offset just past the ']' (or ']]') that closes
// a table header whose key ends at i.
func closingBracket(data []byte, i int) int {
	i = skipBlank(data, i)
	for i < len(data) && data[i] == ']' {
		i++
	}
	return i
}
