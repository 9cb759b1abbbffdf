package manifest

// The scanners below operate on documents go-toml has already accepted, so
// they only need to find where a value ends, not to validate it.

// skipBlank advances past spaces and tabs.
func skipBlank(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return i
}

// lineEnd returns the offset just past the newline that ends the line
// containing i, or len(b) on the last line.
func lineEnd(b []byte, i int) int {
	for i < len(b) && b[i] != '\n' {
		i++
	}
	if i < len(b) {
		i++
	}
	return i
}

// valueEnd returns the offset just past the value starting at i.
func valueEnd(b []byte, i int) int {
	if i >= len(b) {
		return i
	}
	switch b[i] {
	case '"', '\'':
		return stringEnd(b, i)
	case '[', '{':
		return bracketEnd(b, i)
	}
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\r', '\n', ',', ']', '}', '#':
			return i
		}
		i++
	}
	return i
}

// stringEnd returns the offset just past the string starting at i. All four
// TOML string forms are handled.
func stringEnd(b []byte, i int) int {
	q := b[i]
	escapes := q == '"'

	if i+2 < len(b) && b[i+1] == q && b[i+2] == q {
		j := i + 3
		for j < len(b) {
			if escapes && b[j] == '\\' {
				j += 2
				continue
			}
			if j+2 < len(b) && b[j] == q && b[j+1] == q && b[j+2] == q {
				j += 3
				// Up to two quotes may sit right before the closing delimiter.
				for n := 0; n < 2 && j < len(b) && b[j] == q; n++ {
					j++
				}
				return j
			}
			j++
		}
		return len(b)
	}

	j := i + 1
	for j < len(b) {
		if escapes && b[j] == '\\' {
			j += 2
			continue
		}
		if b[j] == q {
			return j + 1
		}
		j++
	}
	return len(b)
}

// bracketEnd returns the offset just past the array or inline table opening
// at i. Strings and comments inside it are skipped.
func bracketEnd(b []byte, i int) int {
	depth := 0
	j := i
	for j < len(b) {
		switch b[j] {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return j + 1
			}
		case '"', '\'':
			j = stringEnd(b, j)
			continue
		case '#':
			for j < len(b) && b[j] != '\n' {
				j++
			}
			continue
		}
		j++
	}
	return len(b)
}

// headerStart walks back from the first key of a table header to its
// opening bracket, covering both [table] and [[array]] headers.
func headerStart(b []byte, key int) int {
	i := key - 1
	for i > 0 && (b[i] == ' ' || b[i] == '\t') {
		i--
	}
	if i > 0 && b[i] == '[' && b[i-1] == '[' {
		i--
	}
	return i
}
