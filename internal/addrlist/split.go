package addrlist

// listToken is one comma-separated element of an address list.
type listToken struct {
	text string
	// groupEnd is set on the element terminated by a group's ';'.
	groupEnd bool
	// openGroup is set on the last element of a group that was never
	// closed with ';'.
	openGroup bool
}

// splitList splits s on commas that are not inside a quoted-string, a
// comment, a domain literal or a closed angle-addr. Group syntax
// ("name: a@x, b@y;") is flattened: the group name and the terminating
// semicolon are dropped and the members become ordinary elements.
func splitList(s string) []listToken {
	var (
		tokens  []listToken
		start   int
		depth   int // comment nesting
		quoted  bool
		escaped bool
		literal bool // inside "[...]"
		angle   bool
		at      bool // '@' seen in the current element
		group   bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false

		case quoted:
			switch c {
			case '\\':
				escaped = true
			case '"':
				quoted = false
			}

		case depth > 0:
			switch c {
			case '\\':
				escaped = true
			case '(':
				depth++
			case ')':
				depth--
			}

		case literal:
			switch c {
			case '\\':
				escaped = true
			case ']':
				literal = false
			}

		default:
			switch c {
			case '"':
				quoted = true
			case '(':
				depth = 1
			case '[':
				literal = true
			case '@':
				at = true
			case '<':
				// An angle-addr left open stays splittable so the
				// rest of the list survives it.
				angle = closesAngle(s[i+1:])
			case '>':
				angle = false
			case ':':
				if !angle && !group && !at {
					group = true
					start = i + 1
				}
			case ';':
				if group && !angle {
					tokens = append(tokens, listToken{text: s[start:i], groupEnd: true})
					group = false
					at = false
					start = i + 1
				}
			case ',':
				if angle {
					break
				}
				tokens = append(tokens, listToken{text: s[start:i]})
				start = i + 1
				at = false
			}
		}
	}
	return append(tokens, listToken{text: s[start:], openGroup: group})
}

// closesAngle reports whether s, the text after a '<', holds a '>'
// before any further '<'. Quoted-strings, comments and domain literals
// are skipped.
func closesAngle(s string) bool {
	depth := 0
	quoted, literal := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && (quoted || literal || depth > 0):
			i++
		case quoted:
			quoted = c != '"'
		case depth > 0:
			if c == '(' {
				depth++
			} else if c == ')' {
				depth--
			}
		case literal:
			literal = c != ']'
		case c == '"':
			quoted = true
		case c == '(':
			depth = 1
		case c == '[':
			literal = true
		case c == '>':
			return true
		case c == '<':
			return false
		}
	}
	return false
}
