package addrlist

import (
	"strings"
	"unicode/utf8"
)

// isAtext reports whether r is an RFC 5322 atext character.
// If dot is true, period is included. If permissive is true, the
// specials '[', ']', ';', '@' and '\\' are accepted too.
func isAtext(r rune, dot, permissive bool) bool {
	switch r {
	case '.':
		return dot
	case '[', ']', ';', '@', '\\':
		return permissive
	case '(', ')', '<', '>', '"', ':', ',':
		return false
	}
	return isVchar(r)
}

// isQtext reports whether r may appear unescaped in a quoted-string.
func isQtext(r rune) bool {
	if r == '\\' || r == '"' {
		return false
	}
	return isVchar(r)
}

// isDtext reports whether r may appear in a domain literal.
func isDtext(r rune) bool {
	if r == '[' || r == ']' || r == '\\' {
		return false
	}
	return isVchar(r)
}

// isVchar reports whether r is a visible character. Multibyte UTF-8 is
// accepted as allowed by RFC 6532.
func isVchar(r rune) bool {
	return '!' <= r && r <= '~' || isMultibyte(r)
}

func isMultibyte(r rune) bool {
	return r >= utf8.RuneSelf
}

func isWSP(r rune) bool {
	return r == ' ' || r == '\t'
}

// isDotAtom reports whether s is a dot-atom: atext runs separated by
// single dots with no dot at either end.
func isDotAtom(s string) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' || strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		if r != '.' && !isAtext(r, false, false) {
			return false
		}
	}
	return true
}

// quoteString renders s as an RFC 5322 quoted-string.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if isQtext(r) || isWSP(r) {
			b.WriteRune(r)
		} else if isVchar(r) {
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
