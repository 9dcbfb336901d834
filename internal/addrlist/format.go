package addrlist

import (
	"mime"
	"strings"
)

// Format renders e as header text that parses back to e.
//
// A display name made only of atoms is written as is, other printable
// ASCII names are quoted, and names with non-ASCII or control characters
// are written as RFC 2047 encoded-words. An Entry without a name is
// rendered as a bare addr-spec.
func Format(e Entry) string {
	addr := formatAddrSpec(e.Address)
	if e.Name == "" {
		return addr
	}
	return formatName(e.Name) + " <" + addr + ">"
}

// FormatList renders entries as a comma-separated address list. Empty
// placeholder entries are skipped.
func FormatList(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsZero() {
			continue
		}
		parts = append(parts, Format(e))
	}
	return strings.Join(parts, ", ")
}

func formatName(name string) string {
	if isPlainPhrase(name) {
		return name
	}

	printable := true
	for _, r := range name {
		if !isVchar(r) && !isWSP(r) || isMultibyte(r) {
			printable = false
			break
		}
	}
	if printable {
		return quoteString(name)
	}

	// Encoded-words may not carry specials unencoded (RFC 2047 section
	// 5.3), and Q encoding leaves most of them as literals.
	if strings.ContainsAny(name, "\"#$%&'(),.:;<>@[\\]^`{|}~") {
		return mime.BEncoding.Encode("utf-8", name)
	}
	return mime.QEncoding.Encode("utf-8", name)
}

// isPlainPhrase reports whether name can be written as a sequence of
// atoms and still parse to exactly name.
func isPlainPhrase(name string) bool {
	if name == "" || name[0] == ' ' || name[len(name)-1] == ' ' {
		return false
	}
	if strings.Contains(name, "  ") || strings.Contains(name, "=?") {
		return false
	}
	for _, r := range name {
		if r == ' ' {
			continue
		}
		if isMultibyte(r) || !isAtext(r, false, false) {
			return false
		}
	}
	return true
}

// formatAddrSpec quotes the local-part of addr when it is not a valid
// dot-atom.
func formatAddrSpec(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return addr
	}
	local, domain := addr[:at], addr[at+1:]
	if !isDotAtom(local) {
		local = quoteString(local)
	}
	return local + "@" + domain
}
