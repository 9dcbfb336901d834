package addrlist

import (
	"strings"
	"unicode/utf8"
)

// parseStrict parses one list element against the RFC 5322 grammar.
func parseStrict(token string) (Entry, error) {
	return (&entryParser{s: token, strict: true}).parse()
}

// parseLenient parses one list element, tolerating the irregularities
// found in real-world headers: specials in display names, stray dots in
// dot-atoms, and an angle-addr or comment left open at the end.
func parseLenient(token string) (Entry, error) {
	return (&entryParser{s: token}).parse()
}

type entryParser struct {
	s      string
	strict bool
}

func (p *entryParser) parse() (Entry, error) {
	if p.hasAngleAddr() {
		return p.parseNameAddr()
	}
	return p.parseAddrSpecOnly()
}

// parseAddrSpecOnly handles a bare addr-spec, optionally followed by a
// comment holding the display name: "jdoe@example.org (John Doe)".
func (p *entryParser) parseAddrSpecOnly() (Entry, error) {
	before, err := p.skipCFWS()
	if err != nil {
		return Entry{}, err
	}
	if p.empty() {
		return Entry{}, ErrNoAddress
	}
	addr, err := p.consumeAddrSpec()
	if err != nil {
		return Entry{}, err
	}
	after, err := p.skipCFWS()
	if err != nil {
		return Entry{}, err
	}
	if !p.empty() {
		if p.peek() == '>' {
			return Entry{}, ErrUnbalancedAngle
		}
		return Entry{}, ErrTrailingText
	}

	var name string
	switch {
	case len(after) > 0:
		name = decodeComment(after[0])
	case len(before) > 0:
		name = decodeComment(before[0])
	}
	return Entry{Name: name, Address: addr}, nil
}

// parseNameAddr handles [display-name] "<" addr-spec ">".
func (p *entryParser) parseNameAddr() (Entry, error) {
	name, err := p.consumePhrase()
	if err != nil {
		return Entry{}, err
	}
	if !p.consume('<') {
		return Entry{}, ErrInvalidPhrase
	}
	if _, err := p.skipCFWS(); err != nil {
		return Entry{}, err
	}
	if p.empty() || p.peek() == '>' {
		return Entry{}, ErrNoAddress
	}
	addr, err := p.consumeAddrSpec()
	if err != nil {
		return Entry{}, err
	}
	if _, err := p.skipCFWS(); err != nil {
		return Entry{}, err
	}
	if !p.consume('>') {
		switch {
		case p.empty() && !p.strict:
			return Entry{Name: name, Address: addr}, nil
		case p.empty() || p.peek() == '<':
			return Entry{}, ErrUnbalancedAngle
		}
		return Entry{}, ErrTrailingText
	}
	if _, err := p.skipCFWS(); err != nil {
		return Entry{}, err
	}
	if !p.empty() {
		if c := p.peek(); c == '<' || c == '>' {
			return Entry{}, ErrUnbalancedAngle
		}
		return Entry{}, ErrTrailingText
	}
	return Entry{Name: name, Address: addr}, nil
}

// consumePhrase parses the display-name in front of an angle-addr.
// Comments between words are dropped.
func (p *entryParser) consumePhrase() (string, error) {
	var b phraseBuilder
	for {
		if _, err := p.skipCFWS(); err != nil {
			return "", err
		}
		if p.empty() || p.peek() == '<' {
			break
		}
		if p.peek() == '"' {
			word, err := p.consumeQuotedString()
			if err != nil {
				return "", err
			}
			b.add(word, false)
			continue
		}
		// obs-phrase allows periods, so dot-atoms are accepted here.
		atom := p.consumeAtom(true, !p.strict)
		if atom == "" {
			return "", ErrInvalidPhrase
		}
		b.addAtom(atom)
	}
	return b.String(), nil
}

// consumeAddrSpec parses local-part "@" domain. A quoted local-part is
// returned unquoted.
func (p *entryParser) consumeAddrSpec() (string, error) {
	var local string
	if p.peek() == '"' {
		qs, err := p.consumeQuotedString()
		if err != nil {
			return "", err
		}
		if qs == "" {
			return "", ErrEmptyLocalPart
		}
		local = qs
	} else {
		local = p.consumeAtom(true, false)
		if local == "" {
			if !p.empty() && p.peek() == '@' {
				return "", ErrEmptyLocalPart
			}
			return "", ErrInvalidLocalPart
		}
		if p.strict && !isDotAtom(local) {
			return "", ErrInvalidLocalPart
		}
	}

	if _, err := p.skipCFWS(); err != nil {
		return "", err
	}
	if !p.consume('@') {
		return "", ErrMissingAt
	}
	if _, err := p.skipCFWS(); err != nil {
		return "", err
	}
	domain, err := p.consumeDomain()
	if err != nil {
		return "", err
	}
	p.skipSpace()
	if !p.empty() && p.peek() == '@' {
		return "", ErrMultipleAt
	}
	return local + "@" + domain, nil
}

// consumeDomain parses a dot-atom or a domain literal.
func (p *entryParser) consumeDomain() (string, error) {
	if p.empty() || p.peek() == '>' {
		return "", ErrEmptyDomain
	}
	if p.peek() == '[' {
		return p.consumeDomainLiteral()
	}
	domain := p.consumeAtom(true, false)
	if domain == "" {
		if p.peek() == '@' {
			return "", ErrMultipleAt
		}
		return "", ErrInvalidDomain
	}
	if p.strict && !isDotAtom(domain) {
		return "", ErrInvalidDomain
	}
	return domain, nil
}

func (p *entryParser) consumeDomainLiteral() (string, error) {
	// Assume first byte is '['.
	i := 1
	for {
		r, size := utf8.DecodeRuneInString(p.s[i:])
		switch {
		case size == 0:
			return "", ErrInvalidDomain
		case r == ']':
			lit := p.s[:i+1]
			p.s = p.s[i+1:]
			return lit, nil
		case size == 1 && r == utf8.RuneError:
			return "", ErrInvalidDomain
		case !isDtext(r) && !isWSP(r):
			return "", ErrInvalidDomain
		}
		i += size
	}
}

// consumeQuotedString parses the quoted-string at the start of p and
// returns its unescaped content.
func (p *entryParser) consumeQuotedString() (string, error) {
	// Assume first byte is '"'.
	i := 1
	var b strings.Builder
	escaped := false

Loop:
	for {
		r, size := utf8.DecodeRuneInString(p.s[i:])

		switch {
		case size == 0:
			return "", ErrUnclosedQuote

		case size == 1 && r == utf8.RuneError:
			return "", ErrInvalidQuotedString

		case escaped:
			// quoted-pair = "\" (VCHAR / WSP)
			if !isVchar(r) && !isWSP(r) {
				return "", ErrInvalidQuotedString
			}
			b.WriteRune(r)
			escaped = false

		case isQtext(r) || isWSP(r):
			b.WriteRune(r)

		case r == '"':
			break Loop

		case r == '\\':
			escaped = true

		default:
			return "", ErrInvalidQuotedString
		}
		i += size
	}
	p.s = p.s[i+1:]
	return b.String(), nil
}

// consumeAtom consumes the longest run of atext at the start of p and
// returns it, or "" if p does not start with atext.
func (p *entryParser) consumeAtom(dot, permissive bool) string {
	i := 0
	for {
		r, size := utf8.DecodeRuneInString(p.s[i:])
		if size == 0 || size == 1 && r == utf8.RuneError || !isAtext(r, dot, permissive) {
			break
		}
		i += size
	}
	atom := p.s[:i]
	p.s = p.s[i:]
	return atom
}

// skipCFWS skips folding white space and comments, returning the text of
// each comment. In lenient mode a comment left open at the end of the
// element is accepted.
func (p *entryParser) skipCFWS() ([]string, error) {
	var comments []string
	for {
		p.skipSpace()
		if !p.consume('(') {
			return comments, nil
		}
		comment, ok := p.consumeComment()
		if !ok && p.strict {
			return comments, ErrUnclosedComment
		}
		comments = append(comments, comment)
	}
}

func (p *entryParser) consumeComment() (string, bool) {
	// '(' already consumed.
	var b strings.Builder
	depth := 1
	i := 0
	for ; i < len(p.s) && depth > 0; i++ {
		c := p.s[i]
		switch {
		case c == '\\' && i+1 < len(p.s):
			i++
			c = p.s[i]
		case c == '(':
			depth++
		case c == ')':
			depth--
		}
		if depth > 0 {
			b.WriteByte(c)
		}
	}
	p.s = p.s[i:]
	return b.String(), depth == 0
}

// hasAngleAddr reports whether the element contains a '<' outside of
// quoted-strings and comments.
func (p *entryParser) hasAngleAddr() bool {
	quoted, escaped := false, false
	depth := 0
	for i := 0; i < len(p.s); i++ {
		c := p.s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && (quoted || depth > 0):
			escaped = true
		case quoted:
			if c == '"' {
				quoted = false
			}
		case depth > 0:
			if c == '(' {
				depth++
			} else if c == ')' {
				depth--
			}
		case c == '"':
			quoted = true
		case c == '(':
			depth = 1
		case c == '<':
			return true
		}
	}
	return false
}

func (p *entryParser) consume(c byte) bool {
	if p.empty() || p.peek() != c {
		return false
	}
	p.s = p.s[1:]
	return true
}

func (p *entryParser) skipSpace() {
	p.s = strings.TrimLeft(p.s, " \t\r\n")
}

func (p *entryParser) peek() byte {
	return p.s[0]
}

func (p *entryParser) empty() bool {
	return len(p.s) == 0
}
