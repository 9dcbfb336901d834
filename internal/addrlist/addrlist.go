// Package addrlist parses RFC 5322 address lists such as the values of
// "From", "To" and "Cc" header fields into display-name/address pairs.
//
// Two modes are supported. Lenient mode keeps the legacy behavior: a
// malformed entry is replaced by an empty Entry so that output positions
// still line up with the input. Strict mode drops malformed entries and
// reports every one of them in an *InvalidAddressError.
package addrlist

import (
	"fmt"
	"strings"
)

// SupportsStrictParsing reports that ParseAddr and GetAddresses accept
// the Strict mode. Callers that need to run against older releases can
// check it before relying on strict parsing.
const SupportsStrictParsing = true

// Mode selects how malformed entries are handled.
type Mode int

const (
	// Lenient replaces malformed entries with an empty Entry.
	Lenient Mode = iota
	// Strict drops malformed entries and returns an *InvalidAddressError.
	Strict
)

// ModeFor maps a strict flag to a Mode.
func ModeFor(strict bool) Mode {
	if strict {
		return Strict
	}
	return Lenient
}

func (m Mode) String() string {
	switch m {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) valid() error {
	if m != Lenient && m != Strict {
		return fmt.Errorf("addrlist: unknown mode %v", m)
	}
	return nil
}

// Entry is one parsed address.
type Entry struct {
	Name    string `json:"name"`    // display name, may be empty
	Address string `json:"address"` // local-part@domain
}

// IsZero reports whether e is the empty placeholder produced by
// lenient parsing for a malformed entry.
func (e Entry) IsZero() bool {
	return e.Name == "" && e.Address == ""
}

func (e Entry) String() string {
	return Format(e)
}

// Request is a set of header values to parse as one address list.
type Request struct {
	Values []string
	Mode   Mode
}

// Parse parses r.Values, joined with ", ", as a single address list.
//
// In Lenient mode the returned slice has one element per entry of the
// list, empty elements between commas included; only a trailing empty
// element and the end of a group yield nothing. The error is always nil
// for well-typed modes.
// In Strict mode malformed entries are left out and, if there were any,
// the error is an *InvalidAddressError describing them. The entries
// that did parse are returned in both cases.
func (r Request) Parse() ([]Entry, error) {
	if err := r.Mode.valid(); err != nil {
		return nil, err
	}
	results := parseValues(r.Values, r.Mode)
	if r.Mode == Strict {
		return collectStrict(results)
	}
	return collectLenient(results), nil
}

// GetAddresses parses the given header values as one address list.
func GetAddresses(values []string, mode Mode) ([]Entry, error) {
	return Request{Values: values, Mode: mode}.Parse()
}

// ParseAddr parses text and returns its first address.
//
// In Lenient mode an empty or malformed input yields an empty Entry and
// a nil error. In Strict mode the input must hold exactly one well-formed
// address; anything else is an *InvalidAddressError.
func ParseAddr(text string, mode Mode) (Entry, error) {
	if err := mode.valid(); err != nil {
		return Entry{}, err
	}
	results := parseValues([]string{text}, mode)
	if mode == Lenient {
		if len(results) == 0 {
			return Entry{}, nil
		}
		return results[0].entry, nil
	}

	if _, err := collectStrict(results); err != nil {
		return Entry{}, err
	}
	switch len(results) {
	case 0:
		return Entry{}, &InvalidAddressError{Failures: []TokenError{
			{Index: 0, Token: strings.TrimSpace(text), Err: ErrNoAddress},
		}}
	case 1:
		return results[0].entry, nil
	}
	extra := results[1]
	return Entry{}, &InvalidAddressError{Failures: []TokenError{
		{Index: extra.index, Token: extra.token, Err: ErrMultipleAddresses},
	}}
}

// result is the outcome of parsing one list element.
type result struct {
	index int
	token string
	entry Entry
	err   error
}

func parseValues(values []string, mode Mode) []result {
	var results []result
	tokens := splitList(strings.Join(values, ", "))
	for i, tok := range tokens {
		text := strings.TrimSpace(tok.text)
		if text == "" {
			switch {
			case mode == Strict:
				if tok.openGroup {
					results = append(results, result{index: i, err: ErrUnclosedGroup})
				}
			case !tok.groupEnd && i < len(tokens)-1:
				// Interior empty element: keep its position.
				results = append(results, result{index: i})
			}
			continue
		}

		var (
			entry Entry
			err   error
		)
		if mode == Strict {
			entry, err = parseStrict(text)
			if err == nil && tok.openGroup {
				err = ErrUnclosedGroup
			}
		} else {
			entry, err = parseLenient(text)
		}
		if err != nil {
			entry = Entry{}
		}
		results = append(results, result{index: i, token: text, entry: entry, err: err})
	}
	return results
}

func collectLenient(results []result) []Entry {
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		entries = append(entries, r.entry)
	}
	return entries
}

func collectStrict(results []result) ([]Entry, error) {
	entries := make([]Entry, 0, len(results))
	var failures []TokenError
	for _, r := range results {
		if r.err != nil {
			failures = append(failures, TokenError{Index: r.index, Token: r.token, Err: r.err})
			continue
		}
		entries = append(entries, r.entry)
	}
	if len(failures) > 0 {
		return entries, &InvalidAddressError{Failures: failures}
	}
	return entries, nil
}
