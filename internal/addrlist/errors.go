package addrlist

import (
	"errors"
	"fmt"
	"strings"
)

// Reasons an entry is rejected in strict mode.
var (
	ErrNoAddress           = errors.New("addrlist: no address")
	ErrMultipleAddresses   = errors.New("addrlist: expected single address")
	ErrUnclosedQuote       = errors.New("addrlist: unclosed quoted-string")
	ErrInvalidQuotedString = errors.New("addrlist: bad character in quoted-string")
	ErrUnclosedComment     = errors.New("addrlist: unclosed parenthetical comment")
	ErrUnbalancedAngle     = errors.New("addrlist: unbalanced angle brackets")
	ErrUnclosedGroup       = errors.New("addrlist: group not terminated by ';'")
	ErrMissingAt           = errors.New("addrlist: missing @ in addr-spec")
	ErrMultipleAt          = errors.New("addrlist: more than one @ in addr-spec")
	ErrEmptyLocalPart      = errors.New("addrlist: empty local-part")
	ErrInvalidLocalPart    = errors.New("addrlist: invalid local-part")
	ErrEmptyDomain         = errors.New("addrlist: empty domain")
	ErrInvalidDomain       = errors.New("addrlist: invalid domain")
	ErrInvalidPhrase       = errors.New("addrlist: invalid display name")
	ErrTrailingText        = errors.New("addrlist: unexpected text after address")
)

// TokenError describes one malformed element of an address list.
type TokenError struct {
	Index int    // position in the list, counting empty elements
	Token string // element text with surrounding space removed
	Err   error  // one of the Err* reasons
}

func (e TokenError) Error() string {
	return fmt.Sprintf("entry %d %q: %v", e.Index, e.Token, e.Err)
}

func (e TokenError) Unwrap() error {
	return e.Err
}

// InvalidAddressError is returned by strict parsing when one or more
// entries were malformed. Entries that parsed are still returned
// alongside it.
type InvalidAddressError struct {
	Failures []TokenError
}

func (e *InvalidAddressError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("addrlist: %d malformed address(es): %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes the per-entry errors to errors.Is and errors.As.
func (e *InvalidAddressError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Indices returns the list positions of the malformed entries.
func (e *InvalidAddressError) Indices() []int {
	idx := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		idx[i] = f.Index
	}
	return idx
}
