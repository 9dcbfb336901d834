package addrlist

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wellFormed = []struct {
	in   string
	want []Entry
}{
	{
		`jdoe@machine.example`,
		[]Entry{{Address: "jdoe@machine.example"}},
	},
	// RFC 5322, Appendix A.1.1
	{
		`John Doe <jdoe@machine.example>`,
		[]Entry{{Name: "John Doe", Address: "jdoe@machine.example"}},
	},
	// RFC 5322, Appendix A.1.2
	{
		`"Joe Q. Public" <john.q.public@example.com>`,
		[]Entry{{Name: "Joe Q. Public", Address: "john.q.public@example.com"}},
	},
	{
		`Mary Smith <mary@x.test>, jdoe@example.org, Who? <one@y.test>`,
		[]Entry{
			{Name: "Mary Smith", Address: "mary@x.test"},
			{Address: "jdoe@example.org"},
			{Name: "Who?", Address: "one@y.test"},
		},
	},
	{
		`<boss@nil.test>, "Giant; \"Big\" Box" <sysservices@example.net>`,
		[]Entry{
			{Address: "boss@nil.test"},
			{Name: `Giant; "Big" Box`, Address: "sysservices@example.net"},
		},
	},
	{
		`"Doe, John" <jdoe@example.com>, "Roe, Jane (Sales)" <jroe@example.com>`,
		[]Entry{
			{Name: "Doe, John", Address: "jdoe@example.com"},
			{Name: "Roe, Jane (Sales)", Address: "jroe@example.com"},
		},
	},
	// RFC 5322, Appendix A.1.3
	{
		`A Group:Ed Jones <c@a.test>,joe@where.test,John <jdoe@one.test>;`,
		[]Entry{
			{Name: "Ed Jones", Address: "c@a.test"},
			{Address: "joe@where.test"},
			{Name: "John", Address: "jdoe@one.test"},
		},
	},
	{
		`undisclosed-recipients:;`,
		[]Entry{},
	},
	{
		`jdoe@example.org (John Doe)`,
		[]Entry{{Name: "John Doe", Address: "jdoe@example.org"}},
	},
	{
		`John (middle) Doe <jdoe@machine.example>`,
		[]Entry{{Name: "John Doe", Address: "jdoe@machine.example"}},
	},
	{
		`Pete(A nice \) chap) <pete(his account)@silly.test(his host)>`,
		[]Entry{{Name: "Pete", Address: "pete@silly.test"}},
	},
	{
		`"john doe"@example.com`,
		[]Entry{{Address: "john doe@example.com"}},
	},
	{
		`postmaster@[192.168.0.1]`,
		[]Entry{{Address: "postmaster@[192.168.0.1]"}},
	},
	{
		`=?utf-8?q?J=C3=B6rg_Doe?= <joerg@example.com>`,
		[]Entry{{Name: "Jörg Doe", Address: "joerg@example.com"}},
	},
	// RFC 2047, section 8
	{
		`=?ISO-8859-1?Q?Andr=E9?= Pirard <PIRARD@vm1.ulg.ac.be>`,
		[]Entry{{Name: "André Pirard", Address: "PIRARD@vm1.ulg.ac.be"}},
	},
	{
		`=?ISO-8859-1?Q?a?= =?ISO-8859-1?Q?b?= <ab@example.com>`,
		[]Entry{{Name: "ab", Address: "ab@example.com"}},
	},
	{
		`=?ISO-2022-JP?B?GyRCRnxLXDhsGyhC?= <taro@example.jp>`,
		[]Entry{{Name: "日本語", Address: "taro@example.jp"}},
	},
	{
		`"Jörg Doe" <joerg@example.com>`,
		[]Entry{{Name: "Jörg Doe", Address: "joerg@example.com"}},
	},
	{
		"Folded\r\n Name <folded@example.com>",
		[]Entry{{Name: "Folded Name", Address: "folded@example.com"}},
	},
	{
		`postmaster@[IPv6:2001:db8::1]`,
		[]Entry{{Address: "postmaster@[IPv6:2001:db8::1]"}},
	},
	{
		`a@b.com, x@[IPv6:::1]`,
		[]Entry{{Address: "a@b.com"}, {Address: "x@[IPv6:::1]"}},
	},
	{
		`a@[1,2]`,
		[]Entry{{Address: "a@[1,2]"}},
	},
	{
		`Ops <ops@[IPv6:::1]>, "Doe" <doe@example.com>`,
		[]Entry{{Name: "Ops", Address: "ops@[IPv6:::1]"}, {Name: "Doe", Address: "doe@example.com"}},
	},
	{
		`a@example.com, b@example.com,`,
		[]Entry{{Address: "a@example.com"}, {Address: "b@example.com"}},
	},
}

func TestGetAddressesWellFormed(t *testing.T) {
	for _, tc := range wellFormed {
		for _, mode := range []Mode{Lenient, Strict} {
			got, err := GetAddresses([]string{tc.in}, mode)
			if err != nil {
				t.Errorf("GetAddresses(%q, %v): %v", tc.in, mode, err)
				continue
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("GetAddresses(%q, %v) mismatch (-want +got):\n%s", tc.in, mode, diff)
			}
		}
	}
}

var malformed = []struct {
	in      string
	reason  error
	lenient Entry
}{
	{`bad-address`, ErrMissingAt, Entry{}},
	{`John Doe`, ErrMissingAt, Entry{}},
	{`"unclosed <a@example.com>`, ErrUnclosedQuote, Entry{}},
	{`Name <a@example.com`, ErrUnbalancedAngle, Entry{Name: "Name", Address: "a@example.com"}},
	{`a@example.com>`, ErrUnbalancedAngle, Entry{}},
	{`A <a@example.com> <c@example.com>`, ErrUnbalancedAngle, Entry{}},
	{`a@example.com (comment`, ErrUnclosedComment, Entry{Name: "comment", Address: "a@example.com"}},
	{`a@b@example.com`, ErrMultipleAt, Entry{}},
	{`@example.com`, ErrEmptyLocalPart, Entry{}},
	{`user@`, ErrEmptyDomain, Entry{}},
	{`Name <user@>`, ErrEmptyDomain, Entry{}},
	{`john..doe@example.com`, ErrInvalidLocalPart, Entry{Address: "john..doe@example.com"}},
	{`.john@example.com`, ErrInvalidLocalPart, Entry{Address: ".john@example.com"}},
	{`john@example..com`, ErrInvalidDomain, Entry{Address: "john@example..com"}},
	{`John !@M@! Doe <jdoe@machine.example>`, ErrInvalidPhrase, Entry{Name: "John !@M@! Doe", Address: "jdoe@machine.example"}},
	{`Name <a@example.com> trailing`, ErrTrailingText, Entry{}},
	{`a@example.com junk`, ErrTrailingText, Entry{}},
	{`Name <>`, ErrNoAddress, Entry{}},
	{`(just a comment)`, ErrNoAddress, Entry{}},
	{"\"\x00\" <null@example.net>", ErrInvalidQuotedString, Entry{}},
	{`user@[1.2.3.4`, ErrInvalidDomain, Entry{}},
}

func TestGetAddressesMalformed(t *testing.T) {
	for _, tc := range malformed {
		t.Run(tc.in, func(t *testing.T) {
			lenient, err := GetAddresses([]string{tc.in}, Lenient)
			require.NoError(t, err)
			assert.Equal(t, []Entry{tc.lenient}, lenient)

			strict, err := GetAddresses([]string{tc.in}, Strict)
			assert.Empty(t, strict)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.reason)

			var invalid *InvalidAddressError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, []int{0}, invalid.Indices())
		})
	}
}

func TestStrictDropsAndLenientPlaceholds(t *testing.T) {
	const in = "Name <a@b.com>, bad-address"

	lenient, err := GetAddresses([]string{in}, Lenient)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "Name", Address: "a@b.com"}, {}}, lenient)

	strict, err := GetAddresses([]string{in}, Strict)
	assert.Equal(t, []Entry{{Name: "Name", Address: "a@b.com"}}, strict)

	var invalid *InvalidAddressError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Failures, 1)
	assert.Equal(t, 1, invalid.Failures[0].Index)
	assert.Equal(t, "bad-address", invalid.Failures[0].Token)
	assert.ErrorIs(t, err, ErrMissingAt)
}

func TestStrictAggregatesFailures(t *testing.T) {
	values := []string{
		"ok@example.com, @nolocal.example",
		"Name <x@example.com>, broken <y@example.com, z@example.com",
	}
	got, err := GetAddresses(values, Strict)
	assert.Equal(t, []Entry{
		{Address: "ok@example.com"},
		{Name: "Name", Address: "x@example.com"},
		{Address: "z@example.com"},
	}, got)

	var invalid *InvalidAddressError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []int{1, 3}, invalid.Indices())
	assert.ErrorIs(t, err, ErrEmptyLocalPart)
	assert.ErrorIs(t, err, ErrUnbalancedAngle)
	assert.Contains(t, err.Error(), "2 malformed address(es)")

	lenient, err := GetAddresses(values, Lenient)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Address: "ok@example.com"},
		{},
		{Name: "Name", Address: "x@example.com"},
		{Name: "broken", Address: "y@example.com"},
		{Address: "z@example.com"},
	}, lenient)
}

func TestEmptyElements(t *testing.T) {
	const in = "a@example.com, , bad-address, b@example.com,"

	lenient, err := GetAddresses([]string{in}, Lenient)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Address: "a@example.com"}, {}, {}, {Address: "b@example.com"}}, lenient)

	strict, err := GetAddresses([]string{in}, Strict)
	assert.Equal(t, []Entry{{Address: "a@example.com"}, {Address: "b@example.com"}}, strict)
	var invalid *InvalidAddressError
	require.ErrorAs(t, err, &invalid)
	// Lenient positions and strict failure indices refer to the same elements.
	assert.Equal(t, []int{2}, invalid.Indices())
	assert.True(t, lenient[invalid.Indices()[0]].IsZero())
}

func TestCommaInsideAngleAddr(t *testing.T) {
	const in = "Name <a,b@example.com>, c@example.com"

	lenient, err := GetAddresses([]string{in}, Lenient)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{}, {Address: "c@example.com"}}, lenient)

	_, err = GetAddresses([]string{in}, Strict)
	var invalid *InvalidAddressError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Failures, 1)
	assert.Equal(t, 0, invalid.Failures[0].Index)
	assert.Equal(t, "Name <a,b@example.com>", invalid.Failures[0].Token)
}

func TestUnclosedGroup(t *testing.T) {
	const in = "friends: a@example.com, b@example.com"

	lenient, err := GetAddresses([]string{in}, Lenient)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Address: "a@example.com"}, {Address: "b@example.com"}}, lenient)

	strict, err := GetAddresses([]string{in}, Strict)
	assert.Equal(t, []Entry{{Address: "a@example.com"}}, strict)
	assert.ErrorIs(t, err, ErrUnclosedGroup)
}

func TestParseAddr(t *testing.T) {
	e, err := ParseAddr("John Doe <jdoe@example.com>", Strict)
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "John Doe", Address: "jdoe@example.com"}, e)

	e, err = ParseAddr("", Lenient)
	require.NoError(t, err)
	assert.True(t, e.IsZero())

	_, err = ParseAddr("  ", Strict)
	assert.ErrorIs(t, err, ErrNoAddress)

	e, err = ParseAddr("bad-address", Lenient)
	require.NoError(t, err)
	assert.True(t, e.IsZero())

	_, err = ParseAddr("bad-address", Strict)
	assert.ErrorIs(t, err, ErrMissingAt)

	e, err = ParseAddr("a@example.com, b@example.com", Lenient)
	require.NoError(t, err)
	assert.Equal(t, Entry{Address: "a@example.com"}, e)

	_, err = ParseAddr("a@example.com, b@example.com", Strict)
	var invalid *InvalidAddressError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []int{1}, invalid.Indices())
	assert.ErrorIs(t, err, ErrMultipleAddresses)
}

func TestRequestUnknownMode(t *testing.T) {
	_, err := Request{Values: []string{"a@example.com"}, Mode: Mode(7)}.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mode(7)")

	_, err = ParseAddr("a@example.com", Mode(-1))
	require.Error(t, err)
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, Strict, ModeFor(true))
	assert.Equal(t, Lenient, ModeFor(false))
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "lenient", Lenient.String())
	assert.True(t, SupportsStrictParsing)
}

func TestErrorsAsTokenError(t *testing.T) {
	_, err := GetAddresses([]string{"a@example.com, x@"}, Strict)
	var tokErr TokenError
	require.True(t, errors.As(err, &tokErr))
	assert.Equal(t, 1, tokErr.Index)
	assert.Equal(t, "x@", tokErr.Token)
	assert.Equal(t, ErrEmptyDomain, tokErr.Err)
}
