package addrlist

import (
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader converts RFC 2047 payloads in charsets the mime package
// does not know natively (ISO-2022-JP, Shift_JIS, GB2312, ...) to UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	charset = strings.ToLower(charset)
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		if charset != "gb2312" {
			return input, nil
		}
		enc = simplifiedchinese.GBK
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// decodeWord decodes s if it is an RFC 2047 encoded-word. Words that are
// not encoded, or that fail to decode, are returned unchanged.
func decodeWord(s string) (string, bool) {
	if !strings.HasPrefix(s, "=?") || !strings.HasSuffix(s, "?=") {
		return s, false
	}
	word, err := wordDecoder.Decode(s)
	if err != nil {
		return s, false
	}
	return word, true
}

// phraseBuilder joins display-name words with single spaces. Adjacent
// encoded-words are concatenated without the separating space.
type phraseBuilder struct {
	words       []string
	prevEncoded bool
}

func (b *phraseBuilder) add(word string, encoded bool) {
	if encoded && b.prevEncoded {
		b.words[len(b.words)-1] += word
	} else {
		b.words = append(b.words, word)
	}
	b.prevEncoded = encoded
}

func (b *phraseBuilder) addAtom(atom string) {
	b.add(decodeWord(atom))
}

func (b *phraseBuilder) String() string {
	return strings.Join(b.words, " ")
}

// decodeComment turns the text of a comment into a display name.
func decodeComment(comment string) string {
	var b phraseBuilder
	for _, w := range strings.Fields(comment) {
		b.addAtom(w)
	}
	return b.String()
}
