package server

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/emurenMRz/mboxaddr/internal/addrlist"
)

// headerDecoder converts encoded-words with non-UTF-8 charsets
// (e.g. ISO-2022-JP) to UTF-8.
var headerDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

type headerGetter interface{ Get(string) string }

func (s *Server) parseMessageBody(msg *mail.Message) EmailContent {
	content := EmailContent{Attachments: []string{}}
	s.processEntity(&content, msg.Header, msg.Body)
	return content
}

// processEntity walks a MIME entity, recursing into multipart bodies.
// The first text/plain or text/html leaf becomes the body.
func (s *Server) processEntity(content *EmailContent, header headerGetter, body io.Reader) {
	ctype, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		ctype = "text/plain"
	}

	if strings.HasPrefix(ctype, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				s.log.Warn("error reading multipart body", zap.Error(err))
				break
			}
			s.processEntity(content, p.Header, p)
		}
		return
	}

	if disp, dispParams, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && disp == "attachment" {
		content.Attachments = append(content.Attachments, dispParams["filename"])
		return
	}

	if content.Body != "" || (ctype != "text/plain" && ctype != "text/html") {
		return
	}
	raw, err := io.ReadAll(transferDecoder(header, body))
	if err != nil {
		return
	}
	content.Body = decodeCharset(params["charset"], raw)
	content.BodyType = ctype
}

// transferDecoder unwraps the Content-Transfer-Encoding. 7bit, 8bit and
// binary need no wrapper.
func transferDecoder(header headerGetter, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	}
	return body
}

func decodeCharset(charset string, raw []byte) string {
	if charset == "" {
		return string(raw)
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return string(raw)
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// parseDate tries to parse common email Date header formats and returns a time.Time.
// If parsing fails, it returns zero time.
func parseDate(dateStr string) time.Time {
	if dateStr == "" {
		return time.Time{}
	}
	if t, err := mail.ParseDate(dateStr); err == nil {
		return t
	}
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
		time.RFC822,
		time.RFC850,
		time.RFC3339,
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, dateStr); err == nil {
			return t
		}
	}
	return time.Time{}
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	if charset == "" {
		return input, nil
	}
	enc, err := ianaindex.IANA.Encoding(strings.ToLower(charset))
	if err != nil || enc == nil {
		return input, nil
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

func decodeHeader(value string) string {
	if dec, err := headerDecoder.DecodeHeader(value); err == nil {
		return dec
	}
	return value
}

// formatSenders parses a From header for display. When no address can
// be recovered the decoded header text is shown as is.
func (s *Server) formatSenders(header string) (string, []addrlist.Entry) {
	if header == "" {
		return "", nil
	}
	entries, err := addrlist.GetAddresses([]string{header}, s.mode)
	if err != nil {
		s.log.Debug("malformed sender", zap.String("from", header), zap.Error(err))
	}

	var (
		parts   []string
		senders []addrlist.Entry
	)
	for _, e := range entries {
		if e.IsZero() {
			continue
		}
		senders = append(senders, e)
		if e.Name != "" {
			parts = append(parts, e.Name+" <"+e.Address+">")
		} else {
			parts = append(parts, e.Address)
		}
	}
	if len(parts) == 0 {
		return decodeHeader(header), nil
	}
	return strings.Join(parts, ", "), senders
}
