// Package mbox reads, rewrites and appends to mbox files.
package mbox

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
)

// ReadMessages reads all messages from an mbox file. Each message keeps
// its "From " envelope line, headers and body.
func ReadMessages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var messages []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var current strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "From ") && current.Len() > 0 {
			messages = append(messages, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if current.Len() > 0 {
		messages = append(messages, current.String())
	}
	return messages, nil
}

// WriteMessages replaces the file at path with messages. The data is
// written to a temporary file in the same directory and renamed over
// path, so readers never see a partial file.
func WriteMessages(path string, messages []string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "mboxaddr-update-*.mbox")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	// Keep the permissions of the file being replaced.
	if fi, serr := os.Stat(path); serr == nil {
		if err := tmp.Chmod(fi.Mode().Perm()); err != nil {
			return fmt.Errorf("chmod temp file: %w", err)
		}
	}

	w := bufio.NewWriter(tmp)
	for _, msg := range messages {
		if _, err := w.WriteString(msg); err != nil {
			return fmt.Errorf("write temp file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Append writes one message (headers, blank line, body) to w in mbox
// format with the given envelope sender and date. Body lines starting
// with "From " are escaped.
func Append(w io.Writer, from string, date time.Time, message io.Reader) error {
	if from == "" {
		from = "MAILER-DAEMON"
	}
	mw := mbox.NewWriter(w)
	dst, err := mw.CreateMessage(from, date)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	data, err := io.ReadAll(message)
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	// Blank line separating this message from the next one
	data = append(data, '\n')
	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return mw.Close()
}

// Walk calls fn for every message in r, in order. Messages whose headers
// cannot be parsed are passed to fn with a nil *mail.Message and the
// parse error. Returning a non-nil error from fn stops the walk.
func Walk(r io.Reader, fn func(index int, msg *mail.Message, err error) error) error {
	reader := mbox.NewReader(r)
	for i := 0; ; i++ {
		mr, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		msg, perr := mail.ReadMessage(mr)
		if err := fn(i, msg, perr); err != nil {
			return err
		}
	}
}

// SplitAtFirstNewline splits s into its first line and the rest.
func SplitAtFirstNewline(s string) (string, string) {
	if i := strings.Index(s, "\n"); i != -1 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// SplitHeadersFromBody splits a message (without envelope line) at the
// blank line separating the header block from the body. The header block
// keeps its final newline.
func SplitHeadersFromBody(s string) (string, string) {
	if i := strings.Index(s, "\n\n"); i != -1 {
		return s[:i+1], s[i+2:]
	}
	return s, ""
}

// UpdateStatusHeader sets the Status header to status, adding it when
// missing. It reports whether headers changed.
func UpdateStatusHeader(headers, status string) (string, bool) {
	const prefix = "Status: "
	start := -1
	if strings.HasPrefix(headers, prefix) {
		start = 0
	} else if i := strings.Index(headers, "\n"+prefix); i != -1 {
		start = i + 1
	}
	if start != -1 {
		end := strings.Index(headers[start:], "\n")
		if end == -1 {
			end = len(headers)
		} else {
			end += start
		}
		if strings.TrimSpace(headers[start+len(prefix):end]) == status {
			return headers, false
		}
		if end < len(headers) {
			end++
		}
		return headers[:start] + prefix + status + "\n" + headers[end:], true
	}

	if headers != "" && !strings.HasSuffix(headers, "\n") {
		headers += "\n"
	}
	return headers + prefix + status + "\n", true
}
