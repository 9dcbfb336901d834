package main

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emurenMRz/mboxaddr/internal/addrlist"
	"github.com/emurenMRz/mboxaddr/internal/mbox"
	"github.com/emurenMRz/mboxaddr/internal/mboxheader"
)

func newAppendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append FILE",
		Short: "Append a message read from stdin to an mbox file",
		Long: `Reads one RFC 5322 message from stdin and appends it to FILE, creating
the file when needed. Body lines starting with "From " are escaped.

Meant to be called by an MTA as a local delivery agent: I/O failures exit
with 75 (EX_TEMPFAIL) so the MTA retries. With --strict, a message whose
address fields fail strict parsing is rejected with 65 (EX_DATAERR).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.appendMessage(cmd, args[0], a.mode(cmd))
		},
	}
	cmd.Flags().Bool("strict", false, "reject messages with malformed address fields")
	return cmd
}

func (a *app) appendMessage(cmd *cobra.Command, path string, mode addrlist.Mode) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return &exitError{code: exTempFail, err: fmt.Errorf("read error: %w", err)}
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	headers, _ := mbox.SplitHeadersFromBody(string(data))
	if mode == addrlist.Strict {
		if results := mboxheader.ValidateAddresses(headers, 0); len(results) > 0 {
			for _, r := range results {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s header is invalid (%s)\n", r.Field, r.Detail)
			}
			return &exitError{code: exDataErr, err: fmt.Errorf("rejected message with %d malformed address field(s)", len(results))}
		}
	}

	from := envelopeSender(data)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o660)
	if err != nil {
		return &exitError{code: exTempFail, err: fmt.Errorf("cannot open mbox: %w", err)}
	}
	defer f.Close()

	if err := mbox.Append(f, from, time.Now(), bytes.NewReader(data)); err != nil {
		return &exitError{code: exTempFail, err: err}
	}
	if err := f.Close(); err != nil {
		return &exitError{code: exTempFail, err: fmt.Errorf("write error: %w", err)}
	}
	a.logger.Debug("appended message", zap.String("mbox", path), zap.String("from", from), zap.Int("bytes", len(data)))
	return nil
}

// envelopeSender picks the address for the "From " line: Return-Path
// when present, else the first From address. An empty result lets
// mbox.Append fall back to MAILER-DAEMON.
func envelopeSender(data []byte) string {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	if rp := strings.Trim(strings.TrimSpace(msg.Header.Get("Return-Path")), "<>"); rp != "" {
		return rp
	}
	e, _ := addrlist.ParseAddr(msg.Header.Get("From"), addrlist.Lenient)
	return e.Address
}
