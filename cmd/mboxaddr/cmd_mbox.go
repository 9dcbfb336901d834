package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emurenMRz/mboxaddr/internal/mbox"
	"github.com/emurenMRz/mboxaddr/internal/mboxheader"
)

func newValidateCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report missing or malformed headers in an mbox file",
		Long: `Checks every message for From, Date and Message-ID, parses the address
fields (From, Sender, Reply-To, To, Cc, Bcc) strictly, and lists messages
marked Status: D.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := mbox.ReadMessages(path)
			if err != nil {
				return fmt.Errorf("failed to read mbox file: %w", err)
			}

			var allResults []mboxheader.ValidationResult
			for i, message := range messages {
				_, rest := mbox.SplitAtFirstNewline(message)
				headers, _ := mbox.SplitHeadersFromBody(rest)
				allResults = append(allResults, mboxheader.ValidateHeaders(headers, i)...)
			}
			a.logger.Debug("validated mbox", zap.String("path", path), zap.Int("messages", len(messages)), zap.Int("results", len(allResults)))

			outputText(cmd.OutOrStdout(), allResults)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "input mbox file path")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

type fixOptions struct {
	path          string
	inplace       bool
	outPath       string
	dryRun        bool
	removeDeleted bool
	quiet         bool
}

func newFixCmd(a *app) *cobra.Command {
	var opts fixOptions
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Normalize the headers of an mbox file",
		Long: `Adds missing Message-ID headers and rewrites address fields to their
canonical form, dropping entries that fail strict parsing. The result goes
to stdout unless --inplace or --out is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.inplace && opts.outPath != "" {
				return errors.New("--inplace and --out are mutually exclusive")
			}
			return a.fixMessages(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.path, "path", "", "input mbox file path")
	f.BoolVar(&opts.inplace, "inplace", false, "modify input file in-place")
	f.StringVar(&opts.outPath, "out", "", "output file path")
	f.BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing")
	f.BoolVar(&opts.removeDeleted, "remove-deleted", false, "remove messages with Status: D")
	f.BoolVar(&opts.quiet, "quiet", false, "suppress the change report")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func (a *app) fixMessages(cmd *cobra.Command, opts fixOptions) error {
	messages, err := mbox.ReadMessages(opts.path)
	if err != nil {
		return fmt.Errorf("failed to read mbox file: %w", err)
	}

	if opts.removeDeleted {
		kept := messages[:0]
		for _, message := range messages {
			_, rest := mbox.SplitAtFirstNewline(message)
			headers, _ := mbox.SplitHeadersFromBody(rest)
			if status, exists := mboxheader.NewParsedMailHeaders(headers).GetFieldValue("status"); exists && status == "D" {
				continue
			}
			kept = append(kept, message)
		}
		a.logger.Debug("removed deleted messages", zap.Int("removed", len(messages)-len(kept)))
		messages = kept
	}

	normalized := make([]string, 0, len(messages))
	var allResults []mboxheader.ValidationResult
	for i, message := range messages {
		envelopeLine, rest := mbox.SplitAtFirstNewline(message)
		headers, body := mbox.SplitHeadersFromBody(rest)
		newHeaders, results := mboxheader.NormalizeHeaders(headers, i)
		normalized = append(normalized, envelopeLine+"\n"+newHeaders+"\n"+body)
		allResults = append(allResults, results...)
	}

	if !opts.quiet {
		report := cmd.OutOrStdout()
		if !opts.dryRun && !opts.inplace && opts.outPath == "" {
			// stdout carries the mbox itself
			report = cmd.ErrOrStderr()
		}
		outputText(report, allResults)
	}

	switch {
	case opts.dryRun:
		return nil
	case opts.inplace:
		return mbox.WriteMessages(opts.path, normalized)
	case opts.outPath != "":
		return mbox.WriteMessages(opts.outPath, normalized)
	}
	for _, msg := range normalized {
		if _, err := io.WriteString(cmd.OutOrStdout(), msg); err != nil {
			return err
		}
	}
	return nil
}

func newShowCmd(a *app) *cobra.Command {
	var (
		path     string
		msgIndex int
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the parsed headers of one message",
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := mbox.ReadMessages(path)
			if err != nil {
				return fmt.Errorf("failed to read mbox file: %w", err)
			}
			if msgIndex < 0 || msgIndex >= len(messages) {
				return fmt.Errorf("invalid message index %d (mbox has %d messages)", msgIndex, len(messages))
			}

			_, rest := mbox.SplitAtFirstNewline(messages[msgIndex])
			headers, _ := mbox.SplitHeadersFromBody(rest)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Message %d:\n", msgIndex)
			fmt.Fprintln(out, mboxheader.NewParsedMailHeaders(headers))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "input mbox file path")
	cmd.Flags().IntVar(&msgIndex, "msg", -1, "message index")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func outputText(w io.Writer, results []mboxheader.ValidationResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No validation errors found.")
		return
	}

	for _, result := range results {
		switch result.Status {
		case mboxheader.StatusMissing:
			fmt.Fprintf(w, "Message %d: %s header is missing\n", result.MsgIndex, result.Field)
		case mboxheader.StatusInvalid:
			fmt.Fprintf(w, "Message %d: %s header is invalid (%s)\n", result.MsgIndex, result.Field, result.Detail)
		case mboxheader.StatusRewritten:
			fmt.Fprintf(w, "Message %d: %s header rewritten (%s)\n", result.MsgIndex, result.Field, result.Detail)
		case mboxheader.StatusDeleted:
			fmt.Fprintf(w, "Message %d: Status = D (will be removed)\n", result.MsgIndex)
		}
	}
}
