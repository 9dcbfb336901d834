package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emurenMRz/mboxaddr/internal/addrlist"
)

func newParseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [value...]",
		Short: "Parse header values as one address list",
		Long: `Parses the given header values (or one value per stdin line when none
are given) and prints one "name<TAB>address" line per entry.

In lenient mode a malformed entry prints as a line holding only the tab
(empty name and address). In strict mode
it is left out, reported on stderr, and the command exits with status 65.`,
		Example: `  mboxaddr parse 'Alice <alice@example.com>, bob@example.com'
  mboxaddr parse --strict 'Name <a@b.com>, bad-address'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := args
			if len(values) == 0 {
				var err error
				if values, err = readLines(cmd); err != nil {
					return err
				}
			}

			mode := a.mode(cmd)
			entries, err := addrlist.GetAddresses(values, mode)
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\n", e.Name, e.Address)
			}

			var invalid *addrlist.InvalidAddressError
			if !errors.As(err, &invalid) {
				return err
			}
			for _, f := range invalid.Failures {
				fmt.Fprintln(cmd.ErrOrStderr(), f.Error())
			}
			a.logger.Debug("malformed addresses", zap.Stringer("mode", mode), zap.Ints("indices", invalid.Indices()))
			return &exitError{code: exDataErr, err: err}
		},
	}
	cmd.Flags().Bool("strict", false, "drop and report malformed entries")
	return cmd
}

func readLines(cmd *cobra.Command) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
