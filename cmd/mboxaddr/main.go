// Command mboxaddr parses RFC 5322 address lists and maintains the
// headers of mbox files.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emurenMRz/mboxaddr/internal/addrlist"
	"github.com/emurenMRz/mboxaddr/internal/config"
)

// Exit codes from sysexits.h, as expected by MTAs calling append.
const (
	exDataErr  = 65
	exTempFail = 75
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// app holds state shared by all subcommands once PersistentPreRunE has run.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// mode picks the parse mode: an explicit --strict flag wins over the
// configured default.
func (a *app) mode(cmd *cobra.Command) addrlist.Mode {
	if f := cmd.Flags().Lookup("strict"); f != nil && f.Changed {
		strict, _ := cmd.Flags().GetBool("strict")
		return addrlist.ModeFor(strict)
	}
	return addrlist.ModeFor(a.cfg.Parsing.Strict)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "mboxaddr",
		Short: "RFC 5322 address-list parser and mbox header tool",
		Long: `mboxaddr parses "From"/"To"-style header values into (name, address)
pairs, either leniently (malformed entries become empty placeholders) or
strictly (malformed entries are dropped and reported).

It also validates and repairs the headers of mbox files, appends
messages delivered on stdin, and serves mailboxes over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger, err = cfg.Logging.BuildLogger(a.verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newParseCmd(a),
		newValidateCmd(a),
		newFixCmd(a),
		newShowCmd(a),
		newAppendCmd(a),
		newServeCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}
