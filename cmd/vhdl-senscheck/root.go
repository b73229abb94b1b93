package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/config"
	"github.com/robert-at-pretension-io/vhdl-senscheck/internal/logging"
)

var version = "dev"

// Exit codes.
const (
	exitOK         = 0
	exitViolations = 1
	exitNoBuild    = 2
	exitNoResult   = 3
	exitError      = 4
)

// exitErr carries a process exit code out of a command. A nil err exits
// silently with code.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitErr) Unwrap() error { return e.err }

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	logFormat  string

	logger *zap.SugaredLogger
}

// loadConfig reads --config when given, otherwise searches from root.
func (o *globalOptions) loadConfig(root string) (*config.Config, error) {
	if o.configPath != "" {
		cfg, err := config.LoadFile(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", o.configPath, err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(root)
	if err != nil {
		o.logger.Warnw("could not load config, using defaults", "error", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{logger: logging.Nop()}

	root := &cobra.Command{
		Use:   "vhdl-senscheck",
		Short: "Verify the sensitivity lists of clocked VHDL processes",
		Long: `vhdl-senscheck checks that every synchronous VHDL process lists its clocks
and the resets tested ahead of them, and nothing else.

Configuration is read from (first match wins):
  1. ./vhdl_senscheck.json or ./.vhdl_senscheck.json
  2. <path>/vhdl_senscheck.json or <path>/.vhdl_senscheck.json
  3. ~/.config/vhdl_senscheck/config.json

Run 'vhdl-senscheck init' to create a default configuration file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format := logging.FormatFromEnv(logging.FormatConsole)
			if opts.logFormat != "" {
				format = logging.Format(opts.logFormat)
				if format != logging.FormatConsole && format != logging.FormatJSON {
					return fmt.Errorf("unknown log format %q (want console or json)", opts.logFormat)
				}
			}
			opts.logger = logging.New(logging.Options{
				Verbose: opts.verbose,
				Quiet:   opts.quiet,
				Format:  format,
				Output:  stderr,
			})
			return nil
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("vhdl-senscheck version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (JSON or YAML)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log warnings and errors")
	flags.StringVar(&opts.logFormat, "log-format", "", "log encoding: console or json")

	root.AddCommand(
		newCheckCmd(opts),
		newDumpCmd(opts),
		newDiffCmd(opts),
		newInitCmd(opts),
	)
	return root
}

// run executes the command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitErr
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitError
}

// projectRoot picks the directory or file the command works on.
func projectRoot(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return filepath.Clean(args[0])
}
