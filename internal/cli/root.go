// Package cli implements the drills command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/drills/internal/logging"
	"github.com/mesh-intelligence/drills/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app is the state shared by one invocation of the root command.
type app struct {
	flags     rootFlags
	configDir string
	config    *viper.Viper
	logger    *slog.Logger
}

// NewRootCmd creates the top-level "drills" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: logging.Discard()}

	root := &cobra.Command{
		Use:   "drills",
		Short: "Edit training exercises against a shared store",
		Long: "Drills keeps local edits of exercises, their field and roster, saves\n" +
			"them field by field and merges fresh snapshots without losing edits.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.drills-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newSetCmd(a),
		newPlayerCmd(a),
		newMergeCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// setup resolves the config directory, loads config.yaml and builds the
// logger. It runs before every subcommand.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	a.configDir = configDir
	a.config = cfg

	levelName := a.flags.logLevel
	if levelName == "" {
		levelName = cfg.GetString(cfgKeyLogLevel)
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return userError(err)
	}
	a.logger = logging.New(level, cmd.ErrOrStderr())
	return nil
}

// Execute runs the root command with os.Args and returns the exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stdout, os.Stderr)
}

// run executes root with args, printing errors to stderr, and maps the
// result to an exit code.
func run(root *cobra.Command, args []string, stdout, stderr io.Writer) int {
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "drills:", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// exitError carries the exit code a failed command should produce.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }

func sysError(err error) error { return &exitError{code: exitSysError, err: err} }
