package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Johannes-Berggren/hydrasect/internal/bisect"
	"github.com/Johannes-Berggren/hydrasect/internal/logging"
)

// env is the outside world a command runs against.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	// isTerminal reports whether f is attached to a terminal.
	isTerminal func(f any) bool
	copy       func(string) error
}

func defaultEnv() *env {
	return &env{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		getenv:     os.Getenv,
		isTerminal: isTerminal,
		copy:       clipboard.WriteAll,
	}
}

func isTerminal(f any) bool {
	file, ok := f.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// options are the flags shared by every command.
type options struct {
	dir         string
	configPath  string
	backend     string
	source      string
	historyFile string
	maxAge      time.Duration
	verbose     bool
	copy        bool
}

func newRootCmd(e *env) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "hydrasect",
		Short: "Find commits Hydra already evaluated near the current bisection step",
		Long: `hydrasect looks at the running git bisect and prints the commits closest
to HEAD, inside the remaining range, that Hydra has already evaluated.
Testing one of those instead of HEAD saves a local build.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.Setup(e.stderr, opts.verbose, e.getenv(logging.EnvVar))
			if err != nil {
				return err
			}
			logger.Debug("starting", "command", cmd.Name())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, e)
			if err != nil {
				return err
			}
			return a.search(cmd.Context(), opts.copy)
		},
	}
	rootCmd.SetIn(e.stdin)
	rootCmd.SetOut(e.stdout)
	rootCmd.SetErr(e.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.dir, "directory", "C", "", "run as if started in `dir`")
	flags.StringVar(&opts.configPath, "config", "", "configuration `file` (default $XDG_CONFIG_HOME/hydrasect/config.yaml)")
	flags.StringVar(&opts.backend, "backend", "", "git access: exec or go-git")
	flags.StringVar(&opts.source, "source", "", "history source: channel or hydra")
	flags.StringVar(&opts.historyFile, "history-file", "", "evaluation history `file` (default $XDG_CACHE_HOME/hydrasect/hydra-eval-history)")
	flags.DurationVar(&opts.maxAge, "max-age", 0, "refresh a history file older than this when it lags behind the bad commit")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug messages to stderr")
	rootCmd.Flags().BoolVar(&opts.copy, "copy", false, "also copy the result to the clipboard")

	rootCmd.AddCommand(newScrapeCmd(opts, e), newBrowseCmd(opts, e))
	return rootCmd
}

// search prints the closest evaluated commits, one per line.
func (a *app) search(ctx context.Context, copyResult bool) error {
	res, err := a.finder().Find(ctx)
	if err != nil {
		return err
	}

	lines := res.Closest.Strings()
	for _, l := range lines {
		fmt.Fprintln(a.env.stdout, l)
	}
	if len(lines) == 0 {
		a.logger.Info("no evaluated commit is reachable from HEAD")
		return nil
	}

	if copyResult {
		if err := a.env.copy(strings.Join(lines, "\n")); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
	}
	return nil
}

func (a *app) finder() *bisect.Finder {
	return &bisect.Finder{
		Repo:    a.repo,
		History: a.policy(),
		Logger:  a.logger,
	}
}

var argv0Style = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

// printError reports err as "<argv0>: <err>", highlighting the program
// name on a terminal.
func printError(w io.Writer, argv0 string, err error, styled bool) {
	name := argv0
	if styled {
		name = argv0Style.Render(argv0)
	}
	fmt.Fprintf(w, "%s: %v\n", name, err)
}

// Execute runs the command line and exits non-zero on failure.
func Execute(ctx context.Context) {
	e := defaultEnv()
	if err := newRootCmd(e).ExecuteContext(ctx); err != nil {
		argv0 := "hydrasect"
		if len(os.Args) > 0 {
			argv0 = os.Args[0]
		}
		printError(os.Stderr, argv0, err, e.isTerminal(os.Stderr))
		os.Exit(1)
	}
}
