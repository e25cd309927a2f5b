package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-board/internal/api"
	"github.com/Makepad-fr/tada-board/internal/auth"
	"github.com/Makepad-fr/tada-board/internal/board"
	"github.com/Makepad-fr/tada-board/internal/config"
	"github.com/Makepad-fr/tada-board/internal/logging"
	"github.com/Makepad-fr/tada-board/internal/tui"
	"github.com/Makepad-fr/tada-board/internal/ui"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// App carries root flags and the resolved configuration.
type App struct {
	ConfigFile string
	APIBase    string
	LogLevel   string
	Theme      string
	NoColor    bool

	in  io.Reader
	out io.Writer
	err io.Writer

	cfg *config.Config
	log *log.Logger
}

// usageError maps to exit code 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// Execute runs the CLI with os.Args and returns an exit code
// (0 ok, 1 error, 2 usage).
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run is Execute with explicit arguments and streams.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	app := &App{in: in, out: out, err: errOut}
	cmd := NewRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	ui.Fail(errOut, err.Error())
	return exitCode(err)
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue), errors.Is(err, board.ErrValidation):
		return 2
	}
	return 1
}

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Todo board for a remote todo backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          rootArgs,
		Example: strings.TrimSpace(`
  # Interactive board
  todo

  # Scriptable commands
  todo ls --group
  todo add "Buy milk" -d "2 litres"
  todo done 3
  todo rm 3

  # Point at another backend
  TODO_API_BASE=https://todo.example.com todo ls
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runBoard(cmd.Context())
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err.Error()}
	})

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", "", "Config file (default ~/.tada/config.toml)")
	cmd.PersistentFlags().StringVar(&app.APIBase, "api", "", "Backend base URL (env TODO_API_BASE, default "+config.DefaultAPIBase+")")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "debug|info|warn|error (env TADA_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&app.Theme, "theme", "", "classic|neon|mono (env TADA_THEME)")
	cmd.PersistentFlags().BoolVar(&app.NoColor, "no-color", false, "Disable colors")

	cmd.AddCommand(newBoardCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newAuthCmd(app))
	return cmd
}

func (a *App) setup() error {
	cfg, err := config.Load(config.Overrides{
		ConfigFile: a.ConfigFile,
		APIBase:    a.APIBase,
		LogLevel:   a.LogLevel,
		Theme:      a.Theme,
		NoColor:    a.NoColor,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	ui.SetColorDisabled(cfg.NoColor)
	ui.SetTheme(cfg.Theme)

	opts := logging.DefaultOptions()
	opts.Level = cfg.LogLevel
	l, err := logging.New(a.err, opts)
	if err != nil {
		return usageError{err.Error()}
	}
	a.log = l
	a.log.Debug("config resolved", "api", cfg.APIBase, "timeout", cfg.Timeout, "file", cfg.File)
	return nil
}

// newBoard wires the API client and board for one command run.
func (a *App) newBoard(logger *log.Logger) (*board.Board, error) {
	opts := []api.Option{
		api.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout}),
		api.WithLogger(logger),
		api.WithUserAgent("tada/" + Version),
	}
	ti, err := auth.GetToken()
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	if ti != nil {
		opts = append(opts, api.WithToken(ti.Token))
	}
	client := api.New(a.cfg.APIBase, opts...)
	return board.New(client, board.WithLogger(logger)), nil
}

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the interactive board (default)",
		Args:  noArgs("todo board"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runBoard(cmd.Context())
		},
	}
}

// runBoard logs to cfg.LogFile, if set; the terminal belongs to the board.
func (a *App) runBoard(ctx context.Context) error {
	logger := logging.Discard()
	if a.cfg.LogFile != "" {
		f, err := logging.OpenFile(a.cfg.LogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := logging.DefaultOptions()
		opts.Level = a.cfg.LogLevel
		opts.ReportTimestamp = true
		if logger, err = logging.New(f, opts); err != nil {
			return usageError{err.Error()}
		}
	}
	b, err := a.newBoard(logger)
	if err != nil {
		return err
	}
	return tui.Run(ctx, b)
}

// rootArgs rejects stray words, which on the root are mistyped commands.
func rootArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return usageError{fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath())}
	}
	return nil
}

func noArgs(usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return usageError{"usage: " + usage}
		}
		return nil
	}
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError{"usage: " + usage}
		}
		return nil
	}
}
