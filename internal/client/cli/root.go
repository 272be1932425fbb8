// Package cli implements the watcher command line: watch, push, check, rm,
// and setup.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/suitesync/internal/client/config"
	"github.com/dmitrijs2005/suitesync/internal/logging"
)

// App carries the pieces every command needs. Commands resolve their
// workspace config lazily through the cache, so one process can serve
// several workspaces.
type App struct {
	logger  logging.Logger
	configs *config.Cache
	dir     string
	verbose bool
}

func NewApp() (*App, error) {
	configs, err := config.NewCache()
	if err != nil {
		return nil, err
	}
	return &App{configs: configs}, nil
}

// Root builds the command tree.
func (a *App) Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "suitesync",
		Short:         "Push saved files to the remote file cabinet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			a.logger = logging.NewSlogLogger(slog.New(handler))
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log internals to stderr")
	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "workspace directory")

	root.AddCommand(
		a.watchCmd(),
		a.pushCmd(),
		a.checkCmd(),
		a.rmCmd(),
		a.setupCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func (a *App) Execute() int {
	if err := a.Root().Execute(); err != nil {
		printError(err)
		return 1
	}
	return 0
}
