package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/suitesync/internal/client/dispatcher"
	"github.com/dmitrijs2005/suitesync/internal/client/pathmap"
	"github.com/dmitrijs2005/suitesync/internal/client/watcher"
)

func (a *App) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [workspace...]",
		Short: "Watch workspaces and upload files as they are saved",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = []string{a.dir}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var wg sync.WaitGroup
			for _, dir := range dirs {
				if err := a.watchWorkspace(ctx, &wg, dir); err != nil {
					stop()
					wg.Wait()
					return err
				}
			}

			<-ctx.Done()
			wg.Wait()
			return nil
		},
	}
}

// watchWorkspace starts one watcher plus dispatcher pair. Each workspace is
// independent: its own config, endpoint client, and debounce state.
func (a *App) watchWorkspace(ctx context.Context, wg *sync.WaitGroup, dir string) error {
	root, cfg, client, err := a.workspaceClient(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}

	d := dispatcher.New(client, a.logger,
		dispatcher.WithDebounce(cfg.DebounceDelay),
		dispatcher.WithBuildWait(cfg.BuildWait),
		dispatcher.WithListener(printEvent),
	)

	watchRoot := filepath.Join(root, cfg.WatchFolder)
	w, err := watcher.New(watchRoot, a.logger, func(saved string) {
		target, err := pathmap.Resolve(saved, root, cfg.WatchFolder, cfg.UploadFrom, cfg.RootPath)
		if err != nil {
			a.logger.Warn(ctx, "save ignored", "path", saved, "error", err)
			return
		}
		d.OnSave(ctx, target)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", watchRoot, err)
	}

	colorOK.Printf("watching %s", watchRoot)
	colorDetail.Printf(" -> %s\n", cfg.RestletURL)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer d.Close()
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			printError(err)
		}
	}()
	return nil
}
