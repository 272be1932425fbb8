package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/suitesync/internal/client/pathmap"
)

func (a *App) pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <file>",
		Short: "Upload one file immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, client, err := a.workspaceClient(a.dir)
			if err != nil {
				return err
			}

			saved, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			target, err := pathmap.Resolve(saved, root, cfg.WatchFolder, cfg.UploadFrom, cfg.RootPath)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(target.PhysicalPath)
			if err != nil {
				return fmt.Errorf("read %s: %w", target.PhysicalPath, err)
			}

			resp, err := client.UploadFile(cmd.Context(), target.RemotePath, content, "")
			if err != nil {
				return err
			}

			colorOK.Printf("✓ %s ", filepath.Base(target.PhysicalPath))
			colorDetail.Printf("%s %s id=%d (%dms)\n", resp.Action, target.RemotePath, resp.FileID, resp.Duration)
			return nil
		},
	}
}
