package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) rmCmd() *cobra.Command {
	var fileID int64

	cmd := &cobra.Command{
		Use:   "rm [remote-path]",
		Short: "Delete a remote file by cabinet path or id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (fileID == 0) {
				return fmt.Errorf("pass a remote path or --id, not both")
			}

			_, _, client, err := a.workspaceClient(a.dir)
			if err != nil {
				return err
			}

			if fileID != 0 {
				resp, err := client.DeleteByID(cmd.Context(), fileID)
				if err != nil {
					return err
				}
				colorOK.Printf("✓ deleted id=%d\n", resp.FileID)
				return nil
			}

			resp, err := client.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			colorOK.Printf("✓ deleted %s (id=%d)\n", args[0], resp.FileID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&fileID, "id", 0, "remote file id")
	return cmd
}
