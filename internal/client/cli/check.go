package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func (a *App) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify credentials and endpoint reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, client, err := a.workspaceClient(a.dir)
			if err != nil {
				return err
			}

			start := time.Now()
			info, err := client.TestConnection(cmd.Context())
			if err != nil {
				return err
			}

			colorOK.Printf("✓ connected to %s\n", cfg.RestletURL)
			colorDetail.Printf("  version %s, user %s (%s), %dms\n",
				info.Version, info.User.Name, info.User.Role, time.Since(start).Milliseconds())
			return nil
		},
	}
}
