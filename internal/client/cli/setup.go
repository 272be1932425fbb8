package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	clientconfig "github.com/dmitrijs2005/suitesync/internal/client/config"
)

func (a *App) setupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactively write the workspace .env file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(a.dir)
			if err != nil {
				return err
			}
			envPath := filepath.Join(root, clientconfig.CandidateFiles[0])
			if _, err := os.Stat(envPath); err == nil && !force {
				return fmt.Errorf("%s already exists, pass --force to overwrite", envPath)
			}

			values, err := collectSetup(cmd)
			if err != nil {
				return err
			}
			if err := writeEnvFile(envPath, values); err != nil {
				return err
			}

			a.configs.Invalidate(root)
			colorOK.Printf("✓ wrote %s\n", envPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing env file")
	return cmd
}

type envEntry struct {
	key   string
	value string
}

// collectSetup prompts for everything a signed upload needs. Secrets are
// read without echo.
func collectSetup(cmd *cobra.Command) ([]envEntry, error) {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	defaults := &clientconfig.Config{}
	defaults.LoadDefaults()

	entries := []envEntry{}
	plain := []struct {
		key    string
		prompt string
		def    string
	}{
		{"ACCOUNT_ID", "Account id", ""},
		{"RESTLET_URL", "Endpoint URL", ""},
		{"CONSUMER_KEY", "Consumer key", ""},
		{"TOKEN_ID", "Token id", ""},
		{"WATCH_FOLDER", "Watch folder", defaults.WatchFolder},
		{"UPLOAD_FROM", "Upload folder", defaults.UploadFrom},
		{"ROOT_PATH", "Cabinet root path", defaults.RootPath},
	}
	secrets := []struct {
		key    string
		prompt string
	}{
		{"CONSUMER_SECRET", "Consumer secret"},
		{"TOKEN_SECRET", "Token secret"},
	}

	for _, p := range plain {
		v, err := promptText(reader, out, p.prompt, p.def)
		if err != nil {
			return nil, err
		}
		entries = append(entries, envEntry{p.key, v})
	}
	for _, s := range secrets {
		v, err := promptSecret(out, s.prompt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, envEntry{s.key, v})
	}
	return entries, nil
}

// writeEnvFile persists the answers with owner-only permissions, since two
// of them are secrets.
func writeEnvFile(path string, entries []envEntry) error {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s=%s\n", e.key, e.value)
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}
