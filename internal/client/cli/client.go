package cli

import (
	"path/filepath"

	clientconfig "github.com/dmitrijs2005/suitesync/internal/client/config"
	"github.com/dmitrijs2005/suitesync/internal/restlet"
	"github.com/dmitrijs2005/suitesync/internal/tba"
)

// workspaceClient resolves one workspace's config and builds a signed
// endpoint client from it.
func (a *App) workspaceClient(dir string) (string, *clientconfig.Config, *restlet.Client, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, nil, err
	}

	cfg, err := a.configs.Get(abs)
	if err != nil {
		return "", nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, nil, err
	}

	signer, err := tba.NewSigner(cfg.Credentials())
	if err != nil {
		return "", nil, nil, err
	}

	client := restlet.NewClient(cfg.RestletURL, signer, a.logger,
		restlet.WithMaxFileSize(cfg.MaxFileSize))
	return abs, cfg, client, nil
}
