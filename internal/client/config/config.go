// Package config loads per-workspace client settings from env-style files
// and the process environment.
//
// Candidate files are read in precedence order (low to high): ".env", then
// ".env.local"; a later file overrides an earlier one, and process
// environment variables override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/subosito/gotenv"

	"github.com/dmitrijs2005/suitesync/internal/common"
	"github.com/dmitrijs2005/suitesync/internal/restlet"
	"github.com/dmitrijs2005/suitesync/internal/tba"
)

// CandidateFiles lists the env files consulted in each workspace, lowest
// precedence first.
var CandidateFiles = []string{".env", ".env.local"}

// Config holds everything the watcher CLI needs for one workspace.
type Config struct {
	AccountID      string
	RestletURL     string
	ConsumerKey    string
	ConsumerSecret string
	TokenID        string
	TokenSecret    string

	UploadFrom  string
	WatchFolder string
	RootPath    string

	DebounceDelay time.Duration
	BuildWait     time.Duration
	MaxFileSize   int64
}

// LoadDefaults populates the non-credential fields with their defaults.
func (c *Config) LoadDefaults() {
	c.UploadFrom = "dist"
	c.WatchFolder = "src"
	c.RootPath = "/SuiteScripts"
	c.DebounceDelay = 300 * time.Millisecond
	c.BuildWait = 0
	c.MaxFileSize = restlet.DefaultMaxFileSize
}

// Credentials returns the signing credentials.
func (c *Config) Credentials() tba.Credentials {
	return tba.Credentials{
		AccountID:      c.AccountID,
		ConsumerKey:    c.ConsumerKey,
		ConsumerSecret: c.ConsumerSecret,
		TokenID:        c.TokenID,
		TokenSecret:    c.TokenSecret,
	}
}

// Validate checks that everything needed for a signed request is present.
func (c *Config) Validate() error {
	if c.RestletURL == "" {
		return fmt.Errorf("%w: RESTLET_URL", common.ErrConfigMissing)
	}
	return c.Credentials().Validate()
}

// Load builds the config for workspaceDir by applying defaults, the
// candidate env files in precedence order, and finally the process
// environment.
func Load(workspaceDir string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	for _, name := range CandidateFiles {
		path := filepath.Join(workspaceDir, name)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		env, err := gotenv.StrictParse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := cfg.apply(func(key string) string { return env[key] }); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := cfg.apply(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply overlays non-empty values from the lookup function.
func (c *Config) apply(get func(string) string) error {
	setString := func(dst *string, key string) {
		if v := get(key); v != "" {
			*dst = v
		}
	}
	setString(&c.AccountID, "ACCOUNT_ID")
	setString(&c.RestletURL, "RESTLET_URL")
	setString(&c.ConsumerKey, "CONSUMER_KEY")
	setString(&c.ConsumerSecret, "CONSUMER_SECRET")
	setString(&c.TokenID, "TOKEN_ID")
	setString(&c.TokenSecret, "TOKEN_SECRET")
	setString(&c.UploadFrom, "UPLOAD_FROM")
	setString(&c.WatchFolder, "WATCH_FOLDER")
	setString(&c.RootPath, "ROOT_PATH")

	if v := get("DEBOUNCE_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DEBOUNCE_MS: %w", err)
		}
		c.DebounceDelay = time.Duration(ms) * time.Millisecond
	}
	if v := get("BUILD_WAIT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BUILD_WAIT_MS: %w", err)
		}
		c.BuildWait = time.Duration(ms) * time.Millisecond
	}
	if v := get("MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_FILE_SIZE: %w", err)
		}
		c.MaxFileSize = n
	}
	return nil
}
