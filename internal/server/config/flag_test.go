package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db", "-n", "123456",
			"-k", "ck", "-s", "cs", "-t", "tk", "-x", "ts",
			"-w", "10", "-m", "1024", "-e", "js,json",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-o", "http://endpoint",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddr:      "127.0.0.1:9090",
				DatabaseDSN:       "db",
				AccountID:         "123456",
				ConsumerKey:       "ck",
				ConsumerSecret:    "cs",
				TokenID:           "tk",
				TokenSecret:       "ts",
				AuthWindow:        10 * time.Minute,
				MaxFileSize:       1024,
				AllowedExtensions: []string{"js", "json"},
				S3RootUser:        "user",
				S3RootPassword:    "password",
				S3Bucket:          "bucket",
				S3Region:          "us-west-1",
				S3BaseEndpoint:    "http://endpoint",
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
