package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/suitesync/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-n string   account id requests must carry in their realm
//	-k string   consumer key
//	-s string   consumer secret
//	-t string   token id
//	-x string   token secret
//	-w int      auth timestamp window, minutes
//	-m int      max upload size, bytes
//	-e string   comma-separated allowed extensions (empty allows all)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-o string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-n", "-k", "-s", "-t", "-x", "-w", "-m", "-e", "-u", "-p", "-b", "-g", "-o",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccountID, "n", config.AccountID, "account id")
	fs.StringVar(&config.ConsumerKey, "k", config.ConsumerKey, "consumer key")
	fs.StringVar(&config.ConsumerSecret, "s", config.ConsumerSecret, "consumer secret")
	fs.StringVar(&config.TokenID, "t", config.TokenID, "token id")
	fs.StringVar(&config.TokenSecret, "x", config.TokenSecret, "token secret")

	authWindow := fs.Int("w", int(config.AuthWindow.Minutes()), "auth timestamp window (in minutes)")
	fs.Int64Var(&config.MaxFileSize, "m", config.MaxFileSize, "max upload size in bytes")
	extensions := fs.String("e", strings.Join(config.AllowedExtensions, ","), "allowed extensions, comma-separated")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "o", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AuthWindow = time.Duration(*authWindow) * time.Minute
	if *extensions != "" {
		config.AllowedExtensions = strings.Split(*extensions, ",")
	}
}
