package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/suitesync/internal/flagx"
	"github.com/dmitrijs2005/suitesync/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "5m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr string `json:"endpoint_addr"`
	DatabaseDSN  string `json:"database_dsn"`

	AccountID      string         `json:"account_id"`
	ConsumerKey    string         `json:"consumer_key"`
	ConsumerSecret string         `json:"consumer_secret"`
	TokenID        string         `json:"token_id"`
	TokenSecret    string         `json:"token_secret"`
	AuthWindow     timex.Duration `json:"auth_window"`

	MaxFileSize       int64    `json:"max_file_size"`
	AllowedExtensions []string `json:"allowed_extensions"`

	RootFolderID   int64  `json:"root_folder_id"`
	RootFolderName string `json:"root_folder_name"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.AccountID = c.AccountID
	config.ConsumerKey = c.ConsumerKey
	config.ConsumerSecret = c.ConsumerSecret
	config.TokenID = c.TokenID
	config.TokenSecret = c.TokenSecret
	config.AuthWindow = time.Duration(c.AuthWindow.Duration)
	config.MaxFileSize = c.MaxFileSize
	config.AllowedExtensions = c.AllowedExtensions
	config.RootFolderID = c.RootFolderID
	config.RootFolderName = c.RootFolderName
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
