// Package migrations embeds the cabinet schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
