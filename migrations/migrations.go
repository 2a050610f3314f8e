// Package migrations embeds the SQL schema applied through goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
