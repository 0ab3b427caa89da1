// Package migrations embeds the identityd Postgres schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
