// Package migrations embeds the hub's goose SQL migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
