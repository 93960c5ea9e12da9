// Package migrations embeds the mirror schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
