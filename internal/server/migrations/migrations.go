// Package migrations embeds the goose SQL migrations for the identity
// server schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
