// Package migrations embeds the goose SQL migrations of the portfolio schema.
package migrations

import "embed"

// Migrations holds every *.sql migration file, applied in version order.
//
//go:embed *.sql
var Migrations embed.FS
