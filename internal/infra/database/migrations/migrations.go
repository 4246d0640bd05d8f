package migrations

import "embed"

// Migrations holds the embedded goose SQL migrations.
//
//go:embed *.sql
var Migrations embed.FS
