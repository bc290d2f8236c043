// Package migrations embeds the SQL migrations applied by goose at
// startup of the Postgres-backed store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
