// Package migrations embeds the SQL migration files applied by goose
// at startup via db.RunMigrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
