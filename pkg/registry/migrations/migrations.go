// Package migrations embeds the registry's Postgres schema migrations
// for golang-migrate's iofs source driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
