// Package migrations embeds the SQL migrations applied by cmd/migrate.
//
// Only tables owned by this service live here; patient, document, and
// certificate tables belong to the managed tenant store and are not managed
// by this module.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
