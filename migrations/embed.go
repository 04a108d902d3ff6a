// Package migrations carries the SQLite schema and seed data.
package migrations

import "embed"

// FS holds the NNN_name.sql files in version order
//
//go:embed *.sql
var FS embed.FS
