// Package migrations embeds the SQL schema so the binary and the test
// suite run against the exact same DDL.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
