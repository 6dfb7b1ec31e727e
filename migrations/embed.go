// Package migrations embeds the SQL schema migrations so the server can
// apply them without the files being present at runtime.
package migrations

import "embed"

// FS holds the *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
