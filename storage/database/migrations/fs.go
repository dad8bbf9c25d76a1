package migrations

import "embed"

// FS holds the goose migrations of the local store.
//
//go:embed *.sql
var FS embed.FS
