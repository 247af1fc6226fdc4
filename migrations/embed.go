package migrations

import "embed"

// Files exposes the session store migrations embedded into the binary.
//
//go:embed *.sql
var Files embed.FS
