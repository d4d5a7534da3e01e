//go:build cgo_sqlite

// Build with -tags cgo_sqlite (CGO_ENABLED=1) to use the C SQLite library.

package corpus

import (
	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"
