//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3, selected by the cgo_sqlite
// build tag.
//
// Build with: CGO_ENABLED=1 go build -tags cgo_sqlite
//
// The driver registration lives in contrib/sqlite-external to keep the
// optional external dependency out of default builds.
package sqlite

import (
	_ "github.com/xmldelta/xmldelta/contrib/sqlite-external" // CGO SQLite driver
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3 (via contrib/sqlite-external)"
)
