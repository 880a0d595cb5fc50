// Package sqliteexternal provides the optional CGO SQLite driver.
//
// By default the baseline store uses the pure Go modernc.org/sqlite
// driver and needs no CGO. Builds that already carry a C toolchain can
// switch to github.com/mattn/go-sqlite3 instead:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite
//
// The driver registration in this package is itself guarded by the
// cgo_sqlite tag, so default builds never pull in the CGO dependency.
// Driver selection lives in github.com/xmldelta/xmldelta/core/sqlite;
// callers open databases through that package, never directly.
package sqliteexternal
