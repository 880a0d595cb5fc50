package sqlite

import (
	"path/filepath"
	"testing"
)

// TestDriverInfo verifies the compiled-in driver metadata is consistent.
func TestDriverInfo(t *testing.T) {
	info := GetInfo()

	if info.DriverName == "" || info.DriverType == "" || info.Package == "" {
		t.Fatalf("incomplete driver info: %+v", info)
	}
	if info.DriverName != DriverName() || info.DriverType != DriverType() || info.IsCGO != IsCGO() {
		t.Errorf("info %+v disagrees with package functions", info)
	}

	switch info.DriverType {
	case "purego":
		if info.IsCGO || info.DriverName != "sqlite" {
			t.Errorf("purego driver misconfigured: %+v", info)
		}
	case "cgo":
		if !info.IsCGO || info.DriverName != "sqlite3" {
			t.Errorf("cgo driver misconfigured: %+v", info)
		}
	default:
		t.Errorf("unknown driver type %q", info.DriverType)
	}
}

// TestOpenRoundTrip verifies create, insert, and query through the
// selected driver.
func TestOpenRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE kv (id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO kv (value) VALUES (?)`, "hello"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	var value string
	if err := db.QueryRow(`SELECT value FROM kv WHERE id = 1`).Scan(&value); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if value != "hello" {
		t.Errorf("value = %q, want %q", value, "hello")
	}
}

// TestOpenReadOnly verifies an existing database is readable in ro mode.
func TestOpenReadOnly(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db := MustOpen(dbPath)
	if _, err := db.Exec(`CREATE TABLE kv (id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO kv (value) VALUES (?)`, "readonly"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	db.Close()

	rodb, err := OpenReadOnly(dbPath)
	if err != nil {
		t.Fatalf("OpenReadOnly failed: %v", err)
	}
	defer rodb.Close()

	var value string
	if err := rodb.QueryRow(`SELECT value FROM kv WHERE id = 1`).Scan(&value); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if value != "readonly" {
		t.Errorf("value = %q, want %q", value, "readonly")
	}
}
