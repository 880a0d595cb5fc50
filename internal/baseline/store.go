// Package baseline persists extracted schemas in a local SQLite database.
//
// A baseline is a named snapshot of one document's table/field schema
// plus provenance: source path, content digest, profile name, and save
// time. Later runs diff a live document against the stored schema
// without needing the original file.
package baseline

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/xmldelta/xmldelta/core/errors"
	"github.com/xmldelta/xmldelta/core/schemadiff"
	"github.com/xmldelta/xmldelta/core/sqlite"
	"github.com/xmldelta/xmldelta/internal/logging"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS baselines (
	name        TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	source_path TEXT NOT NULL DEFAULT '',
	digest      TEXT NOT NULL DEFAULT '',
	profile     TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS baseline_tables (
	baseline   TEXT NOT NULL,
	table_key  TEXT NOT NULL,
	table_name TEXT NOT NULL,
	PRIMARY KEY (baseline, table_key)
);
CREATE TABLE IF NOT EXISTS baseline_fields (
	baseline      TEXT NOT NULL,
	table_key     TEXT NOT NULL,
	field_key     TEXT NOT NULL,
	field_name    TEXT NOT NULL,
	field_type    TEXT NOT NULL DEFAULT '',
	field_size    TEXT NOT NULL DEFAULT '',
	field_default TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (baseline, table_key, field_key)
);
`

// Source records where a saved baseline came from.
type Source struct {
	Path    string
	Digest  string
	Profile string
}

// Meta describes one stored baseline.
type Meta struct {
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	SourcePath string    `json:"sourcePath,omitempty"`
	Digest     string    `json:"digest,omitempty"`
	Profile    string    `json:"profile,omitempty"`
	Tables     int       `json:"tables"`
	Fields     int       `json:"fields"`
}

// Store is a baseline database handle.
type Store struct {
	db *sql.DB
}

// Open opens or creates the baseline database at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open baseline store: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize baseline schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a schema snapshot under name, replacing any previous
// snapshot with that name. The whole write is one transaction.
func (s *Store) Save(ctx context.Context, name string, tables map[string]schemadiff.TableDef, src Source) error {
	if name == "" {
		return errors.NewValidation("baseline", "name must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO baselines (name, created_at, source_path, digest, profile)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			created_at  = excluded.created_at,
			source_path = excluded.source_path,
			digest      = excluded.digest,
			profile     = excluded.profile`,
		name, createdAt, src.Path, src.Digest, src.Profile); err != nil {
		return fmt.Errorf("upsert baseline: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_fields WHERE baseline = ?`, name); err != nil {
		return fmt.Errorf("clear fields: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_tables WHERE baseline = ?`, name); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}

	for _, tk := range sortedTableKeys(tables) {
		tbl := tables[tk]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO baseline_tables (baseline, table_key, table_name) VALUES (?, ?, ?)`,
			name, tk, tbl.Name); err != nil {
			return fmt.Errorf("insert table %s: %w", tk, err)
		}
		for _, fk := range sortedFieldKeys(tbl.Fields) {
			f := tbl.Fields[fk]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO baseline_fields
					(baseline, table_key, field_key, field_name, field_type, field_size, field_default)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				name, tk, fk, f.Name, f.Type, f.Size, f.Default); err != nil {
				return fmt.Errorf("insert field %s.%s: %w", tk, fk, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit baseline: %w", err)
	}
	logging.BaselineEvent(ctx, "saved", name, "tables", len(tables))
	return nil
}

// Load reads the named snapshot back into extractor form.
func (s *Store) Load(ctx context.Context, name string) (map[string]schemadiff.TableDef, Meta, error) {
	meta, err := s.meta(ctx, name)
	if err != nil {
		return nil, Meta{}, err
	}

	tables := make(map[string]schemadiff.TableDef)
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_key, table_name FROM baseline_tables WHERE baseline = ? ORDER BY table_key`, name)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, tableName string
		if err := rows.Scan(&key, &tableName); err != nil {
			return nil, Meta{}, fmt.Errorf("scan table row: %w", err)
		}
		tables[key] = schemadiff.TableDef{Name: tableName, Fields: make(map[string]schemadiff.FieldDef)}
	}
	if err := rows.Err(); err != nil {
		return nil, Meta{}, fmt.Errorf("iterate tables: %w", err)
	}

	frows, err := s.db.QueryContext(ctx, `
		SELECT table_key, field_key, field_name, field_type, field_size, field_default
		FROM baseline_fields WHERE baseline = ? ORDER BY table_key, field_key`, name)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("query fields: %w", err)
	}
	defer frows.Close()
	fieldCount := 0
	for frows.Next() {
		var tableKey, fieldKey string
		var f schemadiff.FieldDef
		if err := frows.Scan(&tableKey, &fieldKey, &f.Name, &f.Type, &f.Size, &f.Default); err != nil {
			return nil, Meta{}, fmt.Errorf("scan field row: %w", err)
		}
		if tbl, ok := tables[tableKey]; ok {
			tbl.Fields[fieldKey] = f
			fieldCount++
		}
	}
	if err := frows.Err(); err != nil {
		return nil, Meta{}, fmt.Errorf("iterate fields: %w", err)
	}

	meta.Tables = len(tables)
	meta.Fields = fieldCount
	return tables, meta, nil
}

// List returns every stored baseline ordered by name.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.name, b.created_at, b.source_path, b.digest, b.profile,
			(SELECT COUNT(*) FROM baseline_tables t WHERE t.baseline = b.name),
			(SELECT COUNT(*) FROM baseline_fields f WHERE f.baseline = b.name)
		FROM baselines b ORDER BY b.name`)
	if err != nil {
		return nil, fmt.Errorf("query baselines: %w", err)
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		var m Meta
		var created string
		if err := rows.Scan(&m.Name, &created, &m.SourcePath, &m.Digest, &m.Profile, &m.Tables, &m.Fields); err != nil {
			return nil, fmt.Errorf("scan baseline row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			m.CreatedAt = t
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate baselines: %w", err)
	}
	return metas, nil
}

// Delete removes the named snapshot and its rows.
func (s *Store) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_fields WHERE baseline = ?`, name); err != nil {
		return fmt.Errorf("delete fields: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_tables WHERE baseline = ?`, name); err != nil {
		return fmt.Errorf("delete tables: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM baselines WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete baseline: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return errors.NewNotFound("baseline", name)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	logging.BaselineEvent(ctx, "deleted", name)
	return nil
}

func (s *Store) meta(ctx context.Context, name string) (Meta, error) {
	var m Meta
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, created_at, source_path, digest, profile FROM baselines WHERE name = ?`, name).
		Scan(&m.Name, &created, &m.SourcePath, &m.Digest, &m.Profile)
	if err == sql.ErrNoRows {
		return Meta{}, errors.NewNotFound("baseline", name)
	}
	if err != nil {
		return Meta{}, fmt.Errorf("query baseline: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		m.CreatedAt = t
	}
	return m, nil
}

func sortedTableKeys(tables map[string]schemadiff.TableDef) []string {
	keys := make([]string, 0, len(tables))
	for k := range tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFieldKeys(fields map[string]schemadiff.FieldDef) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
