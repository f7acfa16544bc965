// Package store keeps computed metrics across runs in a SQLite database keyed
// by (project, candidate). A later run only overwrites the values it could
// compute, so metrics produced by separate runs merge into one row.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Iron-Ham/archmetrics/internal/errors"
	"github.com/Iron-Ham/archmetrics/internal/metrics"
	"github.com/Iron-Ham/archmetrics/internal/store/migrations"
)

// DefaultFileName is the database file name used inside a data directory.
const DefaultFileName = "results.db"

// Entry is one stored row.
type Entry struct {
	Record    metrics.Record
	RunID     string
	UpdatedAt time.Time
}

// Store is a SQLite-backed results table.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the database at path, creating parent directories
// as needed, and applies pending migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "running migrations")
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_results.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

const upsertSQL = `
	INSERT INTO results (project, candidate, file, cid, cmod, scf, smad, dccmd, run_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(project, candidate) DO UPDATE SET
		file = excluded.file,
		cid = COALESCE(excluded.cid, results.cid),
		cmod = COALESCE(excluded.cmod, results.cmod),
		scf = COALESCE(excluded.scf, results.scf),
		smad = COALESCE(excluded.smad, results.smad),
		dccmd = COALESCE(excluded.dccmd, results.dccmd),
		run_id = excluded.run_id,
		updated_at = excluded.updated_at
`

// replaceSQL overwrites every value; used for documents that no longer parse.
const replaceSQL = `
	INSERT INTO results (project, candidate, file, cid, cmod, scf, smad, dccmd, run_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(project, candidate) DO UPDATE SET
		file = excluded.file,
		cid = excluded.cid,
		cmod = excluded.cmod,
		scf = excluded.scf,
		smad = excluded.smad,
		dccmd = excluded.dccmd,
		run_id = excluded.run_id,
		updated_at = excluded.updated_at
`

// Upsert stores records under runID in one transaction. A metric that is
// unavailable keeps whatever an earlier run stored, unless the whole document
// failed (Error set): then every stored value is cleared so the row does not
// outlive a broken document. Records without a (project, candidate) identity
// are skipped. It returns the number of rows written.
func (s *Store) Upsert(ctx context.Context, runID string, records []metrics.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	merge, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer func() { _ = merge.Close() }()

	replace, err := tx.PrepareContext(ctx, replaceSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing replace: %w", err)
	}
	defer func() { _ = replace.Close() }()

	updatedAt := s.now().UTC().Format(time.RFC3339Nano)
	written := 0
	for i := range records {
		rec := &records[i]
		if rec.Project == "" || rec.Candidate == "" {
			continue
		}
		stmt := merge
		if rec.Error != "" {
			stmt = replace
		}
		_, err := stmt.ExecContext(ctx,
			rec.Project, rec.Candidate, rec.File,
			nullable(rec.CiD), nullable(rec.CMod), nullable(rec.SCF), nullable(rec.SMAD), nullable(rec.DCCMD),
			runID, updatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("storing %s: %w", rec.File, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return written, nil
}

// List returns every stored row ordered by project, then candidate.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project, candidate, file, cid, cmod, scf, smad, dccmd, run_id, updated_at
		FROM results
		ORDER BY project, candidate
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get returns the row for (project, candidate), if any.
func (s *Store) Get(ctx context.Context, project, candidate string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT project, candidate, file, cid, cmod, scf, smad, dccmd, run_id, updated_at
		FROM results
		WHERE project = ? AND candidate = ?
	`, project, candidate)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// Delete removes the row for (project, candidate). It reports whether a row
// existed.
func (s *Store) Delete(ctx context.Context, project, candidate string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM results WHERE project = ? AND candidate = ?", project, candidate)
	if err != nil {
		return false, errors.Wrap(err, "deleting result")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		rec       metrics.Record
		values    [5]sql.NullFloat64
		runID     string
		updatedAt string
	)
	err := sc.Scan(&rec.Project, &rec.Candidate, &rec.File,
		&values[0], &values[1], &values[2], &values[3], &values[4],
		&runID, &updatedAt)
	if err != nil {
		return Entry{}, err
	}

	for i, name := range metrics.Names() {
		if values[i].Valid {
			rec.SetValue(name, metrics.Of(values[i].Float64))
		}
	}

	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}
	return Entry{Record: rec, RunID: runID, UpdatedAt: ts}, nil
}

func nullable(v metrics.Value) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}
