package lookup

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/wscullen/landsat-downloader/internal/intersect"
)

// Build records one generated lookup table.
type Build struct {
	ID         string
	SourceGrid string
	TargetGrid string
	TileCount  int
	CreatedAt  time.Time
}

// Store persists lookup tables in SQLite via modernc.org/sqlite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens a SQLite database at the given path and configures WAL mode.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db, now: time.Now}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS builds (
	id           TEXT PRIMARY KEY,
	source_grid  TEXT NOT NULL,
	target_grid  TEXT NOT NULL,
	tile_count   INTEGER NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS lookup (
	build_id  TEXT NOT NULL REFERENCES builds(id),
	pathrow   TEXT NOT NULL,
	mgrs_list TEXT NOT NULL,
	PRIMARY KEY (build_id, pathrow)
);

CREATE INDEX IF NOT EXISTS idx_builds_created_at ON builds(created_at);
CREATE INDEX IF NOT EXISTS idx_lookup_pathrow ON lookup(pathrow);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBuild inserts a mapping as a new build and returns its record.
func (s *Store) SaveBuild(ctx context.Context, sourceGrid, targetGrid string, mapping intersect.Mapping) (*Build, error) {
	b := &Build{
		ID:         uuid.New().String(),
		SourceGrid: sourceGrid,
		TargetGrid: targetGrid,
		TileCount:  len(mapping),
		CreatedAt:  s.now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "store: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, source_grid, target_grid, tile_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.SourceGrid, b.TargetGrid, b.TileCount, b.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert build")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lookup (build_id, pathrow, mgrs_list) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: prepare lookup insert")
	}
	defer stmt.Close()

	for _, id := range mapping.SourceIDs() {
		if _, err := stmt.ExecContext(ctx, b.ID, id, strings.Join(mapping[id], " ")); err != nil {
			return nil, eris.Wrapf(err, "store: insert lookup row %s", id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "store: commit build")
	}
	return b, nil
}

// LatestBuild returns the most recent build, or nil when the store is empty.
func (s *Store) LatestBuild(ctx context.Context) (*Build, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_grid, target_grid, tile_count, created_at
		 FROM builds ORDER BY created_at DESC, id LIMIT 1`,
	)
	var b Build
	err := row.Scan(&b.ID, &b.SourceGrid, &b.TargetGrid, &b.TileCount, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: latest build")
	}
	return &b, nil
}

// ListBuilds returns builds in reverse chronological order.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]Build, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_grid, target_grid, tile_count, created_at
		 FROM builds ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list builds")
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.ID, &b.SourceGrid, &b.TargetGrid, &b.TileCount, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan build")
		}
		builds = append(builds, b)
	}
	return builds, eris.Wrap(rows.Err(), "store: iterate builds")
}

// Lookup returns the MGRS IDs for one path/row from the given build, or from
// the latest build when buildID is empty. A missing path/row yields nil, nil.
func (s *Store) Lookup(ctx context.Context, buildID, pathrow string) ([]string, error) {
	if buildID == "" {
		latest, err := s.LatestBuild(ctx)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, nil
		}
		buildID = latest.ID
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT mgrs_list FROM lookup WHERE build_id = ? AND pathrow = ?`,
		buildID, pathrow,
	)
	var list string
	err := row.Scan(&list)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: lookup %s", pathrow)
	}
	if list == "" {
		return []string{}, nil
	}
	return strings.Split(list, " "), nil
}
