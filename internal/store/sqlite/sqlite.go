package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mailroom-dev/mailroom/internal/store"
)

// DB wraps a sql.DB connection to a SQLite database.
type DB struct {
	db *sql.DB

	// ftsEnabled reports whether the FTS5 index exists. The driver only
	// compiles FTS5 behind the sqlite_fts5 build tag; without it search
	// degrades to substring filtering.
	ftsEnabled bool
}

var _ store.Store = (*DB)(nil)

// New opens a SQLite database at the given DSN and runs migrations.
// Use ":memory:" for an in-memory database.
func New(dsn string) (*DB, error) {
	connStr := dsn
	if dsn != ":memory:" {
		connStr = dsn + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
	} else {
		connStr = ":memory:?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dsn == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func (s *DB) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := s.db.Exec(ftsSchema); err != nil {
		// A build without the sqlite_fts5 tag has no fts5 module. That is
		// not fatal: every operation except ranked search works without
		// the index.
		if strings.Contains(err.Error(), "no such module: fts5") {
			s.ftsEnabled = false
			return nil
		}
		return fmt.Errorf("failed to apply FTS schema: %w", err)
	}
	s.ftsEnabled = true
	return nil
}

// Close closes the underlying database connection.
func (s *DB) Close() error {
	return s.db.Close()
}
