package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// SQLite wraps a database/sql handle on a SQLite file.
type SQLite struct {
	db *sql.DB
}

// SQLiteDSN builds a modernc.org/sqlite URI DSN for path with foreign keys on,
// a busy timeout so writers wait for each other, and IMMEDIATE transactions.
// The path is percent-encoded; SQLite decodes it when opening the file.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_txlock", "immediate")
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + q.Encode()
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() {
	_ = s.db.Close()
}

// Ping verifies the database file is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying *sql.DB for repository use.
func (s *SQLite) DB() *sql.DB {
	return s.db
}
