package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteSource reads legacy preferences from the preferences table of the
// previous installation's database:
//
//	CREATE TABLE preferences (key TEXT PRIMARY KEY, value TEXT NOT NULL)
type SQLiteSource struct {
	db   *sql.DB
	path string
}

// OpenSQLiteSource opens the legacy database read-only.
func OpenSQLiteSource(path string) (*SQLiteSource, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	return &SQLiteSource{db: db, path: path}, nil
}

func (s *SQLiteSource) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query legacy preference %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteSource) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
