package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{`
		CREATE TABLE IF NOT EXISTS events (
			aggregate_id TEXT    NOT NULL,
			seq          INTEGER NOT NULL,
			tag          TEXT    NOT NULL,
			payload      BLOB    NOT NULL,
			recorded_at  INTEGER NOT NULL,
			PRIMARY KEY (aggregate_id, seq)
		)`,
	},
	isDuplicate: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
		return false
	},
}

// OpenSQLite opens (or creates) the database file at path with WAL enabled
// and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLEventStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// One writer keeps the read-then-insert append serialised.
	db.SetMaxOpenConns(1)

	store := newSQLEventStore(db, sqliteDialect)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
