package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{`
		CREATE TABLE IF NOT EXISTS events (
			aggregate_id VARCHAR(64)     NOT NULL,
			seq          BIGINT UNSIGNED NOT NULL,
			tag          VARCHAR(64)     NOT NULL,
			payload      BLOB            NOT NULL,
			recorded_at  BIGINT          NOT NULL,
			PRIMARY KEY (aggregate_id, seq)
		)`,
	},
	isDuplicate: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
	},
}

// NewMySQLEventStore wraps an already opened MySQL pool.
func NewMySQLEventStore(db *sql.DB) *SQLEventStore {
	return newSQLEventStore(db, mysqlDialect)
}

// OpenMySQL connects to MySQL, sizes the pool and applies the schema.
func OpenMySQL(ctx context.Context, dsn string) (*SQLEventStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}

	store := NewMySQLEventStore(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
