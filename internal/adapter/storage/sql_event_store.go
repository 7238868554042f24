package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/rl1809/restaurant/internal/core/domain"
)

// dialect holds what differs between the SQL engines backing the event log.
type dialect struct {
	name        string
	schema      []string
	isDuplicate func(error) bool
}

// SQLEventStore keeps event logs in a single events table keyed by
// (aggregate_id, seq).
type SQLEventStore struct {
	db      *sql.DB
	dialect dialect
}

func newSQLEventStore(db *sql.DB, d dialect) *SQLEventStore {
	return &SQLEventStore{db: db, dialect: d}
}

// Migrate creates the events table if needed. Idempotent.
func (s *SQLEventStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: apply schema: %w", s.dialect.name, err)
		}
	}
	return nil
}

func (s *SQLEventStore) Append(ctx context.Context, rec domain.EventRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var last int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE aggregate_id = ?`,
		rec.AggregateID,
	).Scan(&last)
	if err != nil {
		return fmt.Errorf("query last seq: %w", err)
	}
	if rec.Seq != uint64(last)+1 {
		return fmt.Errorf("%w: %s appending %d after %d", domain.ErrVersionConflict, rec.AggregateID, rec.Seq, last)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (aggregate_id, seq, tag, payload, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.AggregateID, int64(rec.Seq), rec.Tag, rec.Payload, rec.RecordedAt.UTC().UnixNano(),
	)
	if err != nil {
		if s.dialect.isDuplicate(err) {
			return fmt.Errorf("%w: %s seq %d already stored", domain.ErrVersionConflict, rec.AggregateID, rec.Seq)
		}
		return fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if s.dialect.isDuplicate(err) {
			return fmt.Errorf("%w: %s seq %d already stored", domain.ErrVersionConflict, rec.AggregateID, rec.Seq)
		}
		return fmt.Errorf("commit event: %w", err)
	}
	return nil
}

func (s *SQLEventStore) Load(ctx context.Context, aggregateID string, afterSeq uint64, limit int) ([]domain.EventRecord, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tag, payload, recorded_at
		FROM   events
		WHERE  aggregate_id = ? AND seq > ?
		ORDER  BY seq ASC
		LIMIT  ?`,
		aggregateID, int64(afterSeq), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var records []domain.EventRecord
	for rows.Next() {
		var (
			seq        int64
			recordedAt int64
			rec        = domain.EventRecord{AggregateID: aggregateID}
		)
		if err := rows.Scan(&seq, &rec.Tag, &rec.Payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Seq = uint64(seq)
		rec.RecordedAt = time.Unix(0, recordedAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

func (s *SQLEventStore) Close() error {
	return s.db.Close()
}
