package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rl1809/restaurant/internal/core/domain"
)

type badgerRecord struct {
	Tag        string `json:"tag"`
	Payload    []byte `json:"payload"`
	RecordedAt int64  `json:"recorded_at"`
}

// BadgerEventStore keeps each aggregate's log under the prefix
// "evt:{aggregate_id}:" with a 20 digit zero padded sequence so prefix scans
// come back in sequence order. "head:{aggregate_id}" holds the last sequence.
type BadgerEventStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerEventStore(db *badger.DB, log *slog.Logger) *BadgerEventStore {
	return &BadgerEventStore{db: db, log: log}
}

// OpenBadger opens a badger database at path, or an in-memory one when path
// is empty.
func OpenBadger(path string, log *slog.Logger) (*BadgerEventStore, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %q: %w", path, err)
	}
	return NewBadgerEventStore(db, log), nil
}

func eventKey(aggregateID string, seq uint64) []byte {
	return fmt.Appendf(nil, "evt:%s:%020d", aggregateID, seq)
}

func eventPrefix(aggregateID string) []byte {
	return fmt.Appendf(nil, "evt:%s:", aggregateID)
}

func headKey(aggregateID string) []byte {
	return fmt.Appendf(nil, "head:%s", aggregateID)
}

func (b *BadgerEventStore) Append(ctx context.Context, rec domain.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(badgerRecord{
		Tag:        rec.Tag,
		Payload:    rec.Payload,
		RecordedAt: rec.RecordedAt.UTC().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		last, err := readHead(txn, rec.AggregateID)
		if err != nil {
			return err
		}
		if rec.Seq != last+1 {
			return fmt.Errorf("%w: %s appending %d after %d", domain.ErrVersionConflict, rec.AggregateID, rec.Seq, last)
		}
		if err := txn.Set(eventKey(rec.AggregateID, rec.Seq), value); err != nil {
			return err
		}
		return txn.Set(headKey(rec.AggregateID), binary.BigEndian.AppendUint64(nil, rec.Seq))
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %s seq %d raced", domain.ErrVersionConflict, rec.AggregateID, rec.Seq)
	}
	return err
}

func readHead(txn *badger.Txn, aggregateID string) (uint64, error) {
	item, err := txn.Get(headKey(aggregateID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var last uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt head for %s", aggregateID)
		}
		last = binary.BigEndian.Uint64(val)
		return nil
	})
	return last, err
}

func (b *BadgerEventStore) Load(ctx context.Context, aggregateID string, afterSeq uint64, limit int) ([]domain.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []domain.EventRecord
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := eventPrefix(aggregateID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(eventKey(aggregateID, afterSeq+1)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) == limit {
				break
			}
			item := it.Item()
			var seq uint64
			if _, err := fmt.Sscanf(string(item.Key()[len(prefix):]), "%d", &seq); err != nil {
				return fmt.Errorf("parse key %q: %w", item.Key(), err)
			}
			var stored badgerRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			})
			if err != nil {
				return err
			}
			records = append(records, domain.EventRecord{
				AggregateID: aggregateID,
				Seq:         seq,
				Tag:         stored.Tag,
				Payload:     stored.Payload,
				RecordedAt:  time.Unix(0, stored.RecordedAt).UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: load %s: %w", aggregateID, err)
	}
	b.log.Debug("Loaded events", "id", aggregateID, "after", afterSeq, "count", len(records))
	return records, nil
}

func (b *BadgerEventStore) Close() error {
	return b.db.Close()
}
