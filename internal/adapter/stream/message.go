package stream

import (
	"time"

	"github.com/rl1809/restaurant/internal/core/domain"
)

const channelPrefix = "restaurant:events:"

// Channel is the publish-subscribe channel of one aggregate.
func Channel(aggregateID string) string {
	return channelPrefix + aggregateID
}

// message is the wire form of a published record.
type message struct {
	AggregateID string    `json:"aggregate_id"`
	Seq         uint64    `json:"seq"`
	Tag         string    `json:"tag"`
	Payload     []byte    `json:"payload"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func toMessage(rec domain.EventRecord) message {
	return message{
		AggregateID: rec.AggregateID,
		Seq:         rec.Seq,
		Tag:         rec.Tag,
		Payload:     rec.Payload,
		RecordedAt:  rec.RecordedAt,
	}
}

func (m message) record() domain.EventRecord {
	return domain.EventRecord{
		AggregateID: m.AggregateID,
		Seq:         m.Seq,
		Tag:         m.Tag,
		Payload:     m.Payload,
		RecordedAt:  m.RecordedAt,
	}
}
