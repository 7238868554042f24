package domain

import "time"

// Status is the lifecycle position of an aggregate.
type Status int

const (
	StatusUninstantiated Status = iota
	StatusActive
	StatusTerminal
)

func (s Status) String() string {
	switch s {
	case StatusUninstantiated:
		return "uninstantiated"
	case StatusActive:
		return "active"
	case StatusTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Directive tells the process runtime what to do with an actor once an
// event has been applied.
type Directive int

const (
	Continue Directive = iota
	Terminate
)

// Genesis is implemented by the event that creates an aggregate. It may only
// appear as the first record of a log.
type Genesis interface {
	Genesis()
}

// EventRecord is one entry of an aggregate's event log. Seq starts at 1 and
// is gapless per aggregate.
type EventRecord struct {
	AggregateID string
	Seq         uint64
	Tag         string
	Payload     []byte
	RecordedAt  time.Time
}

// Codec converts aggregate events to and from their stored form.
type Codec[E any] interface {
	Encode(evt E) (tag string, payload []byte, err error)
	Decode(tag string, payload []byte) (E, error)
}
