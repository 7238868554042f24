package storage

import "testing"

func TestMemoryEventStore_Contract(t *testing.T) {
	runEventStoreContract(t, NewMemoryEventStore())
}
