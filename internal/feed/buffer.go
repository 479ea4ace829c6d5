// Package feed receives live power meter readings over MQTT and keeps the
// most recent ones per owner in memory.
package feed

import (
	"slices"
	"sync"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
)

const defaultCapacity = 1440 // one day of minute readings

// Buffer holds the last capacity readings of each owner, oldest first.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	owners   map[string][]domain.PowerReading
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Buffer{capacity: capacity, owners: make(map[string][]domain.PowerReading)}
}

func (b *Buffer) Add(owner string, readings ...domain.PowerReading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf := append(b.owners[owner], readings...)
	if over := len(buf) - b.capacity; over > 0 {
		// Drop the oldest; copy so the backing array does not grow forever.
		buf = slices.Clone(buf[over:])
	}
	b.owners[owner] = buf
}

// Readings returns a copy of owner's buffered readings.
func (b *Buffer) Readings(owner string) []domain.PowerReading {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.owners[owner])
}

func (b *Buffer) Owners() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.owners))
	for o := range b.owners {
		out = append(out, o)
	}
	slices.Sort(out)
	return out
}
