package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"iotguardian/internal/models"
)

// Table is a mutex-guarded map keyed by record id. State is lost on restart.
type Table[T any] struct {
	mu   sync.RWMutex
	rows map[string]T
}

func NewTable[T any]() *Table[T] {
	return &Table[T]{rows: make(map[string]T)}
}

func (t *Table[T]) Get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	return v, ok
}

func (t *Table[T]) Put(id string, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = v
}

// Insert stores v only when id is free and reports whether it did.
func (t *Table[T]) Insert(id string, v T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return false
	}
	t.rows[id] = v
	return true
}

// Delete removes id and reports whether it existed.
func (t *Table[T]) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// Update applies fn to the row under the write lock. A missing row yields ok=false.
// fn may return an error to abort without writing.
func (t *Table[T]) Update(id string, fn func(v *T) error) (T, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false, nil
	}
	if err := fn(&v); err != nil {
		return v, true, err
	}
	t.rows[id] = v
	return v, true, nil
}

// Upsert applies fn to the existing row, or to the zero value when absent, and stores the result.
func (t *Table[T]) Upsert(id string, fn func(v *T, exists bool) error) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if err := fn(&v, ok); err != nil {
		return v, err
	}
	t.rows[id] = v
	return v, nil
}

// List returns the rows ordered by id.
func (t *Table[T]) List() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// MemoryCommandStore keeps commands in process memory with a TTL.
type MemoryCommandStore struct {
	ttl   time.Duration
	now   func() time.Time
	table *Table[expiring[models.DeviceCommand]]
}

type expiring[T any] struct {
	value     T
	expiresAt time.Time
}

func (e expiring[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func NewMemoryCommandStore(ttl time.Duration) *MemoryCommandStore {
	return &MemoryCommandStore{ttl: ttl, now: time.Now, table: NewTable[expiring[models.DeviceCommand]]()}
}

func (s *MemoryCommandStore) SetCommand(_ context.Context, deviceID string, cmd models.DeviceCommand) error {
	entry := expiring[models.DeviceCommand]{value: cmd}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.table.Put(deviceID, entry)
	return nil
}

func (s *MemoryCommandStore) GetCommand(_ context.Context, deviceID string) (*models.DeviceCommand, error) {
	entry, ok := s.table.Get(deviceID)
	if !ok || entry.expired(s.now()) {
		return nil, nil
	}
	cmd := entry.value
	return &cmd, nil
}

func (s *MemoryCommandStore) DeleteCommand(_ context.Context, deviceID string) error {
	s.table.Delete(deviceID)
	return nil
}

// MemoryQuotaCounter counts usage in process memory.
type MemoryQuotaCounter struct {
	now   func() time.Time
	table *Table[expiring[int64]]
}

func NewMemoryQuotaCounter() *MemoryQuotaCounter {
	return &MemoryQuotaCounter{now: time.Now, table: NewTable[expiring[int64]]()}
}

func (c *MemoryQuotaCounter) Count(_ context.Context, key string) (int64, error) {
	entry, ok := c.table.Get(key)
	if !ok || entry.expired(c.now()) {
		return 0, nil
	}
	return entry.value, nil
}

func (c *MemoryQuotaCounter) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := c.now()
	entry, _ := c.table.Upsert(key, func(e *expiring[int64], exists bool) error {
		if !exists || e.expired(now) {
			*e = expiring[int64]{}
		}
		e.value++
		if ttl > 0 {
			e.expiresAt = now.Add(ttl)
		}
		return nil
	})
	return entry.value, nil
}

var (
	_ CommandStore = (*MemoryCommandStore)(nil)
	_ QuotaCounter = (*MemoryQuotaCounter)(nil)
)
