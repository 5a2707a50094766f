package surface

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	snap    Snapshot
	expires time.Time
}

// MemoryStore keeps snapshots in process. A zero ttl never expires.
// Only snapshots expire; the per-surface counter is kept for the life of
// the store so a run that outlives its snapshot still loses to newer ones.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	seqs    map[string]int64
	entries map[string]*memEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		seqs:    map[string]int64{},
		entries: map[string]*memEntry{},
	}
}

func (m *MemoryStore) Begin(_ context.Context, snap Snapshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[snap.Surface]++
	snap.Seq = m.seqs[snap.Surface]
	m.put(snap)
	return snap.Seq, nil
}

func (m *MemoryStore) Commit(_ context.Context, snap Snapshot) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.Seq == 0 || snap.Seq != m.seqs[snap.Surface] {
		return false, nil
	}
	m.put(snap)
	return true, nil
}

func (m *MemoryStore) Get(_ context.Context, surface string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(surface)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return e.snap, nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) put(snap Snapshot) {
	e := &memEntry{snap: snap}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[snap.Surface] = e
}

func (m *MemoryStore) live(surface string) (*memEntry, bool) {
	e, ok := m.entries[surface]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, surface)
		return nil, false
	}
	return e, true
}
