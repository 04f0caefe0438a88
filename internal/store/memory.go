package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
)

// memoryStore keeps JSON copies so callers never share maps or slices with it.
type memoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	results   map[string][]byte
}

func NewInMemoryStore() Store {
	return &memoryStore{
		snapshots: map[string][]byte{},
		results:   map[string][]byte{},
	}
}

func (m *memoryStore) SaveSnapshot(_ context.Context, snap cbt.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.Session.ID] = b
	return nil
}

func (m *memoryStore) LoadSnapshot(_ context.Context, sessionID string) (cbt.Snapshot, error) {
	m.mu.RLock()
	b, ok := m.snapshots[sessionID]
	m.mu.RUnlock()
	if !ok {
		return cbt.Snapshot{}, ErrNotFound
	}
	var snap cbt.Snapshot
	err := json.Unmarshal(b, &snap)
	return snap, err
}

func (m *memoryStore) DeleteSnapshot(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, sessionID)
	return nil
}

func (m *memoryStore) ListSnapshots(_ context.Context) ([]cbt.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]cbt.Snapshot, 0, len(m.snapshots))
	for _, b := range m.snapshots {
		var snap cbt.Snapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Session.ID < out[j].Session.ID })
	return out, nil
}

func (m *memoryStore) SaveResult(_ context.Context, r cbt.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[r.SessionID]; ok {
		return nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	m.results[r.SessionID] = b
	return nil
}

func (m *memoryStore) GetResult(_ context.Context, sessionID string) (cbt.Result, error) {
	m.mu.RLock()
	b, ok := m.results[sessionID]
	m.mu.RUnlock()
	if !ok {
		return cbt.Result{}, ErrNotFound
	}
	var r cbt.Result
	err := json.Unmarshal(b, &r)
	return r, err
}

func (m *memoryStore) ListResults(_ context.Context, opts ResultListOpts) ([]cbt.Result, error) {
	m.mu.RLock()
	out := make([]cbt.Result, 0, len(m.results))
	for _, b := range m.results {
		var r cbt.Result
		if err := json.Unmarshal(b, &r); err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		if opts.OwnerID != "" && r.OwnerID != opts.OwnerID {
			continue
		}
		out = append(out, r)
	}
	m.mu.RUnlock()
	sortResults(out)
	return page(out, opts.Limit, opts.Offset), nil
}

func sortResults(rs []cbt.Result) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CompletedAt.Equal(rs[j].CompletedAt) {
			return rs[i].CompletedAt.After(rs[j].CompletedAt)
		}
		return rs[i].SessionID < rs[j].SessionID
	})
}
