package documents

import (
	"context"
	"sort"
	"sync"
)

type memoryLibrary struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewInMemoryLibrary() Library {
	return &memoryLibrary{docs: map[string]Document{}}
}

func (m *memoryLibrary) Put(_ context.Context, d Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.ID] = d
	return nil
}

func (m *memoryLibrary) Get(_ context.Context, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return d, nil
}

func (m *memoryLibrary) List(_ context.Context, opts ListOpts) ([]Document, error) {
	m.mu.RLock()
	out := make([]Document, 0, len(m.docs))
	for _, d := range m.docs {
		if opts.OwnerID != "" && d.OwnerID != opts.OwnerID {
			continue
		}
		if opts.Kind != "" && d.Kind != opts.Kind {
			continue
		}
		out = append(out, d)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []Document{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}
