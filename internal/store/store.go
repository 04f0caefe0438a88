// Package store persists in-progress session snapshots and final results.
package store

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
)

var ErrNotFound = errors.New("not found")

type ResultListOpts struct {
	OwnerID string // empty lists every owner
	Limit   int
	Offset  int
}

type Store interface {
	SaveSnapshot(ctx context.Context, snap cbt.Snapshot) error
	LoadSnapshot(ctx context.Context, sessionID string) (cbt.Snapshot, error)
	DeleteSnapshot(ctx context.Context, sessionID string) error
	ListSnapshots(ctx context.Context) ([]cbt.Snapshot, error)

	SaveResult(ctx context.Context, r cbt.Result) error // idempotent per session
	GetResult(ctx context.Context, sessionID string) (cbt.Result, error)
	ListResults(ctx context.Context, opts ResultListOpts) ([]cbt.Result, error) // newest first
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
