package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
)

const snapshotKeyPrefix = "cbt:snapshot:"

// RedisStore keeps snapshots in redis with a TTL so abandoned sessions expire
// on their own. Results are durable and go to the wrapped store.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	results Store
}

func NewRedisStore(client *redis.Client, ttl time.Duration, results Store) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, results: results}
}

func snapshotKey(sessionID string) string { return snapshotKeyPrefix + sessionID }

func (r *RedisStore) SaveSnapshot(ctx context.Context, snap cbt.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey(snap.Session.ID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.Session.ID, err)
	}
	return nil
}

func (r *RedisStore) LoadSnapshot(ctx context.Context, sessionID string) (cbt.Snapshot, error) {
	b, err := r.client.Get(ctx, snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cbt.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return cbt.Snapshot{}, fmt.Errorf("failed to load snapshot %s: %w", sessionID, err)
	}
	var snap cbt.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return cbt.Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", sessionID, err)
	}
	return snap, nil
}

func (r *RedisStore) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, snapshotKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", sessionID, err)
	}
	return nil
}

func (r *RedisStore) ListSnapshots(ctx context.Context) ([]cbt.Snapshot, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, snapshotKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), snapshotKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan snapshots: %w", err)
	}
	sort.Strings(ids)

	out := make([]cbt.Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := r.LoadSnapshot(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (r *RedisStore) SaveResult(ctx context.Context, res cbt.Result) error {
	return r.results.SaveResult(ctx, res)
}

func (r *RedisStore) GetResult(ctx context.Context, sessionID string) (cbt.Result, error) {
	return r.results.GetResult(ctx, sessionID)
}

func (r *RedisStore) ListResults(ctx context.Context, opts ResultListOpts) ([]cbt.Result, error) {
	return r.results.ListResults(ctx, opts)
}
