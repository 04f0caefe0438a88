package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
)

// SQLStore keeps snapshots and results as JSON columns. Placeholders are $n,
// which both modernc sqlite and pgx accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) SaveSnapshot(ctx context.Context, snap cbt.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO cbt_snapshots (session_id,owner_id,snapshot_json,updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (session_id) DO UPDATE SET snapshot_json=EXCLUDED.snapshot_json, updated_at=EXCLUDED.updated_at`,
		snap.Session.ID, snap.Session.OwnerID, string(b), time.Now().Unix())
	return err
}

func (s *SQLStore) LoadSnapshot(ctx context.Context, sessionID string) (cbt.Snapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot_json FROM cbt_snapshots WHERE session_id=$1`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return cbt.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return cbt.Snapshot{}, err
	}
	var snap cbt.Snapshot
	err = json.Unmarshal([]byte(raw), &snap)
	return snap, err
}

func (s *SQLStore) DeleteSnapshot(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cbt_snapshots WHERE session_id=$1`, sessionID)
	return err
}

func (s *SQLStore) ListSnapshots(ctx context.Context) ([]cbt.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT snapshot_json FROM cbt_snapshots ORDER BY session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []cbt.Snapshot{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var snap cbt.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SaveResult keeps the first result written for a session.
func (s *SQLStore) SaveResult(ctx context.Context, r cbt.Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO cbt_results (session_id,owner_id,status,percentage,result_json,completed_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (session_id) DO NOTHING`,
		r.SessionID, r.OwnerID, string(r.Status()), r.Percentage, string(b), r.CompletedAt.UnixNano())
	return err
}

func (s *SQLStore) GetResult(ctx context.Context, sessionID string) (cbt.Result, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT result_json FROM cbt_results WHERE session_id=$1`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return cbt.Result{}, ErrNotFound
	}
	if err != nil {
		return cbt.Result{}, err
	}
	var r cbt.Result
	err = json.Unmarshal([]byte(raw), &r)
	return r, err
}

func (s *SQLStore) ListResults(ctx context.Context, opts ResultListOpts) ([]cbt.Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	var (
		rows *sql.Rows
		err  error
	)
	if opts.OwnerID != "" {
		rows, err = s.db.QueryContext(ctx, `SELECT result_json FROM cbt_results WHERE owner_id=$1
			ORDER BY completed_at DESC, session_id LIMIT $2 OFFSET $3`, opts.OwnerID, limit, opts.Offset)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT result_json FROM cbt_results
			ORDER BY completed_at DESC, session_id LIMIT $1 OFFSET $2`, limit, opts.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []cbt.Result{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var r cbt.Result
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
