package documents

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

type SQLLibrary struct {
	db *sql.DB
}

func NewSQLLibrary(db *sql.DB) *SQLLibrary { return &SQLLibrary{db: db} }

func (s *SQLLibrary) Put(ctx context.Context, d Document) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO documents (id,title,owner_id,kind,subject,blob_key,body,question_count,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, subject=EXCLUDED.subject, body=EXCLUDED.body,
			question_count=EXCLUDED.question_count`,
		d.ID, d.Title, d.OwnerID, string(d.Kind), d.Subject, d.BlobKey, d.Text, d.QuestionCount, d.CreatedAt.Unix())
	return err
}

func (s *SQLLibrary) Get(ctx context.Context, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,owner_id,kind,subject,blob_key,body,question_count,created_at
		FROM documents WHERE id=$1`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return d, err
}

func (s *SQLLibrary) List(ctx context.Context, opts ListOpts) ([]Document, error) {
	var (
		where []string
		args  []interface{}
	)
	if opts.OwnerID != "" {
		args = append(args, opts.OwnerID)
		where = append(where, "owner_id=$1")
	}
	if opts.Kind != "" {
		args = append(args, string(opts.Kind))
		where = append(where, "kind=$"+strconv.Itoa(len(args)))
	}
	q := `SELECT id,title,owner_id,kind,subject,blob_key,body,question_count,created_at FROM documents`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id"
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, opts.Offset)
	q += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(r scanner) (Document, error) {
	var (
		d       Document
		kind    string
		created int64
	)
	if err := r.Scan(&d.ID, &d.Title, &d.OwnerID, &kind, &d.Subject, &d.BlobKey, &d.Text, &d.QuestionCount, &created); err != nil {
		return Document{}, err
	}
	d.Kind = Kind(kind)
	d.CreatedAt = time.Unix(created, 0).UTC()
	return d, nil
}
