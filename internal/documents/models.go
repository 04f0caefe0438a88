// Package documents holds the study material sessions are generated from.
package documents

import (
	"context"
	"errors"
	"time"
)

type Kind string

const (
	KindText Kind = "text" // plain text or markdown notes
	KindQTI  Kind = "qti"  // zipped QTI package with ready-made items
)

var ErrNotFound = errors.New("document not found")

type Document struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	OwnerID       string    `json:"owner_id,omitempty"`
	Kind          Kind      `json:"kind"`
	Subject       string    `json:"subject,omitempty"`
	BlobKey       string    `json:"blob_key"`
	Text          string    `json:"text,omitempty"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type ListOpts struct {
	OwnerID string // empty lists every owner
	Kind    Kind
	Limit   int
	Offset  int
}

type Library interface {
	Put(ctx context.Context, d Document) error
	Get(ctx context.Context, id string) (Document, error)
	List(ctx context.Context, opts ListOpts) ([]Document, error)
}

// GetMany returns the known documents among ids, in order. Unknown ids are skipped.
func GetMany(ctx context.Context, lib Library, ids []string) ([]Document, error) {
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		d, err := lib.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
