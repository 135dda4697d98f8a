package session

import (
	"checksheet-backend/internal/domain/form"
	"checksheet-backend/internal/domain/record"
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("editing session not found")

// Photo is a captured image not yet uploaded to the blob store.
type Photo struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

// Session is the server-side editing state of one check sheet. It holds the
// value store, the row counts and the items persisted so far, so a save can
// be diffed against what is stored without re-reading it.
type Session struct {
	ID         string              `json:"id"`
	ActorID    string              `json:"actor_id"`
	ProductID  string              `json:"product_id"`
	TemplateID string              `json:"template_id"`
	RecordID   string              `json:"record_id,omitempty"`
	Status     record.Status       `json:"status"`
	RowCounts  form.RowCounts      `json:"row_counts"`
	Values     form.Snapshot       `json:"values"`
	Existing   []record.RecordItem `json:"existing"`
	Pending    map[string]Photo    `json:"pending_photos,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
