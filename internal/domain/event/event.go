package event

import (
	"checksheet-backend/internal/domain/record"
	"context"
	"time"
)

type Type string

const (
	RecordSaved     Type = "record.saved"
	RecordSubmitted Type = "record.submitted"
	RecordApproved  Type = "record.approved"
	RecordRejected  Type = "record.rejected"
)

// Event announces a committed lifecycle change of a check record.
type Event struct {
	Type      Type          `json:"type"`
	RecordID  string        `json:"record_id"`
	ProductID string        `json:"product_id"`
	Status    record.Status `json:"status"`
	ActorID   string        `json:"actor_id"`
	At        time.Time     `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// For maps a lifecycle action to the event it produces.
func For(a record.Action) Type {
	switch a {
	case record.ActionSubmit:
		return RecordSubmitted
	case record.ActionApprove:
		return RecordApproved
	case record.ActionReject:
		return RecordRejected
	}
	return RecordSaved
}
