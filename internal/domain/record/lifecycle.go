package record

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNotEditable          = errors.New("record is not editable")
	ErrRejectReasonRequired = errors.New("reject reason is required")
	ErrMissingLinkage       = errors.New("record requires template, product and actor")
	ErrIncomplete           = errors.New("required fields are missing")
	ErrValidationFailed     = errors.New("form has validation errors")
)

type Action string

const (
	ActionSave    Action = "save"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Editable: never-saved, draft and rejected records accept field edits.
func Editable(s Status) bool {
	return s == StatusNone || s == StatusDraft || s == StatusRejected
}

// Next returns the status reached by applying a to a record in status from.
// Saving a rejected record keeps it rejected until it is submitted again.
func Next(from Status, a Action) (Status, error) {
	switch a {
	case ActionSave:
		switch from {
		case StatusNone, StatusDraft:
			return StatusDraft, nil
		case StatusRejected:
			return StatusRejected, nil
		}
	case ActionSubmit:
		if Editable(from) {
			return StatusSubmitted, nil
		}
	case ActionApprove:
		if from == StatusSubmitted {
			return StatusApproved, nil
		}
	case ActionReject:
		if from == StatusSubmitted {
			return StatusRejected, nil
		}
	}
	return from, fmt.Errorf("%w: cannot %s a %s record", ErrInvalidTransition, a, statusName(from))
}

func statusName(s Status) string {
	if s == StatusNone {
		return "new"
	}
	return string(s)
}

// New allocates a draft record. It is only called on the first save or submit.
func New(id, templateID, productID, actor string) (*CheckRecord, error) {
	if strings.TrimSpace(templateID) == "" || strings.TrimSpace(productID) == "" || strings.TrimSpace(actor) == "" {
		return nil, ErrMissingLinkage
	}
	return &CheckRecord{
		ID:              id,
		TemplateID:      templateID,
		ProductID:       productID,
		Status:          StatusDraft,
		CreatedBy:       actor,
		CurrentEditorID: &actor,
	}, nil
}

// Header is the denormalised part of a record derived from its field values.
type Header struct {
	LineID         *string
	ProductionDate string
	BatchNumber    int
}

func (r *CheckRecord) ApplyHeader(h Header) {
	r.LineID = h.LineID
	r.ProductionDate = h.ProductionDate
	r.BatchNumber = h.BatchNumber
}

func (r *CheckRecord) Editable() bool { return Editable(r.Status) }

// MarkSaved records a save by actor, who becomes the current editor.
func (r *CheckRecord) MarkSaved(actor string) error {
	next, err := Next(r.Status, ActionSave)
	if err != nil {
		return ErrNotEditable
	}
	r.Status = next
	r.CurrentEditorID = &actor
	return nil
}

func (r *CheckRecord) MarkSubmitted(actor string, at time.Time) error {
	next, err := Next(r.Status, ActionSubmit)
	if err != nil {
		return ErrNotEditable
	}
	r.Status = next
	r.SubmittedBy = &actor
	r.SubmittedAt = &at
	r.CurrentEditorID = nil
	return nil
}

func (r *CheckRecord) Approve(actor string, at time.Time) error {
	next, err := Next(r.Status, ActionApprove)
	if err != nil {
		return err
	}
	r.Status = next
	r.ApprovedBy = &actor
	r.ApprovedAt = &at
	return nil
}

// Reject sends a submitted record back to the worker. reason is trimmed and
// must not be empty.
func (r *CheckRecord) Reject(actor, reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectReasonRequired
	}
	next, err := Next(r.Status, ActionReject)
	if err != nil {
		return err
	}
	r.Status = next
	r.RejectedBy = &actor
	r.RejectedAt = &at
	r.RejectReason = &reason
	return nil
}
