package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checksheet-backend/internal/domain/event"
	"checksheet-backend/internal/domain/identity"
	"checksheet-backend/internal/domain/oplog"
	"checksheet-backend/internal/domain/record"
	"checksheet-backend/internal/domain/template"
	"checksheet-backend/internal/domain/uow"

	"github.com/rs/zerolog"
)

var (
	ErrForbidden     = errors.New("only managers may approve or reject records")
	ErrInvalidStatus = errors.New("unknown record status")
)

const defaultListLimit = 100

type Deps struct {
	Records    record.Repository
	Items      record.ItemRepository
	ChangeLogs record.ChangeLogRepository
	Templates  template.Repository
	UoW        uow.UnitOfWork
	OpLog      oplog.Logger
	Events     event.Publisher
	Log        zerolog.Logger
	Now        func() time.Time
}

type Usecase struct {
	records    record.Repository
	items      record.ItemRepository
	changeLogs record.ChangeLogRepository
	templates  template.Repository
	uow        uow.UnitOfWork
	oplog      oplog.Logger
	events     event.Publisher
	log        zerolog.Logger
	now        func() time.Time
}

// NewUsecase wires the manager-side use cases. OpLog and Events are optional.
func NewUsecase(d Deps) *Usecase {
	u := &Usecase{
		records:    d.Records,
		items:      d.Items,
		changeLogs: d.ChangeLogs,
		templates:  d.Templates,
		uow:        d.UoW,
		oplog:      d.OpLog,
		events:     d.Events,
		log:        d.Log,
		now:        d.Now,
	}
	if u.now == nil {
		u.now = func() time.Time { return time.Now().UTC() }
	}
	return u
}

// Approve moves a submitted record to approved. The record row is locked for
// the duration of the transition.
func (u *Usecase) Approve(ctx context.Context, actor identity.Actor, recordID string) (*DecisionDTO, error) {
	return u.decide(ctx, actor, recordID, record.ActionApprove, "")
}

// Reject sends a submitted record back to its author with a reason.
func (u *Usecase) Reject(ctx context.Context, actor identity.Actor, in RejectInput) (*DecisionDTO, error) {
	return u.decide(ctx, actor, in.RecordID, record.ActionReject, in.Reason)
}

func (u *Usecase) decide(ctx context.Context, actor identity.Actor, recordID string, action record.Action, reason string) (*DecisionDTO, error) {
	if !actor.IsManager() {
		return nil, ErrForbidden
	}
	if u.uow == nil {
		return nil, record.ErrInvalidTransition
	}
	now := u.now()

	var saved *record.CheckRecord
	err := u.uow.WithinRecordTx(ctx, recordID, func(r uow.Repos, rec *record.CheckRecord) error {
		var err error
		if action == record.ActionApprove {
			err = rec.Approve(actor.ID, now)
		} else {
			err = rec.Reject(actor.ID, reason, now)
		}
		if err != nil {
			return err
		}
		if err := r.Records.Save(ctx, rec); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := &DecisionDTO{
		RecordID:  saved.ID,
		Status:    saved.Status,
		DecidedBy: actor.ID,
		DecidedAt: now,
	}
	if saved.RejectReason != nil {
		dto.Reason = *saved.RejectReason
	}

	u.log.Info().
		Str("record_id", saved.ID).
		Str("action", string(action)).
		Str("actor_id", actor.ID).
		Msg("record decided")

	if u.oplog != nil {
		u.oplog.Log(ctx, oplog.ForRecord(actor, saved, action, dto.Reason))
	}
	if u.events != nil {
		e := event.Event{
			Type:      event.For(action),
			RecordID:  saved.ID,
			ProductID: saved.ProductID,
			Status:    saved.Status,
			ActorID:   actor.ID,
			At:        now,
		}
		if err := u.events.Publish(ctx, e); err != nil {
			u.log.Warn().Err(err).Str("record_id", saved.ID).Msg("event publish failed (non-fatal)")
		}
	}
	return dto, nil
}

// List returns the records in the queue, submitted ones by default.
func (u *Usecase) List(ctx context.Context, in ListInput) ([]record.CheckRecord, error) {
	status := in.Status
	if status == record.StatusNone {
		status = record.StatusSubmitted
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	limit := in.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return u.records.List(ctx, record.ListFilter{
		Statuses:  []record.Status{status},
		ProductID: in.ProductID,
		Limit:     limit,
	})
}

// Detail loads a record with its items, change history and template.
func (u *Usecase) Detail(ctx context.Context, recordID string) (*Detail, error) {
	rec, err := u.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	tpl, err := u.templates.GetByID(ctx, rec.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", rec.TemplateID, err)
	}
	items, err := u.items.ListByRecordID(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("list record items: %w", err)
	}
	logs, err := u.changeLogs.ListByRecordID(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("list change logs: %w", err)
	}
	return &Detail{Record: rec, Template: tpl, Items: items, ChangeLogs: logs}, nil
}
