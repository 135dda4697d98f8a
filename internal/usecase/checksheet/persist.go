package checksheet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"checksheet-backend/internal/domain/event"
	"checksheet-backend/internal/domain/form"
	"checksheet-backend/internal/domain/identity"
	"checksheet-backend/internal/domain/oplog"
	"checksheet-backend/internal/domain/record"
	"checksheet-backend/internal/domain/uow"
)

// Save persists the sheet as a draft. The first save creates the record.
func (u *Usecase) Save(ctx context.Context, actor identity.Actor, sessionID string) (*SaveResult, error) {
	return u.persist(ctx, actor, sessionID, record.ActionSave)
}

// Submit persists the sheet and hands it to the approvers. Every required
// field must hold a value and the error list must be empty.
func (u *Usecase) Submit(ctx context.Context, actor identity.Actor, sessionID string) (*SaveResult, error) {
	return u.persist(ctx, actor, sessionID, record.ActionSubmit)
}

func (u *Usecase) persist(ctx context.Context, actor identity.Actor, sessionID string, action record.Action) (res *SaveResult, err error) {
	started := time.Now()
	status := record.StatusNone
	defer func() {
		u.observer.Persisted(action, status, err, time.Since(started))
	}()

	st, err := u.editable(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	now := u.now()

	if action == record.ActionSubmit {
		errs := form.ComputeErrors(st.sections, st.fields, st.store)
		p := form.ComputeProgress(st.sections, st.fields, st.store)
		if err := record.CheckSubmittable(st.s.Status, p, errs); err != nil {
			return nil, err
		}
	}

	// A new record is allocated up front so photos can be stored under its
	// id; it is only written inside the transaction below.
	var fresh *record.CheckRecord
	recordID := st.s.RecordID
	if recordID == "" {
		fresh, err = record.New(u.newID(), st.tpl.ID, st.s.ProductID, actor.ID)
		if err != nil {
			return nil, err
		}
		recordID = fresh.ID
	}

	existing := record.NewIndex(st.s.Existing)
	up, err := u.uploadPhotos(ctx, recordID, st, existing, now)
	if err != nil {
		u.discard(ctx, up.newRefs)
		return nil, err
	}

	plan := record.Reconcile(record.ReconcileInput{
		RecordID: recordID,
		Fields:   st.fields,
		Store:    st.store,
		Existing: existing,
		Actor:    actor.ID,
		Now:      now,
		NewID:    u.newID,
	})
	header := record.HeaderFrom(st.sections, st.store, now)

	var saved *record.CheckRecord
	write := func(r uow.Repos, rec *record.CheckRecord) error {
		if !rec.Editable() {
			return record.ErrNotEditable
		}
		rec.ApplyHeader(header)
		var err error
		if action == record.ActionSubmit {
			err = rec.MarkSubmitted(actor.ID, now)
		} else {
			err = rec.MarkSaved(actor.ID)
		}
		if err != nil {
			return err
		}
		if fresh != nil {
			if err := r.Records.Create(ctx, rec); err != nil {
				return fmt.Errorf("create record: %w", err)
			}
		} else if err := r.Records.Save(ctx, rec); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if len(plan.Upserts) > 0 {
			if err := r.Items.Upsert(ctx, plan.Upserts); err != nil {
				return fmt.Errorf("upsert record items: %w", err)
			}
		}
		if len(plan.ChangeLogs) > 0 {
			if err := r.ChangeLogs.Insert(ctx, plan.ChangeLogs); err != nil {
				return fmt.Errorf("insert change logs: %w", err)
			}
		}
		saved = rec
		return nil
	}
	if fresh != nil {
		err = u.uow.WithinTx(ctx, func(r uow.Repos) error { return write(r, fresh) })
	} else {
		err = u.uow.WithinRecordTx(ctx, recordID, write)
	}
	if err != nil {
		u.log.Error().Err(err).
			Str("session_id", sessionID).
			Str("record_id", recordID).
			Str("action", string(action)).
			Msg("persist failed")
		u.discard(ctx, up.newRefs)
		return nil, err
	}
	status = saved.Status

	// Committed: the session now reflects the stored record.
	existing.Apply(plan)
	st.s.RecordID = saved.ID
	st.s.Status = saved.Status
	st.s.Existing = existing.Items()
	for _, key := range up.uploadedKeys {
		delete(st.s.Pending, key)
	}
	if err := u.store(ctx, st); err != nil {
		// the record is committed; a stale session only costs a reload
		u.log.Warn().Err(err).Str("session_id", sessionID).Msg("store session after persist")
	}
	u.discard(ctx, up.oldRefs)

	u.log.Info().
		Str("record_id", saved.ID).
		Str("action", string(action)).
		Str("status", string(saved.Status)).
		Int("upserted", len(plan.Upserts)).
		Int("change_logs", len(plan.ChangeLogs)).
		Int("pending", len(plan.Pending)).
		Msg("record persisted")

	u.announce(ctx, actor, saved, action, now)

	return &SaveResult{
		RecordID:   saved.ID,
		Status:     saved.Status,
		Created:    fresh != nil,
		Upserted:   len(plan.Upserts),
		ChangeLogs: len(plan.ChangeLogs),
		Uploaded:   len(up.uploadedKeys),
		View:       buildView(st),
	}, nil
}

type uploads struct {
	uploadedKeys []string
	newRefs      []string
	oldRefs      []string
}

// uploadPhotos is phase two of a photo upload: every field still holding a
// local reference with pending bytes is uploaded and rewritten in the store
// to the durable reference. Blobs replaced by a new upload are returned in
// oldRefs and must only be deleted once the save has committed.
func (u *Usecase) uploadPhotos(ctx context.Context, recordID string, st *state, existing record.Index, now time.Time) (uploads, error) {
	var up uploads
	seq := 0
	for _, f := range st.fields {
		if f.Item.Type != form.TypePhoto {
			continue
		}
		v := st.store.Get(f.FormKey)
		if !form.IsLocalRef(v) {
			continue
		}
		photo, ok := st.s.Pending[f.FormKey]
		if !ok {
			continue
		}
		if u.blobs == nil {
			return up, fmt.Errorf("upload photo %s: no blob store configured", f.FormKey)
		}

		at := now.Add(time.Duration(seq) * time.Millisecond)
		seq++
		path := form.PhotoPath(recordID, f.Item.ID, at, extFor(photo.ContentType))
		ref, err := u.blobs.Upload(ctx, path, photo.Data, photo.ContentType)
		if err != nil {
			return up, fmt.Errorf("upload photo %s: %w", f.FormKey, err)
		}
		up.newRefs = append(up.newRefs, ref)
		up.uploadedKeys = append(up.uploadedKeys, f.FormKey)
		st.store.Set(f.FormKey, form.Text(ref), now)

		if prev, ok := existing[record.Slot{ItemID: f.Item.ID, RowIndex: f.RowIndex}]; ok && prev.Value != nil && *prev.Value != "" && *prev.Value != ref {
			up.oldRefs = append(up.oldRefs, *prev.Value)
		}
	}
	return up, nil
}

func extFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	}
	return "jpg"
}

// discard deletes blobs best-effort.
func (u *Usecase) discard(ctx context.Context, refs []string) {
	if u.blobs == nil {
		return
	}
	for _, ref := range refs {
		if err := u.blobs.Delete(ctx, ref); err != nil {
			u.log.Warn().Err(err).Str("ref", ref).Msg("blob delete failed (non-fatal)")
		}
	}
}

// announce writes the operation log and publishes the lifecycle event. Both
// are best-effort.
func (u *Usecase) announce(ctx context.Context, actor identity.Actor, rec *record.CheckRecord, action record.Action, at time.Time) {
	if u.oplog != nil {
		u.oplog.Log(ctx, oplog.ForRecord(actor, rec, action, ""))
	}
	if u.events != nil {
		e := event.Event{
			Type:      event.For(action),
			RecordID:  rec.ID,
			ProductID: rec.ProductID,
			Status:    rec.Status,
			ActorID:   actor.ID,
			At:        at,
		}
		if err := u.events.Publish(ctx, e); err != nil {
			u.log.Warn().Err(err).Str("record_id", rec.ID).Str("event", string(e.Type)).Msg("event publish failed (non-fatal)")
		}
	}
}
