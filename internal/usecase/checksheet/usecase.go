package checksheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checksheet-backend/internal/domain/blob"
	"checksheet-backend/internal/domain/event"
	"checksheet-backend/internal/domain/form"
	"checksheet-backend/internal/domain/identity"
	"checksheet-backend/internal/domain/oplog"
	"checksheet-backend/internal/domain/record"
	"checksheet-backend/internal/domain/session"
	"checksheet-backend/internal/domain/template"
	"checksheet-backend/internal/domain/uow"
	"checksheet-backend/pkg/id"

	"github.com/rs/zerolog"
)

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrNotOwner       = errors.New("session belongs to another user")
	ErrEmptyPhoto     = errors.New("photo is empty")
)

// Observer receives lifecycle outcomes, typically for metrics.
type Observer interface {
	Persisted(action record.Action, status record.Status, err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Persisted(record.Action, record.Status, error, time.Duration) {}

type Deps struct {
	Sessions  session.Store
	Templates template.Repository
	Records   record.Repository
	Items     record.ItemRepository
	UoW       uow.UnitOfWork
	Blobs     blob.Store
	OpLog     oplog.Logger
	Events    event.Publisher
	Observer  Observer
	Log       zerolog.Logger

	// Location is the plant time zone. Production dates are compared with
	// the calendar day there. Nil means UTC.
	Location     *time.Location
	Now          func() time.Time
	NewID        func() string
	NewSessionID func() string
}

type Usecase struct {
	sessions  session.Store
	templates template.Repository
	records   record.Repository
	items     record.ItemRepository
	uow       uow.UnitOfWork
	blobs     blob.Store
	oplog     oplog.Logger
	events    event.Publisher
	observer  Observer
	log       zerolog.Logger

	now          func() time.Time
	newID        func() string
	newSessionID func() string
}

// NewUsecase wires the worker-side use cases. OpLog, Events and Observer are
// optional.
func NewUsecase(d Deps) *Usecase {
	u := &Usecase{
		sessions:     d.Sessions,
		templates:    d.Templates,
		records:      d.Records,
		items:        d.Items,
		uow:          d.UoW,
		blobs:        d.Blobs,
		oplog:        d.OpLog,
		events:       d.Events,
		observer:     d.Observer,
		log:          d.Log,
		now:          d.Now,
		newID:        d.NewID,
		newSessionID: d.NewSessionID,
	}
	if u.observer == nil {
		u.observer = nopObserver{}
	}
	if u.now == nil {
		u.now = time.Now
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := u.now
	u.now = func() time.Time { return clock().In(loc) }
	if u.newID == nil {
		u.newID = id.NewUUID
	}
	if u.newSessionID == nil {
		u.newSessionID = id.NewID32
	}
	return u
}

// state is a loaded session with its template and derived form state.
type state struct {
	s        *session.Session
	tpl      form.Template
	store    *form.Store
	fields   []form.Field
	sections []form.Section
}

func (u *Usecase) load(ctx context.Context, actor identity.Actor, sessionID string) (*state, error) {
	s, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if actor.ID != "" && s.ActorID != actor.ID {
		return nil, ErrNotOwner
	}
	t, err := u.templates.GetByID(ctx, s.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", s.TemplateID, err)
	}
	ft := t.Form()
	if s.RowCounts == nil {
		s.RowCounts = form.InitialRowCounts(ft.Sections)
	}
	st := &state{
		s:        s,
		tpl:      ft,
		store:    form.RestoreStore(s.Values),
		sections: ft.Sections,
	}
	st.fields = form.Expand(st.sections, s.RowCounts)
	return st, nil
}

func (u *Usecase) store(ctx context.Context, st *state) error {
	st.s.Values = st.store.Snapshot()
	st.s.UpdatedAt = u.now()
	return u.sessions.Put(ctx, st.s)
}

// Open starts an editing session. New sheets use the product's active
// template and get no record until the first save; existing records are
// restored from their persisted items.
func (u *Usecase) Open(ctx context.Context, actor identity.Actor, in OpenInput) (*View, error) {
	now := u.now()
	s := &session.Session{
		ID:        u.newSessionID(),
		ActorID:   actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var (
		t     *template.Template
		store *form.Store
		err   error
	)
	switch {
	case in.RecordID != "":
		rec, err := u.records.GetByID(ctx, in.RecordID)
		if err != nil {
			return nil, err
		}
		t, err = u.templates.GetByID(ctx, rec.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("load template %s: %w", rec.TemplateID, err)
		}
		items, err := u.items.ListByRecordID(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("list record items: %w", err)
		}
		var rc form.RowCounts
		store, rc = record.RestoreForm(t.Sections.Data(), items)
		s.RecordID = rec.ID
		s.Status = rec.Status
		s.ProductID = rec.ProductID
		s.RowCounts = rc
		s.Existing = items
	case in.ProductID != "":
		t, err = u.templates.GetActiveByProduct(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		store = form.NewStore()
		s.ProductID = in.ProductID
		s.Status = record.StatusNone
		s.RowCounts = form.InitialRowCounts(t.Sections.Data())
	default:
		return nil, record.ErrMissingLinkage
	}
	s.TemplateID = t.ID

	st := &state{s: s, tpl: t.Form(), store: store}
	st.sections = st.tpl.Sections
	st.fields = form.Expand(st.sections, s.RowCounts)
	if err := u.store(ctx, st); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	u.log.Info().
		Str("session_id", s.ID).
		Str("record_id", s.RecordID).
		Str("template_id", s.TemplateID).
		Str("actor_id", actor.ID).
		Msg("editing session opened")
	return buildView(st), nil
}

func (u *Usecase) View(ctx context.Context, actor identity.Actor, sessionID string) (*View, error) {
	st, err := u.load(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	return buildView(st), nil
}

// Close drops the session. Unsaved edits are lost.
func (u *Usecase) Close(ctx context.Context, actor identity.Actor, sessionID string) error {
	if _, err := u.load(ctx, actor, sessionID); err != nil {
		return err
	}
	return u.sessions.Delete(ctx, sessionID)
}

func (u *Usecase) editable(ctx context.Context, actor identity.Actor, sessionID string) (*state, error) {
	st, err := u.load(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if !record.Editable(st.s.Status) {
		return nil, record.ErrNotEditable
	}
	return st, nil
}

// SetValue applies one field edit and reports the warning it triggers.
func (u *Usecase) SetValue(ctx context.Context, actor identity.Actor, sessionID string, in SetValueInput) (*FieldResult, error) {
	st, err := u.editable(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	out, err := form.ApplyInput(form.Input{
		Sections:  st.sections,
		Fields:    st.fields,
		Store:     st.store,
		FormKey:   in.FormKey,
		Value:     in.Value,
		Confirmed: in.Confirm,
		Now:       u.now(),
	})
	if err != nil {
		return nil, err
	}
	if out.Applied {
		// a photo field typed over drops its pending bytes
		delete(st.s.Pending, in.FormKey)
		if err := u.store(ctx, st); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
	}
	return &FieldResult{Outcome: out, View: buildView(st)}, nil
}

// Acknowledge suppresses further warning popups for formKey. The validation
// error, if any, stays.
func (u *Usecase) Acknowledge(ctx context.Context, actor identity.Actor, sessionID, formKey string) (*View, error) {
	st, err := u.editable(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := form.Lookup(st.fields, formKey); !ok {
		return nil, form.ErrUnknownFormKey
	}
	st.store.Acknowledge(formKey)
	if err := u.store(ctx, st); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return buildView(st), nil
}

// AddRow appends a row to a repeatable section. At max_rows it is a no-op.
func (u *Usecase) AddRow(ctx context.Context, actor identity.Actor, sessionID, sectionID string) (*View, error) {
	return u.resize(ctx, actor, sessionID, sectionID, func(st *state, s form.Section) bool {
		return st.s.RowCounts.Add(s)
	})
}

// RemoveRow drops the last row of a repeatable section and its values. At
// min_rows it is a no-op.
func (u *Usecase) RemoveRow(ctx context.Context, actor identity.Actor, sessionID, sectionID string) (*View, error) {
	return u.resize(ctx, actor, sessionID, sectionID, func(st *state, s form.Section) bool {
		last := st.s.RowCounts.Count(s) - 1
		if !st.s.RowCounts.Remove(s, st.store) {
			return false
		}
		for _, it := range s.Items {
			delete(st.s.Pending, form.FormKey(it.ID, last))
		}
		return true
	})
}

func (u *Usecase) resize(ctx context.Context, actor identity.Actor, sessionID, sectionID string, op func(*state, form.Section) bool) (*View, error) {
	st, err := u.editable(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	sec, ok := form.SectionByID(st.sections, sectionID)
	if !ok {
		return nil, ErrUnknownSection
	}
	if op(st, sec) {
		st.fields = form.Expand(st.sections, st.s.RowCounts)
		if err := u.store(ctx, st); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
	}
	return buildView(st), nil
}

// AttachPhoto is phase one of a photo upload: the bytes stay in the session
// and the field holds a local reference until the next save uploads them.
func (u *Usecase) AttachPhoto(ctx context.Context, actor identity.Actor, sessionID, formKey string, data []byte, contentType string) (*View, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPhoto
	}
	st, err := u.editable(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	f, ok := form.Lookup(st.fields, formKey)
	if !ok {
		return nil, form.ErrUnknownFormKey
	}
	if f.Item.Type != form.TypePhoto {
		return nil, form.ErrNotPhotoField
	}
	if st.s.Pending == nil {
		st.s.Pending = map[string]session.Photo{}
	}
	st.s.Pending[formKey] = session.Photo{Data: data, ContentType: contentType}
	st.store.Set(formKey, form.Text(form.LocalRef(formKey)), u.now())
	if err := u.store(ctx, st); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return buildView(st), nil
}
