package record

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"checksheet-backend/internal/domain/form"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func testSections() []form.Section {
	return []form.Section{
		{
			ID: "S1",
			Items: []form.Item{
				{ID: "date", Label: "Production date", Type: form.TypeDate, Required: true, Role: form.RoleProductionDate},
				{ID: "line", Label: "Line", Type: form.TypeLineSelect},
				{ID: "batch_number", Label: "Batch", Type: form.TypeNumber},
				{ID: "note", Label: "Note", Type: form.TypeText},
			},
		},
		{
			ID: "S2", Repeatable: true, MinRows: 1, MaxRows: 3,
			Items: []form.Item{
				{ID: "temp", Label: "Temp", Type: form.TypeNumber, Required: true},
				{ID: "photo", Label: "Photo", Type: form.TypePhoto},
			},
		},
	}
}

func strp(s string) *string { return &s }

func TestReconcile_CreateSkipAndNull(t *testing.T) {
	sections := testSections()
	rc := form.RowCounts{"S2": 2}
	fields := form.Expand(sections, rc)
	store := form.NewStore()
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	now := t0.Add(2 * time.Hour)

	store.Set("date", form.Text("2026-01-10"), t0)
	store.Set("note", form.Null(), t0)
	store.Set(form.FormKey("temp", 1), form.Number(4.5), t0.Add(time.Minute))
	store.Set(form.FormKey("photo", 0), form.Text(form.LocalRef(form.FormKey("photo", 0))), t0)

	p := Reconcile(ReconcileInput{
		RecordID: "rec",
		Fields:   fields,
		Store:    store,
		Existing: Index{},
		Actor:    "u1",
		Now:      now,
		NewID:    seqIDs(),
	})

	if len(p.Upserts) != 3 || len(p.ChangeLogs) != 3 {
		t.Fatalf("want 3 upserts/logs, got %d/%d", len(p.Upserts), len(p.ChangeLogs))
	}
	if len(p.Pending) != 1 || p.Pending[0] != "photo__0" {
		t.Fatalf("want local photo pending, got %v", p.Pending)
	}

	byItem := map[string]RecordItem{}
	for _, u := range p.Upserts {
		byItem[fmt.Sprintf("%s/%d", u.ItemID, u.RowIndex)] = u
	}
	if u := byItem["note/0"]; u.Value != nil || u.InputAt != now {
		t.Fatalf("explicit null must persist with now as input_at: %+v", u)
	}
	if u := byItem["date/0"]; u.Value == nil || *u.Value != "2026-01-10" || !u.InputAt.Equal(t0) {
		t.Fatalf("date item mismatch: %+v", u)
	}
	temp := byItem["temp/1"]
	if temp.Value == nil || *temp.Value != "4.5" || temp.SectionID != "S2" {
		t.Fatalf("temp row 1 mismatch: %+v", temp)
	}
	if temp.UpdatedBy != nil || temp.UpdatedAt != nil || *temp.InputBy != "u1" {
		t.Fatalf("create must not set updated_*: %+v", temp)
	}
	if _, ok := byItem["temp/0"]; ok {
		t.Fatalf("untouched field must be skipped")
	}

	for _, cl := range p.ChangeLogs {
		if cl.ChangeType != ChangeCreate || cl.OldValue != nil {
			t.Fatalf("unexpected create log: %+v", cl)
		}
		if cl.ItemID == "temp" && !cl.ChangedAt.Equal(t0.Add(time.Minute)) {
			t.Fatalf("create log must carry the input time, got %v", cl.ChangedAt)
		}
	}
}

func TestReconcile_TextWithLocalPrefixIsPersisted(t *testing.T) {
	sections := testSections()
	fields := form.Expand(sections, nil)
	store := form.NewStore()
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	store.Set("note", form.Text("local: line 3 stopped"), now)

	p := Reconcile(ReconcileInput{
		RecordID: "rec",
		Fields:   fields,
		Store:    store,
		Existing: Index{},
		Actor:    "u1",
		Now:      now,
		NewID:    seqIDs(),
	})
	if len(p.Pending) != 0 {
		t.Fatalf("text values are never pending uploads, got %v", p.Pending)
	}
	if len(p.Upserts) != 1 || p.Upserts[0].ItemID != "note" || *p.Upserts[0].Value != "local: line 3 stopped" {
		t.Fatalf("note must be persisted verbatim: %+v", p.Upserts)
	}
}

func TestReconcile_UpdatePreservesInputAndIsIdempotent(t *testing.T) {
	sections := testSections()
	fields := form.Expand(sections, nil)
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	existing := NewIndex([]RecordItem{
		{ID: "item-date", RecordID: "rec", SectionID: "S1", ItemID: "date", Value: strp("2026-01-09"), InputBy: strp("u0"), InputAt: t0},
		{ID: "item-note", RecordID: "rec", SectionID: "S1", ItemID: "note", Value: strp("ok"), InputBy: strp("u0"), InputAt: t0},
	})
	store, _ := RestoreForm(sections, existing.Items())
	store.Set("date", form.Text("2026-01-10"), t0.Add(time.Hour))

	ids := seqIDs()
	now := t0.Add(3 * time.Hour)
	in := ReconcileInput{RecordID: "rec", Fields: fields, Store: store, Existing: existing, Actor: "u1", Now: now, NewID: ids}

	p := Reconcile(in)
	if len(p.Upserts) != 1 || len(p.ChangeLogs) != 1 {
		t.Fatalf("want exactly the changed date, got %d/%d", len(p.Upserts), len(p.ChangeLogs))
	}
	u := p.Upserts[0]
	if u.ID != "item-date" || *u.InputBy != "u0" || !u.InputAt.Equal(t0) {
		t.Fatalf("update must keep identity and input_*: %+v", u)
	}
	if u.UpdatedBy == nil || *u.UpdatedBy != "u1" || u.UpdatedAt == nil || !u.UpdatedAt.Equal(now) {
		t.Fatalf("update must set updated_*: %+v", u)
	}
	cl := p.ChangeLogs[0]
	if cl.ChangeType != ChangeUpdate || *cl.OldValue != "2026-01-09" || *cl.NewValue != "2026-01-10" || *cl.RecordItemID != "item-date" {
		t.Fatalf("unexpected update log: %+v", cl)
	}

	existing.Apply(p)
	second := Reconcile(in)
	if !second.Empty() {
		t.Fatalf("second save without changes must be empty, got %d upserts %d logs", len(second.Upserts), len(second.ChangeLogs))
	}
}

func TestReconcile_NumberMatchesStoredString(t *testing.T) {
	sections := testSections()
	fields := form.Expand(sections, nil)
	existing := NewIndex([]RecordItem{{ID: "x", SectionID: "S2", ItemID: "temp", RowIndex: 0, Value: strp("8")}})
	store := form.NewStore()
	store.Set(form.FormKey("temp", 0), form.Number(8), time.Now())

	p := Reconcile(ReconcileInput{RecordID: "rec", Fields: fields, Store: store, Existing: existing, Actor: "u", Now: time.Now(), NewID: seqIDs()})
	if !p.Empty() {
		t.Fatalf("number 8 equals stored \"8\", got %+v", p)
	}
}

func TestRestoreForm_RowCountsAndValues(t *testing.T) {
	sections := testSections()
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	items := []RecordItem{
		{SectionID: "S2", ItemID: "temp", RowIndex: 2, Value: strp("3"), InputAt: t0},
		{SectionID: "S1", ItemID: "note", Value: nil, InputAt: t0},
		{SectionID: "GONE", ItemID: "old", Value: strp("x"), InputAt: t0},
	}
	store, rc := RestoreForm(sections, items)

	if got := rc.Count(sections[1]); got != 3 {
		t.Fatalf("want 3 rows restored, got %d", got)
	}
	if v := store.Get("temp__2"); v.String() != "3" {
		t.Fatalf("temp__2 = %q", v.String())
	}
	if !store.Get("note").IsNull() {
		t.Fatalf("null item must restore as null")
	}
	if store.Get("old").IsSet() {
		t.Fatalf("items of removed sections must be ignored")
	}
	if at, ok := store.InputAt("note"); !ok || !at.Equal(t0) {
		t.Fatalf("input time not restored")
	}
}

func TestHeaderFrom(t *testing.T) {
	sections := testSections()
	store := form.NewStore()
	today := time.Date(2026, 1, 12, 15, 0, 0, 0, time.UTC)

	h := HeaderFrom(sections, store, today)
	if h.ProductionDate != "2026-01-12" || h.LineID != nil || h.BatchNumber != 0 {
		t.Fatalf("unexpected empty header: %+v", h)
	}

	store.Set("date", form.Text("2026-01-10"), today)
	store.Set("line", form.Text("L-2"), today)
	store.Set("batch_number", form.Text("17"), today)
	h = HeaderFrom(sections, store, today)
	if h.ProductionDate != "2026-01-10" || h.LineID == nil || *h.LineID != "L-2" || h.BatchNumber != 17 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestCheckSubmittable(t *testing.T) {
	full := form.Progress{Completed: 2, Total: 2}
	partial := form.Progress{Completed: 1, Total: 2}
	errs := []form.CheckError{{FormKey: "x", Type: form.ErrorOutOfRange}}

	tests := []struct {
		name   string
		status Status
		p      form.Progress
		errs   []form.CheckError
		want   error
	}{
		{"ok", StatusDraft, full, nil, nil},
		{"incomplete", StatusDraft, partial, nil, ErrIncomplete},
		{"errors", StatusRejected, full, errs, ErrValidationFailed},
		{"submitted", StatusSubmitted, full, nil, ErrNotEditable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckSubmittable(tc.status, tc.p, tc.errs)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}
