package record

import (
	"checksheet-backend/internal/domain/form"
	"time"
)

// Slot addresses one persisted field instance of a record.
type Slot struct {
	ItemID   string
	RowIndex int
}

// Index holds the persisted items of one record by slot.
type Index map[Slot]RecordItem

func NewIndex(items []RecordItem) Index {
	ix := make(Index, len(items))
	for _, it := range items {
		ix[Slot{ItemID: it.ItemID, RowIndex: it.RowIndex}] = it
	}
	return ix
}

// Items returns the indexed items in no particular order.
func (ix Index) Items() []RecordItem {
	out := make([]RecordItem, 0, len(ix))
	for _, it := range ix {
		out = append(out, it)
	}
	return out
}

type ReconcileInput struct {
	RecordID string
	Fields   []form.Field
	Store    *form.Store
	Existing Index
	Actor    string
	Now      time.Time
	NewID    func() string
}

// Plan is the set of writes a save needs.
type Plan struct {
	Upserts    []RecordItem
	ChangeLogs []ChangeLogEntry
	// Pending lists photo form keys skipped because they still hold a local
	// reference.
	Pending []string
}

func (p Plan) Empty() bool { return len(p.Upserts) == 0 && len(p.ChangeLogs) == 0 }

// Reconcile diffs the expanded form against the persisted items.
//
// An existing item whose value changed is updated in place: input_by and
// input_at are kept, updated_by and updated_at are set, and an "update" change
// log is appended. A missing item is created only when the field holds a value
// (explicit null included), using the field's first-input timestamp as
// input_at. Untouched fields are skipped so a save never wipes values the user
// did not revisit.
func Reconcile(in ReconcileInput) Plan {
	var p Plan
	for _, f := range in.Fields {
		v := in.Store.Get(f.FormKey)
		if form.PendingPhoto(f.Item, v) {
			p.Pending = append(p.Pending, f.FormKey)
			continue
		}
		wire, ok := v.Wire()
		if !ok {
			continue
		}

		slot := Slot{ItemID: f.Item.ID, RowIndex: f.RowIndex}
		if existing, found := in.Existing[slot]; found {
			if sameValue(existing.Value, wire) {
				continue
			}
			now := in.Now
			actor := in.Actor
			upd := existing
			upd.RecordID = in.RecordID
			upd.SectionID = f.SectionID
			upd.Value = wire
			upd.UpdatedBy = &actor
			upd.UpdatedAt = &now
			p.Upserts = append(p.Upserts, upd)

			itemID := existing.ID
			p.ChangeLogs = append(p.ChangeLogs, ChangeLogEntry{
				ID:           in.NewID(),
				RecordID:     in.RecordID,
				RecordItemID: &itemID,
				SectionID:    f.SectionID,
				ItemID:       f.Item.ID,
				RowIndex:     f.RowIndex,
				OldValue:     existing.Value,
				NewValue:     wire,
				ChangedBy:    in.Actor,
				ChangedAt:    in.Now,
				ChangeType:   ChangeUpdate,
			})
			continue
		}

		inputAt, tracked := in.Store.InputAt(f.FormKey)
		if !tracked {
			inputAt = in.Now
		}
		actor := in.Actor
		id := in.NewID()
		p.Upserts = append(p.Upserts, RecordItem{
			ID:        id,
			RecordID:  in.RecordID,
			SectionID: f.SectionID,
			ItemID:    f.Item.ID,
			RowIndex:  f.RowIndex,
			Value:     wire,
			InputBy:   &actor,
			InputAt:   inputAt,
		})
		p.ChangeLogs = append(p.ChangeLogs, ChangeLogEntry{
			ID:           in.NewID(),
			RecordID:     in.RecordID,
			RecordItemID: &id,
			SectionID:    f.SectionID,
			ItemID:       f.Item.ID,
			RowIndex:     f.RowIndex,
			NewValue:     wire,
			ChangedBy:    in.Actor,
			ChangedAt:    inputAt,
			ChangeType:   ChangeCreate,
		})
	}
	return p
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Apply folds a committed plan back into the index so the next save diffs
// against what is now stored.
func (ix Index) Apply(p Plan) {
	for _, it := range p.Upserts {
		ix[Slot{ItemID: it.ItemID, RowIndex: it.RowIndex}] = it
	}
}
