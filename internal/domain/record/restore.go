package record

import (
	"checksheet-backend/internal/domain/form"
	"math"
	"strings"
	"time"
)

// RestoreForm rebuilds the editing state of a saved record. Row counts of
// repeatable sections grow to cover the highest persisted row index. Items of
// sections no longer in the template are ignored.
func RestoreForm(sections []form.Section, items []RecordItem) (*form.Store, form.RowCounts) {
	store := form.NewStore()
	rc := form.InitialRowCounts(sections)

	byID := make(map[string]form.Section, len(sections))
	for _, s := range sections {
		byID[s.ID] = s
	}

	for _, it := range items {
		s, ok := byID[it.SectionID]
		if !ok || !s.HasItem(it.ItemID) {
			continue
		}
		key := form.KeyFor(s, it.ItemID, it.RowIndex)
		store.Set(key, form.FromWire(it.Value), it.InputAt)
		store.RestoreInputAt(key, it.InputAt)

		if s.Repeatable && it.RowIndex+1 > rc.Count(s) {
			rc[s.ID] = it.RowIndex + 1
		}
	}
	return store, rc
}

// HeaderFrom derives the record header from the role-tagged items. A missing
// production date falls back to today; a non-numeric batch number is 0.
func HeaderFrom(sections []form.Section, store *form.Store, today time.Time) Header {
	h := Header{ProductionDate: form.Day(today).Format("2006-01-02")}

	if key, ok := form.RoleKey(sections, form.RoleLine); ok {
		if v := strings.TrimSpace(store.Get(key).String()); v != "" {
			h.LineID = &v
		}
	}
	if d := form.ProductionDate(sections, store); d != nil {
		h.ProductionDate = d.Format("2006-01-02")
	}
	if key, ok := form.RoleKey(sections, form.RoleBatchNumber); ok {
		if n, ok := store.Get(key).Float(); ok && !math.IsNaN(n) && !math.IsInf(n, 0) {
			h.BatchNumber = int(n)
		}
	}
	return h
}
