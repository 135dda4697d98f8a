package checksheet

import (
	"sort"
	"strconv"

	"checksheet-backend/internal/domain/form"
	"checksheet-backend/internal/domain/record"
)

func buildView(st *state) *View {
	errs := form.ComputeErrors(st.sections, st.fields, st.store)
	progress := form.ComputeProgress(st.sections, st.fields, st.store)
	editable := record.Editable(st.s.Status)

	errByKey := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, dup := errByKey[e.FormKey]; !dup {
			errByKey[e.FormKey] = e.Message
		}
	}

	v := &View{
		SessionID:  st.s.ID,
		RecordID:   st.s.RecordID,
		TemplateID: st.s.TemplateID,
		ProductID:  st.s.ProductID,
		Status:     st.s.Status,
		Editable:   editable,
		Errors:     errs,
		Progress:   progress,
		CanSubmit:  form.CanSubmit(editable, progress, errs),
		Sections:   make([]SectionView, 0, len(st.sections)),
		Fields:     make([]FieldView, 0, len(st.fields)),
	}
	if v.Errors == nil {
		v.Errors = []form.CheckError{}
	}

	for i, s := range st.sections {
		secErrs := form.SectionErrors(s, errs)
		sv := SectionView{
			ID:           s.ID,
			Name:         s.Name,
			Description:  s.Description,
			Repeatable:   s.Repeatable,
			RowCount:     st.s.RowCounts.Count(s),
			CanAddRow:    editable && st.s.RowCounts.CanAdd(s),
			CanRemoveRow: editable && st.s.RowCounts.CanRemove(s),
			Items:        s.Items,
			Progress:     progress.Sections[i],
			ErrorCount:   len(secErrs),
		}
		if len(secErrs) > 0 {
			sv.Errors = form.SectionErrorMap(s, errs)
		}
		if s.Repeatable {
			sv.RowLabels = rowLabels(s, sv.RowCount)
		}
		v.Sections = append(v.Sections, sv)
	}

	for _, f := range st.fields {
		fv := FieldView{
			FormKey:      f.FormKey,
			SectionID:    f.SectionID,
			ItemID:       f.Item.ID,
			RowIndex:     f.RowIndex,
			Error:        errByKey[f.FormKey],
			Acknowledged: st.store.IsAcknowledged(f.FormKey),
		}
		if val := st.store.Get(f.FormKey); val.IsSet() {
			fv.Value = &val
			fv.Pending = form.PendingPhoto(f.Item, val)
		}
		if at, ok := st.store.InputAt(f.FormKey); ok {
			fv.InputAt = &at
		}
		v.Fields = append(v.Fields, fv)
	}

	crit := form.CriticalItemIDs(st.sections)
	v.CriticalItems = make([]string, 0, len(crit))
	for id := range crit {
		v.CriticalItems = append(v.CriticalItems, id)
	}
	sort.Strings(v.CriticalItems)

	for key := range st.s.Pending {
		v.PendingPhotos = append(v.PendingPhotos, key)
	}
	sort.Strings(v.PendingPhotos)
	return v
}

// rowLabels names the rows of a repeatable section: the fixed labels first,
// then 1-based row numbers.
func rowLabels(s form.Section, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(s.FixedLabels) {
			out[i] = s.FixedLabels[i]
			continue
		}
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}
