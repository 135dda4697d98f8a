package form

import (
	"strconv"
	"strings"
)

// KeySeparator joins an item id and a row index into the form key of a
// repeatable field instance.
const KeySeparator = "__"

// FormKey builds the key of row rowIndex of a repeatable item.
func FormKey(itemID string, rowIndex int) string {
	return itemID + KeySeparator + strconv.Itoa(rowIndex)
}

// ParseFormKey splits a form key on its last separator. Keys without a valid
// row suffix are plain item ids at row 0.
func ParseFormKey(key string) (itemID string, rowIndex int) {
	idx := strings.LastIndex(key, KeySeparator)
	if idx == -1 {
		return key, 0
	}
	row, err := strconv.Atoi(key[idx+len(KeySeparator):])
	if err != nil || row < 0 {
		return key, 0
	}
	return key[:idx], row
}

// KeyFor returns the form key of item at rowIndex within section.
func KeyFor(section Section, itemID string, rowIndex int) string {
	if section.Repeatable {
		return FormKey(itemID, rowIndex)
	}
	return itemID
}

// Field is one addressable field instance.
type Field struct {
	Item      Item
	SectionID string
	FormKey   string
	RowIndex  int
}

// RowCounts maps a repeatable section id to its current number of rows.
type RowCounts map[string]int

// InitialRowCounts starts every repeatable section at its minimum.
func InitialRowCounts(sections []Section) RowCounts {
	rc := RowCounts{}
	for _, s := range sections {
		if s.Repeatable {
			rc[s.ID] = minRows(s)
		}
	}
	return rc
}

func minRows(s Section) int {
	if s.MinRows > 0 {
		return s.MinRows
	}
	return 1
}

// Count is the number of rows currently rendered for s.
func (rc RowCounts) Count(s Section) int {
	if !s.Repeatable {
		return 1
	}
	if n := rc[s.ID]; n > 0 {
		return n
	}
	return minRows(s)
}

func (rc RowCounts) CanAdd(s Section) bool {
	if !s.Repeatable {
		return false
	}
	return s.MaxRows <= 0 || rc.Count(s) < s.MaxRows
}

func (rc RowCounts) CanRemove(s Section) bool {
	if !s.Repeatable {
		return false
	}
	return rc.Count(s) > minRows(s)
}

// Add appends a row to s. It reports false when max_rows is reached. A nil
// map is allocated on first use.
func (rc *RowCounts) Add(s Section) bool {
	if !rc.CanAdd(s) {
		return false
	}
	rc.set(s.ID, rc.Count(s)+1)
	return true
}

// Remove drops the last row of s and purges that row's values from store.
// It reports false when min_rows is reached.
func (rc *RowCounts) Remove(s Section, store *Store) bool {
	if !rc.CanRemove(s) {
		return false
	}
	last := rc.Count(s) - 1
	if store != nil {
		for _, it := range s.Items {
			store.Delete(FormKey(it.ID, last))
		}
	}
	rc.set(s.ID, last)
	return true
}

func (rc *RowCounts) set(sectionID string, n int) {
	if *rc == nil {
		*rc = RowCounts{}
	}
	(*rc)[sectionID] = n
}

// Clone copies the counts.
func (rc RowCounts) Clone() RowCounts {
	out := make(RowCounts, len(rc))
	for k, v := range rc {
		out[k] = v
	}
	return out
}

// Expand flattens sections into their visible field instances, in template
// order. Repeatable sections contribute Count(s) rows of every item.
func Expand(sections []Section, rc RowCounts) []Field {
	total := 0
	for _, s := range sections {
		total += rc.Count(s) * len(s.Items)
	}
	out := make([]Field, 0, total)
	for _, s := range sections {
		if !s.Repeatable {
			for _, it := range s.Items {
				out = append(out, Field{Item: it, SectionID: s.ID, FormKey: it.ID})
			}
			continue
		}
		rows := rc.Count(s)
		for row := 0; row < rows; row++ {
			for _, it := range s.Items {
				out = append(out, Field{Item: it, SectionID: s.ID, FormKey: FormKey(it.ID, row), RowIndex: row})
			}
		}
	}
	return out
}

// Lookup finds the field addressed by formKey.
func Lookup(fields []Field, formKey string) (Field, bool) {
	for _, f := range fields {
		if f.FormKey == formKey {
			return f, true
		}
	}
	return Field{}, false
}

// RoleKey returns the form key of the first row of the item carrying role.
func RoleKey(sections []Section, role Role) (string, bool) {
	it, ok := ItemWithRole(sections, role)
	if !ok {
		return "", false
	}
	for _, s := range sections {
		if s.HasItem(it.ID) {
			return KeyFor(s, it.ID, 0), true
		}
	}
	return "", false
}
