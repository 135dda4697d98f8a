package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSections() []Section {
	return []Section{
		{
			ID:   "S1",
			Name: "Basics",
			Items: []Item{
				{ID: "S1-1", Label: "Production date", Type: TypeDate, Required: true, Role: RoleProductionDate},
				{ID: "S1-2", Label: "Operator", Type: TypeUserSelect, Required: true, AllowSelf: true},
				{ID: "S1-3", Label: "Expiry", Type: TypeDate, Required: true, Validation: &ValidationRule{Type: RuleExpiryDate}},
			},
		},
		{
			ID:         "S2",
			Name:       "Filters",
			Repeatable: true,
			MinRows:    1,
			MaxRows:    5,
			Items: []Item{
				{ID: "S2-1", Label: "State", Type: TypeOKNG, Required: true},
				{ID: "S2-2", Label: "Temp", Type: TypeNumber, Unit: "C"},
			},
		},
	}
}

func TestFormKey_RoundTrip(t *testing.T) {
	key := FormKey("S12-1", 3)
	assert.Equal(t, "S12-1__3", key)

	id, row := ParseFormKey(key)
	assert.Equal(t, "S12-1", id)
	assert.Equal(t, 3, row)

	id, row = ParseFormKey("S1-1")
	assert.Equal(t, "S1-1", id)
	assert.Equal(t, 0, row)

	id, row = ParseFormKey("weird__x")
	assert.Equal(t, "weird__x", id)
	assert.Equal(t, 0, row)
}

func TestExpand_CountsAndUniqueKeys(t *testing.T) {
	sections := sampleSections()
	cases := []struct {
		name string
		rc   RowCounts
		want int
	}{
		{"defaults to min rows", RowCounts{}, 3 + 1*2},
		{"three rows", RowCounts{"S2": 3}, 3 + 3*2},
		{"zero falls back to min", RowCounts{"S2": 0}, 3 + 1*2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := Expand(sections, tc.rc)
			require.Len(t, fields, tc.want)

			seen := map[string]bool{}
			for _, f := range fields {
				assert.False(t, seen[f.FormKey], "duplicate key %s", f.FormKey)
				seen[f.FormKey] = true
			}
		})
	}
}

func TestExpand_KeysAndOrder(t *testing.T) {
	fields := Expand(sampleSections(), RowCounts{"S2": 2})
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.FormKey)
	}
	assert.Equal(t, []string{"S1-1", "S1-2", "S1-3", "S2-1__0", "S2-2__0", "S2-1__1", "S2-2__1"}, keys)
	assert.Equal(t, 1, fields[5].RowIndex)
	assert.Equal(t, "S2", fields[5].SectionID)
}

func TestRowCounts_Bounds(t *testing.T) {
	sections := sampleSections()
	s := sections[1]
	rc := InitialRowCounts(sections)
	store := NewStore()

	assert.Equal(t, 1, rc.Count(s))
	assert.False(t, rc.Remove(s, store), "remove at min_rows must be a no-op")
	assert.Equal(t, 1, rc.Count(s))

	for i := 0; i < 4; i++ {
		require.True(t, rc.Add(s))
	}
	assert.Equal(t, 5, rc.Count(s))
	assert.False(t, rc.Add(s), "add at max_rows must be a no-op")
	assert.Equal(t, 5, rc.Count(s))
}

func TestRowCounts_RemovePurgesLastRowOnly(t *testing.T) {
	sections := []Section{{
		ID: "R", Repeatable: true, MinRows: 1, MaxRows: 3,
		Items: []Item{{ID: "a", Type: TypeText}, {ID: "b", Type: TypeNumber}},
	}}
	s := sections[0]
	rc := InitialRowCounts(sections)
	store := NewStore()
	now := time.Now()

	require.True(t, rc.Add(s))
	require.True(t, rc.Add(s))
	assert.Equal(t, 3, rc.Count(s))

	for row := 0; row < 3; row++ {
		store.Set(FormKey("a", row), Text("x"), now)
		store.Set(FormKey("b", row), Number(float64(row)), now)
	}
	store.Acknowledge(FormKey("b", 2))

	require.True(t, rc.Remove(s, store))
	assert.Equal(t, 2, rc.Count(s))
	assert.False(t, store.Get(FormKey("a", 2)).IsSet())
	assert.False(t, store.Get(FormKey("b", 2)).IsSet())
	assert.False(t, store.IsAcknowledged(FormKey("b", 2)))
	_, ok := store.InputAt(FormKey("a", 2))
	assert.False(t, ok)

	assert.Equal(t, Text("x"), store.Get(FormKey("a", 0)))
	assert.Equal(t, Number(1), store.Get(FormKey("b", 1)))
}

func TestRowCounts_UnboundedWithoutMax(t *testing.T) {
	s := Section{ID: "R", Repeatable: true, Items: []Item{{ID: "a", Type: TypeText}}}
	rc := RowCounts{}
	for i := 0; i < 50; i++ {
		require.True(t, rc.Add(s))
	}
	assert.Equal(t, 51, rc.Count(s))
}

func TestRowCounts_NilMap(t *testing.T) {
	s := Section{ID: "R", Repeatable: true, MinRows: 2, MaxRows: 4, Items: []Item{{ID: "a", Type: TypeText}}}
	var rc RowCounts
	assert.Equal(t, 2, rc.Count(s))
	assert.Len(t, Expand([]Section{s}, rc), 2)

	require.True(t, rc.Add(s))
	assert.Equal(t, 3, rc.Count(s))

	var empty RowCounts
	assert.False(t, empty.Remove(s, nil), "nil counts sit at min_rows")
	assert.Nil(t, empty)
}

func TestRoleKey_LegacyLabelFallback(t *testing.T) {
	sections := []Section{{
		ID: "S1",
		Items: []Item{
			{ID: "d0", Label: "Other date", Type: TypeDate},
			{ID: "d1", Label: LegacyProductionDateLabel, Type: TypeDate},
		},
	}}
	key, ok := RoleKey(sections, RoleProductionDate)
	require.True(t, ok)
	assert.Equal(t, "d1", key)

	_, ok = RoleKey(sections, RoleBatchNumber)
	assert.False(t, ok)
}

func TestTemplate_Validate(t *testing.T) {
	ok := Template{Sections: sampleSections()}
	require.NoError(t, ok.Validate())

	dupSection := Template{Sections: []Section{{ID: "A"}, {ID: "A"}}}
	assert.ErrorIs(t, dupSection.Validate(), ErrInvalidTemplate)

	badType := Template{Sections: []Section{{ID: "A", Items: []Item{{ID: "x", Type: "slider"}}}}}
	assert.ErrorIs(t, badType.Validate(), ErrInvalidTemplate)

	badRows := Template{Sections: []Section{{ID: "A", Repeatable: true, MinRows: 3, MaxRows: 2}}}
	assert.ErrorIs(t, badRows.Validate(), ErrInvalidTemplate)

	dupItem := Template{Sections: []Section{
		{ID: "A", Items: []Item{{ID: "temp", Type: TypeNumber}}},
		{ID: "B", Items: []Item{{ID: "temp", Type: TypeNumber}}},
	}}
	err := dupItem.Validate()
	assert.ErrorIs(t, err, ErrInvalidTemplate, "item ids must be unique across sections")
	assert.Contains(t, err.Error(), `"temp"`)

	dupInSection := Template{Sections: []Section{{ID: "A", Items: []Item{{ID: "x", Type: TypeText}, {ID: "x", Type: TypeText}}}}}
	assert.ErrorIs(t, dupInSection.Validate(), ErrInvalidTemplate)

	separator := Template{Sections: []Section{{ID: "A", Items: []Item{{ID: "x__1", Type: TypeText}}}}}
	assert.ErrorIs(t, separator.Validate(), ErrInvalidTemplate)

	badRegex := Template{Sections: []Section{{ID: "A", Items: []Item{{ID: "x", Type: TypeText, Validation: &ValidationRule{Type: RulePattern, Regex: "("}}}}}}
	assert.ErrorIs(t, badRegex.Validate(), ErrInvalidTemplate)
}
