package form

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)

func inputFor(sections []Section, store *Store, key string, v Value) Input {
	return Input{
		Sections: sections,
		Fields:   Expand(sections, RowCounts{"S2": 1}),
		Store:    store,
		FormKey:  key,
		Value:    v,
		Now:      today,
	}
}

func criticalSections() []Section {
	s := sampleSections()
	s[1].Items[1].Validation = &ValidationRule{Type: RuleMax, Value: NumberRuleValue(10)}
	return s
}

func TestApplyInput_UnknownKey(t *testing.T) {
	_, err := ApplyInput(inputFor(sampleSections(), NewStore(), "nope", Text("x")))
	assert.ErrorIs(t, err, ErrUnknownFormKey)
}

func TestApplyInput_ProductionDate(t *testing.T) {
	sections := sampleSections()
	store := NewStore()

	_, err := ApplyInput(inputFor(sections, store, "S1-1", Text("2026-01-11")))
	assert.ErrorIs(t, err, ErrFutureProductionDate)
	assert.False(t, store.Get("S1-1").IsSet())

	out, err := ApplyInput(inputFor(sections, store, "S1-1", Text("2026-01-08")))
	require.NoError(t, err)
	assert.False(t, out.Applied)
	require.NotNil(t, out.Warning)
	assert.Equal(t, WarningProductionDate, out.Warning.Kind)
	assert.False(t, store.Get("S1-1").IsSet(), "unconfirmed date is not stored")

	in := inputFor(sections, store, "S1-1", Text("2026-01-08"))
	in.Confirmed = true
	out, err = ApplyInput(in)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, Text("2026-01-08"), store.Get("S1-1"))

	out, err = ApplyInput(inputFor(sections, store, "S1-1", Text("2026-01-10")))
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Nil(t, out.Warning)
}

func TestApplyInput_ProductionDateUsesPlantDay(t *testing.T) {
	sections := sampleSections()
	jst := time.FixedZone("JST", 9*60*60)
	// 01:30 on Jan 10 at the plant is still Jan 9 in UTC.
	plantNow := time.Date(2026, 1, 10, 1, 30, 0, 0, jst)

	in := inputFor(sections, NewStore(), "S1-1", Text("2026-01-10"))
	in.Now = plantNow
	out, err := ApplyInput(in)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Nil(t, out.Warning)

	in = inputFor(sections, NewStore(), "S1-1", Text("2026-01-10"))
	in.Now = plantNow.UTC()
	_, err = ApplyInput(in)
	assert.ErrorIs(t, err, ErrFutureProductionDate, "the calendar day follows the clock's location")
}

func TestApplyInput_LocalPrefixOnlyReservedForPhotos(t *testing.T) {
	sections := []Section{{
		ID: "S1",
		Items: []Item{
			{ID: "note", Label: "Note", Type: TypeText},
			{ID: "pic", Label: "Picture", Type: TypePhoto},
		},
	}}
	store := NewStore()

	out, err := ApplyInput(inputFor(sections, store, "note", Text("local: line 3 stopped")))
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.False(t, PendingPhoto(sections[0].Items[0], store.Get("note")))

	_, err = ApplyInput(inputFor(sections, store, "pic", Text(LocalRef("pic"))))
	assert.ErrorIs(t, err, ErrLocalPhotoRef)
	assert.False(t, store.Get("pic").IsSet())

	store.Set("pic", Text(LocalRef("pic")), today)
	assert.True(t, PendingPhoto(sections[0].Items[1], store.Get("pic")))
}

func TestApplyInput_CriticalWarningAndAcknowledge(t *testing.T) {
	sections := criticalSections()
	store := NewStore()
	key := FormKey("S2-2", 0)

	out, err := ApplyInput(inputFor(sections, store, key, Number(11)))
	require.NoError(t, err)
	assert.True(t, out.Applied)
	require.NotNil(t, out.Warning)
	assert.Equal(t, WarningCritical, out.Warning.Kind)

	store.Acknowledge(key)
	out, err = ApplyInput(inputFor(sections, store, key, Number(12)))
	require.NoError(t, err)
	assert.Nil(t, out.Warning, "acknowledged key does not warn again")

	out, err = ApplyInput(inputFor(sections, store, key, Number(5)))
	require.NoError(t, err)
	assert.Nil(t, out.Warning)
	assert.False(t, store.IsAcknowledged(key), "valid value clears acknowledgement")

	out, err = ApplyInput(inputFor(sections, store, key, Number(20)))
	require.NoError(t, err)
	require.NotNil(t, out.Warning)
}

func TestApplyInput_ExpiryWarning(t *testing.T) {
	sections := sampleSections()
	store := NewStore()
	store.Set("S1-1", Text("2026-01-10"), today)

	out, err := ApplyInput(inputFor(sections, store, "S1-3", Text("2026-01-09")))
	require.NoError(t, err)
	require.NotNil(t, out.Warning)
	assert.Equal(t, WarningExpiry, out.Warning.Kind)
	assert.Equal(t, "2026-01-10", out.Warning.ProductionDate)

	out, err = ApplyInput(inputFor(sections, store, "S1-3", Text("2027-01-05")))
	require.NoError(t, err)
	assert.Nil(t, out.Warning)
}

func TestApplyInput_NumberWithoutRuleIsNotCritical(t *testing.T) {
	sections := sampleSections()
	out, err := ApplyInput(inputFor(sections, NewStore(), FormKey("S2-2", 0), Number(1e9)))
	require.NoError(t, err)
	assert.Nil(t, out.Warning)
	assert.False(t, CriticalItemIDs(sections)["S2-2"])
	assert.True(t, CriticalItemIDs(criticalSections())["S2-2"])
}

func TestStore_FirstInputTimestampWins(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	s.Set("a", Null(), t0)
	_, ok := s.InputAt("a")
	assert.False(t, ok, "empty values do not stamp")

	s.Set("a", Text("1"), t0)
	s.Set("a", Text("2"), t1)
	got, ok := s.InputAt("a")
	require.True(t, ok)
	assert.Equal(t, t0, got)
	assert.Equal(t, Text("2"), s.Get("a"))
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	s := NewStore()
	at := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	s.Set("a", Text("x"), at)
	s.Set("b", Number(2.5), at)
	s.Set("c", Null(), at)
	s.Acknowledge("b")

	raw, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	r := RestoreStore(snap)

	assert.Equal(t, Text("x"), r.Get("a"))
	assert.Equal(t, Number(2.5), r.Get("b"))
	assert.True(t, r.Get("c").IsNull())
	assert.True(t, r.IsAcknowledged("b"))
	ts, ok := r.InputAt("a")
	require.True(t, ok)
	assert.True(t, ts.Equal(at))
}

func TestValue_Wire(t *testing.T) {
	_, ok := Value{}.Wire()
	assert.False(t, ok)

	s, ok := Null().Wire()
	assert.True(t, ok)
	assert.Nil(t, s)

	s, ok = Number(8).Wire()
	require.True(t, ok)
	assert.Equal(t, "8", *s)

	assert.True(t, IsLocalRef(Text(LocalRef("p__0"))))
	assert.False(t, IsLocalRef(Text("https://cdn/x.jpg")))
	assert.Equal(t, "rec/S9-1/1767225600000.jpg", PhotoPath("rec", "S9-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), ""))
}
