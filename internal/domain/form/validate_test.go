package form

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestIsOutOfRange_SingleSided(t *testing.T) {
	maxByValue := Item{ID: "m", Type: TypeNumber, Validation: &ValidationRule{Type: RuleMax, Value: NumberRuleValue(10)}}
	minByMin := Item{ID: "n", Type: TypeNumber, Validation: &ValidationRule{Type: RuleMin, Min: f64(3.5), Message: "too low"}}

	cases := []struct {
		name    string
		item    Item
		value   Value
		invalid bool
	}{
		{"max over", maxByValue, Number(11), true},
		{"max equal", maxByValue, Number(10), false},
		{"max text number over", maxByValue, Text("10.5"), true},
		{"max non numeric fails open", maxByValue, Text("abc"), false},
		{"min under", minByMin, Number(3.4), true},
		{"min equal", minByMin, Number(3.5), false},
		{"empty is valid", minByMin, Text(""), false},
		{"null is valid", minByMin, Null(), false},
		{"unset is valid", minByMin, Value{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsOutOfRange(tc.item, tc.value, nil)
			assert.Equal(t, tc.invalid, got.Invalid)
		})
	}

	assert.Equal(t, "too low", IsOutOfRange(minByMin, Number(1), nil).Message)
}

func TestIsOutOfRange_MinPrefersMinOverValue(t *testing.T) {
	it := Item{Type: TypeNumber, Validation: &ValidationRule{Type: RuleMin, Min: f64(5), Value: NumberRuleValue(1)}}
	assert.True(t, IsOutOfRange(it, Number(3), nil).Invalid)
}

func TestIsOutOfRange_Range(t *testing.T) {
	it := Item{Type: TypeNumber, Validation: &ValidationRule{Type: RuleRange, Min: f64(1), Max: f64(12)}}
	assert.True(t, IsOutOfRange(it, Number(15), nil).Invalid)
	assert.True(t, IsOutOfRange(it, Number(0), nil).Invalid)
	assert.False(t, IsOutOfRange(it, Number(8), nil).Invalid)
	assert.False(t, IsOutOfRange(it, Number(12), nil).Invalid)

	upperOnly := Item{Type: TypeNumber, Validation: &ValidationRule{Type: RuleRange, Max: f64(4)}}
	assert.False(t, IsOutOfRange(upperOnly, Number(-100), nil).Invalid)
	assert.True(t, IsOutOfRange(upperOnly, Number(4.01), nil).Invalid)
}

func TestIsOutOfRange_ExpiryDate(t *testing.T) {
	it := Item{Type: TypeDate, Validation: &ValidationRule{Type: RuleExpiryDate}}
	prod := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsOutOfRange(it, Text("2026-01-09"), &prod).Invalid)
	assert.False(t, IsOutOfRange(it, Text("2026-01-10"), &prod).Invalid)
	assert.False(t, IsOutOfRange(it, Text("2026-01-11"), &prod).Invalid)

	lateInDay := time.Date(2026, 1, 10, 23, 59, 0, 0, time.UTC)
	assert.False(t, IsOutOfRange(it, Text("2026-01-10"), &lateInDay).Invalid, "time of day is ignored")

	assert.False(t, IsOutOfRange(it, Text("2026-01-01"), nil).Invalid, "no production date, no error")
	assert.False(t, IsOutOfRange(it, Text("not a date"), &prod).Invalid)
}

func TestIsOutOfRange_EqualsAndPattern(t *testing.T) {
	eq := Item{Type: TypeSelect, Validation: &ValidationRule{Type: RuleEquals, Value: TextRuleValue("OK")}}
	assert.False(t, IsOutOfRange(eq, Text("OK"), nil).Invalid)
	assert.True(t, IsOutOfRange(eq, Text("NG"), nil).Invalid)

	pat := Item{Type: TypeText, Validation: &ValidationRule{Type: RulePattern, Regex: `^L\d{3}$`}}
	assert.False(t, IsOutOfRange(pat, Text("L001"), nil).Invalid)
	assert.True(t, IsOutOfRange(pat, Text("X1"), nil).Invalid)
}

func TestRuleValue_JSON(t *testing.T) {
	var rule ValidationRule
	require.NoError(t, json.Unmarshal([]byte(`{"type":"max","value":10,"message":"m"}`), &rule))
	th, ok := rule.MaxThreshold()
	require.True(t, ok)
	assert.Equal(t, 10.0, th)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"equals","value":"OK"}`), &rule))
	assert.Equal(t, "OK", rule.Value.Text)
	assert.Nil(t, rule.Value.Num)

	b, err := json.Marshal(ValidationRule{Type: RuleMin, Value: NumberRuleValue(3.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"min","value":3.5}`, string(b))
}

func TestComputeErrors(t *testing.T) {
	sections := sampleSections()
	sections[1].Items[1].Validation = &ValidationRule{Type: RuleRange, Min: f64(0), Max: f64(10), Message: "0-10"}
	rc := RowCounts{"S2": 2}
	fields := Expand(sections, rc)
	store := NewStore()
	now := time.Now()

	store.Set("S1-1", Text("2026-01-10"), now)
	store.Set("S1-3", Text("2026-01-09"), now)
	store.Set(FormKey("S2-1", 1), Text("ng"), now)
	store.Set(FormKey("S2-2", 0), Number(11), now)
	store.Set(FormKey("S2-2", 1), Text("abc"), now)

	errs := ComputeErrors(sections, fields, store)
	require.Len(t, errs, 3)

	byKey := map[string]CheckError{}
	for _, e := range errs {
		byKey[e.FormKey] = e
		assert.Equal(t, SeverityError, e.Severity)
	}
	assert.Equal(t, ErrorOutOfRange, byKey["S1-3"].Type)
	assert.Equal(t, ErrorNGSelected, byKey[FormKey("S2-1", 1)].Type)
	assert.Equal(t, ErrorOutOfRange, byKey[FormKey("S2-2", 0)].Type)
	assert.Equal(t, "0-10", byKey[FormKey("S2-2", 0)].Message)

	assert.Len(t, SectionErrors(sections[0], errs), 1)
	assert.Len(t, SectionErrors(sections[1], errs), 2)
	m := SectionErrorMap(sections[1], errs)
	assert.Equal(t, "0-10", m[FormKey("S2-2", 0)])

	store.Acknowledge(FormKey("S2-2", 0))
	assert.Len(t, ComputeErrors(sections, fields, store), 3, "acknowledgement never clears errors")
}

func TestProgressAndCanSubmit(t *testing.T) {
	sections := []Section{{
		ID:    "S1",
		Items: []Item{{ID: "temp", Label: "Temp", Type: TypeNumber, Required: true, Validation: &ValidationRule{Type: RuleRange, Min: f64(1), Max: f64(12)}}},
	}}
	fields := Expand(sections, nil)
	store := NewStore()

	p := ComputeProgress(sections, fields, store)
	assert.Equal(t, 0, p.Completed)
	assert.Equal(t, 1, p.Total)
	assert.False(t, CanSubmit(true, p, ComputeErrors(sections, fields, store)))

	store.Set("temp", Number(15), time.Now())
	p = ComputeProgress(sections, fields, store)
	errs := ComputeErrors(sections, fields, store)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorOutOfRange, errs[0].Type)
	assert.False(t, CanSubmit(true, p, errs))

	store.Acknowledge("temp")
	assert.False(t, CanSubmit(true, p, ComputeErrors(sections, fields, store)))

	store.Set("temp", Number(8), time.Now())
	p = ComputeProgress(sections, fields, store)
	errs = ComputeErrors(sections, fields, store)
	assert.Empty(t, errs)
	assert.Equal(t, 100, p.Percentage)
	assert.True(t, p.Sections[0].IsComplete)
	assert.True(t, CanSubmit(true, p, errs))
	assert.False(t, CanSubmit(false, p, errs))
}
