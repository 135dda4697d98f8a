package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type ValueKind uint8

const (
	// KindUnset marks a field the user never touched. It is never persisted.
	KindUnset ValueKind = iota
	// KindNull marks a field explicitly cleared. It is persisted as NULL.
	KindNull
	KindText
	KindNumber
)

// Value is the tagged value of one field instance. Everything serializes to
// string|null at the persistence boundary, see Wire.
type Value struct {
	Kind ValueKind
	Text string
	Num  float64
}

func Null() Value              { return Value{Kind: KindNull} }
func Text(s string) Value      { return Value{Kind: KindText, Text: s} }
func Number(f float64) Value   { return Value{Kind: KindNumber, Num: f} }
func (v Value) IsSet() bool    { return v.Kind != KindUnset }
func (v Value) IsNull() bool   { return v.Kind == KindNull }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }

// IsEmpty is true for unset, null and the empty string.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindUnset, KindNull:
		return true
	case KindText:
		return v.Text == ""
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return ""
}

// Float parses the value as a number. Text is trimmed first; an empty or
// non-numeric string reports false.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindText:
		s := strings.TrimSpace(v.Text)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Wire returns the persisted form of the value: nil for null, the string form
// otherwise. ok is false for unset values, which must not be written at all.
func (v Value) Wire() (s *string, ok bool) {
	switch v.Kind {
	case KindUnset:
		return nil, false
	case KindNull:
		return nil, true
	}
	out := v.String()
	return &out, true
}

// FromWire is the inverse of Wire for values read back from storage.
func FromWire(s *string) Value {
	if s == nil {
		return Null()
	}
	return Text(*s)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindNumber:
		return json.Marshal(v.Num)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = Null()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Text(s)
		return nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		*v = Text(strconv.FormatBool(flag))
		return nil
	}
	return fmt.Errorf("form value must be string, number or null: %s", string(b))
}

// Store is the in-memory state of one form: current values, the first-input
// timestamp of every field and the set of acknowledged warnings.
type Store struct {
	values       map[string]Value
	inputAt      map[string]time.Time
	acknowledged map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		values:       map[string]Value{},
		inputAt:      map[string]time.Time{},
		acknowledged: map[string]struct{}{},
	}
}

// Get returns the value at key; missing keys are unset.
func (s *Store) Get(key string) Value { return s.values[key] }

// Set stores v. The input timestamp is recorded only the first time a
// non-empty value is entered for key and never overwritten afterwards.
func (s *Store) Set(key string, v Value, at time.Time) {
	if !v.IsSet() {
		delete(s.values, key)
		return
	}
	s.values[key] = v
	if v.IsEmpty() {
		return
	}
	if _, ok := s.inputAt[key]; !ok {
		s.inputAt[key] = at
	}
}

// Delete purges every trace of key.
func (s *Store) Delete(key string) {
	delete(s.values, key)
	delete(s.inputAt, key)
	delete(s.acknowledged, key)
}

func (s *Store) InputAt(key string) (time.Time, bool) {
	t, ok := s.inputAt[key]
	return t, ok
}

// RestoreInputAt sets the timestamp of a value loaded from storage.
func (s *Store) RestoreInputAt(key string, at time.Time) { s.inputAt[key] = at }

func (s *Store) Acknowledge(key string)   { s.acknowledged[key] = struct{}{} }
func (s *Store) Unacknowledge(key string) { delete(s.acknowledged, key) }

func (s *Store) IsAcknowledged(key string) bool {
	_, ok := s.acknowledged[key]
	return ok
}

// Keys returns the keys holding a value, sorted.
func (s *Store) Keys() []string {
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s *Store) Clone() *Store {
	return RestoreStore(s.Snapshot())
}

// Snapshot is the serialisable form of a Store.
type Snapshot struct {
	Values          map[string]Value     `json:"values"`
	InputTimestamps map[string]time.Time `json:"input_timestamps"`
	Acknowledged    []string             `json:"acknowledged"`
}

func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Values:          make(map[string]Value, len(s.values)),
		InputTimestamps: make(map[string]time.Time, len(s.inputAt)),
		Acknowledged:    make([]string, 0, len(s.acknowledged)),
	}
	for k, v := range s.values {
		snap.Values[k] = v
	}
	for k, t := range s.inputAt {
		snap.InputTimestamps[k] = t
	}
	for k := range s.acknowledged {
		snap.Acknowledged = append(snap.Acknowledged, k)
	}
	sort.Strings(snap.Acknowledged)
	return snap
}

func RestoreStore(snap Snapshot) *Store {
	s := NewStore()
	for k, v := range snap.Values {
		s.values[k] = v
	}
	for k, t := range snap.InputTimestamps {
		s.inputAt[k] = t
	}
	for _, k := range snap.Acknowledged {
		s.acknowledged[k] = struct{}{}
	}
	return s
}
