package form

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result of checking one value against its item's rule.
type Result struct {
	Invalid bool
	Message string
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
}

// ParseDate reads a date-like string and truncates it to the calendar day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// Day zeroes the time of day, keeping the calendar date of t.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProductionDate resolves the production date currently entered in store.
func ProductionDate(sections []Section, store *Store) *time.Time {
	key, ok := RoleKey(sections, RoleProductionDate)
	if !ok || store == nil {
		return nil
	}
	t, ok := ParseDate(store.Get(key).String())
	if !ok {
		return nil
	}
	return &t
}

// IsOutOfRange checks value against item's rule. Empty values are always
// valid; required-ness is checked separately. Numeric rules fail open on
// non-numeric input, and expiry_date does not fire without a production date.
func IsOutOfRange(item Item, v Value, productionDate *time.Time) Result {
	rule := item.Validation
	if rule == nil || v.IsEmpty() {
		return Result{}
	}

	switch rule.Type {
	case RuleExpiryDate:
		if productionDate == nil {
			return Result{}
		}
		d, ok := ParseDate(v.String())
		if !ok {
			return Result{}
		}
		if d.Before(Day(*productionDate)) {
			return Result{Invalid: true, Message: "expiry date is before the production date"}
		}
		return Result{}

	case RuleEquals:
		if rule.Value == nil {
			return Result{}
		}
		if v.String() != rule.Value.Text {
			return Result{Invalid: true, Message: messageOr(rule, "value does not match the expected value")}
		}
		return Result{}

	case RulePattern:
		re, err := regexp.Compile(rule.Regex)
		if err != nil {
			return Result{}
		}
		if !re.MatchString(v.String()) {
			return Result{Invalid: true, Message: messageOr(rule, "value has an invalid format")}
		}
		return Result{}
	}

	n, ok := v.Float()
	if !ok {
		return Result{}
	}

	switch rule.Type {
	case RuleRange:
		out := (rule.Min != nil && n < *rule.Min) || (rule.Max != nil && n > *rule.Max)
		if out {
			return Result{Invalid: true, Message: messageOr(rule, rangeMessage(rule))}
		}
	case RuleMin:
		if t, ok := rule.MinThreshold(); ok && n < t {
			return Result{Invalid: true, Message: messageOr(rule, "must be at least "+formatFloat(t))}
		}
	case RuleMax:
		if t, ok := rule.MaxThreshold(); ok && n > t {
			return Result{Invalid: true, Message: messageOr(rule, "must be at most "+formatFloat(t))}
		}
	}
	return Result{}
}

func messageOr(rule *ValidationRule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}

func rangeMessage(rule *ValidationRule) string {
	switch {
	case rule.Min != nil && rule.Max != nil:
		return fmt.Sprintf("must be between %s and %s", formatFloat(*rule.Min), formatFloat(*rule.Max))
	case rule.Min != nil:
		return "must be at least " + formatFloat(*rule.Min)
	case rule.Max != nil:
		return "must be at most " + formatFloat(*rule.Max)
	}
	return "value out of range"
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

type ErrorType string

const (
	ErrorNGSelected ErrorType = "ng_selected"
	ErrorOutOfRange ErrorType = "out_of_range"
)

const SeverityError = "error"

// OKNGValueNG is the stored value of a failed OK/NG inspection.
const OKNGValueNG = "ng"

type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// CheckError is one hard validation failure. It blocks submission.
type CheckError struct {
	FormKey  string    `json:"form_key"`
	ItemID   string    `json:"item_id"`
	ItemName string    `json:"item_name"`
	Type     ErrorType `json:"type"`
	Message  string    `json:"message"`
	Severity string    `json:"severity"`
	Value    Value     `json:"value"`
	Range    *Range    `json:"range,omitempty"`
}

// ComputeErrors derives the error list of the whole form. Acknowledged
// warnings do not affect the result.
func ComputeErrors(sections []Section, fields []Field, store *Store) []CheckError {
	prod := ProductionDate(sections, store)
	var out []CheckError
	for _, f := range fields {
		v := store.Get(f.FormKey)

		if f.Item.Type == TypeOKNG && v.Kind == KindText && v.Text == OKNGValueNG {
			out = append(out, CheckError{
				FormKey:  f.FormKey,
				ItemID:   f.Item.ID,
				ItemName: f.Item.Label,
				Type:     ErrorNGSelected,
				Message:  f.Item.Label + " is NG",
				Severity: SeverityError,
				Value:    v,
			})
		}

		if f.Item.Validation == nil || v.IsEmpty() {
			continue
		}
		res := IsOutOfRange(f.Item, v, prod)
		if !res.Invalid {
			continue
		}
		msg := res.Message
		if msg == "" {
			msg = f.Item.Validation.Message
		}
		out = append(out, CheckError{
			FormKey:  f.FormKey,
			ItemID:   f.Item.ID,
			ItemName: f.Item.Label,
			Type:     ErrorOutOfRange,
			Message:  msg,
			Severity: SeverityError,
			Value:    v,
			Range:    &Range{Min: f.Item.Validation.Min, Max: f.Item.Validation.Max},
		})
	}
	return out
}

// SectionErrors keeps the errors whose item belongs to section.
func SectionErrors(section Section, errs []CheckError) []CheckError {
	var out []CheckError
	for _, e := range errs {
		if section.HasItem(e.ItemID) {
			out = append(out, e)
		}
	}
	return out
}

// SectionErrorMap indexes a section's error messages by form key.
func SectionErrorMap(section Section, errs []CheckError) map[string]string {
	out := map[string]string{}
	for _, e := range SectionErrors(section, errs) {
		out[e.FormKey] = e.Message
	}
	return out
}

type SectionProgress struct {
	SectionID  string `json:"section_id"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	IsComplete bool   `json:"is_complete"`
}

type Progress struct {
	Completed  int               `json:"completed"`
	Total      int               `json:"total"`
	Percentage int               `json:"percentage"`
	Sections   []SectionProgress `json:"sections"`
}

// Complete reports whether every required field has a value.
func (p Progress) Complete() bool { return p.Completed == p.Total }

// ComputeProgress counts required fields and how many of them hold a value.
func ComputeProgress(sections []Section, fields []Field, store *Store) Progress {
	per := make(map[string]*SectionProgress, len(sections))
	p := Progress{Sections: make([]SectionProgress, 0, len(sections))}
	for _, s := range sections {
		per[s.ID] = &SectionProgress{SectionID: s.ID}
	}
	for _, f := range fields {
		if !f.Item.Required {
			continue
		}
		sp := per[f.SectionID]
		p.Total++
		sp.Total++
		if !store.Get(f.FormKey).IsEmpty() {
			p.Completed++
			sp.Completed++
		}
	}
	for _, s := range sections {
		sp := per[s.ID]
		sp.IsComplete = sp.Total > 0 && sp.Completed == sp.Total
		p.Sections = append(p.Sections, *sp)
	}
	if p.Total > 0 {
		p.Percentage = int(float64(p.Completed)/float64(p.Total)*100 + 0.5)
	}
	return p
}

// CanSubmit gates submission: the record must be editable, every required
// field filled and the error list empty.
func CanSubmit(editable bool, p Progress, errs []CheckError) bool {
	return editable && p.Complete() && len(errs) == 0
}
