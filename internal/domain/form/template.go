package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type ItemType string

const (
	TypeOKNG       ItemType = "ok_ng"
	TypeNumber     ItemType = "number"
	TypeText       ItemType = "text"
	TypeDate       ItemType = "date"
	TypeTime       ItemType = "time"
	TypeSelect     ItemType = "select"
	TypeUserSelect ItemType = "user_select"
	TypeLineSelect ItemType = "line_select"
	TypePhoto      ItemType = "photo"
)

func (t ItemType) Valid() bool {
	switch t {
	case TypeOKNG, TypeNumber, TypeText, TypeDate, TypeTime,
		TypeSelect, TypeUserSelect, TypeLineSelect, TypePhoto:
		return true
	}
	return false
}

type RuleType string

const (
	RuleRange      RuleType = "range"
	RuleMin        RuleType = "min"
	RuleMax        RuleType = "max"
	RuleExpiryDate RuleType = "expiry_date"
	RuleEquals     RuleType = "equals"
	RulePattern    RuleType = "pattern"
)

// Role tags an item with a semantic meaning the engine relies on.
type Role string

const (
	RoleProductionDate Role = "production_date"
	RoleLine           Role = "line"
	RoleBatchNumber    Role = "batch_number"
)

// Templates authored before roles existed identify these items by label or id.
const (
	LegacyProductionDateLabel = "製造日"
	LegacyLineItemID          = "line"
	LegacyBatchNumberItemID   = "batch_number"
)

// RuleValue is the `value` member of a rule. Legacy templates use it both as a
// numeric threshold (min/max) and as a literal to compare against (equals).
type RuleValue struct {
	Text string
	Num  *float64
}

func NumberRuleValue(f float64) *RuleValue {
	return &RuleValue{Text: strconv.FormatFloat(f, 'f', -1, 64), Num: &f}
}

func TextRuleValue(s string) *RuleValue {
	v := &RuleValue{Text: s}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v.Num = &f
	}
	return v
}

func (v RuleValue) MarshalJSON() ([]byte, error) {
	if v.Num != nil && v.Text == strconv.FormatFloat(*v.Num, 'f', -1, 64) {
		return json.Marshal(*v.Num)
	}
	return json.Marshal(v.Text)
}

func (v *RuleValue) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*v = *NumberRuleValue(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("rule value must be a number or string: %w", err)
	}
	*v = *TextRuleValue(s)
	return nil
}

type ValidationRule struct {
	Type    RuleType   `json:"type"`
	Min     *float64   `json:"min,omitempty"`
	Max     *float64   `json:"max,omitempty"`
	Value   *RuleValue `json:"value,omitempty"`
	Regex   string     `json:"regex,omitempty"`
	Message string     `json:"message,omitempty"`
}

// MinThreshold resolves `min ?? value` for single-sided rules.
func (r ValidationRule) MinThreshold() (float64, bool) {
	if r.Min != nil {
		return *r.Min, true
	}
	if r.Value != nil && r.Value.Num != nil {
		return *r.Value.Num, true
	}
	return 0, false
}

// MaxThreshold resolves `max ?? value` for single-sided rules.
func (r ValidationRule) MaxThreshold() (float64, bool) {
	if r.Max != nil {
		return *r.Max, true
	}
	if r.Value != nil && r.Value.Num != nil {
		return *r.Value.Num, true
	}
	return 0, false
}

type Item struct {
	ID               string          `json:"id"`
	Label            string          `json:"label"`
	Type             ItemType        `json:"type"`
	Required         bool            `json:"required"`
	Unit             string          `json:"unit,omitempty"`
	Hint             string          `json:"hint,omitempty"`
	Options          []string        `json:"options,omitempty"`
	Validation       *ValidationRule `json:"validation,omitempty"`
	AllowSelf        bool            `json:"allow_self,omitempty"`
	AllowNowButton   bool            `json:"allow_now_button,omitempty"`
	AllowTodayButton bool            `json:"allow_today_button,omitempty"`
	Role             Role            `json:"role,omitempty"`
}

type Section struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Repeatable  bool     `json:"repeatable,omitempty"`
	MinRows     int      `json:"min_rows,omitempty"`
	MaxRows     int      `json:"max_rows,omitempty"`
	FixedLabels []string `json:"fixed_labels,omitempty"`
	Items       []Item   `json:"items"`
}

// HasItem reports whether itemID belongs to the section.
func (s Section) HasItem(itemID string) bool {
	for _, it := range s.Items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

type Template struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Version   int       `json:"version"`
	Sections  []Section `json:"sections"`
}

var ErrInvalidTemplate = errors.New("invalid template")

// Validate checks the template is well formed. Item ids must be unique across
// the whole template because a form key is derived from the item id alone.
func (t Template) Validate() error {
	seenSections := make(map[string]struct{}, len(t.Sections))
	seenItems := make(map[string]string)
	for _, s := range t.Sections {
		if s.ID == "" {
			return fmt.Errorf("%w: section without id", ErrInvalidTemplate)
		}
		if _, dup := seenSections[s.ID]; dup {
			return fmt.Errorf("%w: duplicate section id %q", ErrInvalidTemplate, s.ID)
		}
		seenSections[s.ID] = struct{}{}
		if s.Repeatable && s.MaxRows > 0 && s.MaxRows < s.MinRows {
			return fmt.Errorf("%w: section %q max_rows %d < min_rows %d", ErrInvalidTemplate, s.ID, s.MaxRows, s.MinRows)
		}
		for _, it := range s.Items {
			if it.ID == "" {
				return fmt.Errorf("%w: item without id in section %q", ErrInvalidTemplate, s.ID)
			}
			if strings.Contains(it.ID, KeySeparator) {
				return fmt.Errorf("%w: item id %q contains %q", ErrInvalidTemplate, it.ID, KeySeparator)
			}
			if prev, dup := seenItems[it.ID]; dup {
				return fmt.Errorf("%w: duplicate item id %q in sections %q and %q", ErrInvalidTemplate, it.ID, prev, s.ID)
			}
			seenItems[it.ID] = s.ID
			if !it.Type.Valid() {
				return fmt.Errorf("%w: item %q has unknown type %q", ErrInvalidTemplate, it.ID, it.Type)
			}
			if it.Validation != nil && it.Validation.Type == RulePattern {
				if _, err := regexp.Compile(it.Validation.Regex); err != nil {
					return fmt.Errorf("%w: item %q pattern: %v", ErrInvalidTemplate, it.ID, err)
				}
			}
		}
	}
	return nil
}

// SectionByID returns the section with the given id.
func SectionByID(sections []Section, id string) (Section, bool) {
	for _, s := range sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// ItemWithRole finds the item carrying role. Templates without role tags fall
// back to the legacy conventions: the production date is the date item labelled
// LegacyProductionDateLabel, line and batch number are addressed by item id.
func ItemWithRole(sections []Section, role Role) (Item, bool) {
	for _, s := range sections {
		for _, it := range s.Items {
			if it.Role == role {
				return it, true
			}
		}
	}
	for _, s := range sections {
		for _, it := range s.Items {
			switch role {
			case RoleProductionDate:
				if it.Type == TypeDate && it.Label == LegacyProductionDateLabel {
					return it, true
				}
			case RoleLine:
				if it.ID == LegacyLineItemID {
					return it, true
				}
			case RoleBatchNumber:
				if it.ID == LegacyBatchNumberItemID {
					return it, true
				}
			}
		}
	}
	return Item{}, false
}
