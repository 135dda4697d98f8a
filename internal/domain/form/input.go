package form

import (
	"errors"
	"time"
)

var (
	ErrUnknownFormKey       = errors.New("unknown form key")
	ErrFutureProductionDate = errors.New("production date is in the future")
	ErrNotPhotoField        = errors.New("field is not a photo field")
	ErrLocalPhotoRef        = errors.New("local photo references are set by uploading a photo")
)

type WarningKind string

const (
	// WarningCritical: a critical number item was entered out of range.
	WarningCritical WarningKind = "critical"
	// WarningExpiry: the expiry date precedes the production date. Rendered
	// with a higher severity than WarningCritical.
	WarningExpiry WarningKind = "expiry"
	// WarningProductionDate: the production date is not today. The value is
	// only stored once the user confirms it.
	WarningProductionDate WarningKind = "production_date"
)

// Warning asks the user to either acknowledge a value or go back and fix it.
type Warning struct {
	Kind           WarningKind `json:"kind"`
	FormKey        string      `json:"form_key"`
	ItemID         string      `json:"item_id"`
	ItemName       string      `json:"item_name"`
	Value          Value       `json:"value"`
	Message        string      `json:"message,omitempty"`
	ProductionDate string      `json:"production_date,omitempty"`
}

// IsCritical: number items carrying any rule get an interactive warning when
// entered out of range.
func IsCritical(item Item) bool {
	return item.Type == TypeNumber && item.Validation != nil
}

// CriticalItemIDs lists the critical items of a template.
func CriticalItemIDs(sections []Section) map[string]bool {
	out := map[string]bool{}
	for _, s := range sections {
		for _, it := range s.Items {
			if IsCritical(it) {
				out[it.ID] = true
			}
		}
	}
	return out
}

// Input is one user edit of one field.
type Input struct {
	Sections []Section
	Fields   []Field
	Store    *Store
	FormKey  string
	Value    Value
	// Confirmed is set when the user already accepted a production date
	// warning for this exact value.
	Confirmed bool
	Now       time.Time
}

// Outcome of applying an Input. When Applied is false the store was left
// untouched and Warning explains why.
type Outcome struct {
	Applied bool     `json:"applied"`
	Warning *Warning `json:"warning,omitempty"`
}

// ApplyInput writes one edit into the store and returns the interactive
// warning the edit triggers, if any. Acknowledged form keys do not warn
// again; entering a valid value clears the acknowledgement.
func ApplyInput(in Input) (Outcome, error) {
	f, ok := Lookup(in.Fields, in.FormKey)
	if !ok {
		return Outcome{}, ErrUnknownFormKey
	}
	if PendingPhoto(f.Item, in.Value) {
		return Outcome{}, ErrLocalPhotoRef
	}

	if prodKey, ok := RoleKey(in.Sections, RoleProductionDate); ok && prodKey == in.FormKey && !in.Value.IsEmpty() {
		if d, ok := ParseDate(in.Value.String()); ok {
			today := Day(in.Now)
			if d.After(today) {
				return Outcome{}, ErrFutureProductionDate
			}
			if !d.Equal(today) && !in.Confirmed {
				return Outcome{Warning: &Warning{
					Kind:           WarningProductionDate,
					FormKey:        in.FormKey,
					ItemID:         f.Item.ID,
					ItemName:       f.Item.Label,
					Value:          in.Value,
					Message:        "production date is not today",
					ProductionDate: d.Format("2006-01-02"),
				}}, nil
			}
		}
	}

	in.Store.Set(in.FormKey, in.Value, in.Now)

	if in.Value.IsEmpty() || f.Item.Validation == nil {
		return Outcome{Applied: true}, nil
	}

	var kind WarningKind
	switch {
	case f.Item.Validation.Type == RuleExpiryDate:
		kind = WarningExpiry
	case IsCritical(f.Item):
		kind = WarningCritical
	default:
		return Outcome{Applied: true}, nil
	}

	prod := ProductionDate(in.Sections, in.Store)
	res := IsOutOfRange(f.Item, in.Value, prod)
	if !res.Invalid {
		in.Store.Unacknowledge(in.FormKey)
		return Outcome{Applied: true}, nil
	}
	if in.Store.IsAcknowledged(in.FormKey) {
		return Outcome{Applied: true}, nil
	}

	w := &Warning{
		Kind:     kind,
		FormKey:  in.FormKey,
		ItemID:   f.Item.ID,
		ItemName: f.Item.Label,
		Value:    in.Value,
		Message:  res.Message,
	}
	if kind == WarningExpiry && prod != nil {
		w.ProductionDate = prod.Format("2006-01-02")
	}
	return Outcome{Applied: true, Warning: w}, nil
}
