package record

import (
	"checksheet-backend/internal/domain/form"
)

// CheckSubmittable returns the reason a form in status s cannot be submitted,
// or nil. Acknowledged warnings do not lift the gate.
func CheckSubmittable(s Status, p form.Progress, errs []form.CheckError) error {
	if !Editable(s) {
		return ErrNotEditable
	}
	if !p.Complete() {
		return ErrIncomplete
	}
	if len(errs) > 0 {
		return ErrValidationFailed
	}
	return nil
}
