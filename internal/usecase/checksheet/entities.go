package checksheet

import (
	"time"

	"checksheet-backend/internal/domain/form"
	"checksheet-backend/internal/domain/record"
)

// OpenInput starts an editing session: a new sheet for ProductID, or an
// existing record when RecordID is set.
type OpenInput struct {
	ProductID string
	RecordID  string
}

type SetValueInput struct {
	FormKey string
	Value   form.Value
	// Confirm accepts a production date that is not today.
	Confirm bool
}

type FieldView struct {
	FormKey      string      `json:"form_key"`
	SectionID    string      `json:"section_id"`
	ItemID       string      `json:"item_id"`
	RowIndex     int         `json:"row_index"`
	Value        *form.Value `json:"value,omitempty"`
	Error        string      `json:"error,omitempty"`
	Acknowledged bool        `json:"acknowledged,omitempty"`
	Pending      bool        `json:"pending_upload,omitempty"`
	InputAt      *time.Time  `json:"input_at,omitempty"`
}

type SectionView struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Repeatable   bool                 `json:"repeatable"`
	RowCount     int                  `json:"row_count"`
	RowLabels    []string             `json:"row_labels,omitempty"`
	CanAddRow    bool                 `json:"can_add_row"`
	CanRemoveRow bool                 `json:"can_remove_row"`
	Items        []form.Item          `json:"items"`
	Progress     form.SectionProgress `json:"progress"`
	ErrorCount   int                  `json:"error_count"`
	Errors       map[string]string    `json:"errors,omitempty"`
}

// View is everything a client needs to render the sheet.
type View struct {
	SessionID     string            `json:"session_id"`
	RecordID      string            `json:"record_id,omitempty"`
	TemplateID    string            `json:"template_id"`
	ProductID     string            `json:"product_id"`
	Status        record.Status     `json:"status"`
	Editable      bool              `json:"editable"`
	Sections      []SectionView     `json:"sections"`
	Fields        []FieldView       `json:"fields"`
	Errors        []form.CheckError `json:"errors"`
	Progress      form.Progress     `json:"progress"`
	CanSubmit     bool              `json:"can_submit"`
	CriticalItems []string          `json:"critical_items"`
	PendingPhotos []string          `json:"pending_photos,omitempty"`
}

// FieldResult is the outcome of one edit.
type FieldResult struct {
	form.Outcome
	View *View `json:"view"`
}

// SaveResult is returned by Save and Submit.
type SaveResult struct {
	RecordID   string        `json:"record_id"`
	Status     record.Status `json:"status"`
	Created    bool          `json:"created"`
	Upserted   int           `json:"upserted"`
	ChangeLogs int           `json:"change_logs"`
	Uploaded   int           `json:"uploaded_photos"`
	View       *View         `json:"view"`
}
