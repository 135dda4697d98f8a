package record

import (
	"time"
)

type Status string

const (
	// StatusNone is the status of a record that was never saved.
	StatusNone      Status = ""
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Table: check_records
type CheckRecord struct {
	ID              string     `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	TemplateID      string     `gorm:"column:template_id;type:char(36);not null;index" json:"template_id"`
	ProductID       string     `gorm:"column:product_id;size:64;not null;index:idx_records_product_date" json:"product_id"`
	LineID          *string    `gorm:"column:line_id;size:64" json:"line_id"`
	ProductionDate  string     `gorm:"column:production_date;size:10;not null;index:idx_records_product_date" json:"production_date"`
	BatchNumber     int        `gorm:"column:batch_number;not null;default:0" json:"batch_number"`
	Status          Status     `gorm:"column:status;size:16;not null;default:'draft';index" json:"status"`
	CurrentEditorID *string    `gorm:"column:current_editor_id;size:64" json:"current_editor_id"`
	CreatedBy       string     `gorm:"column:created_by;size:64;not null" json:"created_by"`
	SubmittedBy     *string    `gorm:"column:submitted_by;size:64" json:"submitted_by"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at" json:"submitted_at"`
	ApprovedBy      *string    `gorm:"column:approved_by;size:64" json:"approved_by"`
	ApprovedAt      *time.Time `gorm:"column:approved_at" json:"approved_at"`
	RejectedBy      *string    `gorm:"column:rejected_by;size:64" json:"rejected_by"`
	RejectedAt      *time.Time `gorm:"column:rejected_at" json:"rejected_at"`
	RejectReason    *string    `gorm:"column:reject_reason;type:text" json:"reject_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CheckRecord) TableName() string { return "check_records" }

// Table: record_items
// One row per (record_id, item_id, row_index); re-saves update it in place.
type RecordItem struct {
	ID        string     `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	RecordID  string     `gorm:"column:record_id;type:char(36);not null;uniqueIndex:ux_record_items_slot" json:"record_id"`
	SectionID string     `gorm:"column:section_id;size:64;not null" json:"section_id"`
	ItemID    string     `gorm:"column:item_id;size:64;not null;uniqueIndex:ux_record_items_slot" json:"item_id"`
	RowIndex  int        `gorm:"column:row_index;not null;default:0;uniqueIndex:ux_record_items_slot" json:"row_index"`
	Value     *string    `gorm:"column:value;type:text" json:"value"`
	InputBy   *string    `gorm:"column:input_by;size:64" json:"input_by"`
	InputAt   time.Time  `gorm:"column:input_at;not null" json:"input_at"`
	UpdatedBy *string    `gorm:"column:updated_by;size:64" json:"updated_by"`
	UpdatedAt *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (RecordItem) TableName() string { return "record_items" }

type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
)

// Table: item_change_logs (append-only)
type ChangeLogEntry struct {
	ID           string     `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	RecordID     string     `gorm:"column:record_id;type:char(36);not null;index" json:"record_id"`
	RecordItemID *string    `gorm:"column:record_item_id;type:char(36)" json:"record_item_id"`
	SectionID    string     `gorm:"column:section_id;size:64;not null" json:"section_id"`
	ItemID       string     `gorm:"column:item_id;size:64;not null" json:"item_id"`
	RowIndex     int        `gorm:"column:row_index;not null;default:0" json:"row_index"`
	OldValue     *string    `gorm:"column:old_value;type:text" json:"old_value"`
	NewValue     *string    `gorm:"column:new_value;type:text" json:"new_value"`
	ChangedBy    string     `gorm:"column:changed_by;size:64;not null" json:"changed_by"`
	ChangedAt    time.Time  `gorm:"column:changed_at;not null" json:"changed_at"`
	ChangeReason *string    `gorm:"column:change_reason;type:text" json:"change_reason"`
	ChangeType   ChangeType `gorm:"column:change_type;size:8;not null" json:"change_type"`
}

func (ChangeLogEntry) TableName() string { return "item_change_logs" }
