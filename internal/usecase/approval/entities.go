package approval

import (
	"time"

	"checksheet-backend/internal/domain/record"
	"checksheet-backend/internal/domain/template"
)

type RejectInput struct {
	RecordID string
	Reason   string
}

// ListInput filters the approval queue. An empty Status lists submitted
// records.
type ListInput struct {
	Status    record.Status
	ProductID string
	Limit     int
}

type DecisionDTO struct {
	RecordID  string        `json:"record_id"`
	Status    record.Status `json:"status"`
	DecidedBy string        `json:"decided_by"`
	DecidedAt time.Time     `json:"decided_at"`
	Reason    string        `json:"reason,omitempty"`
}

// Detail is a record with everything an approver looks at.
type Detail struct {
	Record     *record.CheckRecord     `json:"record"`
	Template   *template.Template      `json:"template"`
	Items      []record.RecordItem     `json:"items"`
	ChangeLogs []record.ChangeLogEntry `json:"change_logs"`
}
