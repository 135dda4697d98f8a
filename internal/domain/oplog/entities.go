package oplog

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

const (
	ActionSaveRecord    = "save_record"
	ActionSubmitRecord  = "submit_record"
	ActionApproveRecord = "approve_record"
	ActionRejectRecord  = "reject_record"

	TargetCheckRecord = "check_record"
)

// Table: operation_logs
type Entry struct {
	ID         string            `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	UserID     string            `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	Action     string            `gorm:"column:action;size:64;not null" json:"action"`
	TargetType string            `gorm:"column:target_type;size:64;not null;index:idx_operation_logs_target" json:"target_type"`
	TargetID   *string           `gorm:"column:target_id;size:64;index:idx_operation_logs_target" json:"target_id"`
	Details    datatypes.JSONMap `gorm:"column:details;type:json" json:"details"`
	IPAddress  *string           `gorm:"column:ip_address;size:64" json:"ip_address"`
	UserAgent  *string           `gorm:"column:user_agent;type:text" json:"user_agent"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "operation_logs" }

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
}

// Logger records operations on a best-effort basis: it never returns an error
// and never blocks the operation it describes.
type Logger interface {
	Log(ctx context.Context, e Entry)
}
