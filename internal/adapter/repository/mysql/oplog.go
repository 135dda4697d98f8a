package mysql

import (
	"checksheet-backend/internal/domain/oplog"
	"context"

	"gorm.io/gorm"
)

type OpLogRepository struct{ db *gorm.DB }

func NewOpLogRepository(db *gorm.DB) *OpLogRepository { return &OpLogRepository{db: db} }

func (r *OpLogRepository) Insert(ctx context.Context, e *oplog.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}
