package mysql

import (
	"checksheet-backend/internal/domain/record"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecordRepository struct{ db *gorm.DB }

func NewRecordRepository(db *gorm.DB) *RecordRepository { return &RecordRepository{db: db} }

func (r *RecordRepository) Create(ctx context.Context, rec *record.CheckRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *RecordRepository) Save(ctx context.Context, rec *record.CheckRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (*record.CheckRecord, error) {
	var out record.CheckRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if err != nil {
		return nil, recordErr(err)
	}
	return &out, nil
}

// GetByIDForUpdate issues SELECT ... FOR UPDATE. Only meaningful inside a tx.
func (r *RecordRepository) GetByIDForUpdate(ctx context.Context, id string) (*record.CheckRecord, error) {
	var out record.CheckRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error
	if err != nil {
		return nil, recordErr(err)
	}
	return &out, nil
}

func (r *RecordRepository) List(ctx context.Context, f record.ListFilter) ([]record.CheckRecord, error) {
	q := r.db.WithContext(ctx).Model(&record.CheckRecord{})
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.ProductID != "" {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []record.CheckRecord
	if err := q.Order("production_date DESC, updated_at DESC, id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func recordErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return record.ErrNotFound
	}
	return err
}

type ItemRepository struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) *ItemRepository { return &ItemRepository{db: db} }

func (r *ItemRepository) ListByRecordID(ctx context.Context, recordID string) ([]record.RecordItem, error) {
	var out []record.RecordItem
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("section_id, item_id, row_index").
		Find(&out).Error
	return out, err
}

// Upsert inserts new items and overwrites existing ones by primary key.
func (r *ItemRepository) Upsert(ctx context.Context, items []record.RecordItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
		}).
		Create(&items).Error
}

type ChangeLogRepository struct{ db *gorm.DB }

func NewChangeLogRepository(db *gorm.DB) *ChangeLogRepository { return &ChangeLogRepository{db: db} }

func (r *ChangeLogRepository) Insert(ctx context.Context, entries []record.ChangeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *ChangeLogRepository) ListByRecordID(ctx context.Context, recordID string) ([]record.ChangeLogEntry, error) {
	var out []record.ChangeLogEntry
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("changed_at, id").
		Find(&out).Error
	return out, err
}
