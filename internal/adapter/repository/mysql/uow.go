package mysql

import (
	"checksheet-backend/internal/domain/record"
	"checksheet-backend/internal/domain/uow"
	"context"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Records:    &RecordRepository{db: tx},
		Items:      &ItemRepository{db: tx},
		ChangeLogs: &ChangeLogRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinRecordTx(ctx context.Context, recordID string, fn func(r uow.Repos, rec *record.CheckRecord) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the record row up-front to prevent races
		rec, err := r.Records.GetByIDForUpdate(ctx, recordID)
		if err != nil {
			return err
		}
		return fn(r, rec)
	})
}
