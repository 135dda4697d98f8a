package uow

import (
	"checksheet-backend/internal/domain/record"
	"context"
)

// domain/uow/uow.go
type Repos struct {
	Records    record.Repository
	Items      record.ItemRepository
	ChangeLogs record.ChangeLogRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock record first, then pass it in
	WithinRecordTx(ctx context.Context, recordID string, fn func(r Repos, rec *record.CheckRecord) error) error
}
