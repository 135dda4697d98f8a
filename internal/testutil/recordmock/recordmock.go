package recordmock

import (
	domain "checksheet-backend/internal/domain/record"
	"context"
)

var (
	_ domain.Repository          = (*Repo)(nil)
	_ domain.ItemRepository      = (*ItemRepo)(nil)
	_ domain.ChangeLogRepository = (*ChangeLogRepo)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Only methods you need are included; add more as tests require.
type Repo struct {
	CreateFn           func(ctx context.Context, r *domain.CheckRecord) error
	GetByIDFn          func(ctx context.Context, id string) (*domain.CheckRecord, error)
	GetByIDForUpdateFn func(ctx context.Context, id string) (*domain.CheckRecord, error)
	SaveFn             func(ctx context.Context, r *domain.CheckRecord) error
	ListFn             func(ctx context.Context, f domain.ListFilter) ([]domain.CheckRecord, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.CheckRecord) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.CheckRecord, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id string) (*domain.CheckRecord, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, r *domain.CheckRecord) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.CheckRecord, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}

type ItemRepo struct {
	ListByRecordIDFn func(ctx context.Context, recordID string) ([]domain.RecordItem, error)
	UpsertFn         func(ctx context.Context, items []domain.RecordItem) error
}

func (m *ItemRepo) ListByRecordID(ctx context.Context, recordID string) ([]domain.RecordItem, error) {
	if m.ListByRecordIDFn != nil {
		return m.ListByRecordIDFn(ctx, recordID)
	}
	return nil, nil
}

func (m *ItemRepo) Upsert(ctx context.Context, items []domain.RecordItem) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, items)
	}
	return nil
}

type ChangeLogRepo struct {
	InsertFn         func(ctx context.Context, entries []domain.ChangeLogEntry) error
	ListByRecordIDFn func(ctx context.Context, recordID string) ([]domain.ChangeLogEntry, error)
}

func (m *ChangeLogRepo) Insert(ctx context.Context, entries []domain.ChangeLogEntry) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, entries)
	}
	return nil
}

func (m *ChangeLogRepo) ListByRecordID(ctx context.Context, recordID string) ([]domain.ChangeLogEntry, error) {
	if m.ListByRecordIDFn != nil {
		return m.ListByRecordIDFn(ctx, recordID)
	}
	return nil, nil
}
