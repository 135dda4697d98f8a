package record

import "context"

type ListFilter struct {
	Statuses  []Status
	ProductID string
	CreatedBy string
	Limit     int
}

type Repository interface {
	// Create inserts a new record; it fails if the id is taken
	Create(ctx context.Context, r *CheckRecord) error
	GetByID(ctx context.Context, id string) (*CheckRecord, error)
	// GetByIDForUpdate locks the record row until the surrounding tx ends
	GetByIDForUpdate(ctx context.Context, id string) (*CheckRecord, error)
	Save(ctx context.Context, r *CheckRecord) error
	List(ctx context.Context, f ListFilter) ([]CheckRecord, error)
}

type ItemRepository interface {
	ListByRecordID(ctx context.Context, recordID string) ([]RecordItem, error)
	// Upsert writes items keyed by id, all or nothing
	Upsert(ctx context.Context, items []RecordItem) error
}

type ChangeLogRepository interface {
	Insert(ctx context.Context, entries []ChangeLogEntry) error
	ListByRecordID(ctx context.Context, recordID string) ([]ChangeLogEntry, error)
}
