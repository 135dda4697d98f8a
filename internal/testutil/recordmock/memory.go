package recordmock

import (
	"context"
	"sort"
	"sync"

	domain "checksheet-backend/internal/domain/record"
)

// Memory backs the function mocks with maps so use case tests can follow a
// record across several saves.
type Memory struct {
	mu      sync.Mutex
	Records map[string]domain.CheckRecord
	Items   map[string]domain.RecordItem
	Logs    []domain.ChangeLogEntry
}

func NewMemory() *Memory {
	return &Memory{
		Records: map[string]domain.CheckRecord{},
		Items:   map[string]domain.RecordItem{},
	}
}

func (m *Memory) get(id string) (*domain.CheckRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *Memory) put(r *domain.CheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[r.ID] = *r
	return nil
}

// Repo returns a record repository over the memory.
func (m *Memory) Repo() *Repo {
	return &Repo{
		CreateFn:           func(_ context.Context, r *domain.CheckRecord) error { return m.put(r) },
		SaveFn:             func(_ context.Context, r *domain.CheckRecord) error { return m.put(r) },
		GetByIDFn:          func(_ context.Context, id string) (*domain.CheckRecord, error) { return m.get(id) },
		GetByIDForUpdateFn: func(_ context.Context, id string) (*domain.CheckRecord, error) { return m.get(id) },
		ListFn: func(_ context.Context, f domain.ListFilter) ([]domain.CheckRecord, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			var out []domain.CheckRecord
			for _, r := range m.Records {
				if len(f.Statuses) > 0 && !hasStatus(f.Statuses, r.Status) {
					continue
				}
				if f.ProductID != "" && r.ProductID != f.ProductID {
					continue
				}
				if f.CreatedBy != "" && r.CreatedBy != f.CreatedBy {
					continue
				}
				out = append(out, r)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			if f.Limit > 0 && len(out) > f.Limit {
				out = out[:f.Limit]
			}
			return out, nil
		},
	}
}

func hasStatus(list []domain.Status, s domain.Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// ItemRepo returns an item repository over the memory. Upsert replaces by id.
func (m *Memory) ItemRepo() *ItemRepo {
	return &ItemRepo{
		ListByRecordIDFn: func(_ context.Context, recordID string) ([]domain.RecordItem, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			var out []domain.RecordItem
			for _, it := range m.Items {
				if it.RecordID == recordID {
					out = append(out, it)
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			return out, nil
		},
		UpsertFn: func(_ context.Context, items []domain.RecordItem) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, it := range items {
				m.Items[it.ID] = it
			}
			return nil
		},
	}
}

// ChangeLogRepo returns an append-only change log repository over the memory.
func (m *Memory) ChangeLogRepo() *ChangeLogRepo {
	return &ChangeLogRepo{
		InsertFn: func(_ context.Context, entries []domain.ChangeLogEntry) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.Logs = append(m.Logs, entries...)
			return nil
		},
		ListByRecordIDFn: func(_ context.Context, recordID string) ([]domain.ChangeLogEntry, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			var out []domain.ChangeLogEntry
			for _, e := range m.Logs {
				if e.RecordID == recordID {
					out = append(out, e)
				}
			}
			return out, nil
		},
	}
}

// Record returns a copy of the stored record, or false.
func (m *Memory) Record(id string) (domain.CheckRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Records[id]
	return r, ok
}

func (m *Memory) Count() (records, items, logs int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records), len(m.Items), len(m.Logs)
}
