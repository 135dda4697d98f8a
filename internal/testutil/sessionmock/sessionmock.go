package sessionmock

import (
	"checksheet-backend/internal/domain/session"
	"context"
	"encoding/json"
	"sync"
)

var _ session.Store = (*Store)(nil)

// Store keeps sessions in memory. Values round-trip through JSON so tests see
// the same encoding the redis store uses.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte

	PutFn func(ctx context.Context, s *session.Session) error
}

func New() *Store { return &Store{data: map[string][]byte{}} }

func (m *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Store) Put(ctx context.Context, s *session.Session) error {
	if m.PutFn != nil {
		if err := m.PutFn(ctx, s); err != nil {
			return err
		}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[s.ID] = raw
	return nil
}

func (m *Store) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}
