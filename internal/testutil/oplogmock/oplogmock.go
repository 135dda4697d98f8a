package oplogmock

import (
	"checksheet-backend/internal/domain/oplog"
	"context"
	"sync"
)

var (
	_ oplog.Logger     = (*Logger)(nil)
	_ oplog.Repository = (*Repo)(nil)
)

// Logger records every entry it is given.
type Logger struct {
	mu      sync.Mutex
	Entries []oplog.Entry
}

func (l *Logger) Log(ctx context.Context, e oplog.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, e)
}

func (l *Logger) Actions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		out = append(out, e.Action)
	}
	return out
}

type Repo struct {
	InsertFn func(ctx context.Context, e *oplog.Entry) error
}

func (m *Repo) Insert(ctx context.Context, e *oplog.Entry) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, e)
	}
	return nil
}
