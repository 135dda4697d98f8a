package oplog

import (
	"checksheet-backend/internal/domain/oplog"
	"checksheet-backend/pkg/id"
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DBLogger writes operation log entries through a repository. A failed write
// is logged and dropped.
type DBLogger struct {
	repo    oplog.Repository
	log     zerolog.Logger
	newID   func() string
	timeout time.Duration
}

var _ oplog.Logger = (*DBLogger)(nil)

func NewDBLogger(repo oplog.Repository, log zerolog.Logger) *DBLogger {
	return &DBLogger{repo: repo, log: log, newID: id.NewUUID, timeout: 3 * time.Second}
}

func (l *DBLogger) Log(ctx context.Context, e oplog.Entry) {
	if e.ID == "" {
		e.ID = l.newID()
	}
	// the request may already be finishing; the entry must still be written
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()
	if err := l.repo.Insert(wctx, &e); err != nil {
		l.log.Warn().Err(err).
			Str("action", e.Action).
			Str("user_id", e.UserID).
			Msg("operation log write failed (non-fatal)")
	}
}
