package uowmock

import (
	"context"
	"errors"

	"checksheet-backend/internal/domain/record"
	"checksheet-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn       func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinRecordTxFn func(ctx context.Context, recordID string, fn func(r uow.Repos, rec *record.CheckRecord) error) error
}

// Passthrough runs every callback directly against repos, locking records
// through repos.Records.GetByIDForUpdate.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error {
			return fn(repos)
		},
		WithinRecordTxFn: func(ctx context.Context, id string, fn func(uow.Repos, *record.CheckRecord) error) error {
			rec, err := repos.Records.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, rec)
		},
	}
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinRecordTx(fn func(context.Context, string, func(uow.Repos, *record.CheckRecord) error) error) *UoW {
	m.WithinRecordTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinRecordTx(ctx context.Context, recordID string, fn func(r uow.Repos, rec *record.CheckRecord) error) error {
	if m.WithinRecordTxFn != nil {
		return m.WithinRecordTxFn(ctx, recordID, fn)
	}
	return errUnimplemented
}
