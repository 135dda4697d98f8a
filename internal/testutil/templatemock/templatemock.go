package templatemock

import (
	domain "checksheet-backend/internal/domain/template"
	"context"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	GetByIDFn            func(ctx context.Context, id string) (*domain.Template, error)
	GetActiveByProductFn func(ctx context.Context, productID string) (*domain.Template, error)
	UpsertFn             func(ctx context.Context, t *domain.Template) error
}

// Fixed serves tpl for its own id and product.
func Fixed(tpl *domain.Template) *Repo {
	return &Repo{
		GetByIDFn: func(_ context.Context, id string) (*domain.Template, error) {
			if id != tpl.ID {
				return nil, domain.ErrNotFound
			}
			return tpl, nil
		},
		GetActiveByProductFn: func(_ context.Context, productID string) (*domain.Template, error) {
			if productID != tpl.ProductID {
				return nil, domain.ErrNotFound
			}
			return tpl, nil
		},
	}
}

func (m *Repo) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetActiveByProduct(ctx context.Context, productID string) (*domain.Template, error) {
	if m.GetActiveByProductFn != nil {
		return m.GetActiveByProductFn(ctx, productID)
	}
	return nil, context.Canceled
}

func (m *Repo) Upsert(ctx context.Context, t *domain.Template) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, t)
	}
	return nil
}
