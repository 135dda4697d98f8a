package template

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (*Template, error)
	// GetActiveByProduct returns the highest active version for a product
	GetActiveByProduct(ctx context.Context, productID string) (*Template, error)
	// Upsert inserts or replaces the (product_id, version) template
	Upsert(ctx context.Context, t *Template) error
}
