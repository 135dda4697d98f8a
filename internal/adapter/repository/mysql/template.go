package mysql

import (
	"checksheet-backend/internal/domain/template"
	"context"
	"errors"

	"gorm.io/gorm"
)

type TemplateRepository struct{ db *gorm.DB }

func NewTemplateRepository(db *gorm.DB) *TemplateRepository { return &TemplateRepository{db: db} }

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*template.Template, error) {
	var out template.Template
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, templateErr(err)
	}
	return &out, nil
}

func (r *TemplateRepository) GetActiveByProduct(ctx context.Context, productID string) (*template.Template, error) {
	var out template.Template
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("version DESC").
		First(&out).Error
	if err != nil {
		return nil, templateErr(err)
	}
	return &out, nil
}

// Upsert keeps the id of an existing (product_id, version) row so records
// created against it stay linked. t.ID is updated to the stored id.
func (r *TemplateRepository) Upsert(ctx context.Context, t *template.Template) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing template.Template
		err := tx.Where("product_id = ? AND version = ?", t.ProductID, t.Version).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(t).Error
		case err != nil:
			return err
		}
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
		return tx.Save(t).Error
	})
}

func templateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return template.ErrNotFound
	}
	return err
}
