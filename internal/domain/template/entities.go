package template

import (
	"checksheet-backend/internal/domain/form"
	"errors"
	"time"

	"gorm.io/datatypes"
)

var ErrNotFound = errors.New("template not found")

// Table: templates
// A product may have several versions; the highest active one is used for new
// records. Existing records keep the version they were created with.
type Template struct {
	ID        string                             `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	ProductID string                             `gorm:"column:product_id;size:64;not null;uniqueIndex:ux_templates_product_version" json:"product_id"`
	Version   int                                `gorm:"column:version;not null;uniqueIndex:ux_templates_product_version" json:"version"`
	Name      string                             `gorm:"column:name;size:200" json:"name"`
	Sections  datatypes.JSONType[[]form.Section] `gorm:"column:sections;type:json;not null" json:"sections"`
	IsActive  bool                               `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time                          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string { return "templates" }

// Form returns the engine view of the template.
func (t Template) Form() form.Template {
	return form.Template{
		ID:        t.ID,
		ProductID: t.ProductID,
		Version:   t.Version,
		Sections:  t.Sections.Data(),
	}
}

// FromForm wraps an engine template for storage.
func FromForm(name string, ft form.Template) *Template {
	return &Template{
		ID:        ft.ID,
		ProductID: ft.ProductID,
		Version:   ft.Version,
		Name:      name,
		Sections:  datatypes.NewJSONType(ft.Sections),
		IsActive:  true,
	}
}
