package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is unique per (supplier, name).
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SupplierID  uuid.UUID       `gorm:"column:supplier_id;type:uuid;not null;uniqueIndex:ux_products_supplier_name"`
	Name        string          `gorm:"column:name;not null;uniqueIndex:ux_products_supplier_name"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Unit        string          `gorm:"column:unit;not null;default:'kg'"`
	Category    string          `gorm:"column:category;not null;default:'general'"`
	Description string          `gorm:"column:description"`
	ImageURL    string          `gorm:"column:image_url"`
	Supplier    *Supplier       `gorm:"foreignKey:SupplierID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
