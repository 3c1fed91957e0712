package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is the server-side basket for one storefront session.
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SessionKey string     `gorm:"column:session_key;not null;uniqueIndex"`
	Items      []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem holds one product line; quantity is always >= 1.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_product"`
	Quantity  int       `gorm:"column:quantity;not null;default:1"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is price x quantity; zero when the product is not preloaded.
func (i CartItem) LineTotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
