package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/streeteats-connect/pkg/enums"
)

// Order is a checked-out session cart. Line items are snapshots so later
// catalog edits never rewrite history.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	SessionKey     string            `gorm:"column:session_key;not null;index"`
	VendorName     string            `gorm:"column:vendor_name;not null"`
	VendorPhone    string            `gorm:"column:vendor_phone"`
	VendorAddress  string            `gorm:"column:vendor_address"`
	Subtotal       decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryCharge decimal.Decimal   `gorm:"column:delivery_charge;type:numeric(12,2);not null"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Status         enums.OrderStatus `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName  string          `gorm:"column:product_name;not null"`
	SupplierID   uuid.UUID       `gorm:"column:supplier_id;type:uuid;not null"`
	SupplierName string          `gorm:"column:supplier_name;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	Unit         string          `gorm:"column:unit;not null"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
