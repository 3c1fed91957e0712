package orders

import (
	"time"

	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	"github.com/shopspring/decimal"
)

// Local tables of the storefront's own SQLite file. They are separate from
// the server schema in pkg/db/models.

type orderRow struct {
	ID             string          `gorm:"primaryKey"`
	VendorName     string          `gorm:"not null"`
	VendorPhone    string
	VendorAddress  string
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryCharge decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status         string          `gorm:"not null;default:pending"`
	CreatedAt      time.Time       `gorm:"not null;index"`
	Items          []orderItemRow  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	OrderID      string          `gorm:"not null;index"`
	ProductID    string          `gorm:"not null"`
	ProductName  string          `gorm:"not null"`
	SupplierID   string          `gorm:"not null"`
	SupplierName string
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Quantity     int             `gorm:"not null"`
	Unit         string
	Image        string
}

func (orderItemRow) TableName() string { return "order_items" }

type productRow struct {
	ID           string          `gorm:"primaryKey"`
	Name         string          `gorm:"not null"`
	SupplierID   string          `gorm:"not null;index"`
	SupplierName string
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Unit         string
	Category     string          `gorm:"index"`
	Description  string
	ImageURL     string
	Rating       float64
	InStock      bool
	MinOrder     int
	CreatedAt    time.Time
}

func (productRow) TableName() string { return "products" }

func localModels() []any {
	return []any{&orderRow{}, &orderItemRow{}, &productRow{}}
}

func toOrderRow(o Order) orderRow {
	row := orderRow{
		ID:             o.ID,
		VendorName:     o.VendorInfo.Name,
		VendorPhone:    o.VendorInfo.Phone,
		VendorAddress:  o.VendorInfo.Address,
		Subtotal:       o.Subtotal,
		DeliveryCharge: o.DeliveryCharge,
		Total:          o.Total,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
	}
	for _, item := range o.Items {
		row.Items = append(row.Items, orderItemRow{
			OrderID:      o.ID,
			ProductID:    item.ID,
			ProductName:  item.Name,
			SupplierID:   item.SupplierID,
			SupplierName: item.SupplierName,
			Price:        item.Price,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			Image:        item.Image,
		})
	}
	return row
}

func (r orderRow) toOrder() Order {
	o := Order{
		ID:             r.ID,
		Subtotal:       r.Subtotal,
		DeliveryCharge: r.DeliveryCharge,
		Total:          r.Total,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt.UTC(),
		VendorInfo: VendorInfo{
			Name:    r.VendorName,
			Phone:   r.VendorPhone,
			Address: r.VendorAddress,
		},
		Items: make([]LineItem, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		o.Items = append(o.Items, LineItem{
			ID:           item.ProductID,
			Name:         item.ProductName,
			Price:        item.Price,
			Unit:         item.Unit,
			Quantity:     item.Quantity,
			SupplierID:   item.SupplierID,
			SupplierName: item.SupplierName,
			Image:        item.Image,
		})
	}
	return o
}

func toProductRow(p catalog.Product, now time.Time) productRow {
	return productRow{
		ID:           p.ID,
		Name:         p.Name,
		SupplierID:   p.SupplierID,
		SupplierName: p.SupplierName,
		Price:        p.Price,
		Unit:         p.Unit,
		Category:     string(p.Category),
		Description:  p.Description,
		ImageURL:     p.Image,
		Rating:       p.Rating,
		InStock:      p.InStock,
		MinOrder:     p.MinOrder,
		CreatedAt:    now,
	}
}

func (r productRow) toProduct() catalog.Product {
	return catalog.Product{
		ID:           r.ID,
		Name:         r.Name,
		SupplierID:   r.SupplierID,
		SupplierName: r.SupplierName,
		Price:        r.Price,
		Unit:         r.Unit,
		Category:     catalog.Category(r.Category),
		Description:  r.Description,
		Image:        r.ImageURL,
		Rating:       r.Rating,
		InStock:      r.InStock,
		MinOrder:     r.MinOrder,
	}
}
