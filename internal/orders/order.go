package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryCharge is added to every order.
var DeliveryCharge = decimal.NewFromInt(50)

const StatusPending = "pending"

// LineItem is one product and quantity in a cart or order, scoped to a
// supplier. (ID, SupplierID) identifies it.
type LineItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Unit         string          `json:"unit"`
	Quantity     int             `json:"quantity"`
	SupplierID   string          `json:"supplierId"`
	SupplierName string          `json:"supplierName"`
	Image        string          `json:"image,omitempty"`
}

func (i LineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type VendorInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Order is immutable once saved.
type Order struct {
	ID             string          `json:"id"`
	Items          []LineItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Total          decimal.Decimal `json:"total"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	VendorInfo     VendorInfo      `json:"vendorInfo"`
}

// Summary is the order list row.
type Summary struct {
	ID             string          `json:"id"`
	VendorName     string          `json:"vendorName"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Total          decimal.Decimal `json:"total"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	ItemsSummary   string          `json:"itemsSummary"`
}

// NewOrderID derives the order id from the creation time.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD_%d", now.UnixMilli())
}

// Subtotal sums price times quantity over items.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum.Round(2)
}

// NewOrder snapshots items into a pending order.
func NewOrder(items []LineItem, vendor VendorInfo, now time.Time) Order {
	snapshot := append([]LineItem(nil), items...)
	subtotal := Subtotal(snapshot)
	return Order{
		ID:             NewOrderID(now),
		Items:          snapshot,
		Subtotal:       subtotal,
		DeliveryCharge: DeliveryCharge,
		Total:          subtotal.Add(DeliveryCharge),
		Status:         StatusPending,
		CreatedAt:      now.UTC(),
		VendorInfo:     vendor,
	}
}

// Summarize builds the list row for an order.
func Summarize(o Order) Summary {
	parts := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		parts = append(parts, fmt.Sprintf("%s x %d", item.Name, item.Quantity))
	}
	return Summary{
		ID:             o.ID,
		VendorName:     o.VendorInfo.Name,
		Subtotal:       o.Subtotal,
		DeliveryCharge: o.DeliveryCharge,
		Total:          o.Total,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
		ItemsSummary:   strings.Join(parts, ", "),
	}
}
