package sessioncart

import (
	"context"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the session cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FirstOrCreateSupplier(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error)
	FirstOrCreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	FirstOrCreateCart(ctx context.Context, sessionKey string) (*models.Cart, error)
	FindCart(ctx context.Context, sessionKey string) (*models.Cart, error)
	AddQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) (*models.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	SetQuantity(ctx context.Context, itemID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	Touch(ctx context.Context, cartID uuid.UUID, now time.Time) error
	CreateOrder(ctx context.Context, order *models.Order) error
	DeleteCartsUpdatedBefore(ctx context.Context, before time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderNotifier interface {
	NotifyOrderPlaced(ctx context.Context, tx *gorm.DB, recipient string, orderID uuid.UUID, total decimal.Decimal) error
}
