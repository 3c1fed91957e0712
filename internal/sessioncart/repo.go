package sessioncart

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence operations for session carts and the
// suppliers, products and orders they reference.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a session cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FirstOrCreateSupplier loads the supplier by place id, inserting it when
// missing. Existing rows keep their stored details.
func (r *Repository) FirstOrCreateSupplier(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	var row models.Supplier
	err := r.db.WithContext(ctx).
		Where(models.Supplier{PlaceID: supplier.PlaceID}).
		Attrs(*supplier).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FirstOrCreateProduct loads the product by (supplier, name), inserting it when missing.
func (r *Repository) FirstOrCreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Where(models.Product{SupplierID: product.SupplierID, Name: product.Name}).
		Attrs(*product).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FirstOrCreateCart(ctx context.Context, sessionKey string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where(models.Cart{SessionKey: sessionKey}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindCart loads the cart with items, products and suppliers.
func (r *Repository) FindCart(ctx context.Context, sessionKey string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		Preload("Items.Product.Supplier").
		Where("session_key = ?", sessionKey).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddQuantity increments the line for productID, creating it with qty when absent.
func (r *Repository) AddQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	db := r.db.WithContext(ctx)
	var item models.CartItem
	err := db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	switch {
	case err == nil:
		item.Quantity += qty
		if err := db.Model(&item).UpdateColumn("quantity", item.Quantity).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
		if err := db.Create(&item).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if err := db.Preload("Product").First(&item, "id = ?", item.ID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) SetQuantity(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", qty).Error
}

func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// Touch bumps updated_at so recently used carts survive the abandoned-cart purge.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		UpdateColumn("updated_at", now).Error
}

// CreateOrder inserts the order and its item snapshots.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// DeleteCartsUpdatedBefore removes carts (and their items) untouched since before.
func (r *Repository) DeleteCartsUpdatedBefore(ctx context.Context, before time.Time) (int64, error) {
	db := r.db.WithContext(ctx)
	stale := db.Model(&models.Cart{}).Select("id").Where("updated_at < ?", before)
	if err := db.Where("cart_id IN (?)", stale).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("updated_at < ?", before).Delete(&models.Cart{})
	return result.RowsAffected, result.Error
}
