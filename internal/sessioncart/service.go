package sessioncart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/streeteats-connect/internal/orders"
	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	"github.com/angelmondragon/streeteats-connect/pkg/enums"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultUnit     = "kg"
	defaultCategory = "general"
)

// Service manages server-side carts keyed by session.
type Service interface {
	AddToCart(ctx context.Context, sessionKey string, input AddInput) (*AddResult, error)
	UpdateItem(ctx context.Context, sessionKey string, itemID uuid.UUID, qty int) (*MutationResult, error)
	RemoveItem(ctx context.Context, sessionKey string, itemID uuid.UUID) (*MutationResult, error)
	Count(ctx context.Context, sessionKey string) (*Totals, error)
	PlaceOrder(ctx context.Context, sessionKey string, vendor VendorInput) (*models.Order, error)
	PurgeAbandoned(ctx context.Context, before time.Time) (int64, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	notifier orderNotifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a session cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, notifier orderNotifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("order notifier required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, notifier: notifier, logg: logg, now: time.Now}, nil
}

type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Unit        string
	Category    string
	Description string
	ImageURL    string
}

type SupplierInput struct {
	PlaceID   string
	Name      string
	Address   string
	Phone     string
	Rating    float64
	Latitude  *float64
	Longitude *float64
}

// AddInput is one add-to-cart request. Quantity <= 0 counts as 1.
type AddInput struct {
	Product  ProductInput
	Supplier SupplierInput
	Quantity int
}

type VendorInput struct {
	Name    string
	Phone   string
	Address string
}

// Totals summarise a cart: Count is the sum of quantities.
type Totals struct {
	Count    int
	Subtotal decimal.Decimal
}

type AddResult struct {
	Message   string
	ItemTotal decimal.Decimal
	Totals
}

type MutationResult struct {
	Message string
	Totals
}

func (s *service) AddToCart(ctx context.Context, sessionKey string, input AddInput) (*AddResult, error) {
	if err := requireSession(sessionKey); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Product.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Product.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be non-negative")
	}
	qty := input.Quantity
	if qty <= 0 {
		qty = 1
	}

	var result *AddResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		supplier, err := repo.FirstOrCreateSupplier(ctx, supplierRow(input.Supplier))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
		}
		product, err := repo.FirstOrCreateProduct(ctx, productRow(supplier.ID, input.Product))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		cart, err := repo.FirstOrCreateCart(ctx, sessionKey)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		item, err := repo.AddQuantity(ctx, cart.ID, product.ID, qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
		if err := repo.Touch(ctx, cart.ID, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}
		totals, err := s.totals(ctx, repo, sessionKey)
		if err != nil {
			return err
		}
		result = &AddResult{
			Message:   fmt.Sprintf("%s added to cart!", product.Name),
			ItemTotal: item.LineTotal().Round(2),
			Totals:    *totals,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"session_key": sessionKey,
		"product":     name,
		"quantity":    qty,
	}), "session_cart.item_added")
	return result, nil
}

// UpdateItem sets an item's quantity; qty <= 0 removes the item.
func (s *service) UpdateItem(ctx context.Context, sessionKey string, itemID uuid.UUID, qty int) (*MutationResult, error) {
	if err := requireSession(sessionKey); err != nil {
		return nil, err
	}
	var result *MutationResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, item, err := s.loadItem(ctx, repo, sessionKey, itemID)
		if err != nil {
			return err
		}

		message := "Cart updated"
		if qty <= 0 {
			if err := repo.DeleteItem(ctx, item.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
			}
			message = "Item removed from cart"
		} else if err := repo.SetQuantity(ctx, item.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		if err := repo.Touch(ctx, cart.ID, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}

		totals, err := s.totals(ctx, repo, sessionKey)
		if err != nil {
			return err
		}
		result = &MutationResult{Message: message, Totals: *totals}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) RemoveItem(ctx context.Context, sessionKey string, itemID uuid.UUID) (*MutationResult, error) {
	if err := requireSession(sessionKey); err != nil {
		return nil, err
	}
	var result *MutationResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, item, err := s.loadItem(ctx, repo, sessionKey, itemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		if err := repo.Touch(ctx, cart.ID, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}

		totals, err := s.totals(ctx, repo, sessionKey)
		if err != nil {
			return err
		}
		name := "Item"
		if item.Product != nil {
			name = item.Product.Name
		}
		result = &MutationResult{Message: name + " removed from cart", Totals: *totals}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Count reports the cart totals; a session without a cart has zero totals.
func (s *service) Count(ctx context.Context, sessionKey string) (*Totals, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return &Totals{Subtotal: decimal.Zero}, nil
	}
	return s.totals(ctx, s.repo, sessionKey)
}

// PlaceOrder folds the session cart into an order, empties the cart and
// records an order_placed notification, all in one transaction.
func (s *service) PlaceOrder(ctx context.Context, sessionKey string, vendor VendorInput) (*models.Order, error) {
	if err := requireSession(sessionKey); err != nil {
		return nil, err
	}
	if strings.TrimSpace(vendor.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name is required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindCart(ctx, sessionKey)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(cart.Items) == 0) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		order = buildOrder(sessionKey, vendor, cart.Items)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := repo.ClearItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return s.notifier.NotifyOrderPlaced(ctx, tx, sessionKey, order.ID, order.Total)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"session_key": sessionKey,
		"order_id":    order.ID.String(),
		"total":       order.Total.StringFixed(2),
	}), "session_cart.order_placed")
	return order, nil
}

func (s *service) PurgeAbandoned(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := s.repo.DeleteCartsUpdatedBefore(ctx, before.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge abandoned carts")
	}
	return deleted, nil
}

func (s *service) loadItem(ctx context.Context, repo CartRepository, sessionKey string, itemID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	if itemID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	cart, err := repo.FirstOrCreateCart(ctx, sessionKey)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	item, err := repo.FindItem(ctx, cart.ID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return cart, item, nil
}

func (s *service) totals(ctx context.Context, repo CartRepository, sessionKey string) (*Totals, error) {
	cart, err := repo.FindCart(ctx, sessionKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Totals{Subtotal: decimal.Zero}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	totals := &Totals{Subtotal: decimal.Zero}
	for _, item := range cart.Items {
		totals.Count += item.Quantity
		totals.Subtotal = totals.Subtotal.Add(item.LineTotal())
	}
	totals.Subtotal = totals.Subtotal.Round(2)
	return totals, nil
}

func buildOrder(sessionKey string, vendor VendorInput, items []models.CartItem) *models.Order {
	order := &models.Order{
		ID:             uuid.New(),
		SessionKey:     sessionKey,
		VendorName:     strings.TrimSpace(vendor.Name),
		VendorPhone:    strings.TrimSpace(vendor.Phone),
		VendorAddress:  strings.TrimSpace(vendor.Address),
		DeliveryCharge: orders.DeliveryCharge,
		Status:         enums.OrderStatusPending,
		Subtotal:       decimal.Zero,
	}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		line := models.OrderItem{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			SupplierID:  item.Product.SupplierID,
			Price:       item.Product.Price,
			Quantity:    item.Quantity,
			Unit:        item.Product.Unit,
		}
		if item.Product.Supplier != nil {
			line.SupplierName = item.Product.Supplier.Name
		}
		order.Items = append(order.Items, line)
		order.Subtotal = order.Subtotal.Add(item.LineTotal())
	}
	order.Subtotal = order.Subtotal.Round(2)
	order.Total = order.Subtotal.Add(order.DeliveryCharge)
	return order
}

func supplierRow(in SupplierInput) *models.Supplier {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Unknown Supplier"
	}
	placeID := strings.TrimSpace(in.PlaceID)
	if placeID == "" {
		placeID = "temp_" + name
	}
	return &models.Supplier{
		PlaceID:   placeID,
		Name:      name,
		Address:   in.Address,
		Phone:     in.Phone,
		Rating:    decimal.NewFromFloat(in.Rating).Round(1),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}
}

func productRow(supplierID uuid.UUID, in ProductInput) *models.Product {
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = defaultUnit
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = defaultCategory
	}
	return &models.Product{
		SupplierID:  supplierID,
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price.Round(2),
		Unit:        unit,
		Category:    category,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
}

func requireSession(sessionKey string) error {
	if strings.TrimSpace(sessionKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session is required")
	}
	return nil
}
