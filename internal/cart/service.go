package cart

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	"github.com/angelmondragon/streeteats-connect/internal/localstore"
	"github.com/angelmondragon/streeteats-connect/internal/orders"
	"github.com/angelmondragon/streeteats-connect/internal/popup"
	"github.com/angelmondragon/streeteats-connect/internal/suppliers"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/metrics"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
	"github.com/shopspring/decimal"
)

// ToastDuration is how long cart toasts stay up.
const ToastDuration = 4 * time.Second

const (
	msgAddFailed     = "Error adding item to cart"
	msgEmptyCart     = "Your cart is empty!"
	msgOrderPlaced   = "Order placed successfully!"
	msgCheckoutError = "Failed to place order. Please try again."
)

// Item is a cart line item.
type Item = orders.LineItem

// Remote is the server cart API.
type Remote interface {
	AddToCart(ctx context.Context, in types.AddToCartRequest) (types.CartActionResponse, error)
	CartCount(ctx context.Context) (types.CartCountResponse, error)
}

type OrderSaver interface {
	SaveOrder(ctx context.Context, order orders.Order) error
}

type Notifier interface {
	Toast(level popup.Level, title, message string, d time.Duration) string
}

type Deps struct {
	Store    localstore.Store
	Orders   OrderSaver
	Remote   Remote
	Notifier Notifier
	Vendor   orders.VendorInfo
	Clock    func() time.Time
	Logger   *logger.Logger
	Metrics  *metrics.OrderStoreMetrics
}

// Service holds the vendor's cart. Mutations persist to the local store
// immediately.
type Service struct {
	store    localstore.Store
	orders   OrderSaver
	remote   Remote
	notifier Notifier
	vendor   orders.VendorInfo
	now      func() time.Time
	logg     *logger.Logger
	metrics  *metrics.OrderStoreMetrics

	mu    sync.Mutex
	items []Item
	count int
}

func NewService(deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("local store required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if deps.Remote == nil {
		return nil, fmt.Errorf("remote cart required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		store:    deps.Store,
		orders:   deps.Orders,
		remote:   deps.Remote,
		notifier: deps.Notifier,
		vendor:   deps.Vendor,
		now:      now,
		logg:     logg,
		metrics:  deps.Metrics,
	}, nil
}

// Load restores the item list saved by a previous session.
func (s *Service) Load(ctx context.Context) error {
	var items []Item
	if _, err := localstore.GetJSON(ctx, s.store, localstore.KeyCart, &items); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// AddItem sends the product to the server cart and, once accepted, merges
// it into the local list.
func (s *Service) AddItem(ctx context.Context, product catalog.Product, supplier suppliers.Supplier, qty int) error {
	if qty <= 0 {
		qty = 1
	}

	resp, err := s.remote.AddToCart(ctx, addRequest(product, supplier, qty))
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", product.ID), "add to cart failed", err)
		s.notifier.Toast(popup.LevelError, "", msgAddFailed, ToastDuration)
		return err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = msgAddFailed
		}
		s.notifier.Toast(popup.LevelError, "", msg, ToastDuration)
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	}

	s.mu.Lock()
	s.count = resp.CartCount
	s.merge(product, qty)
	s.mu.Unlock()

	s.persist(ctx)
	s.notifier.Toast(popup.LevelSuccess, "", resp.Message, ToastDuration)
	return nil
}

func (s *Service) merge(product catalog.Product, qty int) {
	for i := range s.items {
		if s.items[i].ID == product.ID && s.items[i].SupplierID == product.SupplierID {
			s.items[i].Quantity += qty
			return
		}
	}
	s.items = append(s.items, Item{
		ID:           product.ID,
		Name:         product.Name,
		Price:        product.Price,
		Unit:         product.Unit,
		Quantity:     qty,
		SupplierID:   product.SupplierID,
		SupplierName: product.SupplierName,
		Image:        product.Image,
	})
}

// RemoveItem drops the line. Unknown keys are ignored.
func (s *Service) RemoveItem(ctx context.Context, id, supplierID string) bool {
	s.mu.Lock()
	removed := s.remove(id, supplierID)
	s.mu.Unlock()
	if removed {
		s.persist(ctx)
	}
	return removed
}

func (s *Service) remove(id, supplierID string) bool {
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].SupplierID == supplierID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity sets the line quantity; qty <= 0 removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, id, supplierID string, qty int) bool {
	s.mu.Lock()
	changed := false
	if qty <= 0 {
		changed = s.remove(id, supplierID)
	} else {
		for i := range s.items {
			if s.items[i].ID == id && s.items[i].SupplierID == supplierID {
				s.items[i].Quantity = qty
				changed = true
				break
			}
		}
	}
	s.mu.Unlock()
	if changed {
		s.persist(ctx)
	}
	return changed
}

func (s *Service) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

func (s *Service) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return orders.Subtotal(s.items)
}

func (s *Service) Total() decimal.Decimal {
	return s.Subtotal().Add(orders.DeliveryCharge)
}

func (s *Service) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

// DisplayedCount is the server cart count last reported.
func (s *Service) DisplayedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// RefreshCount re-reads the server cart count.
func (s *Service) RefreshCount(ctx context.Context) (int, error) {
	resp, err := s.remote.CartCount(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart count refresh failed")
		return s.DisplayedCount(), err
	}
	s.mu.Lock()
	s.count = resp.CartCount
	s.mu.Unlock()
	return resp.CartCount, nil
}

// Checkout saves the cart as an order and empties it. The cart is kept
// when the order cannot be saved.
func (s *Service) Checkout(ctx context.Context) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		s.notifier.Toast(popup.LevelError, "", msgEmptyCart, ToastDuration)
		s.metrics.IncCheckout("empty")
		return orders.Order{}, pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCart)
	}

	order := orders.NewOrder(s.items, s.vendor, s.now())
	ctx = s.logg.WithField(ctx, "order_id", order.ID)
	if err := s.orders.SaveOrder(ctx, order); err != nil {
		s.logg.Error(ctx, "checkout failed", err)
		s.notifier.Toast(popup.LevelError, "", msgCheckoutError, ToastDuration)
		s.metrics.IncCheckout("failed")
		return orders.Order{}, err
	}

	s.items = nil
	s.persistLocked(ctx)
	s.notifier.Toast(popup.LevelSuccess, "", msgOrderPlaced, ToastDuration)
	s.metrics.IncCheckout("placed")
	s.logg.Info(ctx, "order placed")
	return order, nil
}

func (s *Service) persist(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked(ctx)
}

// pageEntry is the cart page's view of a line.
type pageEntry struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Qty        int             `json:"qty"`
	Unit       string          `json:"unit"`
	Supplier   string          `json:"supplier"`
	ID         string          `json:"id"`
	SupplierID string          `json:"supplierId"`
}

func (s *Service) persistLocked(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []Item{}
	}
	if err := localstore.SetJSON(ctx, s.store, localstore.KeyCart, items); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "saving cart failed")
		return
	}

	page := make(map[string]pageEntry, len(items))
	for i, item := range items {
		unit := item.Unit
		if unit == "" {
			unit = "kg"
		}
		page[strconv.Itoa(i+1)] = pageEntry{
			Name:       item.Name,
			Price:      item.Price,
			Qty:        item.Quantity,
			Unit:       unit,
			Supplier:   item.SupplierName,
			ID:         item.ID,
			SupplierID: item.SupplierID,
		}
	}
	if err := localstore.SetJSON(ctx, s.store, localstore.KeyCartPageData, page); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "saving cart page data failed")
	}
}

func addRequest(product catalog.Product, supplier suppliers.Supplier, qty int) types.AddToCartRequest {
	unit := product.Unit
	if unit == "" {
		unit = "kg"
	}
	category := string(product.Category)
	if category == "" {
		category = string(catalog.CategoryGeneral)
	}
	price, _ := product.Price.Float64()

	placeID := supplier.PlaceID
	if placeID == "" {
		placeID = product.SupplierID
	}
	name := supplier.Name
	if name == "" {
		name = product.SupplierName
	}
	lat, lng := supplier.Latitude, supplier.Longitude

	return types.AddToCartRequest{
		Product: types.ProductPayload{
			Name:        product.Name,
			Price:       price,
			Unit:        unit,
			Category:    category,
			Description: product.Description,
			ImageURL:    product.Image,
		},
		Supplier: types.SupplierPayload{
			PlaceID:   placeID,
			Name:      name,
			Address:   supplier.Address,
			Phone:     supplier.Phone,
			Rating:    supplier.Rating,
			Latitude:  &lat,
			Longitude: &lng,
		},
		Quantity: qty,
	}
}
