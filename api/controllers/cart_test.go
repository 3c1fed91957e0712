package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/streeteats-connect/internal/sessioncart"
	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
)

type stubCartService struct {
	addFn    func(ctx context.Context, sessionKey string, in sessioncart.AddInput) (*sessioncart.AddResult, error)
	updateFn func(ctx context.Context, sessionKey string, itemID uuid.UUID, qty int) (*sessioncart.MutationResult, error)
	removeFn func(ctx context.Context, sessionKey string, itemID uuid.UUID) (*sessioncart.MutationResult, error)
	countFn  func(ctx context.Context, sessionKey string) (*sessioncart.Totals, error)
	placeFn  func(ctx context.Context, sessionKey string, vendor sessioncart.VendorInput) (*models.Order, error)
}

func (s *stubCartService) AddToCart(ctx context.Context, sessionKey string, in sessioncart.AddInput) (*sessioncart.AddResult, error) {
	return s.addFn(ctx, sessionKey, in)
}

func (s *stubCartService) UpdateItem(ctx context.Context, sessionKey string, itemID uuid.UUID, qty int) (*sessioncart.MutationResult, error) {
	return s.updateFn(ctx, sessionKey, itemID, qty)
}

func (s *stubCartService) RemoveItem(ctx context.Context, sessionKey string, itemID uuid.UUID) (*sessioncart.MutationResult, error) {
	return s.removeFn(ctx, sessionKey, itemID)
}

func (s *stubCartService) Count(ctx context.Context, sessionKey string) (*sessioncart.Totals, error) {
	return s.countFn(ctx, sessionKey)
}

func (s *stubCartService) PlaceOrder(ctx context.Context, sessionKey string, vendor sessioncart.VendorInput) (*models.Order, error) {
	return s.placeFn(ctx, sessionKey, vendor)
}

func (s *stubCartService) PurgeAbandoned(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestAddToCartSuccess(t *testing.T) {
	var got sessioncart.AddInput
	svc := &stubCartService{
		addFn: func(_ context.Context, sessionKey string, in sessioncart.AddInput) (*sessioncart.AddResult, error) {
			assert.Equal(t, testSession, sessionKey)
			got = in
			return &sessioncart.AddResult{
				Message:   "Onions added to cart!",
				ItemTotal: decimal.RequireFromString("70.00"),
				Totals:    sessioncart.Totals{Count: 3, Subtotal: decimal.RequireFromString("120.50")},
			}, nil
		},
	}

	req := jsonRequest(t, http.MethodPost, "/orders/api/add-to-cart/", types.AddToCartRequest{
		Product:  types.ProductPayload{Name: "Onions", Price: 35, Unit: "kg", Category: "vegetables"},
		Supplier: types.SupplierPayload{PlaceID: "p1", Name: "Fresh Mart", Rating: 4.2},
		Quantity: 2,
	})
	rec := httptest.NewRecorder()
	AddToCart(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.CartActionResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "Onions added to cart!", resp.Message)
	assert.Equal(t, 3, resp.CartCount)
	assert.InDelta(t, 70.0, resp.ItemTotal, 0.001)

	assert.Equal(t, "Onions", got.Product.Name)
	assert.True(t, got.Product.Price.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, "Fresh Mart", got.Supplier.Name)
	assert.Equal(t, 2, got.Quantity)
}

func TestAddToCartRejectsMissingProductName(t *testing.T) {
	svc := &stubCartService{
		addFn: func(context.Context, string, sessioncart.AddInput) (*sessioncart.AddResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	req := jsonRequest(t, http.MethodPost, "/orders/api/add-to-cart/", `{"product":{"price":10},"supplier":{"name":"X"}}`)
	rec := httptest.NewRecorder()
	AddToCart(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp types.CartActionResponse
	decodeBody(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Error adding to cart")
}

func TestAddToCartServiceFailureIsFlat(t *testing.T) {
	svc := &stubCartService{
		addFn: func(context.Context, string, sessioncart.AddInput) (*sessioncart.AddResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "db down")
		},
	}
	req := jsonRequest(t, http.MethodPost, "/orders/api/add-to-cart/", types.AddToCartRequest{
		Product:  types.ProductPayload{Name: "Rice", Price: 60},
		Supplier: types.SupplierPayload{Name: "Depot"},
	})
	rec := httptest.NewRecorder()
	AddToCart(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp types.CartActionResponse
	decodeBody(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.NotContains(t, resp.Message, "db down")
}

func TestUpdateCartInvalidItemID(t *testing.T) {
	req := jsonRequest(t, http.MethodPost, "/orders/api/update-cart/", `{"item_id":"nope","quantity":2}`)
	rec := httptest.NewRecorder()
	UpdateCart(&stubCartService{}, testLogger())(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCartSuccess(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{
		updateFn: func(_ context.Context, _ string, id uuid.UUID, qty int) (*sessioncart.MutationResult, error) {
			assert.Equal(t, itemID, id)
			assert.Equal(t, 4, qty)
			return &sessioncart.MutationResult{Message: "Cart updated", Totals: sessioncart.Totals{Count: 4}}, nil
		},
	}
	req := jsonRequest(t, http.MethodPost, "/orders/api/update-cart/", types.UpdateCartRequest{ItemID: itemID.String(), Quantity: 4})
	rec := httptest.NewRecorder()
	UpdateCart(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.CartActionResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Cart updated", resp.Message)
	assert.Equal(t, 4, resp.CartCount)
}

func TestRemoveFromCartNotFound(t *testing.T) {
	svc := &stubCartService{
		removeFn: func(context.Context, string, uuid.UUID) (*sessioncart.MutationResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
		},
	}
	req := jsonRequest(t, http.MethodPost, "/orders/api/remove-from-cart/", types.RemoveFromCartRequest{ItemID: uuid.NewString()})
	rec := httptest.NewRecorder()
	RemoveFromCart(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp types.CartActionResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Error removing item: Cart item not found", resp.Message)
}

func TestCartCount(t *testing.T) {
	svc := &stubCartService{
		countFn: func(_ context.Context, sessionKey string) (*sessioncart.Totals, error) {
			assert.Equal(t, testSession, sessionKey)
			return &sessioncart.Totals{Count: 5, Subtotal: decimal.RequireFromString("212.345")}, nil
		},
	}
	req := jsonRequest(t, http.MethodGet, "/orders/api/cart-count/", nil)
	rec := httptest.NewRecorder()
	CartCount(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.CartCountResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 5, resp.CartCount)
	assert.InDelta(t, 212.35, resp.Subtotal, 0.0001)
}

func TestPlaceOrderSuccess(t *testing.T) {
	orderID := uuid.New()
	svc := &stubCartService{
		placeFn: func(_ context.Context, _ string, vendor sessioncart.VendorInput) (*models.Order, error) {
			assert.Equal(t, "Ravi's Chaat", vendor.Name)
			return &models.Order{ID: orderID, Total: decimal.RequireFromString("170.00")}, nil
		},
	}
	req := jsonRequest(t, http.MethodPost, "/orders/api/place-order/", types.PlaceOrderRequest{VendorName: "Ravi's Chaat", VendorPhone: "9876543210"})
	rec := httptest.NewRecorder()
	PlaceOrder(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp types.PlaceOrderResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, orderID.String(), resp.OrderID)
	assert.InDelta(t, 170.0, resp.Total, 0.001)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc := &stubCartService{
		placeFn: func(context.Context, string, sessioncart.VendorInput) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
		},
	}
	req := jsonRequest(t, http.MethodPost, "/orders/api/place-order/", types.PlaceOrderRequest{VendorName: "V"})
	rec := httptest.NewRecorder()
	PlaceOrder(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp types.PlaceOrderResponse
	decodeBody(t, rec, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "Error placing order: Cart is empty", resp.Message)
	assert.Empty(t, resp.OrderID)
}
