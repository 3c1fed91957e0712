package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/streeteats-connect/api/middleware"
	"github.com/angelmondragon/streeteats-connect/api/responses"
	"github.com/angelmondragon/streeteats-connect/api/validators"
	"github.com/angelmondragon/streeteats-connect/internal/sessioncart"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
)

// The /orders/api endpoints answer with flat JSON objects rather than the
// data envelope; browser code and the storefront client both read
// success and message at the top level.

// AddToCart stores a product and its supplier in the session cart.
func AddToCart(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeCartFailure(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"), "Error adding to cart")
			return
		}

		var body types.AddToCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			writeCartFailure(r.Context(), logg, w, err, "Error adding to cart")
			return
		}

		result, err := svc.AddToCart(r.Context(), middleware.SessionKeyFromContext(r.Context()), sessioncart.AddInput{
			Product: sessioncart.ProductInput{
				Name:        body.Product.Name,
				Price:       decimal.NewFromFloat(body.Product.Price),
				Unit:        body.Product.Unit,
				Category:    body.Product.Category,
				Description: body.Product.Description,
				ImageURL:    body.Product.ImageURL,
			},
			Supplier: sessioncart.SupplierInput{
				PlaceID:   body.Supplier.PlaceID,
				Name:      body.Supplier.Name,
				Address:   body.Supplier.Address,
				Phone:     body.Supplier.Phone,
				Rating:    body.Supplier.Rating,
				Latitude:  body.Supplier.Latitude,
				Longitude: body.Supplier.Longitude,
			},
			Quantity: body.Quantity,
		})
		if err != nil {
			writeCartFailure(r.Context(), logg, w, err, "Error adding to cart")
			return
		}

		responses.WriteJSON(w, http.StatusOK, types.CartActionResponse{
			Success:   true,
			Message:   result.Message,
			CartCount: result.Count,
			ItemTotal: money(result.ItemTotal),
		})
	}
}

// UpdateCart sets an item's quantity; zero or less removes it.
func UpdateCart(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeCartFailure(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"), "Error updating cart")
			return
		}

		var body types.UpdateCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			writeCartFailure(r.Context(), logg, w, err, "Error updating cart")
			return
		}
		itemID, err := uuid.Parse(body.ItemID)
		if err != nil {
			writeCartFailure(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"), "Error updating cart")
			return
		}

		result, err := svc.UpdateItem(r.Context(), middleware.SessionKeyFromContext(r.Context()), itemID, body.Quantity)
		if err != nil {
			writeCartFailure(r.Context(), logg, w, err, "Error updating cart")
			return
		}
		responses.WriteJSON(w, http.StatusOK, types.CartActionResponse{
			Success:   true,
			Message:   result.Message,
			CartCount: result.Count,
		})
	}
}

func RemoveFromCart(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeCartFailure(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"), "Error removing item")
			return
		}

		var body types.RemoveFromCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			writeCartFailure(r.Context(), logg, w, err, "Error removing item")
			return
		}
		itemID, err := uuid.Parse(body.ItemID)
		if err != nil {
			writeCartFailure(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"), "Error removing item")
			return
		}

		result, err := svc.RemoveItem(r.Context(), middleware.SessionKeyFromContext(r.Context()), itemID)
		if err != nil {
			writeCartFailure(r.Context(), logg, w, err, "Error removing item")
			return
		}
		responses.WriteJSON(w, http.StatusOK, types.CartActionResponse{
			Success:   true,
			Message:   result.Message,
			CartCount: result.Count,
		})
	}
}

// CartCount reports the session cart's quantity total and subtotal. It
// never fails on an unknown session; an empty cart is zero.
func CartCount(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteJSON(w, http.StatusOK, types.CartCountResponse{})
			return
		}
		totals, err := svc.Count(r.Context(), middleware.SessionKeyFromContext(r.Context()))
		if err != nil {
			responses.LogError(r.Context(), logg, err)
			responses.WriteJSON(w, responses.StatusFor(err), types.CartCountResponse{})
			return
		}
		responses.WriteJSON(w, http.StatusOK, types.CartCountResponse{
			CartCount: totals.Count,
			Subtotal:  money(totals.Subtotal),
		})
	}
}

// PlaceOrder folds the session cart into a pending order.
func PlaceOrder(svc sessioncart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeOrderFailure(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var body types.PlaceOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			writeOrderFailure(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), middleware.SessionKeyFromContext(r.Context()), sessioncart.VendorInput{
			Name:    body.VendorName,
			Phone:   body.VendorPhone,
			Address: body.VendorAddress,
		})
		if err != nil {
			writeOrderFailure(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, types.PlaceOrderResponse{
			Success: true,
			Message: "Order placed successfully!",
			OrderID: order.ID.String(),
			Total:   money(order.Total),
		})
	}
}

func writeCartFailure(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error, prefix string) {
	responses.LogError(ctx, logg, err)
	responses.WriteJSON(w, responses.StatusFor(err), types.CartActionResponse{
		Success: false,
		Message: prefix + ": " + responses.PublicMessage(err),
	})
}

func writeOrderFailure(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	responses.LogError(ctx, logg, err)
	responses.WriteJSON(w, responses.StatusFor(err), types.PlaceOrderResponse{
		Success: false,
		Message: "Error placing order: " + responses.PublicMessage(err),
	})
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
