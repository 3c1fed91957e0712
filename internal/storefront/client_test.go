package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/auth"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestAddToCartSendsPayloadAndCapturesToken(t *testing.T) {
	var got types.AddToCartRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, addToCartPath, r.URL.Path)
		require.Empty(t, r.Header.Get(auth.SessionHeader))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set(auth.SessionHeader, "tok-1")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Tomatoes added to cart!","cart_count":3}`))
	}))
	defer srv.Close()

	var sunk []string
	client, err := New(srv.URL, time.Second, WithTokenSink(func(tok string) { sunk = append(sunk, tok) }))
	require.NoError(t, err)

	out, err := client.AddToCart(context.Background(), types.AddToCartRequest{
		Product:  types.ProductPayload{Name: "Tomatoes", Price: 22.5, Unit: "per kg"},
		Supplier: types.SupplierPayload{PlaceID: "p1", Name: "Fresh Mart"},
		Quantity: 2,
	})
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, 3, out.CartCount)
	require.Equal(t, "Tomatoes", got.Product.Name)
	require.Equal(t, 2, got.Quantity)
	require.Equal(t, "tok-1", client.Token())
	require.Equal(t, []string{"tok-1"}, sunk)
}

func TestAddToCartReturnsRejectedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "tok-9", r.Header.Get(auth.SessionHeader))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid quantity"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, time.Second, WithToken("tok-9"))
	require.NoError(t, err)

	out, err := client.AddToCart(context.Background(), types.AddToCartRequest{})
	require.NoError(t, err)
	require.False(t, out.Success)
	require.Equal(t, "Invalid quantity", out.Message)
}

func TestServerErrorsAreDependencyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := New(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.AddToCart(context.Background(), types.AddToCartRequest{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = client.CartCount(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := New(url, 200*time.Millisecond)
	require.NoError(t, err)
	_, err = client.AddToCart(context.Background(), types.AddToCartRequest{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestCartCountPlaceOrderAndPopup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case cartCountPath:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"cart_count":4,"subtotal":120.5}`))
		case placeOrderPath:
			require.Equal(t, "key-1", r.Header.Get(idempotencyHeader))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"message":"Order placed successfully!","order_id":"abc","total":170.5}`))
		case popupPath:
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<div class="notification-popup"></div>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := New(srv.URL+"/", time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	count, err := client.CartCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, count.CartCount)

	placed, err := client.PlaceOrder(ctx, types.PlaceOrderRequest{VendorName: "Demo Vendor"}, "key-1")
	require.NoError(t, err)
	require.Equal(t, "abc", placed.OrderID)

	html, err := client.NotificationPopup(ctx)
	require.NoError(t, err)
	require.Contains(t, html, "notification-popup")
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("  ", time.Second)
	require.Error(t, err)
}
