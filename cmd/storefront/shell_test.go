package main

import (
	"bufio"
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/streeteats-connect/internal/cart"
	"github.com/angelmondragon/streeteats-connect/internal/localstore"
	"github.com/angelmondragon/streeteats-connect/internal/orders"
	"github.com/angelmondragon/streeteats-connect/internal/popup"
	"github.com/angelmondragon/streeteats-connect/internal/suppliers"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
)

type fakeServer struct {
	count      int
	placed     []string
	popupHTML  string
	lastVendor string
}

func (f *fakeServer) AddToCart(_ context.Context, in types.AddToCartRequest) (types.CartActionResponse, error) {
	f.count += in.Quantity
	return types.CartActionResponse{Success: true, Message: in.Product.Name + " added to cart!", CartCount: f.count}, nil
}

func (f *fakeServer) CartCount(context.Context) (types.CartCountResponse, error) {
	return types.CartCountResponse{CartCount: f.count}, nil
}

func (f *fakeServer) PlaceOrder(_ context.Context, in types.PlaceOrderRequest, key string) (types.PlaceOrderResponse, error) {
	f.placed = append(f.placed, key)
	f.lastVendor = in.VendorName
	if f.count == 0 {
		return types.PlaceOrderResponse{Success: false, Message: "Error placing order: Cart is empty"}, nil
	}
	f.count = 0
	return types.PlaceOrderResponse{Success: true, Message: "Order placed successfully!", OrderID: "6f1c", Total: 120}, nil
}

func (f *fakeServer) NotificationPopup(context.Context) (string, error) {
	return f.popupHTML, nil
}

func newTestShell(t *testing.T, input string) (*shell, *bytes.Buffer, *fakeServer) {
	t.Helper()
	ctx := context.Background()
	var out bytes.Buffer
	store := localstore.NewMemory()
	popups := popup.NewManager(popup.NewTerminal(&out))

	orderDB, err := orders.Open(ctx, nil, store, logger.Nop())
	require.NoError(t, err)

	search, err := suppliers.NewService(suppliers.Deps{
		Products: orderDB,
		Notifier: popups,
		Rand:     rand.New(rand.NewSource(7)),
	})
	require.NoError(t, err)

	srv := &fakeServer{popupHTML: `<div class="notification-popup" data-unread-count="0"></div>`}
	vendor := orders.VendorInfo{Name: "Ravi's Chaat", Phone: "9876543210"}
	c, err := cart.NewService(cart.Deps{Store: store, Orders: orderDB, Remote: srv, Notifier: popups, Vendor: vendor})
	require.NoError(t, err)

	return &shell{
		in:     bufio.NewScanner(strings.NewReader(input)),
		out:    &out,
		popups: popups,
		search: search,
		cart:   c,
		orders: orderDB,
		server: srv,
		vendor: vendor,
		logg:   logger.Nop(),
	}, &out, srv
}

func TestShellSearchAddCheckout(t *testing.T) {
	sh, out, _ := newTestShell(t, strings.Join([]string{
		"search onions",
		"add 1.1 2",
		"cart",
		"checkout",
		"y",
		"orders",
		"cart",
		"quit",
	}, "\n"))

	require.NoError(t, sh.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "onions Suppliers & Products")
	assert.Contains(t, text, "added to cart!")
	assert.Contains(t, text, "== Checkout ==")
	assert.Contains(t, text, "[ok] Order placed successfully!")
	assert.Contains(t, text, "ORD_")
	assert.Contains(t, text, "Your cart is empty.")
	assert.Empty(t, sh.cart.Items())
}

func TestShellCheckoutDeclinedKeepsCart(t *testing.T) {
	sh, _, _ := newTestShell(t, "search rice\nadd 1.1\ncheckout\nn\nquit\n")
	require.NoError(t, sh.run(context.Background()))
	assert.Len(t, sh.cart.Items(), 1)

	list, err := sh.orders.GetOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestShellRemoveAsksFirst(t *testing.T) {
	sh, out, _ := newTestShell(t, "search rice\nadd 1.1\nremove 1\ny\nquit\n")
	require.NoError(t, sh.run(context.Background()))
	assert.Empty(t, sh.cart.Items())
	assert.Contains(t, out.String(), "== Delete Confirmation ==")
}

func TestShellBadReferenceWarns(t *testing.T) {
	sh, out, _ := newTestShell(t, "add 9.9\nfly\nquit\n")
	require.NoError(t, sh.run(context.Background()))
	assert.Contains(t, out.String(), "[warn] Warning: No such product on the current page.")
	assert.Contains(t, out.String(), `[warn] Warning: Unknown command "fly". Type help.`)
}

func TestShellPlaceServerOrderSendsIdempotencyKey(t *testing.T) {
	sh, out, srv := newTestShell(t, "search rice\nadd 1.1 3\nplace-server\nplace-server\ninbox\nquit\n")
	require.NoError(t, sh.run(context.Background()))

	require.Len(t, srv.placed, 2)
	assert.NotEmpty(t, srv.placed[0])
	assert.NotEqual(t, srv.placed[0], srv.placed[1])
	assert.Equal(t, "Ravi's Chaat", srv.lastVendor)
	assert.Contains(t, out.String(), "server order 6f1c")
	assert.Contains(t, out.String(), "[error] Error: Error placing order: Cart is empty")
	assert.Contains(t, out.String(), "notification-popup")
}

func TestShellRegisterWizard(t *testing.T) {
	lines := []string{
		"register",
		// step 1 with a bad email, then corrected
		"ravi", "bad", "pw1", "pw1", "Ravi", "", "9876543210",
		"ravi", "ravi@example.com", "pw1", "pw1", "Ravi", "", "9876543210",
		// step 2
		"Ravi's Chaat", "street food", "MG Road", "", "",
		// step 3
		"vegetables,spices",
		// step 4
		"yes",
		"quit",
	}
	sh, out, _ := newTestShell(t, strings.Join(lines, "\n"))
	require.NoError(t, sh.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Step 1 of 4: Account (0%)")
	assert.Contains(t, text, "! email: Please enter a valid email address")
	assert.Contains(t, text, "Step 4 of 4: Terms (100%)")
	assert.Contains(t, text, "[ok] Success: Registration details look good!")
}

func TestShellAddByProductID(t *testing.T) {
	sh, out, _ := newTestShell(t, "search onions\nadd demo_1_0 2\nadd demo_9_9\nquit\n")
	require.NoError(t, sh.run(context.Background()))

	items := sh.cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "demo_1_0", items[0].ID)
	assert.Equal(t, "demo_1", items[0].SupplierID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Contains(t, out.String(), "[warn] Warning: No such product on the current page.")
}

func TestShellAddClampsQuantity(t *testing.T) {
	sh, out, _ := newTestShell(t, "search rice\nadd 1.1 250\nadd 1.2 -3\nquit\n")
	require.NoError(t, sh.run(context.Background()))

	items := sh.cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 100, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Contains(t, out.String(), "[warn] Warning: Quantity must be between 1 and 100, using 100.")
	assert.Contains(t, out.String(), "[warn] Warning: Quantity must be between 1 and 100, using 1.")
}
