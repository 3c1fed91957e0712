package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	"github.com/angelmondragon/streeteats-connect/internal/localstore"
	"github.com/angelmondragon/streeteats-connect/internal/orders"
	"github.com/angelmondragon/streeteats-connect/internal/popup"
	"github.com/angelmondragon/streeteats-connect/internal/suppliers"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	requests []types.AddToCartRequest
	reply    types.CartActionResponse
	err      error
	count    int
}

func (f *fakeRemote) AddToCart(_ context.Context, in types.AddToCartRequest) (types.CartActionResponse, error) {
	f.requests = append(f.requests, in)
	if f.err != nil {
		return types.CartActionResponse{}, f.err
	}
	f.count += in.Quantity
	reply := f.reply
	if reply.Message == "" && reply.Success {
		reply.Message = in.Product.Name + " added to cart!"
	}
	if reply.Success {
		reply.CartCount = f.count
	}
	return reply, nil
}

func (f *fakeRemote) CartCount(context.Context) (types.CartCountResponse, error) {
	return types.CartCountResponse{CartCount: f.count}, f.err
}

type fakeOrders struct {
	saved []orders.Order
	err   error
}

func (f *fakeOrders) SaveOrder(_ context.Context, o orders.Order) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, o)
	return nil
}

type fixture struct {
	svc    *Service
	remote *fakeRemote
	orders *fakeOrders
	store  *localstore.Memory
	rec    *popup.Recorder
}

var vendor = orders.VendorInfo{Name: "Demo Vendor", Phone: "+91 9876543210", Address: "Demo Address"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		remote: &fakeRemote{reply: types.CartActionResponse{Success: true}},
		orders: &fakeOrders{},
		store:  localstore.NewMemory(),
		rec:    &popup.Recorder{},
	}
	svc, err := NewService(Deps{
		Store:    f.store,
		Orders:   f.orders,
		Remote:   f.remote,
		Notifier: popup.NewManager(f.rec),
		Vendor:   vendor,
		Clock:    func() time.Time { return time.UnixMilli(1767225600000) },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func product(id, supplierID string, price int64) catalog.Product {
	return catalog.Product{
		ID:           id,
		Name:         "Item " + id,
		SupplierID:   supplierID,
		SupplierName: "Supplier " + supplierID,
		Price:        decimal.NewFromInt(price),
		Unit:         catalog.UnitPerKg,
		Category:     catalog.CategoryVegetables,
	}
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.AddItem(ctx, product("p1", "s1", 10), suppliers.Supplier{}, 2))
	require.NoError(t, f.svc.AddItem(ctx, product("p2", "s1", 5), suppliers.Supplier{}, 1))
}

func TestSubtotalAndTotal(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	require.True(t, f.svc.Subtotal().Equal(decimal.NewFromInt(25)))
	require.True(t, f.svc.Total().Equal(decimal.NewFromInt(75)))
	require.Equal(t, 3, f.svc.ItemCount())
	require.Equal(t, 3, f.svc.DisplayedCount())
}

func TestUpdateQuantityKeepsTotalsConsistent(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	steps := []struct {
		id  string
		qty int
	}{{"p1", 5}, {"p2", 3}, {"p1", 1}, {"p2", 0}, {"p1", 4}}

	for _, step := range steps {
		f.svc.UpdateQuantity(ctx, step.id, "s1", step.qty)

		want := decimal.Zero
		for _, item := range f.svc.Items() {
			require.GreaterOrEqual(t, item.Quantity, 1)
			want = want.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		require.True(t, f.svc.Subtotal().Equal(want))
		require.True(t, f.svc.Total().Equal(want.Add(decimal.NewFromInt(50))))
	}
	require.Len(t, f.svc.Items(), 1)
	require.True(t, f.svc.Subtotal().Equal(decimal.NewFromInt(40)))
}

func TestRemoveThenUpdateIsNoop(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	require.True(t, f.svc.RemoveItem(ctx, "p1", "s1"))
	before := f.svc.Items()
	require.False(t, f.svc.UpdateQuantity(ctx, "p1", "s1", 7))
	require.Equal(t, before, f.svc.Items())
	require.False(t, f.svc.RemoveItem(ctx, "p1", "s1"))
	require.False(t, f.svc.UpdateQuantity(ctx, "p2", "other-supplier", 2))
}

func TestAddItemMergesSameLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sup := suppliers.Supplier{PlaceID: "s1", Name: "Fresh Mart", Address: "Crawford Market", Rating: 4.2, Latitude: 18.9, Longitude: 72.8}

	require.NoError(t, f.svc.AddItem(ctx, product("p1", "s1", 10), sup, 2))
	require.NoError(t, f.svc.AddItem(ctx, product("p1", "s1", 10), sup, 0))
	require.NoError(t, f.svc.AddItem(ctx, product("p1", "s2", 10), suppliers.Supplier{}, 1))

	items := f.svc.Items()
	require.Len(t, items, 2)
	require.Equal(t, 3, items[0].Quantity)

	req := f.remote.requests[0]
	require.Equal(t, "s1", req.Supplier.PlaceID)
	require.Equal(t, "Fresh Mart", req.Supplier.Name)
	require.Equal(t, 18.9, *req.Supplier.Latitude)
	require.Equal(t, "vegetables", req.Product.Category)
	require.Equal(t, 10.0, req.Product.Price)
	require.Equal(t, 1, f.remote.requests[1].Quantity)
	require.Equal(t, "s2", f.remote.requests[2].Supplier.PlaceID)

	toast, _ := f.rec.LastToast()
	require.Equal(t, popup.LevelSuccess, toast.Level)
	require.Equal(t, "Item p1 added to cart!", toast.Message)
	require.Equal(t, toast.CreatedAt.Add(ToastDuration), toast.ExpiresAt)
}

func TestAddItemFailuresLeaveCartUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.remote.err = pkgerrors.New(pkgerrors.CodeDependency, "connection refused")
	require.Error(t, f.svc.AddItem(ctx, product("p1", "s1", 10), suppliers.Supplier{}, 1))
	require.Empty(t, f.svc.Items())
	toast, _ := f.rec.LastToast()
	require.Equal(t, "Error adding item to cart", toast.Message)

	f.remote.err = nil
	f.remote.reply = types.CartActionResponse{Success: false, Message: "Product is out of stock"}
	err := f.svc.AddItem(ctx, product("p1", "s1", 10), suppliers.Supplier{}, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Empty(t, f.svc.Items())
	toast, _ = f.rec.LastToast()
	require.Equal(t, popup.LevelError, toast.Level)
	require.Equal(t, "Product is out of stock", toast.Message)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Empty(t, f.orders.saved)

	toast, _ := f.rec.LastToast()
	require.Equal(t, popup.LevelError, toast.Level)
	require.Equal(t, "Your cart is empty!", toast.Message)
}

func TestCheckoutCreatesOneOrderAndClearsCart(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	snapshot := f.svc.Items()

	order, err := f.svc.Checkout(context.Background())
	require.NoError(t, err)
	require.Len(t, f.orders.saved, 1)
	require.Equal(t, order, f.orders.saved[0])
	require.Equal(t, snapshot, order.Items)
	require.Equal(t, "ORD_1767225600000", order.ID)
	require.Equal(t, vendor, order.VendorInfo)
	require.True(t, order.Total.Equal(decimal.NewFromInt(75)))

	require.Equal(t, 0, f.svc.ItemCount())
	require.Empty(t, f.svc.Items())

	var persisted []Item
	ok, err := localstore.GetJSON(context.Background(), f.store, localstore.KeyCart, &persisted)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, persisted)

	toast, _ := f.rec.LastToast()
	require.Equal(t, "Order placed successfully!", toast.Message)
}

func TestCheckoutSaveFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.orders.err = errors.New("disk full")

	_, err := f.svc.Checkout(context.Background())
	require.Error(t, err)
	require.Len(t, f.svc.Items(), 2)
	toast, _ := f.rec.LastToast()
	require.Equal(t, "Failed to place order. Please try again.", toast.Message)
}

func TestPersistsCartAndPageMirror(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	var page map[string]pageEntry
	ok, err := localstore.GetJSON(ctx, f.store, localstore.KeyCartPageData, &page)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, page, 2)
	require.Equal(t, "p1", page["1"].ID)
	require.Equal(t, 2, page["1"].Qty)
	require.Equal(t, "Supplier s1", page["1"].Supplier)
	require.Equal(t, "p2", page["2"].ID)

	restored, err := NewService(Deps{Store: f.store, Orders: f.orders, Remote: f.remote, Notifier: popup.NewManager(nil)})
	require.NoError(t, err)
	require.NoError(t, restored.Load(ctx))
	require.Equal(t, f.svc.Items(), restored.Items())
}

func TestRefreshCount(t *testing.T) {
	f := newFixture(t)
	f.remote.count = 9
	n, err := f.svc.RefreshCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, n)
	require.Equal(t, 9, f.svc.DisplayedCount())
}
