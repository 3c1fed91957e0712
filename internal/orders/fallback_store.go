package orders

import (
	"context"
	"sort"

	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	"github.com/angelmondragon/streeteats-connect/internal/localstore"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
)

// fallbackStore keeps orders and products as flat JSON lists. Each write
// is a read-modify-write of the whole list; concurrent writers lose
// updates.
type fallbackStore struct {
	kv localstore.Store
}

func (s *fallbackStore) loadOrders(ctx context.Context) ([]Order, error) {
	var list []Order
	if _, err := localstore.GetJSON(ctx, s.kv, localstore.KeyOrders, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *fallbackStore) SaveOrder(ctx context.Context, order Order) error {
	list, err := s.loadOrders(ctx)
	if err != nil {
		return err
	}
	list = append(list, order)
	return localstore.SetJSON(ctx, s.kv, localstore.KeyOrders, list)
}

func (s *fallbackStore) Orders(ctx context.Context) ([]Summary, error) {
	list, err := s.loadOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(list))
	for _, o := range list {
		out = append(out, Summarize(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *fallbackStore) OrderDetails(ctx context.Context, id string) (Order, error) {
	list, err := s.loadOrders(ctx)
	if err != nil {
		return Order{}, err
	}
	for _, o := range list {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
}

func (s *fallbackStore) loadProducts(ctx context.Context) ([]catalog.Product, error) {
	var list []catalog.Product
	if _, err := localstore.GetJSON(ctx, s.kv, localstore.KeyProducts, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *fallbackStore) SaveProduct(ctx context.Context, product catalog.Product) error {
	list, err := s.loadProducts(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == product.ID {
			list[i] = product
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, product)
	}
	return localstore.SetJSON(ctx, s.kv, localstore.KeyProducts, list)
}

func (s *fallbackStore) ProductsByCategory(ctx context.Context, category catalog.Category) ([]catalog.Product, error) {
	list, err := s.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(list))
	for _, p := range list {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fallbackStore) Product(ctx context.Context, id string) (catalog.Product, error) {
	list, err := s.loadProducts(ctx)
	if err != nil {
		return catalog.Product{}, err
	}
	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
}
