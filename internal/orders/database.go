package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	"github.com/angelmondragon/streeteats-connect/internal/localstore"
	"github.com/angelmondragon/streeteats-connect/pkg/db"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/metrics"
	"gorm.io/gorm"
)

type Mode string

const (
	ModePrimary  Mode = "primary"
	ModeFallback Mode = "fallback"
)

type backend interface {
	SaveOrder(ctx context.Context, order Order) error
	Orders(ctx context.Context) ([]Summary, error)
	OrderDetails(ctx context.Context, id string) (Order, error)
	SaveProduct(ctx context.Context, product catalog.Product) error
	ProductsByCategory(ctx context.Context, category catalog.Category) ([]catalog.Product, error)
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// Opener opens the primary structured store.
type Opener func(ctx context.Context) (*gorm.DB, error)

// SQLiteOpener opens the storefront's local SQLite file.
func SQLiteOpener(path string) Opener {
	return func(context.Context) (*gorm.DB, error) {
		client, err := db.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return client.DB(), nil
	}
}

type Option func(*Database)

func WithMetrics(m *metrics.OrderStoreMetrics) Option {
	return func(d *Database) { d.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(d *Database) {
		if now != nil {
			d.now = now
		}
	}
}

// Database records placed orders and cached products locally. It uses the
// primary store when it opens and otherwise stays on the fallback lists
// for the rest of its life.
type Database struct {
	store   backend
	mode    Mode
	metrics *metrics.OrderStoreMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// Open tries the primary store once. Any failure selects the fallback.
func Open(ctx context.Context, opener Opener, fallback localstore.Store, logg *logger.Logger, opts ...Option) (*Database, error) {
	if fallback == nil {
		return nil, fmt.Errorf("fallback store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	d := &Database{logg: logg, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}

	d.store, d.mode = &fallbackStore{kv: fallback}, ModeFallback
	if opener != nil {
		primary, err := d.openPrimary(ctx, opener)
		if err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "primary order store unavailable, using local fallback")
		} else {
			d.store, d.mode = primary, ModePrimary
		}
	}

	d.metrics.SetMode(string(d.mode), string(ModePrimary), string(ModeFallback))
	logg.Info(logg.WithField(ctx, "mode", string(d.mode)), "order store ready")
	return d, nil
}

func (d *Database) openPrimary(ctx context.Context, opener Opener) (*sqlStore, error) {
	conn, err := opener(ctx)
	if err != nil {
		return nil, err
	}
	return newSQLStore(ctx, conn, d.now)
}

func (d *Database) Mode() Mode {
	return d.mode
}

func (d *Database) SaveOrder(ctx context.Context, order Order) error {
	if err := d.store.SaveOrder(ctx, order); err != nil {
		d.logg.Error(d.logg.WithField(ctx, "order_id", order.ID), "save order failed", err)
		return err
	}
	d.metrics.IncSaved(string(d.mode))
	return nil
}

// GetOrders returns order summaries, newest first.
func (d *Database) GetOrders(ctx context.Context) ([]Summary, error) {
	return d.store.Orders(ctx)
}

func (d *Database) GetOrderDetails(ctx context.Context, id string) (Order, error) {
	return d.store.OrderDetails(ctx, id)
}

// SaveProduct inserts or replaces the product with the same id.
func (d *Database) SaveProduct(ctx context.Context, product catalog.Product) error {
	return d.store.SaveProduct(ctx, product)
}

func (d *Database) GetProductsByCategory(ctx context.Context, category catalog.Category) ([]catalog.Product, error) {
	return d.store.ProductsByCategory(ctx, category)
}

func (d *Database) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	return d.store.Product(ctx, id)
}
