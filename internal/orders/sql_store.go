package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqlStore struct {
	db  *gorm.DB
	now func() time.Time
}

func newSQLStore(ctx context.Context, conn *gorm.DB, now func() time.Time) (*sqlStore, error) {
	if conn == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	if err := conn.WithContext(ctx).AutoMigrate(localModels()...); err != nil {
		return nil, fmt.Errorf("migrate local schema: %w", err)
	}
	return &sqlStore{db: conn, now: now}, nil
}

func (s *sqlStore) SaveOrder(ctx context.Context, order Order) error {
	row := toOrderRow(order)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := row.Items
		row.Items = nil
		if err := tx.Create(&row).Error; err != nil {
			return pkgerrors.FromStore(err, "insert order", "")
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

func (s *sqlStore) Orders(ctx context.Context) ([]Summary, error) {
	var rows []orderRow
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Summarize(row.toOrder()))
	}
	return out, nil
}

func (s *sqlStore) OrderDetails(ctx context.Context, id string) (Order, error) {
	var row orderRow
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return Order{}, pkgerrors.FromStore(err, "load order", "Order not found")
	}
	return row.toOrder(), nil
}

func (s *sqlStore) SaveProduct(ctx context.Context, product catalog.Product) error {
	row := toProductRow(product, s.now())
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

func (s *sqlStore) ProductsByCategory(ctx context.Context, category catalog.Category) ([]catalog.Product, error) {
	var rows []productRow
	err := s.db.WithContext(ctx).
		Where("category = ?", string(category)).
		Order("rating DESC").
		Order("price ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]catalog.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toProduct())
	}
	return out, nil
}

func (s *sqlStore) Product(ctx context.Context, id string) (catalog.Product, error) {
	var row productRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return catalog.Product{}, pkgerrors.FromStore(err, "load product", "Product not found")
	}
	return row.toProduct(), nil
}
