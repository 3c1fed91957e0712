package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	"github.com/angelmondragon/streeteats-connect/pkg/pagination"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	Recent(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipient string) (int64, error)
	MarkRead(ctx context.Context, recipient string, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, recipient string, now time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type listNotificationsParams struct {
	Recipient  string
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

// notificationMarkResult separates "already read" (Found, !Updated) from
// "not this recipient's" (!Found).
type notificationMarkResult struct {
	Updated bool
	Found   bool
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) inbox(ctx context.Context, recipient string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Scopes(forRecipient(recipient))
}

func forRecipient(recipient string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB { return q.Where("recipient = ?", recipient) }
}

func unread(q *gorm.DB) *gorm.DB { return q.Where("read_at IS NULL") }

func newestFirst(q *gorm.DB) *gorm.DB { return q.Order("created_at DESC, id DESC") }

// after continues a newest-first listing at the cursor row, inclusive.
func after(c *pagination.Cursor) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if c == nil {
			return q
		}
		return q.Where("created_at < ? OR (created_at = ? AND id <= ?)", c.CreatedAt, c.CreatedAt, c.ID)
	}
}

func (r *gormRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *gormRepository) List(ctx context.Context, p listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	q := r.inbox(ctx, p.Recipient).Scopes(after(p.Cursor), newestFirst)
	if p.UnreadOnly {
		q = q.Scopes(unread)
	}

	var rows []models.Notification
	if err := q.Limit(pagination.LimitWithBuffer(p.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Split(rows, p.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return page, next, nil
}

func (r *gormRepository) Recent(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.inbox(ctx, recipient).Scopes(newestFirst).Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *gormRepository) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	var n int64
	err := r.inbox(ctx, recipient).Scopes(unread).Count(&n).Error
	return n, err
}

func (r *gormRepository) MarkRead(ctx context.Context, recipient string, id uuid.UUID, now time.Time) (notificationMarkResult, error) {
	res := r.inbox(ctx, recipient).Scopes(unread).Where("id = ?", id).UpdateColumn("read_at", now)
	if res.Error != nil {
		return notificationMarkResult{}, res.Error
	}
	if res.RowsAffected > 0 {
		return notificationMarkResult{Updated: true, Found: true}, nil
	}

	var n int64
	if err := r.inbox(ctx, recipient).Where("id = ?", id).Count(&n).Error; err != nil {
		return notificationMarkResult{}, err
	}
	return notificationMarkResult{Found: n > 0}, nil
}

func (r *gormRepository) MarkAllRead(ctx context.Context, recipient string, now time.Time) (int64, error) {
	res := r.inbox(ctx, recipient).Scopes(unread).UpdateColumn("read_at", now)
	return res.RowsAffected, res.Error
}

func (r *gormRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
