package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	"github.com/angelmondragon/streeteats-connect/pkg/enums"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PopupLimit is how many notifications the popup shows.
const PopupLimit = 5

// Service defines notification inbox operations.
type Service interface {
	Create(ctx context.Context, in CreateInput) (*models.Notification, error)
	NotifyOrderPlaced(ctx context.Context, tx *gorm.DB, recipient string, orderID uuid.UUID, total decimal.Decimal) error
	Recent(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipient string) (int64, error)
	Popup(ctx context.Context, recipient string) (*PopupData, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipient string, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// CreateInput describes a notification. Blank title or message fall back
// to the defaults for the type.
type CreateInput struct {
	Recipient string
	Type      enums.NotificationType
	Priority  enums.NotificationPriority
	Title     string
	Message   string
	ActionURL string
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Recipient  string
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items       []models.Notification `json:"items"`
	Cursor      string                `json:"cursor"`
	UnreadCount int64                 `json:"unread_count"`
}

// PopupData feeds the popup fragment.
type PopupData struct {
	Notifications []models.Notification
	UnreadCount   int64
}

var defaultContent = map[enums.NotificationType][2]string{
	enums.NotificationTypeOrderPlaced:    {"New Order Placed", "Your order has been placed successfully."},
	enums.NotificationTypeOrderConfirmed: {"Order Confirmed", "Your order has been confirmed."},
	enums.NotificationTypeOrderShipped:   {"Order Shipped", "Your order has been shipped."},
	enums.NotificationTypeOrderDelivered: {"Order Delivered", "Your order has been delivered."},
	enums.NotificationTypeOrderCancelled: {"Order Cancelled", "Your order has been cancelled."},
	enums.NotificationTypeSystem:         {"System Announcement", "New system announcement."},
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*models.Notification, error) {
	return s.create(ctx, s.repo, in)
}

func (s *service) create(ctx context.Context, repo Repository, in CreateInput) (*models.Notification, error) {
	recipient := strings.TrimSpace(in.Recipient)
	if recipient == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient required")
	}
	if !in.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid notification type %q", in.Type)
	}
	priority, err := enums.ParseNotificationPriority(string(in.Priority))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
	}

	defaults, ok := defaultContent[in.Type]
	if !ok {
		defaults = [2]string{"Notification", "You have a new notification."}
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaults[0]
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		message = defaults[1]
	}

	n := &models.Notification{
		Recipient: recipient,
		Type:      in.Type,
		Priority:  priority,
		Title:     title,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if url := strings.TrimSpace(in.ActionURL); url != "" {
		n.ActionURL = &url
	}
	if err := repo.Create(ctx, n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return n, nil
}

// NotifyOrderPlaced records the order_placed notification, inside tx when
// one is given.
func (s *service) NotifyOrderPlaced(ctx context.Context, tx *gorm.DB, recipient string, orderID uuid.UUID, total decimal.Decimal) error {
	_, err := s.create(ctx, s.repo.WithTx(tx), CreateInput{
		Recipient: recipient,
		Type:      enums.NotificationTypeOrderPlaced,
		Priority:  enums.NotificationPriorityMedium,
		Message:   fmt.Sprintf("Your order %s for ₹%s has been placed successfully.", shortID(orderID), total.StringFixed(2)),
	})
	return err
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

func (s *service) Recent(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	if strings.TrimSpace(recipient) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient required")
	}
	rows, err := s.repo.Recent(ctx, recipient, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recent notifications")
	}
	return rows, nil
}

func (s *service) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	if strings.TrimSpace(recipient) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient required")
	}
	count, err := s.repo.UnreadCount(ctx, recipient)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) Popup(ctx context.Context, recipient string) (*PopupData, error) {
	rows, err := s.Recent(ctx, recipient, PopupLimit)
	if err != nil {
		return nil, err
	}
	unread, err := s.UnreadCount(ctx, recipient)
	if err != nil {
		return nil, err
	}
	return &PopupData{Notifications: rows, UnreadCount: unread}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if strings.TrimSpace(params.Recipient) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient required")
	}

	query := listNotificationsParams{
		Recipient:  params.Recipient,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.UnreadCount(ctx, params.Recipient)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:       rows,
		Cursor:      cursor,
		UnreadCount: unread,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, recipient string, notificationID uuid.UUID) error {
	if strings.TrimSpace(recipient) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipient, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	if strings.TrimSpace(recipient) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipient, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete old notifications")
	}
	return deleted, nil
}
