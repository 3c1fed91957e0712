package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streeteats-connect/pkg/enums"
)

// Notification stores in-app notifications addressed to a storefront session.
type Notification struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	Recipient string                     `gorm:"column:recipient;not null;index"`
	Type      enums.NotificationType     `gorm:"column:type;type:varchar(40);not null"`
	Priority  enums.NotificationPriority `gorm:"column:priority;type:varchar(10);not null;default:'medium'"`
	Title     string                     `gorm:"column:title;not null"`
	Message   string                     `gorm:"column:message;not null"`
	ActionURL *string                    `gorm:"column:action_url"`
	ReadAt    *time.Time                 `gorm:"column:read_at"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// IsRead reports whether the recipient has opened the notification.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

// All lists every server model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Supplier{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Notification{},
	}
}
