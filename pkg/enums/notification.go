package enums

import "fmt"

// NotificationType maps to the notification_type column.
type NotificationType string

const (
	NotificationTypeOrderPlaced    NotificationType = "order_placed"
	NotificationTypeOrderConfirmed NotificationType = "order_confirmed"
	NotificationTypeOrderShipped   NotificationType = "order_shipped"
	NotificationTypeOrderDelivered NotificationType = "order_delivered"
	NotificationTypeOrderCancelled NotificationType = "order_cancelled"
	NotificationTypeSystem         NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderConfirmed,
	NotificationTypeOrderShipped,
	NotificationTypeOrderDelivered,
	NotificationTypeOrderCancelled,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationPriority orders how loudly a notification is surfaced.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

// ParseNotificationPriority defaults an empty value to medium.
func ParseNotificationPriority(value string) (NotificationPriority, error) {
	switch NotificationPriority(value) {
	case "":
		return NotificationPriorityMedium, nil
	case NotificationPriorityLow, NotificationPriorityMedium, NotificationPriorityHigh, NotificationPriorityUrgent:
		return NotificationPriority(value), nil
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}
