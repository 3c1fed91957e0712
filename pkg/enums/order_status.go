package enums

import "fmt"

// OrderStatus tracks an order from checkout to delivery.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// NotificationType returns the notification emitted when an order enters this status.
func (o OrderStatus) NotificationType() (NotificationType, bool) {
	switch o {
	case OrderStatusPending:
		return NotificationTypeOrderPlaced, true
	case OrderStatusConfirmed:
		return NotificationTypeOrderConfirmed, true
	case OrderStatusShipped:
		return NotificationTypeOrderShipped, true
	case OrderStatusDelivered:
		return NotificationTypeOrderDelivered, true
	case OrderStatusCancelled:
		return NotificationTypeOrderCancelled, true
	}
	return "", false
}
