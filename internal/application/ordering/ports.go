package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderConfirmationItem is one line of an order confirmation message.
type OrderConfirmationItem struct {
	ProductName string
	Size        string
	Quantity    int
	UnitPrice   string
}

// OrderConfirmation carries everything a confirmation message needs. It is
// assembled from the committed order so the dispatcher never touches the
// database.
type OrderConfirmation struct {
	OrderID        uuid.UUID
	RecipientEmail string
	RecipientName  string
	Items          []OrderConfirmationItem
	ItemQuantity   int
	DeliveryFee    string
	TotalAmount    string
	PlacedAt       time.Time
}

// NotificationDispatcher delivers customer-facing notifications. Delivery is
// best-effort: callers must not let a dispatch failure affect the outcome of
// the operation that triggered it.
type NotificationDispatcher interface {
	SendOrderConfirmation(ctx context.Context, confirmation OrderConfirmation) error
}

// ActivityEntry is a single audit record of a state-changing action.
type ActivityEntry struct {
	Timestamp time.Time
	Username  string
	Role      string
	Action    string
	Detail    string
}

// ActivityLogger records audit entries on a side channel. Implementations
// must never block or fail the calling operation.
type ActivityLogger interface {
	Record(entry ActivityEntry)
}

// NoOpNotificationDispatcher discards all notifications.
type NoOpNotificationDispatcher struct{}

func (NoOpNotificationDispatcher) SendOrderConfirmation(context.Context, OrderConfirmation) error {
	return nil
}

// NoOpActivityLogger discards all entries.
type NoOpActivityLogger struct{}

func (NoOpActivityLogger) Record(ActivityEntry) {}

var _ NotificationDispatcher = NoOpNotificationDispatcher{}
var _ ActivityLogger = NoOpActivityLogger{}
