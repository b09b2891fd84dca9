package ordering

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AutoDeliverAfter is how long a shipped order waits before the sweep marks
// it delivered.
const AutoDeliverAfter = 10 * 24 * time.Hour

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPreparing || target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusPreparing:
		return target == OrderStatusShipped
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// OrderItem is an immutable snapshot of a purchased line. PriceAtPurchase is
// the unit price captured at resolution time and is never recomputed from the
// product table.
type OrderItem struct {
	shared.BaseEntity
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID       uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName     string          `gorm:"size:200;not null"`
	Size            string          `gorm:"size:20"`
	Quantity        int             `gorm:"not null;check:quantity > 0"`
	PriceAtPurchase decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

// Amount returns PriceAtPurchase x Quantity
func (i OrderItem) Amount() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the aggregate root for a customer order. It is created Pending by
// the checkout transaction and afterwards mutated only through the defined
// state transitions.
type Order struct {
	shared.BaseAggregateRoot
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryFee    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status         OrderStatus     `gorm:"size:20;not null;index"`
	Note           string          `gorm:"size:500"`
	TrackingNumber string          `gorm:"size:100;index"`
	Carrier        string          `gorm:"size:100"`
	PreparedBy     *uuid.UUID      `gorm:"type:uuid"`
	PreparedAt     *time.Time
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	CancelReason   string `gorm:"size:500"`
}

// NewOrderFromSnapshot creates a Pending order from a resolved cart snapshot.
// The persisted total includes the delivery fee; the fee is also stored
// separately for reporting and the confirmation message.
func NewOrderFromSnapshot(snapshot *CartSnapshot, note string) (*Order, error) {
	if snapshot == nil || len(snapshot.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cannot create an order from an empty snapshot")
	}
	if len(note) > 500 {
		return nil, shared.NewDomainError("INVALID_NOTE", "Note cannot exceed 500 characters")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountID:         snapshot.AccountID,
		TotalAmount:       snapshot.GrandTotal.Amount(),
		DeliveryFee:       snapshot.DeliveryFee.Amount(),
		Status:            OrderStatusPending,
		Note:              strings.TrimSpace(note),
	}

	order.Items = make([]OrderItem, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		order.Items = append(order.Items, OrderItem{
			BaseEntity:      shared.NewBaseEntity(),
			OrderID:         order.ID,
			VariantID:       line.VariantID,
			ProductName:     line.ProductName,
			Size:            line.Size,
			Quantity:        line.RequestedQuantity,
			PriceAtPurchase: line.UnitPrice.Amount(),
		})
	}

	return order, nil
}

// TotalMoney returns the persisted total as a Money value object
func (o *Order) TotalMoney() valueobject.Money {
	return valueobject.NewMoneyPHP(o.TotalAmount)
}

// ItemQuantity returns the summed quantity across all items
func (o *Order) ItemQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// Prepare moves the order from Pending to Preparing, recording who prepared it
func (o *Order) Prepare(staffID uuid.UUID) error {
	if !o.Status.CanTransitionTo(OrderStatusPreparing) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot prepare order in %s status", o.Status))
	}
	if staffID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACCOUNT", "Preparing staff ID cannot be empty")
	}

	now := time.Now()
	o.Status = OrderStatusPreparing
	o.PreparedBy = &staffID
	o.PreparedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// Ship moves the order to Shipped, attaching the tracking information.
// The (tracking number, carrier) uniqueness across orders is enforced by the
// repository; the aggregate only validates presence and state.
func (o *Order) Ship(trackingNumber, carrier string) error {
	trackingNumber = strings.TrimSpace(trackingNumber)
	carrier = strings.TrimSpace(carrier)
	if trackingNumber == "" || carrier == "" {
		return shared.NewDomainError("INVALID_INPUT", "Tracking number and carrier are required")
	}
	if !o.Status.CanTransitionTo(OrderStatusShipped) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot ship order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = OrderStatusShipped
	o.TrackingNumber = trackingNumber
	o.Carrier = carrier
	o.ShippedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// Deliver moves the order from Shipped to Delivered. Used by both the manual
// staff action and the overdue-shipment sweep; whichever runs first wins and
// the other fails the state guard.
func (o *Order) Deliver() error {
	if !o.Status.CanTransitionTo(OrderStatusDelivered) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot deliver order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// Cancel soft-cancels the order. Only legal while the order is still Pending;
// a second cancellation fails the state guard and the original reason stays.
func (o *Order) Cancel(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Cancel reason is required")
	}
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// OverdueForDelivery reports whether the shipped order has passed the
// auto-delivery deadline at the given time
func (o *Order) OverdueForDelivery(now time.Time) bool {
	return o.Status == OrderStatusShipped &&
		o.ShippedAt != nil &&
		!now.Before(o.ShippedAt.Add(AutoDeliverAfter))
}
