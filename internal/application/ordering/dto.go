package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shopspring/decimal"
)

// Actor identifies the authenticated account performing an operation.
type Actor struct {
	AccountID uuid.UUID
	Username  string
	Role      identity.Role
}

// IsStaff reports whether the actor may perform fulfillment operations.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// ==================== Cart DTOs ====================

// AddCartItemRequest represents a request to add a variant to the cart
type AddCartItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CartItemResponse represents a cart item with its resolved product data
type CartItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	VariantID         uuid.UUID       `json:"variant_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Gender            string          `json:"gender"`
	Size              string          `json:"size"`
	Quantity          int             `json:"quantity"`
	AvailableQuantity int             `json:"available_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineAmount        decimal.Decimal `json:"line_amount"`
}

// CartResponse represents the full cart of an account
type CartResponse struct {
	ID        uuid.UUID          `json:"id"`
	AccountID uuid.UUID          `json:"account_id"`
	Items     []CartItemResponse `json:"items"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ==================== Checkout DTOs ====================

// ResolveSelectionRequest identifies the cart items to price for checkout
type ResolveSelectionRequest struct {
	CartItemIDs []uuid.UUID `json:"cart_item_ids" binding:"required,min=1"`
}

// SnapshotLineResponse is one priced line of a checkout preview
type SnapshotLineResponse struct {
	CartItemID        uuid.UUID       `json:"cart_item_id"`
	VariantID         uuid.UUID       `json:"variant_id"`
	ProductName       string          `json:"product_name"`
	Size              string          `json:"size"`
	Quantity          int             `json:"quantity"`
	AvailableQuantity int             `json:"available_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineAmount        decimal.Decimal `json:"line_amount"`
}

// SnapshotResponse is the priced checkout preview for a selection
type SnapshotResponse struct {
	Lines         []SnapshotLineResponse `json:"lines"`
	TotalQuantity int                    `json:"total_quantity"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	DeliveryFee   decimal.Decimal        `json:"delivery_fee"`
	GrandTotal    decimal.Decimal        `json:"grand_total"`
}

// CheckoutRequest represents a request to place an order from selected cart items
type CheckoutRequest struct {
	CartItemIDs []uuid.UUID `json:"cart_item_ids" binding:"required,min=1"`
	Note        string      `json:"note" binding:"max=500"`
}

// ==================== Order DTOs ====================

// ShipOrderRequest represents a request to mark an order shipped
type ShipOrderRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,min=1,max=100"`
	Carrier        string `json:"carrier" binding:"required,min=1,max=100"`
}

// CancelOrderRequest represents a request to cancel a pending order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// OrderListFilter carries pagination and filtering options for order listings
type OrderListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
}

// OrderItemResponse represents an immutable order line
type OrderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	VariantID       uuid.UUID       `json:"variant_id"`
	ProductName     string          `json:"product_name"`
	Size            string          `json:"size"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Amount          decimal.Decimal `json:"amount"`
}

// OrderResponse represents a full order
type OrderResponse struct {
	ID             uuid.UUID           `json:"id"`
	AccountID      uuid.UUID           `json:"account_id"`
	Status         string              `json:"status"`
	Items          []OrderItemResponse `json:"items"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	DeliveryFee    decimal.Decimal     `json:"delivery_fee"`
	Note           string              `json:"note,omitempty"`
	TrackingNumber string              `json:"tracking_number,omitempty"`
	Carrier        string              `json:"carrier,omitempty"`
	PreparedBy     *uuid.UUID          `json:"prepared_by,omitempty"`
	PreparedAt     *time.Time          `json:"prepared_at,omitempty"`
	ShippedAt      *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason   string              `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ToOrderResponse converts an order aggregate to its response representation
func ToOrderResponse(order *ordering.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:              item.ID,
			VariantID:       item.VariantID,
			ProductName:     item.ProductName,
			Size:            item.Size,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			Amount:          item.Amount(),
		})
	}
	return OrderResponse{
		ID:             order.ID,
		AccountID:      order.AccountID,
		Status:         order.Status.String(),
		Items:          items,
		TotalAmount:    order.TotalAmount,
		DeliveryFee:    order.DeliveryFee,
		Note:           order.Note,
		TrackingNumber: order.TrackingNumber,
		Carrier:        order.Carrier,
		PreparedBy:     order.PreparedBy,
		PreparedAt:     order.PreparedAt,
		ShippedAt:      order.ShippedAt,
		DeliveredAt:    order.DeliveredAt,
		CancelledAt:    order.CancelledAt,
		CancelReason:   order.CancelReason,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}

// ToSnapshotResponse converts a cart snapshot to its response representation
func ToSnapshotResponse(snapshot *ordering.CartSnapshot) SnapshotResponse {
	lines := make([]SnapshotLineResponse, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		lines = append(lines, SnapshotLineResponse{
			CartItemID:        line.CartItemID,
			VariantID:         line.VariantID,
			ProductName:       line.ProductName,
			Size:              line.Size,
			Quantity:          line.RequestedQuantity,
			AvailableQuantity: line.AvailableQuantity,
			UnitPrice:         line.UnitPrice.Amount(),
			LineAmount:        line.LineAmount().Amount(),
		})
	}
	return SnapshotResponse{
		Lines:         lines,
		TotalQuantity: snapshot.TotalQuantity,
		Subtotal:      snapshot.Subtotal.Amount(),
		DeliveryFee:   snapshot.DeliveryFee.Amount(),
		GrandTotal:    snapshot.GrandTotal.Amount(),
	}
}
