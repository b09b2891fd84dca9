package ordering

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Delivery fee schedule: a flat base fee plus a per-unit surcharge for every
// unit beyond the first. The fee is part of the persisted order total.
var (
	DeliveryBaseFee         = decimal.NewFromInt(100)
	DeliveryPerExtraUnitFee = decimal.NewFromInt(20)
)

// SnapshotLine is one priced, stock-checked cart line at resolution time.
// UnitPrice is captured here and carried into the order unchanged.
type SnapshotLine struct {
	CartItemID        uuid.UUID
	VariantID         uuid.UUID
	ProductName       string
	Size              string
	RequestedQuantity int
	AvailableQuantity int
	UnitPrice         valueobject.Money
}

// LineAmount returns UnitPrice x RequestedQuantity
func (l SnapshotLine) LineAmount() valueobject.Money {
	return l.UnitPrice.MultiplyByInt(int64(l.RequestedQuantity))
}

// CartSnapshot is the priced materialization of selected cart lines
// immediately prior to checkout. It is valid only for the account it was
// resolved for and only until stock changes; the checkout transaction
// re-verifies every line.
type CartSnapshot struct {
	AccountID     uuid.UUID
	Lines         []SnapshotLine
	TotalQuantity int
	Subtotal      valueobject.Money
	DeliveryFee   valueobject.Money
	GrandTotal    valueobject.Money
}

// NewCartSnapshot validates and prices the resolved lines.
// Every line must be fulfillable from its captured available quantity;
// otherwise the whole snapshot fails with INSUFFICIENT_STOCK naming the
// offending variant.
func NewCartSnapshot(accountID uuid.UUID, lines []SnapshotLine) (*CartSnapshot, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No cart items selected for order")
	}

	totalQuantity := 0
	subtotal := valueobject.ZeroPHP()
	for _, line := range lines {
		if line.RequestedQuantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
		}
		if line.RequestedQuantity > line.AvailableQuantity {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Insufficient stock for variant %s: requested %d, available %d",
					line.VariantID, line.RequestedQuantity, line.AvailableQuantity))
		}
		totalQuantity += line.RequestedQuantity
		subtotal = subtotal.MustAdd(line.LineAmount())
	}

	fee := DeliveryFeeFor(totalQuantity)
	return &CartSnapshot{
		AccountID:     accountID,
		Lines:         lines,
		TotalQuantity: totalQuantity,
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		GrandTotal:    subtotal.MustAdd(fee),
	}, nil
}

// DeliveryFeeFor computes the delivery fee for the given total unit count
func DeliveryFeeFor(totalQuantity int) valueobject.Money {
	if totalQuantity <= 0 {
		return valueobject.ZeroPHP()
	}
	extra := DeliveryPerExtraUnitFee.Mul(decimal.NewFromInt(int64(totalQuantity - 1)))
	return valueobject.NewMoneyPHP(DeliveryBaseFee.Add(extra))
}

// CartItemIDs returns the IDs of the cart items consumed by this snapshot
func (s *CartSnapshot) CartItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.Lines))
	for i, line := range s.Lines {
		ids[i] = line.CartItemID
	}
	return ids
}

// VariantIDs returns the distinct variant IDs referenced by this snapshot
func (s *CartSnapshot) VariantIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(s.Lines))
	ids := make([]uuid.UUID, 0, len(s.Lines))
	for _, line := range s.Lines {
		if _, ok := seen[line.VariantID]; ok {
			continue
		}
		seen[line.VariantID] = struct{}{}
		ids = append(ids, line.VariantID)
	}
	return ids
}
