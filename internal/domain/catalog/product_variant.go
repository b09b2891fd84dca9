package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
)

// Gender represents the gender fit of a variant
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
)

// IsValid checks if the gender is a known Gender
func (g Gender) IsValid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex:
		return true
	}
	return false
}

// ProductVariant is a purchasable unit: a (gender, size) configuration of a
// product with its own stock count.
//
// Invariant: Quantity >= 0 at all times. Stock is only decremented inside a
// committed checkout transaction, and only after a locking re-read.
type ProductVariant struct {
	shared.BaseAggregateRoot
	ProductID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_variant_config,priority:1"`
	Gender    Gender    `gorm:"size:10;not null;uniqueIndex:idx_variant_config,priority:2"`
	Size      string    `gorm:"size:20;not null;uniqueIndex:idx_variant_config,priority:3"`
	Quantity  int       `gorm:"not null;default:0;check:quantity >= 0"`
}

// NewProductVariant creates a new product variant
func NewProductVariant(productID uuid.UUID, gender Gender, size string, quantity int) (*ProductVariant, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !gender.IsValid() {
		return nil, shared.NewDomainError("INVALID_GENDER", "Unknown gender value")
	}
	size = strings.TrimSpace(size)
	if size == "" {
		return nil, shared.NewDomainError("INVALID_SIZE", "Size cannot be empty")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock quantity cannot be negative")
	}

	return &ProductVariant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		Gender:            gender,
		Size:              size,
		Quantity:          quantity,
	}, nil
}

// CanFulfill reports whether the requested quantity is in stock
func (v *ProductVariant) CanFulfill(requested int) bool {
	return requested > 0 && requested <= v.Quantity
}

// Deduct removes the given quantity from stock.
// Returns INSUFFICIENT_STOCK naming the variant when over-subscribed.
func (v *ProductVariant) Deduct(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduct quantity must be positive")
	}
	if quantity > v.Quantity {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock for variant %s: requested %d, available %d", v.ID, quantity, v.Quantity))
	}

	v.Quantity -= quantity
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
	return nil
}

// Restock adds the given quantity back to stock
func (v *ProductVariant) Restock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}

	v.Quantity += quantity
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
	return nil
}
