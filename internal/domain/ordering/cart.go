package ordering

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
)

// CartItem is a (cart, variant, quantity) line. Unique per (cart, variant).
type CartItem struct {
	shared.BaseEntity
	CartID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_cart_variant,priority:1"`
	VariantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_variant,priority:2"`
	Quantity  int       `gorm:"not null;check:quantity > 0"`
}

// Cart holds a customer's pending selections. At most one per account,
// created lazily on the first add-to-cart.
type Cart struct {
	shared.BaseAggregateRoot
	AccountID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// NewCart creates an empty cart for the given account
func NewCart(accountID uuid.UUID) (*Cart, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountID:         accountID,
		Items:             make([]CartItem, 0),
	}, nil
}

// AddItem adds the variant to the cart, merging quantity when the variant
// is already present. The stock check against availableQuantity is advisory:
// it prevents obviously impossible selections but is re-verified inside the
// checkout transaction against the latest stock.
func (c *Cart) AddItem(variantID uuid.UUID, quantity, availableQuantity int) (*CartItem, error) {
	if variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	for idx := range c.Items {
		if c.Items[idx].VariantID == variantID {
			merged := c.Items[idx].Quantity + quantity
			if merged > availableQuantity {
				return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
					fmt.Sprintf("Adding %d would exceed available stock; at most %d more can be added",
						quantity, availableQuantity-c.Items[idx].Quantity))
			}
			c.Items[idx].Quantity = merged
			c.Items[idx].UpdatedAt = time.Now()
			c.UpdatedAt = time.Now()
			return &c.Items[idx], nil
		}
	}

	if quantity > availableQuantity {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Only %d unit(s) available for this product variant", availableQuantity))
	}

	item := CartItem{
		BaseEntity: shared.NewBaseEntity(),
		CartID:     c.ID,
		VariantID:  variantID,
		Quantity:   quantity,
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = time.Now()
	return &c.Items[len(c.Items)-1], nil
}

// RemoveItem removes a cart item by its ID
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	for idx, item := range c.Items {
		if item.ID == itemID {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Cart item not found")
}

// ItemByID returns the cart item with the given ID, if present
func (c *Cart) ItemByID(itemID uuid.UUID) (*CartItem, bool) {
	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			return &c.Items[idx], true
		}
	}
	return nil, false
}

// IsEmpty reports whether the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
