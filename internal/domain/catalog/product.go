package catalog

import (
	"strings"
	"time"

	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Product represents a sellable product line.
// Purchasable units are its variants; the product carries the price.
type Product struct {
	shared.BaseAggregateRoot
	Name        string          `gorm:"size:200;not null;index"`
	Description string          `gorm:"size:2000"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ImageKeys   string          `gorm:"size:2000"` // comma-separated object keys, resolved by the storage collaborator
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// NewProduct creates a new product
func NewProduct(name, description string, price decimal.Decimal) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot exceed 200 characters")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       strings.TrimSpace(description),
		Price:             price,
		Variants:          make([]ProductVariant, 0),
	}, nil
}

// PriceMoney returns the product price as a Money value object
func (p *Product) PriceMoney() valueobject.Money {
	return valueobject.NewMoneyPHP(p.Price)
}

// Update changes the product's descriptive fields and price
func (p *Product) Update(name, description string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.Price = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// AddVariant adds a new purchasable variant to the product.
// The (gender, size) pair must be unique within the product.
func (p *Product) AddVariant(gender Gender, size string, quantity int) (*ProductVariant, error) {
	for _, v := range p.Variants {
		if v.Gender == gender && v.Size == size {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Variant with this gender and size already exists")
		}
	}

	variant, err := NewProductVariant(p.ID, gender, size, quantity)
	if err != nil {
		return nil, err
	}

	p.Variants = append(p.Variants, *variant)
	p.UpdatedAt = time.Now()
	return variant, nil
}
