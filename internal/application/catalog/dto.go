package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name        string                `json:"name" binding:"required,min=1,max=200"`
	Description string                `json:"description" binding:"max=2000"`
	Price       decimal.Decimal       `json:"price" binding:"required"`
	Variants    []CreateVariantInput  `json:"variants"`
}

// CreateVariantInput represents one variant of a new product
type CreateVariantInput struct {
	Gender   string `json:"gender" binding:"required"`
	Size     string `json:"size" binding:"required,min=1,max=20"`
	Quantity int    `json:"quantity" binding:"min=0"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	Price       decimal.Decimal `json:"price" binding:"required"`
}

// AddVariantRequest represents a request to add a variant to a product
type AddVariantRequest struct {
	Gender   string `json:"gender" binding:"required"`
	Size     string `json:"size" binding:"required,min=1,max=20"`
	Quantity int    `json:"quantity" binding:"min=0"`
}

// RestockVariantRequest represents a request to add stock to a variant
type RestockVariantRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ProductListFilter carries pagination and search options for product listings
type ProductListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
}

// VariantResponse represents a product variant
type VariantResponse struct {
	ID       uuid.UUID `json:"id"`
	Gender   string    `json:"gender"`
	Size     string    `json:"size"`
	Quantity int       `json:"quantity"`
}

// ProductResponse represents a product with its variants
type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	Variants    []VariantResponse `json:"variants"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ToProductResponse converts a product aggregate to its response representation
func ToProductResponse(product *catalog.Product) ProductResponse {
	variants := make([]VariantResponse, 0, len(product.Variants))
	for _, variant := range product.Variants {
		variants = append(variants, VariantResponse{
			ID:       variant.ID,
			Gender:   string(variant.Gender),
			Size:     variant.Size,
			Quantity: variant.Quantity,
		})
	}
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Variants:    variants,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
