package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
)

// ProductRepository defines persistence operations for Product aggregates
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// ProductVariantRepository defines persistence operations for product variants.
//
// FindByIDsForUpdate performs a locking read (SELECT ... FOR UPDATE) and is
// only meaningful inside a transaction; it is the correctness boundary for
// concurrent checkouts against the same variant.
type ProductVariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductVariant, error)
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]ProductVariant, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]ProductVariant, error)
	Save(ctx context.Context, variant *ProductVariant) error
	Delete(ctx context.Context, id uuid.UUID) error
}
