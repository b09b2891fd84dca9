package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductVariantRepository implements ProductVariantRepository using GORM
type GormProductVariantRepository struct {
	db *gorm.DB
}

var _ catalog.ProductVariantRepository = (*GormProductVariantRepository)(nil)

// NewGormProductVariantRepository creates a new GormProductVariantRepository
func NewGormProductVariantRepository(db *gorm.DB) *GormProductVariantRepository {
	return &GormProductVariantRepository{db: db}
}

// FindByID finds a variant by its ID
func (r *GormProductVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	var variant catalog.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// FindByIDs finds all variants with the given IDs without locking
func (r *GormProductVariantRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.ProductVariant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var variants []catalog.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// FindByIDsForUpdate loads the variants with SELECT ... FOR UPDATE. It must
// run inside a transaction; the row locks hold until that transaction
// commits, serializing concurrent stock deductions on the same variants.
func (r *GormProductVariantRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]catalog.ProductVariant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var variants []catalog.ProductVariant
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// FindByProduct finds all variants of a product
func (r *GormProductVariantRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.ProductVariant, error) {
	var variants []catalog.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("gender ASC, size ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// Save creates or updates a variant
func (r *GormProductVariantRepository) Save(ctx context.Context, variant *catalog.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

// Delete removes a variant
func (r *GormProductVariantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.ProductVariant{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
