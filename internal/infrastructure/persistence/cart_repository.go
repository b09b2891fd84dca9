package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCartRepository implements CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

var _ ordering.CartRepository = (*GormCartRepository)(nil)

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByAccount finds the cart belonging to an account with its items
func (r *GormCartRepository) FindByAccount(ctx context.Context, accountID uuid.UUID) (*ordering.Cart, error) {
	var cart ordering.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cart, "account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// FindSelectedItems loads the requested cart items, requiring every one of
// them to belong to the account's cart. A missing or foreign item fails the
// whole selection rather than silently shrinking it.
func (r *GormCartRepository) FindSelectedItems(ctx context.Context, accountID uuid.UUID, itemIDs []uuid.UUID) ([]ordering.CartItem, error) {
	if len(itemIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No cart items selected")
	}

	var cart ordering.Cart
	if err := r.db.WithContext(ctx).
		First(&cart, "account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	uniqueIDs := make([]uuid.UUID, 0, len(itemIDs))
	seen := make(map[uuid.UUID]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniqueIDs = append(uniqueIDs, id)
	}

	var items []ordering.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cart.ID, uniqueIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}

	if len(items) != len(uniqueIDs) {
		return nil, shared.ErrNotFound
	}
	return items, nil
}

// Save creates or updates a cart together with its items
func (r *GormCartRepository) Save(ctx context.Context, cart *ordering.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(cart).Error; err != nil {
			return err
		}

		if cart.ID != uuid.Nil {
			currentItemIDs := make([]uuid.UUID, len(cart.Items))
			for i, item := range cart.Items {
				currentItemIDs[i] = item.ID
			}

			// Delete items removed from the aggregate
			if len(currentItemIDs) > 0 {
				if err := tx.Where("cart_id = ? AND id NOT IN ?", cart.ID, currentItemIDs).
					Delete(&ordering.CartItem{}).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Where("cart_id = ?", cart.ID).
					Delete(&ordering.CartItem{}).Error; err != nil {
					return err
				}
			}

			for i := range cart.Items {
				cart.Items[i].CartID = cart.ID
				if err := tx.Save(&cart.Items[i]).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// DeleteItem removes a single cart item
func (r *GormCartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ordering.CartItem{}, "id = ?", itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteItems removes the given cart items. Used by checkout to consume the
// purchased selection; items already gone are not an error.
func (r *GormCartRepository) DeleteItems(ctx context.Context, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Delete(&ordering.CartItem{}, "id IN ?", itemIDs).Error
}
