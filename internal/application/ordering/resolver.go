package ordering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/domain/shared/valueobject"
)

// resolveLines joins cart items against the given variants and their products,
// producing priced snapshot lines. Variants must already be loaded (with or
// without row locks, depending on the caller); products are fetched once per
// distinct product ID. A cart item pointing at a variant that no longer exists
// fails the whole resolution with NOT_FOUND.
func resolveLines(
	ctx context.Context,
	items []ordering.CartItem,
	variants []catalog.ProductVariant,
	productRepo catalog.ProductRepository,
) ([]ordering.SnapshotLine, error) {
	variantByID := make(map[uuid.UUID]*catalog.ProductVariant, len(variants))
	for idx := range variants {
		variantByID[variants[idx].ID] = &variants[idx]
	}

	products := make(map[uuid.UUID]*catalog.Product)
	lines := make([]ordering.SnapshotLine, 0, len(items))
	for _, item := range items {
		variant, ok := variantByID[item.VariantID]
		if !ok {
			return nil, shared.NewDomainError("NOT_FOUND",
				fmt.Sprintf("Product variant %s is no longer available", item.VariantID))
		}

		product, ok := products[variant.ProductID]
		if !ok {
			var err error
			product, err = productRepo.FindByID(ctx, variant.ProductID)
			if err != nil {
				return nil, err
			}
			products[variant.ProductID] = product
		}

		lines = append(lines, ordering.SnapshotLine{
			CartItemID:        item.ID,
			VariantID:         variant.ID,
			ProductName:       product.Name,
			Size:              variant.Size,
			RequestedQuantity: item.Quantity,
			AvailableQuantity: variant.Quantity,
			UnitPrice:         valueobject.NewMoneyPHP(product.Price),
		})
	}
	return lines, nil
}

// variantIDsOf collects the distinct variant IDs referenced by the cart items.
func variantIDsOf(items []ordering.CartItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.VariantID]; ok {
			continue
		}
		seen[item.VariantID] = struct{}{}
		ids = append(ids, item.VariantID)
	}
	return ids
}
