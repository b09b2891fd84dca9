package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
)

// CartService handles cart management and checkout previews
type CartService struct {
	cartRepo    ordering.CartRepository
	variantRepo catalog.ProductVariantRepository
	productRepo catalog.ProductRepository
	activity    ActivityLogger
}

// NewCartService creates a new CartService
func NewCartService(
	cartRepo ordering.CartRepository,
	variantRepo catalog.ProductVariantRepository,
	productRepo catalog.ProductRepository,
	activity ActivityLogger,
) *CartService {
	if activity == nil {
		activity = NoOpActivityLogger{}
	}
	return &CartService{
		cartRepo:    cartRepo,
		variantRepo: variantRepo,
		productRepo: productRepo,
		activity:    activity,
	}
}

// AddItem adds a product variant to the actor's cart, creating the cart on
// first use. Quantities for an already-carted variant are merged.
func (s *CartService) AddItem(ctx context.Context, actor Actor, req AddCartItemRequest) (*CartResponse, error) {
	variant, err := s.variantRepo.FindByID(ctx, req.VariantID)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.FindByAccount(ctx, actor.AccountID)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		cart, err = ordering.NewCart(actor.AccountID)
		if err != nil {
			return nil, err
		}
	}

	if _, err := cart.AddItem(variant.ID, req.Quantity, variant.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}

	s.activity.Record(ActivityEntry{
		Timestamp: time.Now(),
		Username:  actor.Username,
		Role:      actor.Role.String(),
		Action:    "cart.add_item",
		Detail:    fmt.Sprintf("variant=%s quantity=%d", variant.ID, req.Quantity),
	})

	return s.toCartResponse(ctx, cart)
}

// ViewCart returns the actor's cart with resolved product data. An account
// that never added anything gets an empty cart rather than an error.
func (s *CartService) ViewCart(ctx context.Context, actor Actor) (*CartResponse, error) {
	cart, err := s.cartRepo.FindByAccount(ctx, actor.AccountID)
	if err != nil {
		if isNotFound(err) {
			empty, err := ordering.NewCart(actor.AccountID)
			if err != nil {
				return nil, err
			}
			return s.toCartResponse(ctx, empty)
		}
		return nil, err
	}
	return s.toCartResponse(ctx, cart)
}

// RemoveItem removes a cart item owned by the actor
func (s *CartService) RemoveItem(ctx context.Context, actor Actor, itemID uuid.UUID) error {
	cart, err := s.cartRepo.FindByAccount(ctx, actor.AccountID)
	if err != nil {
		return err
	}
	if err := cart.RemoveItem(itemID); err != nil {
		return err
	}
	if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
		return err
	}

	s.activity.Record(ActivityEntry{
		Timestamp: time.Now(),
		Username:  actor.Username,
		Role:      actor.Role.String(),
		Action:    "cart.remove_item",
		Detail:    fmt.Sprintf("item=%s", itemID),
	})
	return nil
}

// ResolveSelection prices the selected cart items as a checkout preview. The
// returned snapshot is advisory: stock and prices are re-read under row locks
// when the order is actually placed.
func (s *CartService) ResolveSelection(ctx context.Context, actor Actor, req ResolveSelectionRequest) (*SnapshotResponse, error) {
	items, err := s.cartRepo.FindSelectedItems(ctx, actor.AccountID, req.CartItemIDs)
	if err != nil {
		return nil, err
	}

	variants, err := s.variantRepo.FindByIDs(ctx, variantIDsOf(items))
	if err != nil {
		return nil, err
	}

	lines, err := resolveLines(ctx, items, variants, s.productRepo)
	if err != nil {
		return nil, err
	}
	snapshot, err := ordering.NewCartSnapshot(actor.AccountID, lines)
	if err != nil {
		return nil, err
	}

	response := ToSnapshotResponse(snapshot)
	return &response, nil
}

func (s *CartService) toCartResponse(ctx context.Context, cart *ordering.Cart) (*CartResponse, error) {
	items := make([]CartItemResponse, 0, len(cart.Items))
	if len(cart.Items) > 0 {
		variants, err := s.variantRepo.FindByIDs(ctx, variantIDsOf(cart.Items))
		if err != nil {
			return nil, err
		}
		lines, err := resolveLines(ctx, cart.Items, variants, s.productRepo)
		if err != nil {
			return nil, err
		}

		variantByID := make(map[uuid.UUID]*catalog.ProductVariant, len(variants))
		for idx := range variants {
			variantByID[variants[idx].ID] = &variants[idx]
		}
		for _, line := range lines {
			variant := variantByID[line.VariantID]
			items = append(items, CartItemResponse{
				ID:                line.CartItemID,
				VariantID:         line.VariantID,
				ProductID:         variant.ProductID,
				ProductName:       line.ProductName,
				Gender:            string(variant.Gender),
				Size:              line.Size,
				Quantity:          line.RequestedQuantity,
				AvailableQuantity: line.AvailableQuantity,
				UnitPrice:         line.UnitPrice.Amount(),
				LineAmount:        line.LineAmount().Amount(),
			})
		}
	}
	return &CartResponse{
		ID:        cart.ID,
		AccountID: cart.AccountID,
		Items:     items,
		UpdatedAt: cart.UpdatedAt,
	}, nil
}

// isNotFound reports whether the error carries the NOT_FOUND domain code.
func isNotFound(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == "NOT_FOUND"
	}
	return false
}
