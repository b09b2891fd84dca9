package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	appordering "github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCheckoutScope_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits stock deduction, order and cart consumption together", func(t *testing.T) {
		db := setupTestDB(t)
		scope := NewGormCheckoutScope(db)

		account := seedAccount(t, db, "buyer")
		_, variant := seedProductWithVariant(t, db, "Trail Shoes", 750, 10)
		_, item := seedCartWithItem(t, db, account.ID, variant.ID, 3)

		var orderID uuid.UUID
		err := scope.Execute(ctx, func(repos appordering.CheckoutRepositories) error {
			locked, err := repos.VariantRepo().FindByIDs(ctx, []uuid.UUID{variant.ID})
			if err != nil {
				return err
			}
			if err := locked[0].Deduct(3); err != nil {
				return err
			}
			if err := repos.VariantRepo().Save(ctx, &locked[0]); err != nil {
				return err
			}

			order := buildOrder(t, account.ID, variant.ID, 3, 750)
			orderID = order.ID
			if err := repos.OrderRepo().Save(ctx, order); err != nil {
				return err
			}

			return repos.CartRepo().DeleteItems(ctx, []uuid.UUID{item.ID})
		})
		require.NoError(t, err)

		orderRepo := NewGormOrderRepository(db)
		saved, err := orderRepo.FindByID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, ordering.OrderStatusPending, saved.Status)

		variantRepo := NewGormProductVariantRepository(db)
		remaining, err := variantRepo.FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, remaining.Quantity)

		cart, err := NewGormCartRepository(db).FindByAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("rolls back everything when the unit of work fails", func(t *testing.T) {
		db := setupTestDB(t)
		scope := NewGormCheckoutScope(db)

		account := seedAccount(t, db, "buyer")
		_, variant := seedProductWithVariant(t, db, "Trail Shoes", 750, 10)
		_, item := seedCartWithItem(t, db, account.ID, variant.ID, 3)

		boom := errors.New("stock verification failed")
		var orderID uuid.UUID
		err := scope.Execute(ctx, func(repos appordering.CheckoutRepositories) error {
			locked, err := repos.VariantRepo().FindByIDs(ctx, []uuid.UUID{variant.ID})
			if err != nil {
				return err
			}
			if err := locked[0].Deduct(3); err != nil {
				return err
			}
			if err := repos.VariantRepo().Save(ctx, &locked[0]); err != nil {
				return err
			}

			order := buildOrder(t, account.ID, variant.ID, 3, 750)
			orderID = order.ID
			if err := repos.OrderRepo().Save(ctx, order); err != nil {
				return err
			}
			if err := repos.CartRepo().DeleteItems(ctx, []uuid.UUID{item.ID}); err != nil {
				return err
			}

			return boom
		})
		assert.ErrorIs(t, err, boom)

		// Stock untouched
		remaining, err := NewGormProductVariantRepository(db).FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, remaining.Quantity)

		// No order row
		_, err = NewGormOrderRepository(db).FindByID(ctx, orderID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		// Cart item still there
		cart, err := NewGormCartRepository(db).FindByAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Len(t, cart.Items, 1)
	})

	t.Run("propagates domain errors unchanged", func(t *testing.T) {
		db := setupTestDB(t)
		scope := NewGormCheckoutScope(db)

		err := scope.Execute(ctx, func(repos appordering.CheckoutRepositories) error {
			return shared.ErrInsufficientStock
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})
}
