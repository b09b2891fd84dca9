package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
)

// CartRepository defines persistence operations for Cart aggregates
type CartRepository interface {
	FindByAccount(ctx context.Context, accountID uuid.UUID) (*Cart, error)
	// FindSelectedItems loads the given cart items only when every one of them
	// belongs to the account's cart; any missing or foreign item fails the
	// whole lookup with NOT_FOUND.
	FindSelectedItems(ctx context.Context, accountID uuid.UUID, itemIDs []uuid.UUID) ([]CartItem, error)
	Save(ctx context.Context, cart *Cart) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, itemIDs []uuid.UUID) error
}

// OrderRepository defines persistence operations for Order aggregates
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	// FindOverdueShipped returns orders still Shipped whose shipped_at is at or
	// before the cutoff. Used by the delivery sweep.
	FindOverdueShipped(ctx context.Context, cutoff time.Time) ([]Order, error)
	// TrackingInUse reports whether the (trackingNumber, carrier) pair is
	// already assigned to an order other than excludeOrderID.
	TrackingInUse(ctx context.Context, trackingNumber, carrier string, excludeOrderID uuid.UUID) (bool, error)
	Save(ctx context.Context, order *Order) error
	// SaveWithLock saves using optimistic locking on the aggregate version,
	// failing with CONCURRENCY_CONFLICT when the row moved underneath.
	SaveWithLock(ctx context.Context, order *Order) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
