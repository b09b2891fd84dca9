package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ ordering.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its items by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var order ordering.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByAccount finds orders placed by an account
func (r *GormOrderRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]ordering.Order, error) {
	var orders []ordering.Order
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ordering.Order{}).
			Preload("Items").
			Where("account_id = ?", accountID),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll finds all orders with filtering
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	var orders []ordering.Order
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ordering.Order{}).Preload("Items"),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindOverdueShipped finds orders still Shipped whose ship date is at or
// before the cutoff
func (r *GormOrderRepository) FindOverdueShipped(ctx context.Context, cutoff time.Time) ([]ordering.Order, error) {
	var orders []ordering.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND shipped_at <= ?", ordering.OrderStatusShipped, cutoff).
		Order("shipped_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// translateOrderSaveError maps driver-level constraint violations to domain
// errors. The TrackingInUse pre-check is advisory only; under concurrent
// ships the loser reaches the partial unique index on (tracking_number,
// carrier) and must still surface a conflict, not an internal error.
func translateOrderSaveError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError("ALREADY_EXISTS",
			"Tracking number is already assigned for this carrier")
	}
	return err
}

// TrackingInUse reports whether the tracking number is already assigned to
// another order of the same carrier
func (r *GormOrderRepository) TrackingInUse(ctx context.Context, trackingNumber, carrier string, excludeOrderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ordering.Order{}).
		Where("tracking_number = ? AND carrier = ? AND id <> ?", trackingNumber, carrier, excludeOrderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return translateOrderSaveError(err)
		}

		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			if err := tx.Save(&order.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock persists a state transition with optimistic locking. The
// aggregate increments its version when it transitions, so the update is
// guarded on the version the row had when the order was loaded; zero rows
// affected means another writer got there first.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *ordering.Order) error {
	loadedVersion := order.Version - 1
	order.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).
		Model(&ordering.Order{}).
		Where("id = ? AND version = ?", order.ID, loadedVersion).
		Updates(map[string]interface{}{
			"status":          order.Status,
			"note":            order.Note,
			"tracking_number": order.TrackingNumber,
			"carrier":         order.Carrier,
			"prepared_by":     order.PreparedBy,
			"prepared_at":     order.PreparedAt,
			"shipped_at":      order.ShippedAt,
			"delivered_at":    order.DeliveredAt,
			"cancelled_at":    order.CancelledAt,
			"cancel_reason":   order.CancelReason,
			"version":         order.Version,
			"updated_at":      order.UpdatedAt,
		})

	if result.Error != nil {
		return translateOrderSaveError(result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&ordering.Order{}).
			Where("id = ?", order.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}

	return nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&ordering.Order{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "account_id":
			query = query.Where("account_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}
