package ordering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderService handles order placement and fulfillment
type OrderService struct {
	scope       CheckoutScope
	orderRepo   ordering.OrderRepository
	accountRepo identity.AccountRepository
	notifier    NotificationDispatcher
	activity    ActivityLogger
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	scope CheckoutScope,
	orderRepo ordering.OrderRepository,
	accountRepo identity.AccountRepository,
	notifier NotificationDispatcher,
	activity ActivityLogger,
	logger *zap.Logger,
) *OrderService {
	if notifier == nil {
		notifier = NoOpNotificationDispatcher{}
	}
	if activity == nil {
		activity = NoOpActivityLogger{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		scope:       scope,
		orderRepo:   orderRepo,
		accountRepo: accountRepo,
		notifier:    notifier,
		activity:    activity,
		logger:      logger,
	}
}

// Checkout places an order from the actor's selected cart items. The whole
// placement runs in one transaction: stock is re-read under row locks, the
// order and its lines are written, variant stock is decremented, and the
// consumed cart items are deleted. Any failure rolls everything back and
// leaves the cart untouched.
//
// The confirmation notification is sent after the transaction commits and is
// best-effort: a dispatch failure is logged but never surfaces to the caller.
func (s *OrderService) Checkout(ctx context.Context, actor Actor, req CheckoutRequest) (*OrderResponse, error) {
	if len(req.CartItemIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No cart items selected for order")
	}

	var order *ordering.Order
	err := s.scope.Execute(ctx, func(repos CheckoutRepositories) error {
		items, err := repos.CartRepo().FindSelectedItems(ctx, actor.AccountID, req.CartItemIDs)
		if err != nil {
			return err
		}

		// Locking re-read: concurrent checkouts against the same variant
		// serialize here.
		variants, err := repos.VariantRepo().FindByIDsForUpdate(ctx, variantIDsOf(items))
		if err != nil {
			return err
		}

		lines, err := resolveLines(ctx, items, variants, repos.ProductRepo())
		if err != nil {
			return err
		}
		snapshot, err := ordering.NewCartSnapshot(actor.AccountID, lines)
		if err != nil {
			return err
		}
		order, err = ordering.NewOrderFromSnapshot(snapshot, req.Note)
		if err != nil {
			return err
		}

		requested := make(map[uuid.UUID]int, len(lines))
		for _, line := range lines {
			requested[line.VariantID] += line.RequestedQuantity
		}
		for idx := range variants {
			quantity := requested[variants[idx].ID]
			if quantity == 0 {
				continue
			}
			if err := variants[idx].Deduct(quantity); err != nil {
				return err
			}
			if err := repos.VariantRepo().Save(ctx, &variants[idx]); err != nil {
				return err
			}
		}

		if err := repos.OrderRepo().Save(ctx, order); err != nil {
			return err
		}
		return repos.CartRepo().DeleteItems(ctx, req.CartItemIDs)
	})
	if err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, order)
	s.record(actor, "order.checkout", fmt.Sprintf("order=%s total=%s", order.ID, order.TotalAmount.StringFixed(2)))

	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID returns an order. Customers may only read their own orders; staff
// may read any.
func (s *OrderService) GetByID(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && order.AccountID != actor.AccountID {
		return nil, shared.ErrForbidden
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// ListMine returns the actor's own orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, actor Actor, filter OrderListFilter) ([]OrderResponse, int64, error) {
	domainFilter := toDomainFilter(filter)
	orders, err := s.orderRepo.FindByAccount(ctx, actor.AccountID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	domainFilter.Filters["account_id"] = actor.AccountID
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return toOrderResponses(orders), total, nil
}

// ListAll returns all orders for fulfillment staff.
func (s *OrderService) ListAll(ctx context.Context, actor Actor, filter OrderListFilter) ([]OrderResponse, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, shared.ErrForbidden
	}
	domainFilter := toDomainFilter(filter)
	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return toOrderResponses(orders), total, nil
}

// Prepare marks a pending order as being prepared by the acting staff member.
func (s *OrderService) Prepare(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderResponse, error) {
	if !actor.IsStaff() {
		return nil, shared.ErrForbidden
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Prepare(actor.AccountID); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.record(actor, "order.prepare", fmt.Sprintf("order=%s", order.ID))
	response := ToOrderResponse(order)
	return &response, nil
}

// Ship marks an order as shipped with its tracking assignment. The tracking
// number and carrier pair must not already be assigned to another order.
func (s *OrderService) Ship(ctx context.Context, actor Actor, orderID uuid.UUID, req ShipOrderRequest) (*OrderResponse, error) {
	if !actor.IsStaff() {
		return nil, shared.ErrForbidden
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	inUse, err := s.orderRepo.TrackingInUse(ctx, req.TrackingNumber, req.Carrier, order.ID)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Tracking number %s is already assigned for carrier %s", req.TrackingNumber, req.Carrier))
	}

	if err := order.Ship(req.TrackingNumber, req.Carrier); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.record(actor, "order.ship", fmt.Sprintf("order=%s tracking=%s carrier=%s", order.ID, req.TrackingNumber, req.Carrier))
	response := ToOrderResponse(order)
	return &response, nil
}

// Deliver marks a shipped order as delivered.
func (s *OrderService) Deliver(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderResponse, error) {
	if !actor.IsStaff() {
		return nil, shared.ErrForbidden
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Deliver(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.record(actor, "order.deliver", fmt.Sprintf("order=%s", order.ID))
	response := ToOrderResponse(order)
	return &response, nil
}

// Cancel cancels a pending order. Customers may cancel their own orders;
// staff may cancel any pending order.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && order.AccountID != actor.AccountID {
		return nil, shared.ErrForbidden
	}
	if err := order.Cancel(req.Reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.record(actor, "order.cancel", fmt.Sprintf("order=%s reason=%s", order.ID, req.Reason))
	response := ToOrderResponse(order)
	return &response, nil
}

// SweepOverdueShipments marks as delivered every order still shipped past
// the auto-delivery window. The cutoff is derived from the given time so the
// sweep is deterministic in tests. Orders that move underneath the sweep are
// skipped rather than failing the batch, which keeps the sweep safe to rerun.
func (s *OrderService) SweepOverdueShipments(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-ordering.AutoDeliverAfter)
	overdue, err := s.orderRepo.FindOverdueShipped(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	s.logger.Info("Found overdue shipped orders", zap.Int("count", len(overdue)))

	delivered := 0
	for idx := range overdue {
		order := &overdue[idx]
		if err := order.Deliver(); err != nil {
			s.logger.Warn("Skipping overdue order in sweep",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
			s.logger.Warn("Failed to persist auto-delivery",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
			continue
		}
		delivered++
	}

	s.logger.Info("Completed delivery sweep",
		zap.Int("delivered", delivered),
		zap.Int("skipped", len(overdue)-delivered))
	return delivered, nil
}

func (s *OrderService) sendConfirmation(ctx context.Context, order *ordering.Order) {
	account, err := s.accountRepo.FindByID(ctx, order.AccountID)
	if err != nil {
		s.logger.Warn("Order confirmation skipped: account lookup failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return
	}

	items := make([]OrderConfirmationItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderConfirmationItem{
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.PriceAtPurchase.StringFixed(2),
		})
	}
	confirmation := OrderConfirmation{
		OrderID:        order.ID,
		RecipientEmail: account.Email,
		RecipientName:  account.DisplayName(),
		Items:          items,
		ItemQuantity:   order.ItemQuantity(),
		DeliveryFee:    order.DeliveryFee.StringFixed(2),
		TotalAmount:    order.TotalAmount.StringFixed(2),
		PlacedAt:       order.CreatedAt,
	}

	if err := s.notifier.SendOrderConfirmation(ctx, confirmation); err != nil {
		s.logger.Warn("Order confirmation dispatch failed",
			zap.String("order_id", order.ID.String()),
			zap.String("recipient", account.Email),
			zap.Error(err))
	}
}

func (s *OrderService) record(actor Actor, action, detail string) {
	s.activity.Record(ActivityEntry{
		Timestamp: time.Now(),
		Username:  actor.Username,
		Role:      actor.Role.String(),
		Action:    action,
		Detail:    detail,
	})
}

func toDomainFilter(filter OrderListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = "created_at"
	domainFilter.OrderDir = "desc"
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	return domainFilter
}

func toOrderResponses(orders []ordering.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for idx := range orders {
		responses = append(responses, ToOrderResponse(&orders[idx]))
	}
	return responses
}
