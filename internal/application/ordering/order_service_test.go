package ordering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderServiceFixture struct {
	orderRepo   *MockOrderRepository
	cartRepo    *MockCartRepository
	variantRepo *MockVariantRepository
	productRepo *MockProductRepository
	accountRepo *MockAccountRepository
	notifier    *MockNotificationDispatcher
	activity    *RecordingActivityLogger
	service     *OrderService
}

func newOrderServiceFixture() *orderServiceFixture {
	f := &orderServiceFixture{
		orderRepo:   new(MockOrderRepository),
		cartRepo:    new(MockCartRepository),
		variantRepo: new(MockVariantRepository),
		productRepo: new(MockProductRepository),
		accountRepo: new(MockAccountRepository),
		notifier:    new(MockNotificationDispatcher),
		activity:    new(RecordingActivityLogger),
	}
	scope := NewNoOpCheckoutScope(f.orderRepo, f.cartRepo, f.variantRepo, f.productRepo)
	f.service = NewOrderService(scope, f.orderRepo, f.accountRepo, f.notifier, f.activity, nil)
	return f
}

func customerActor() Actor {
	return Actor{AccountID: uuid.New(), Username: "jdoe", Role: identity.RoleCustomer}
}

func employeeActor() Actor {
	return Actor{AccountID: uuid.New(), Username: "staff1", Role: identity.RoleEmployee}
}

func testAccount(t *testing.T, id uuid.UUID) *identity.Account {
	account, err := identity.NewCustomer("jdoe", "jdoe@example.com", "Password1!")
	require.NoError(t, err)
	account.ID = id
	return account
}

// checkoutWorld wires a product, a variant with stock and a cart item
// pointing at it.
type checkoutWorld struct {
	product  *catalog.Product
	variant  *catalog.ProductVariant
	cartItem ordering.CartItem
}

func newCheckoutWorld(t *testing.T, stock, requested int) checkoutWorld {
	product, err := catalog.NewProduct("Trail Shoes", "All-terrain runner", decimal.NewFromInt(750))
	require.NoError(t, err)
	variant, err := catalog.NewProductVariant(product.ID, catalog.GenderMen, "M", stock)
	require.NoError(t, err)
	item := ordering.CartItem{
		BaseEntity: shared.NewBaseEntity(),
		CartID:     uuid.New(),
		VariantID:  variant.ID,
		Quantity:   requested,
	}
	return checkoutWorld{product: product, variant: variant, cartItem: item}
}

func TestOrderService_Checkout(t *testing.T) {
	f := newOrderServiceFixture()
	actor := customerActor()
	world := newCheckoutWorld(t, 10, 3)
	itemIDs := []uuid.UUID{world.cartItem.ID}

	f.cartRepo.On("FindSelectedItems", mock.Anything, actor.AccountID, itemIDs).
		Return([]ordering.CartItem{world.cartItem}, nil)
	f.variantRepo.On("FindByIDsForUpdate", mock.Anything, []uuid.UUID{world.variant.ID}).
		Return([]catalog.ProductVariant{*world.variant}, nil)
	f.productRepo.On("FindByID", mock.Anything, world.product.ID).Return(world.product, nil)
	f.variantRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.ProductVariant")).
		Run(func(args mock.Arguments) {
			saved := args.Get(1).(*catalog.ProductVariant)
			assert.Equal(t, 7, saved.Quantity)
		}).Return(nil)
	f.orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*ordering.Order")).Return(nil)
	f.cartRepo.On("DeleteItems", mock.Anything, itemIDs).Return(nil)
	f.accountRepo.On("FindByID", mock.Anything, actor.AccountID).
		Return(testAccount(t, actor.AccountID), nil)
	f.notifier.On("SendOrderConfirmation", mock.Anything, mock.AnythingOfType("ordering.OrderConfirmation")).
		Return(nil)

	response, err := f.service.Checkout(context.Background(), actor, CheckoutRequest{
		CartItemIDs: itemIDs,
		Note:        "leave at the gate",
	})
	require.NoError(t, err)

	assert.Equal(t, "Pending", response.Status)
	assert.Len(t, response.Items, 1)
	// 3 * 750 + (100 + 2*20)
	assert.True(t, response.TotalAmount.Equal(decimal.NewFromInt(2390)))
	assert.True(t, response.DeliveryFee.Equal(decimal.NewFromInt(140)))

	f.orderRepo.AssertExpectations(t)
	f.cartRepo.AssertExpectations(t)
	f.variantRepo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	require.NotEmpty(t, f.activity.Entries)
	assert.Equal(t, "order.checkout", f.activity.Entries[0].Action)
}

func TestOrderService_Checkout_EmptySelection(t *testing.T) {
	f := newOrderServiceFixture()

	_, err := f.service.Checkout(context.Background(), customerActor(), CheckoutRequest{})
	require.Error(t, err)
	f.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrderService_Checkout_InsufficientStock(t *testing.T) {
	f := newOrderServiceFixture()
	actor := customerActor()
	world := newCheckoutWorld(t, 2, 5)
	itemIDs := []uuid.UUID{world.cartItem.ID}

	f.cartRepo.On("FindSelectedItems", mock.Anything, actor.AccountID, itemIDs).
		Return([]ordering.CartItem{world.cartItem}, nil)
	f.variantRepo.On("FindByIDsForUpdate", mock.Anything, []uuid.UUID{world.variant.ID}).
		Return([]catalog.ProductVariant{*world.variant}, nil)
	f.productRepo.On("FindByID", mock.Anything, world.product.ID).Return(world.product, nil)

	_, err := f.service.Checkout(context.Background(), actor, CheckoutRequest{CartItemIDs: itemIDs})
	require.Error(t, err)
	assert.Contains(t, err.Error(), world.variant.ID.String())

	f.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.variantRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.cartRepo.AssertNotCalled(t, "DeleteItems", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "SendOrderConfirmation", mock.Anything, mock.Anything)
}

func TestOrderService_Checkout_ForeignCartItem(t *testing.T) {
	f := newOrderServiceFixture()
	actor := customerActor()
	itemIDs := []uuid.UUID{uuid.New()}

	f.cartRepo.On("FindSelectedItems", mock.Anything, actor.AccountID, itemIDs).
		Return(nil, shared.ErrNotFound)

	_, err := f.service.Checkout(context.Background(), actor, CheckoutRequest{CartItemIDs: itemIDs})
	require.Error(t, err)
	f.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrderService_Checkout_NotificationFailureIsSwallowed(t *testing.T) {
	f := newOrderServiceFixture()
	actor := customerActor()
	world := newCheckoutWorld(t, 10, 1)
	itemIDs := []uuid.UUID{world.cartItem.ID}

	f.cartRepo.On("FindSelectedItems", mock.Anything, actor.AccountID, itemIDs).
		Return([]ordering.CartItem{world.cartItem}, nil)
	f.variantRepo.On("FindByIDsForUpdate", mock.Anything, []uuid.UUID{world.variant.ID}).
		Return([]catalog.ProductVariant{*world.variant}, nil)
	f.productRepo.On("FindByID", mock.Anything, world.product.ID).Return(world.product, nil)
	f.variantRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.orderRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.cartRepo.On("DeleteItems", mock.Anything, itemIDs).Return(nil)
	f.accountRepo.On("FindByID", mock.Anything, actor.AccountID).
		Return(testAccount(t, actor.AccountID), nil)
	f.notifier.On("SendOrderConfirmation", mock.Anything, mock.Anything).
		Return(errors.New("smtp relay down"))

	response, err := f.service.Checkout(context.Background(), actor, CheckoutRequest{CartItemIDs: itemIDs})
	require.NoError(t, err)
	assert.Equal(t, "Pending", response.Status)
}

func TestOrderService_GetByID_Ownership(t *testing.T) {
	f := newOrderServiceFixture()
	owner := customerActor()
	other := customerActor()
	order := placedOrder(t, owner.AccountID)

	f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	_, err := f.service.GetByID(context.Background(), owner, order.ID)
	assert.NoError(t, err)

	_, err = f.service.GetByID(context.Background(), other, order.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = f.service.GetByID(context.Background(), employeeActor(), order.ID)
	assert.NoError(t, err)
}

func TestOrderService_Prepare(t *testing.T) {
	f := newOrderServiceFixture()
	staff := employeeActor()
	order := placedOrder(t, uuid.New())

	f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	f.orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

	response, err := f.service.Prepare(context.Background(), staff, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Preparing", response.Status)
	require.NotNil(t, response.PreparedBy)
	assert.Equal(t, staff.AccountID, *response.PreparedBy)
}

func TestOrderService_Prepare_CustomerForbidden(t *testing.T) {
	f := newOrderServiceFixture()

	_, err := f.service.Prepare(context.Background(), customerActor(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrForbidden)
	f.orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOrderService_Ship(t *testing.T) {
	f := newOrderServiceFixture()
	order := placedOrder(t, uuid.New())

	f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	f.orderRepo.On("TrackingInUse", mock.Anything, "TRK-1", "DHL", order.ID).Return(false, nil)
	f.orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

	response, err := f.service.Ship(context.Background(), employeeActor(), order.ID, ShipOrderRequest{
		TrackingNumber: "TRK-1",
		Carrier:        "DHL",
	})
	require.NoError(t, err)
	assert.Equal(t, "Shipped", response.Status)
	assert.Equal(t, "TRK-1", response.TrackingNumber)
	assert.NotNil(t, response.ShippedAt)
}

func TestOrderService_Ship_TrackingConflict(t *testing.T) {
	f := newOrderServiceFixture()
	order := placedOrder(t, uuid.New())

	f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	f.orderRepo.On("TrackingInUse", mock.Anything, "TRK-1", "DHL", order.ID).Return(true, nil)

	_, err := f.service.Ship(context.Background(), employeeActor(), order.ID, ShipOrderRequest{
		TrackingNumber: "TRK-1",
		Carrier:        "DHL",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRK-1")
	assert.Equal(t, ordering.OrderStatusPending, order.Status)
	f.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestOrderService_Ship_AlreadyShipped(t *testing.T) {
	f := newOrderServiceFixture()
	order := placedOrder(t, uuid.New())
	require.NoError(t, order.Ship("OLD-1", "LBC"))

	f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	f.orderRepo.On("TrackingInUse", mock.Anything, "TRK-1", "DHL", order.ID).Return(false, nil)

	_, err := f.service.Ship(context.Background(), employeeActor(), order.ID, ShipOrderRequest{
		TrackingNumber: "TRK-1",
		Carrier:        "DHL",
	})
	require.Error(t, err)
	assert.Equal(t, "OLD-1", order.TrackingNumber)
}

func TestOrderService_Deliver(t *testing.T) {
	f := newOrderServiceFixture()
	order := placedOrder(t, uuid.New())
	require.NoError(t, order.Ship("TRK-1", "DHL"))

	f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	f.orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

	response, err := f.service.Deliver(context.Background(), employeeActor(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Delivered", response.Status)
}

func TestOrderService_Cancel_ByOwner(t *testing.T) {
	f := newOrderServiceFixture()
	owner := customerActor()
	order := placedOrder(t, owner.AccountID)

	f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	f.orderRepo.On("SaveWithLock", mock.Anything, order).Return(nil)

	response, err := f.service.Cancel(context.Background(), owner, order.ID, CancelOrderRequest{Reason: "ordered twice"})
	require.NoError(t, err)
	assert.Equal(t, "Cancelled", response.Status)
	assert.Equal(t, "ordered twice", response.CancelReason)
}

func TestOrderService_Cancel_ByStranger(t *testing.T) {
	f := newOrderServiceFixture()
	order := placedOrder(t, uuid.New())

	f.orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	_, err := f.service.Cancel(context.Background(), customerActor(), order.ID, CancelOrderRequest{Reason: "nope"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	f.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestOrderService_SweepOverdueShipments(t *testing.T) {
	f := newOrderServiceFixture()
	now := time.Now()

	first := placedOrder(t, uuid.New())
	require.NoError(t, first.Ship("TRK-1", "DHL"))
	second := placedOrder(t, uuid.New())
	require.NoError(t, second.Ship("TRK-2", "DHL"))

	f.orderRepo.On("FindOverdueShipped", mock.Anything, now.Add(-ordering.AutoDeliverAfter)).
		Return([]ordering.Order{*first, *second}, nil)
	f.orderRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*ordering.Order")).
		Return(nil).Once()
	f.orderRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*ordering.Order")).
		Return(shared.ErrConcurrencyConflict).Once()

	delivered, err := f.service.SweepOverdueShipments(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
}

func TestOrderService_SweepOverdueShipments_NothingOverdue(t *testing.T) {
	f := newOrderServiceFixture()
	now := time.Now()

	f.orderRepo.On("FindOverdueShipped", mock.Anything, mock.Anything).
		Return([]ordering.Order{}, nil)

	delivered, err := f.service.SweepOverdueShipments(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	f.orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

// placedOrder builds a pending order owned by the given account.
func placedOrder(t *testing.T, accountID uuid.UUID) *ordering.Order {
	line := ordering.SnapshotLine{
		CartItemID:        uuid.New(),
		VariantID:         uuid.New(),
		ProductName:       "Trail Shoes",
		Size:              "M",
		RequestedQuantity: 1,
		AvailableQuantity: 5,
		UnitPrice:         valueobject.NewMoneyPHPFromFloat(750),
	}
	snapshot, err := ordering.NewCartSnapshot(accountID, []ordering.SnapshotLine{line})
	require.NoError(t, err)
	order, err := ordering.NewOrderFromSnapshot(snapshot, "")
	require.NoError(t, err)
	return order
}
