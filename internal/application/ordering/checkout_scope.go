package ordering

import (
	"context"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/ordering"
)

// CheckoutScope provides transactional access to the repositories a checkout
// touches. When a function is executed within the scope, all repository
// operations are part of the same database transaction and are committed or
// rolled back atomically.
type CheckoutScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos CheckoutRepositories) error) error
}

// CheckoutRepositories provides access to the repositories participating in a
// checkout transaction. All repositories returned share the same underlying
// database transaction.
//
// The variant repository's FindByIDsForUpdate must take row locks inside the
// transaction; that locking re-read is what keeps concurrent checkouts from
// overselling the same variant.
type CheckoutRepositories interface {
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() ordering.OrderRepository
	// CartRepo returns the cart repository scoped to the current transaction
	CartRepo() ordering.CartRepository
	// VariantRepo returns the product variant repository scoped to the current transaction
	VariantRepo() catalog.ProductVariantRepository
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
}

// NoOpCheckoutScope is a checkout scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpCheckoutScope struct {
	orderRepo   ordering.OrderRepository
	cartRepo    ordering.CartRepository
	variantRepo catalog.ProductVariantRepository
	productRepo catalog.ProductRepository
}

// NewNoOpCheckoutScope creates a NoOpCheckoutScope with the given repositories.
func NewNoOpCheckoutScope(
	orderRepo ordering.OrderRepository,
	cartRepo ordering.CartRepository,
	variantRepo catalog.ProductVariantRepository,
	productRepo catalog.ProductRepository,
) *NoOpCheckoutScope {
	return &NoOpCheckoutScope{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		variantRepo: variantRepo,
		productRepo: productRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpCheckoutScope) Execute(_ context.Context, fn func(repos CheckoutRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the order repository.
func (s *NoOpCheckoutScope) OrderRepo() ordering.OrderRepository {
	return s.orderRepo
}

// CartRepo returns the cart repository.
func (s *NoOpCheckoutScope) CartRepo() ordering.CartRepository {
	return s.cartRepo
}

// VariantRepo returns the product variant repository.
func (s *NoOpCheckoutScope) VariantRepo() catalog.ProductVariantRepository {
	return s.variantRepo
}

// ProductRepo returns the product repository.
func (s *NoOpCheckoutScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// Ensure NoOpCheckoutScope implements both interfaces
var _ CheckoutScope = (*NoOpCheckoutScope)(nil)
var _ CheckoutRepositories = (*NoOpCheckoutScope)(nil)
