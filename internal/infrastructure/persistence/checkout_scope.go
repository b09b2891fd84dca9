package persistence

import (
	"context"

	appordering "github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/ordering"
	"gorm.io/gorm"
)

// GormCheckoutScope implements CheckoutScope using GORM transactions. It runs
// the checkout unit of work atomically; row locks taken inside the function
// (the FOR UPDATE variant read) hold until the transaction commits.
type GormCheckoutScope struct {
	db *gorm.DB
}

// NewGormCheckoutScope creates a new GormCheckoutScope.
func NewGormCheckoutScope(db *gorm.DB) *GormCheckoutScope {
	return &GormCheckoutScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormCheckoutScope) Execute(ctx context.Context, fn func(repos appordering.CheckoutRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormCheckoutRepositories{tx: tx}
		return fn(repos)
	})
}

// gormCheckoutRepositories provides access to all repositories within a transaction.
type gormCheckoutRepositories struct {
	tx *gorm.DB
}

// OrderRepo returns the order repository scoped to the current transaction.
func (r *gormCheckoutRepositories) OrderRepo() ordering.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// CartRepo returns the cart repository scoped to the current transaction.
func (r *gormCheckoutRepositories) CartRepo() ordering.CartRepository {
	return NewGormCartRepository(r.tx)
}

// VariantRepo returns the product variant repository scoped to the current transaction.
func (r *gormCheckoutRepositories) VariantRepo() catalog.ProductVariantRepository {
	return NewGormProductVariantRepository(r.tx)
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormCheckoutRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Ensure GormCheckoutScope implements CheckoutScope
var _ appordering.CheckoutScope = (*GormCheckoutScope)(nil)

// Ensure gormCheckoutRepositories implements CheckoutRepositories
var _ appordering.CheckoutRepositories = (*gormCheckoutRepositories)(nil)
