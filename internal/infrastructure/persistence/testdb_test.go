package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&identity.Account{},
		&catalog.Product{},
		&catalog.ProductVariant{},
		&ordering.Cart{},
		&ordering.CartItem{},
		&ordering.Order{},
		&ordering.OrderItem{},
	)
	require.NoError(t, err)

	return db
}

func seedAccount(t *testing.T, db *gorm.DB, username string) *identity.Account {
	t.Helper()

	account, err := identity.NewCustomer(username, username+"@example.com", "Password1!")
	require.NoError(t, err)
	require.NoError(t, db.Create(account).Error)
	return account
}

func seedProductWithVariant(t *testing.T, db *gorm.DB, name string, price float64, stock int) (*catalog.Product, *catalog.ProductVariant) {
	t.Helper()

	product, err := catalog.NewProduct(name, "Seeded for testing", decimal.NewFromFloat(price))
	require.NoError(t, err)

	variant, err := product.AddVariant(catalog.GenderUnisex, "M", stock)
	require.NoError(t, err)

	require.NoError(t, db.Create(product).Error)
	return product, variant
}

func buildOrder(t *testing.T, accountID, variantID uuid.UUID, quantity int, price float64) *ordering.Order {
	t.Helper()

	snapshot, err := ordering.NewCartSnapshot(accountID, []ordering.SnapshotLine{
		{
			CartItemID:        uuid.New(),
			VariantID:         variantID,
			ProductName:       "Trail Shoes",
			Size:              "M",
			RequestedQuantity: quantity,
			AvailableQuantity: quantity,
			UnitPrice:         valueobject.NewMoneyPHPFromFloat(price),
		},
	})
	require.NoError(t, err)

	order, err := ordering.NewOrderFromSnapshot(snapshot, "")
	require.NoError(t, err)
	return order
}
