package ordering

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryFeeFor(t *testing.T) {
	tests := []struct {
		totalQuantity int
		fee           float64
	}{
		{1, 100},
		{2, 120},
		{3, 140},
		{5, 180},
		{10, 280},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			fee := DeliveryFeeFor(tt.totalQuantity)
			assert.True(t, fee.Equals(valueobject.NewMoneyPHPFromFloat(tt.fee)),
				"quantity %d: got %s", tt.totalQuantity, fee.String())
		})
	}
}

func TestNewCartSnapshot(t *testing.T) {
	accountID := uuid.New()
	lines := []SnapshotLine{
		testSnapshotLine(2, 5, 500),  // 1000
		testSnapshotLine(3, 10, 100), // 300
	}

	snapshot, err := NewCartSnapshot(accountID, lines)
	require.NoError(t, err)

	assert.Equal(t, accountID, snapshot.AccountID)
	assert.Equal(t, 5, snapshot.TotalQuantity)
	assert.True(t, snapshot.Subtotal.Equals(valueobject.NewMoneyPHPFromFloat(1300)))
	// 100 + 4*20
	assert.True(t, snapshot.DeliveryFee.Equals(valueobject.NewMoneyPHPFromFloat(180)))
	assert.True(t, snapshot.GrandTotal.Equals(valueobject.NewMoneyPHPFromFloat(1480)))
}

func TestNewCartSnapshot_EmptySelection(t *testing.T) {
	_, err := NewCartSnapshot(uuid.New(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No cart items selected")

	_, err = NewCartSnapshot(uuid.New(), []SnapshotLine{})
	assert.Error(t, err)
}

func TestNewCartSnapshot_InsufficientStock(t *testing.T) {
	good := testSnapshotLine(1, 5, 100)
	short := testSnapshotLine(4, 2, 100)

	_, err := NewCartSnapshot(uuid.New(), []SnapshotLine{good, short})
	require.Error(t, err)
	assert.Contains(t, err.Error(), short.VariantID.String())
}

func TestNewCartSnapshot_InvalidQuantity(t *testing.T) {
	line := testSnapshotLine(0, 5, 100)
	_, err := NewCartSnapshot(uuid.New(), []SnapshotLine{line})
	assert.Error(t, err)
}

func TestCartSnapshot_IDAccessors(t *testing.T) {
	a := testSnapshotLine(1, 5, 100)
	b := testSnapshotLine(2, 5, 100)
	// second selection of the same variant
	c := testSnapshotLine(1, 5, 100)
	c.VariantID = a.VariantID

	snapshot, err := NewCartSnapshot(uuid.New(), []SnapshotLine{a, b, c})
	require.NoError(t, err)

	assert.Len(t, snapshot.CartItemIDs(), 3)
	assert.Len(t, snapshot.VariantIDs(), 2)
}

func TestSnapshotLine_LineAmount(t *testing.T) {
	line := testSnapshotLine(3, 5, 250)
	assert.True(t, line.LineAmount().Equals(valueobject.NewMoneyPHPFromFloat(750)))
}
