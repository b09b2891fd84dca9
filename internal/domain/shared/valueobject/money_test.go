package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(100), PHP)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, PHP, m.Currency())

	_, err = NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)
}

func TestMoney_Add(t *testing.T) {
	a := NewMoneyPHPFromFloat(100.50)
	b := NewMoneyPHPFromFloat(20.25)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromFloat(120.75)))

	usd, _ := NewMoney(decimal.NewFromInt(1), USD)
	_, err = a.Add(usd)
	assert.Error(t, err)
}

func TestMoney_Subtract(t *testing.T) {
	a := NewMoneyPHPFromFloat(100)
	b := NewMoneyPHPFromFloat(30)

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(70)))
}

func TestMoney_MultiplyByInt(t *testing.T) {
	price := NewMoneyPHPFromFloat(19.99)
	total := price.MultiplyByInt(3)
	assert.True(t, total.Amount().Equal(decimal.NewFromFloat(59.97)))
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, ZeroPHP().IsZero())
	assert.True(t, NewMoneyPHPFromFloat(1).IsPositive())
	assert.True(t, NewMoneyPHPFromFloat(-1).IsNegative())
}

func TestMoney_Equals(t *testing.T) {
	a := NewMoneyPHPFromFloat(50)
	b := NewMoneyPHP(decimal.NewFromInt(50))
	assert.True(t, a.Equals(b))

	usd, _ := NewMoney(decimal.NewFromInt(50), USD)
	assert.False(t, a.Equals(usd))
}

func TestMoney_String(t *testing.T) {
	m := NewMoneyPHPFromFloat(1234.5)
	assert.Equal(t, "1234.50 PHP", m.String())
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoneyPHPFromFloat(99.95)
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_UnmarshalJSON_DefaultsCurrency(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"10"}`), &m))
	assert.Equal(t, PHP, m.Currency())
}
