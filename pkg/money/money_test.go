package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	m, err := FromString("45000.50", "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)
	assert.True(t, m.Amount.Equal(decimal.RequireFromString("45000.50")))

	_, err = FromString("not-a-number", "USD")
	assert.Error(t, err)
}

func TestMoney_Cmp(t *testing.T) {
	a := FromFloat(100, "USD")
	b := FromFloat(99.5, "USD")

	c, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = b.Cmp(a)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = a.Cmp(FromFloat(100, "USD"))
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd := FromFloat(100, "USD")
	eur := FromFloat(100, "EUR")

	_, err := usd.Cmp(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = usd.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = usd.Sub(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_Sub_Negative(t *testing.T) {
	bid := FromFloat(101, "USD")
	ask := FromFloat(100, "USD")

	// spread of a crossed book is negative
	spread, err := ask.Sub(bid)
	require.NoError(t, err)
	assert.True(t, spread.Amount.IsNegative())
}

func TestMoney_Mul(t *testing.T) {
	price := FromFloat(44000, "USD")
	notional := price.Mul(decimal.NewFromInt(5))
	assert.True(t, notional.Amount.Equal(decimal.NewFromInt(220000)))
	assert.Equal(t, "USD", notional.Currency)
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "100.5 USD", FromFloat(100.5, "USD").String())
}
