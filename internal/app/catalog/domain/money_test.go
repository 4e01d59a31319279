package domain

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("valid money creation", func(t *testing.T) {
		m, err := NewMoney(1250, 100)
		require.NoError(t, err)
		assert.Equal(t, "12.50", m.String())
	})

	t.Run("zero denominator returns error", func(t *testing.T) {
		_, err := NewMoney(100, 0)
		assert.Error(t, err)
	})

	t.Run("negative numerator allowed", func(t *testing.T) {
		m, err := NewMoney(-100, 1)
		require.NoError(t, err)
		assert.True(t, m.IsNegative())
	})
}

func TestParseMoney(t *testing.T) {
	t.Run("decimal string", func(t *testing.T) {
		m, err := ParseMoney("9.99")
		require.NoError(t, err)
		assert.Equal(t, big.NewRat(999, 100), m.Rat())
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		m, err := ParseMoney(" 12.50 ")
		require.NoError(t, err)
		assert.Equal(t, "12.50", m.String())
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := ParseMoney("bad")
		assert.Error(t, err)
	})

	t.Run("empty is rejected", func(t *testing.T) {
		_, err := ParseMoney("")
		assert.Error(t, err)
	})

	t.Run("rounds to price scale", func(t *testing.T) {
		m, err := ParseMoney("0.123456789")
		require.NoError(t, err)
		assert.Equal(t, big.NewRat(1235, 10000), m.Rat())
	})

	t.Run("exponent notation within range", func(t *testing.T) {
		m, err := ParseMoney("1.5e2")
		require.NoError(t, err)
		assert.Equal(t, "150.00", m.DecimalString())
	})

	for _, in := range []string{"1e999999999", "1e-999999999", "1e20000000", "1e13", "10000000000", "-10000000000", "9999999999.99995"} {
		t.Run("out of range "+in, func(t *testing.T) {
			_, err := ParseMoney(in)
			assert.ErrorIs(t, err, ErrPriceOutOfRange)
		})
	}

	t.Run("largest storable value", func(t *testing.T) {
		m, err := ParseMoney("9999999999.9999")
		require.NoError(t, err)
		assert.Equal(t, "9999999999.9999", m.DecimalString())
	})
}

func TestMoney_Comparisons(t *testing.T) {
	low, _ := NewMoney(999, 100)
	high, _ := NewMoney(1250, 100)

	assert.True(t, low.LessThan(high))
	assert.False(t, high.LessThan(low))
	assert.True(t, low.Equals(low.Copy()))
	assert.True(t, Zero().IsZero())
	assert.False(t, high.IsNegative())
}

func TestMoney_DecimalString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.5", "12.50"},
		{"0", "0.00"},
		{"9.999", "9.999"},
		{"1.2345", "1.2345"},
		{"1.23456", "1.2346"},
		{"-1.23455", "-1.2346"},
		{"100", "100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m := NewMoneyFromDecimal(decimal.RequireFromString(tt.in))
			assert.Equal(t, tt.want, m.DecimalString())
		})
	}
}

func TestMoney_JSON(t *testing.T) {
	m, _ := NewMoney(1999, 100)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"19.99"`, string(data))

	var fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`4.5`), &fromNumber))
	assert.Equal(t, "4.50", fromNumber.String())
}
