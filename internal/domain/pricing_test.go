package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampDiscount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 25, ClampDiscount(40))
	assert.Equal(t, 0, ClampDiscount(-5))
	assert.Equal(t, 10, ClampDiscount(10))
	assert.Equal(t, 25, ClampDiscount(25))
}

func TestLineTotal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		price int64
		qty   int64
		pct   int
		want  int64
	}{
		{"no discount", 250, 2, 0, 500},
		{"half rounds away from zero", 250, 1, 25, 187},
		{"small half", 10, 1, 25, 7},
		{"clamped high", 100, 2, 40, 150},
		{"clamped low", 100, 2, -5, 200},
		{"below half rounds down", 13, 1, 10, 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LineTotal(tc.price, tc.qty, tc.pct)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLineTotal_Overflow(t *testing.T) {
	t.Parallel()

	_, err := LineTotal(1<<62, 2, 0)
	require.ErrorIs(t, err, ErrAmountOverflow)

	_, err = LineTotal(math.MaxInt64, 3, 25)
	require.ErrorIs(t, err, ErrAmountOverflow)

	got, err := LineTotal(1<<62, 2, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<62)/2*3, got)

	got, err = LineTotal(math.MaxInt64, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)
}

func TestAddAmount(t *testing.T) {
	t.Parallel()

	got, err := AddAmount(40, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = AddAmount(math.MaxInt64, 1)
	require.ErrorIs(t, err, ErrAmountOverflow)

	_, err = AddAmount(math.MinInt64, -1)
	require.ErrorIs(t, err, ErrAmountOverflow)
}

func TestDiscountAmount_NegativeGross(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(-3), DiscountAmount(-10, 25))
}

func TestCleanPrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(1200), CleanPrice("$1,200"))
	assert.Equal(t, int64(-50), CleanPrice(" -50 "))
	assert.Equal(t, int64(0), CleanPrice("abc"))
	assert.Equal(t, int64(0), CleanPrice(""))
	assert.Equal(t, int64(0), CleanPrice("1-2"))
}
