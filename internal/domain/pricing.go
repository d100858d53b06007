package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinDiscountPercent = 0
	MaxDiscountPercent = 25
)

// ErrAmountOverflow is returned when a money amount does not fit in int64.
var ErrAmountOverflow = errors.New("amount out of range")

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

func toAmount(d decimal.Decimal) (int64, error) {
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, ErrAmountOverflow
	}
	return d.IntPart(), nil
}

func ClampDiscount(pct int) int {
	if pct < MinDiscountPercent {
		return MinDiscountPercent
	}
	if pct > MaxDiscountPercent {
		return MaxDiscountPercent
	}
	return pct
}

// DiscountAmount is gross*pct/100 rounded to the nearest unit, halves away
// from zero.
func DiscountAmount(gross int64, pct int) int64 {
	return discount(decimal.NewFromInt(gross), pct).IntPart()
}

func discount(gross decimal.Decimal, pct int) decimal.Decimal {
	return gross.
		Mul(decimal.NewFromInt(int64(pct))).
		Div(decimal.NewFromInt(100)).
		Round(0)
}

// LineTotal clamps pct before applying it. The product is computed without
// wrapping; a total outside int64 is ErrAmountOverflow.
func LineTotal(unitPrice, qty int64, pct int) (int64, error) {
	gross := decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(qty))
	return toAmount(gross.Sub(discount(gross, ClampDiscount(pct))))
}

// AddAmount is a + b, or ErrAmountOverflow when the sum leaves int64.
func AddAmount(a, b int64) (int64, error) {
	return toAmount(decimal.NewFromInt(a).Add(decimal.NewFromInt(b)))
}

// CleanPrice keeps digits and '-' and parses what is left. Anything that
// still does not parse is 0.
func CleanPrice(raw string) int64 {
	kept := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, raw)

	n, err := strconv.ParseInt(kept, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
