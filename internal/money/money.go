package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrInvalidRate     = errors.New("invalid rate")
)

func ParseMinor(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	sign := int64(1)
	switch trimmed[0] {
	case '-':
		sign = -1
		trimmed = trimmed[1:]
	case '+':
		trimmed = trimmed[1:]
	}
	parts := strings.SplitN(trimmed, ".", 2)
	wholePart := parts[0]
	if wholePart == "" {
		wholePart = "0"
	}
	if !isDigits(wholePart) {
		return 0, ErrInvalidAmount
	}
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if len(fracPart) > 2 {
		return 0, ErrTooManyDecimals
	}
	if fracPart != "" && !isDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	frac := int64(0)
	if len(fracPart) == 1 {
		frac = int64(fracPart[0]-'0') * 10
	} else if len(fracPart) == 2 {
		value, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		frac = value
	}
	minor := whole*100 + frac
	return sign * minor, nil
}

func FormatMinor(value int64) string {
	negative := value < 0
	if negative {
		value = -value
	}
	whole := value / 100
	frac := value % 100
	formatted := fmt.Sprintf("%d.%02d", whole, frac)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// ParseRate parses a configured price (currency units per point or per GB)
// into a decimal with at most 6 fractional digits.
func ParseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidRate
	}
	if rate.Exponent() < -6 {
		return decimal.Zero, ErrInvalidRate
	}
	return rate, nil
}

// PointsFromMinor converts a verified top-up amount into credited points:
// floor(amount / pointUserValue), where amount is in minor currency units
// and the rate is in major units per point.
func PointsFromMinor(amountMinor int64, pointUserValue decimal.Decimal) int64 {
	if pointUserValue.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	amount := decimal.NewFromInt(amountMinor).Div(decimal.NewFromInt(100))
	return amount.Div(pointUserValue).Floor().IntPart()
}

// MinorFromPoints converts a point total into a minor-unit currency amount
// at the given rate, bank-rounded to whole minor units.
func MinorFromPoints(points int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(points).Mul(rate).Mul(decimal.NewFromInt(100)).RoundBank(0).IntPart()
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
