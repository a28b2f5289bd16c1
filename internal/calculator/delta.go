package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrZeroPrevious is returned when the previous close is zero and no
// percentage can be computed.
var ErrZeroPrevious = errors.New("previous close is zero")

var hundred = decimal.NewFromInt(100)

// Delta returns the absolute change latest-previous and the percentage
// change relative to previous.
func Delta(latest, previous decimal.Decimal) (change, percentage decimal.Decimal, err error) {
	if previous.IsZero() {
		return decimal.Zero, decimal.Zero, ErrZeroPrevious
	}
	change = latest.Sub(previous)
	percentage = change.Div(previous).Mul(hundred)
	return change, percentage, nil
}
