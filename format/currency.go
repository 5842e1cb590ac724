package format

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	currencySymbol   = "$"
	currencyDecimals = 2
)

// Currency renders amount as US dollars, e.g. 1234.5 becomes "$1,234.50".
//
// The amount is rounded half away from zero to two decimals. Negative
// amounts are rendered with a leading minus sign ("-$12.00"); amounts that
// round to zero are rendered as "$0.00". NaN and infinities are rejected with
// an error wrapping ErrInvalidArgument.
func Currency(amount float64) (string, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", fmt.Errorf("%w: amount %v is not a finite number", ErrInvalidArgument, amount)
	}

	rounded := decimal.NewFromFloat(amount).Round(currencyDecimals)

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	p := message.NewPrinter(language.AmericanEnglish)
	digits := p.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(currencyDecimals)))

	return sign + currencySymbol + digits, nil
}

// MustCurrency is like Currency but panics if amount cannot be formatted.
// It is meant for templates and values known to be finite.
func MustCurrency(amount float64) string {
	s, err := Currency(amount)
	if err != nil {
		panic(err)
	}
	return s
}
