package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Money conversion errors
var (
	ErrNonPositiveAmount = errors.New("migration: amount must be positive")
	ErrInvalidCurrency   = errors.New("migration: invalid ISO 4217 currency code")
	ErrNoAmount          = errors.New("migration: no usable amount on record")
)

// minorUnitsPerMajor is the scale between major and minor units.
// All supported providers quote prices in two-decimal currencies.
const minorUnitsPerMajor = 100

// MoneyAmount is an integer minor-unit amount (e.g., cents) with an
// ISO 4217 currency code.
type MoneyAmount struct {
	Amount   int64
	Currency string
}

// NewMoneyAmount validates and builds a MoneyAmount. The amount must be
// positive and the currency a recognized ISO 4217 code.
func NewMoneyAmount(amount int64, code string) (MoneyAmount, error) {
	if amount <= 0 {
		return MoneyAmount{}, fmt.Errorf("%w: %d", ErrNonPositiveAmount, amount)
	}
	normalized, err := NormalizeCurrency(code)
	if err != nil {
		return MoneyAmount{}, err
	}
	return MoneyAmount{Amount: amount, Currency: normalized}, nil
}

// String renders the amount as "<minor> <CUR>".
func (m MoneyAmount) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}

// Major renders the amount in major units, e.g. "9.99".
func (m MoneyAmount) Major() string {
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(minorUnitsPerMajor)).StringFixed(2)
}

// NormalizeCurrency validates a currency code and returns it as a 3-letter
// uppercase ISO 4217 code.
func NormalizeCurrency(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", ErrInvalidCurrency
	}
	unit, err := currency.ParseISO(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}

// MinorUnitsFromDecimal parses a decimal major-unit string (e.g. "19.99")
// and rounds it to the nearest minor unit.
func MinorUnitsFromDecimal(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoAmount, s)
	}
	minor := d.Mul(decimal.NewFromInt(minorUnitsPerMajor)).Round(0).IntPart()
	if minor <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNonPositiveAmount, s)
	}
	return minor, nil
}
