package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an immutable, non-negative amount in a single currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates and builds a Money value. Currency is an ISO 4217 code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Money{}, invalid("currency", "%q is not a 3-letter currency code", currency)
	}
	if amount.IsNegative() {
		return Money{}, invalid("amount", "must not be negative, got %s", amount)
	}
	return Money{amount: amount.Round(2), currency: currency}, nil
}

// ParseMoney builds Money from a decimal string such as "150000.00".
func ParseMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, invalid("amount", "%q is not a decimal number", amount)
	}
	return NewMoney(d, currency)
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

// Equal reports whether both values have the same amount and currency.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

// GreaterThan compares two amounts of the same currency.
func (m Money) GreaterThan(o Money) (bool, error) {
	if m.currency != o.currency {
		return false, invalid("currency", "cannot compare %s with %s", m.currency, o.currency)
	}
	return m.amount.GreaterThan(o.amount), nil
}

// Add returns m+o. Both values must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, invalid("currency", "cannot add %s to %s", o.currency, m.currency)
	}
	return Money{amount: m.amount.Add(o.amount), currency: m.currency}, nil
}

// Times returns m multiplied by a non-negative integer factor.
func (m Money) Times(n int) Money {
	if n < 0 {
		n = 0
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(n))), currency: m.currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}
