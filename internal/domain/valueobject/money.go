// Package valueobject contains value objects that represent concepts without identity.
// Value objects are immutable and compared by their attributes rather than identity.
//
// Value Objects follow these principles:
//   - Immutability: Once created, they cannot be changed.
//   - Self-validation: They validate their own data upon creation.
//   - Side-effect free: Methods return new instances rather than modifying state
package valueobject

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Currency represents a monetary currency using ISO 4217 codes.
type Currency string

// Supported currencies in the catalog.
const (
	CurrencyINR Currency = "INR" // Indian Rupee
	CurrencyUSD Currency = "USD" // US Dollar
	CurrencyEUR Currency = "EUR" // Euro
	CurrencyAED Currency = "AED" // UAE Dirham
)

// Money errors define domain-specific error conditions.
var (
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrCurrencyMismatch = errors.New("currency mismatch in operation")
	ErrNegativeAmount   = errors.New("money amount cannot be negative")
	ErrInvalidAmount    = errors.New("money amount is not a number")
)

// Money represents a monetary value with currency.
// It stores amounts in the smallest unit (paise, cents) to avoid floating-point drift.
//
// Example usage:
//
//	rate := valueobject.NewMoney(25000, valueobject.CurrencyINR) // ₹250.00 per sqft
//	total := rate.MultiplyFloat(500)                            // ₹125000.00
type Money struct {
	// Amount in smallest currency unit
	Amount int64 `json:"amount"`

	// Currency using ISO 4217 code
	Currency Currency `json:"currency"`
}

// NewMoney creates a new Money value object.
func NewMoney(amount int64, currency Currency) Money {
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}

// NewMoneyFromFloat creates a new Money from a decimal amount, rounding to the nearest minor unit.
//
// Parameters:
//   - amount: Decimal amount (e.g., 249.99)
//   - currency: ISO 4217 currency code
//
// Returns:
//   - Money: the created Money value object
func NewMoneyFromFloat(amount float64, currency Currency) Money {
	return NewMoney(int64(math.Round(amount*100)), currency)
}

// amountPattern is a plain decimal amount. Thousands groups of two or three
// digits (1,250.50 or 1,25,000) are accepted.
var amountPattern = regexp.MustCompile(`^(\d+|\d{1,3}(,\d{2,3})+)(\.\d+)?$`)

// ParseMoney parses a price typed into the form, e.g. "250", "₹ 1,250.50",
// "AED 99". A currency symbol or code may lead or trail the amount; anything
// else that is not part of a plain decimal number is rejected.
//
// Parameters:
//   - s: the price text
//   - currency: currency to attach
//
// Returns:
//   - Money: the parsed amount
//   - error: ErrInvalidAmount or ErrNegativeAmount
func ParseMoney(s string, currency Currency) (Money, error) {
	text := strings.TrimSpace(s)
	negative := false
	if rest, ok := strings.CutPrefix(text, "-"); ok {
		negative, text = true, strings.TrimSpace(rest)
	}
	text = trimCurrency(text)
	if rest, ok := strings.CutPrefix(text, "-"); ok && !negative {
		negative, text = true, strings.TrimSpace(rest)
	}

	if !amountPattern.MatchString(text) {
		return Money{}, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if err != nil || math.IsInf(v, 0) {
		return Money{}, ErrInvalidAmount
	}
	if negative && v != 0 {
		return Money{}, ErrNegativeAmount
	}
	return NewMoneyFromFloat(v, currency), nil
}

// trimCurrency removes one currency symbol or code from either end of s.
func trimCurrency(s string) string {
	for _, c := range knownCurrencies {
		for _, mark := range []string{currencySymbols[c], string(c)} {
			if len(s) >= len(mark) && strings.EqualFold(s[:len(mark)], mark) {
				return strings.TrimSpace(s[len(mark):])
			}
			if len(s) >= len(mark) && strings.EqualFold(s[len(s)-len(mark):], mark) {
				return strings.TrimSpace(s[:len(s)-len(mark)])
			}
		}
	}
	return s
}

// ParseCurrency validates an ISO 4217 code supported by the catalog.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := currencySymbols[c]; !ok {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

// Add adds two Money values and returns a new Money.
//
// Returns:
//   - Money: the sum of the two Money values
//   - error: ErrCurrencyMismatch if currencies do not match
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency && !m.IsZero() && !other.IsZero() {
		return Money{}, ErrCurrencyMismatch
	}
	currency := m.Currency
	if m.IsZero() {
		currency = other.Currency
	}
	return NewMoney(m.Amount+other.Amount, currency), nil
}

// MultiplyFloat multiplies the amount by a float factor, e.g. a per-sqft rate by an area.
// The result is rounded to the nearest minor unit.
func (m Money) MultiplyFloat(factor float64) Money {
	return NewMoney(int64(math.Round(float64(m.Amount)*factor)), m.Currency)
}

// IsZero checks if the Money amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsPositive checks if the Money amount is positive.
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// Equals checks if two Money values are equal in amount and currency.
func (m Money) Equals(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// ToFloat converts the Money amount to a decimal value (e.g., 249.99).
func (m Money) ToFloat() float64 {
	return float64(m.Amount) / 100.0
}

// String returns a formatted string representation of the Money (e.g., "INR 249.99").
func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.ToFloat())
}

// Format returns the money formatted with its currency symbol (e.g., "₹249.99").
func (m Money) Format() string {
	symbol, ok := currencySymbols[m.Currency]
	if !ok {
		symbol = string(m.Currency) + " "
	}
	return fmt.Sprintf("%s%.2f", symbol, m.ToFloat())
}

var knownCurrencies = []Currency{CurrencyINR, CurrencyUSD, CurrencyEUR, CurrencyAED}

var currencySymbols = map[Currency]string{
	CurrencyINR: "₹",
	CurrencyUSD: "$",
	CurrencyEUR: "€",
	CurrencyAED: "د.إ",
}
