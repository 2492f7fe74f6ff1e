package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceDigits is the total number of digits of a stored price, fraction
// digits included.
const PriceDigits = 10

// maxPriceInputLen bounds the raw input before any parsing.
const maxPriceInputLen = 32

var (
	// plain positional notation only, exponents are rejected
	priceFormat = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

	// priceLimit is the smallest value that does not fit PriceDigits.
	priceLimit = decimal.New(1, PriceDigits-PriceScale)
)

// ParsePrice parses a client supplied price. A comma decimal separator is
// accepted. The result is rounded to PriceScale fraction digits and must
// fit PriceDigits.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	switch {
	case s == "":
		return decimal.Decimal{}, fmt.Errorf("%w: price is required", ErrValidation)
	case len(s) > maxPriceInputLen, !priceFormat.MatchString(s):
		return decimal.Decimal{}, fmt.Errorf("%w: malformed price %.32q", ErrValidation, s)
	}
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: malformed price %q", ErrValidation, s)
	}
	price = price.Round(PriceScale)
	if err := checkPriceRange(price); err != nil {
		return decimal.Decimal{}, err
	}
	return price, nil
}

// checkPriceMagnitude rejects values whose rounding would have to expand
// an arbitrary exponent.
func checkPriceMagnitude(price decimal.Decimal) error {
	exp := int64(price.Exponent())
	switch {
	case exp < -maxPriceInputLen:
		return fmt.Errorf("%w: price has too many fraction digits", ErrValidation)
	case price.IsZero():
		return nil
	case int64(price.NumDigits())+exp > PriceDigits-PriceScale:
		return fmt.Errorf("%w: price must be less than %s", ErrValidation, priceLimit)
	}
	return nil
}

func checkPriceRange(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	case price.GreaterThanOrEqual(priceLimit):
		return fmt.Errorf("%w: price must be less than %s", ErrValidation, priceLimit)
	}
	return nil
}

// NewProductFields validates and normalizes the mutable fields of a product.
func NewProductFields(
	name, category string, price decimal.Decimal,
) (ProductFields, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)

	switch {
	case name == "":
		return ProductFields{}, fmt.Errorf("%w: name is required", ErrValidation)
	case category == "":
		return ProductFields{}, fmt.Errorf("%w: category is required", ErrValidation)
	}

	if err := checkPriceMagnitude(price); err != nil {
		return ProductFields{}, err
	}
	price = price.Round(PriceScale)
	if err := checkPriceRange(price); err != nil {
		return ProductFields{}, err
	}

	return ProductFields{
		Name:     name,
		Category: category,
		Price:    price,
	}, nil
}

func (f ProductFields) Validate() error {
	_, err := NewProductFields(f.Name, f.Category, f.Price)
	return err
}
