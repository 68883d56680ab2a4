package processors

import "errors"

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrInvalidRate   = errors.New("exchange rate must be greater than zero")
)

// Convert turns a foreign-currency amount into its TRY value at the given
// rate. No rounding happens here; display formatting is applied at render
// time only, so the stored value stays exact.
func Convert(amount, rate float64) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if rate <= 0 {
		return 0, ErrInvalidRate
	}
	return amount * rate, nil
}
