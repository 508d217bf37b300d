// stripe.go validates Stripe arguments.

package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var currency = regexp.MustCompile(`^[a-z]{3}$`)

// maxAmount is Stripe's upper bound for amounts (99,999,999.99 in a two
// decimal currency).
const maxAmount = 99_999_999_99

// Currency validates and lower-cases a three-letter ISO currency code.
func Currency(c string) (string, error) {
	c = strings.ToLower(strings.TrimSpace(c))
	if !currency.MatchString(c) {
		return "", fmt.Errorf("%w: %q is not a three-letter ISO code", ErrInvalidCurrency, c)
	}
	return c, nil
}

// Amount validates an amount in the smallest currency unit (cents). JSON
// numbers arrive as float64, so fractional values are rejected explicitly.
func Amount(v float64) (int64, error) {
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %v must be a whole number of the smallest currency unit (e.g. cents)", ErrInvalidAmount, v)
	}
	if v < 0 || v > maxAmount {
		return 0, fmt.Errorf("%w: %v is out of range", ErrInvalidAmount, v)
	}
	return int64(v), nil
}

// StripeID checks that id carries one of the expected prefixes
// (cus_, pi_, prod_, price_, sub_, in_, cs_, ...).
func StripeID(id string, prefixes ...string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidStripeID)
	}
	for _, p := range prefixes {
		if strings.HasPrefix(id, p) && len(id) > len(p) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q should start with %s", ErrInvalidStripeID, id, strings.Join(prefixes, " or "))
}
