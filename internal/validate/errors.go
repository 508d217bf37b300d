// errors.go defines sentinel errors for validation failures.
//
// Each error represents a distinct validation failure category. Detailed
// messages are provided by wrapping these with fmt.Errorf in the validation
// functions.

package validate

import (
	"fmt"

	"github.com/jpl-au/pbmcp/internal/apierr"
)

var (
	ErrInvalidCollection = fmt.Errorf("%w: invalid collection", apierr.ErrInvalidInput)
	ErrInvalidRecordID   = fmt.Errorf("%w: invalid record id", apierr.ErrInvalidInput)
	ErrInvalidCurrency   = fmt.Errorf("%w: invalid currency", apierr.ErrInvalidInput)
	ErrInvalidAmount     = fmt.Errorf("%w: invalid amount", apierr.ErrInvalidInput)
	ErrInvalidStripeID   = fmt.Errorf("%w: invalid stripe id", apierr.ErrInvalidInput)
)
