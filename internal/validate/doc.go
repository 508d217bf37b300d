// Package validate provides input validation for tool arguments.
//
// Tools validate identifiers before any request is sent, so a typo in a
// collection name or a malformed Stripe amount is reported immediately
// instead of costing a round trip and an opaque remote error.
//
// # Validation Functions
//
// Collection validates PocketBase collection names.
// RecordID validates PocketBase record ids.
// Currency validates ISO 4217 currency codes for Stripe.
// Amount validates Stripe amounts in the smallest currency unit.
// StripeID validates Stripe object ids by prefix.
//
// # Error Handling
//
// All validation errors wrap one of the sentinel errors defined in errors.go,
// and every sentinel wraps apierr.ErrInvalidInput so the tool boundary
// reports them as validation failures:
//
//	if errors.Is(err, validate.ErrInvalidCollection) {
//	    // handle invalid collection name
//	}
package validate
