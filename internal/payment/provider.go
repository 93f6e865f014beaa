// Package payment abstracts the external checkout widget so the booking
// workflow can run against a fake in tests and against the real hosted
// checkout in the CLI.
package payment

import (
	"context"
	"errors"
)

// ErrDismissed means the customer closed the checkout without paying. It is
// a cancellation, not a failure: the booking stays retryable.
var ErrDismissed = errors.New("payment dismissed")

// CheckoutParams carries the gateway order handle issued by create-booking,
// plus display-only context. The order fields are opaque to the client.
type CheckoutParams struct {
	OrderID  string
	Amount   int64 // minor units (paise for INR)
	Currency string
	KeyID    string

	Reference   string // booking reference, shown on the checkout page
	Description string
	Name        string // prefill
	Email       string // prefill
}

// Result is the gateway's success payload.
type Result struct {
	PaymentID string
}

// Provider opens a checkout for the given order and blocks until the
// customer pays (Result), dismisses (ErrDismissed), or ctx ends.
type Provider interface {
	Open(ctx context.Context, params CheckoutParams) (*Result, error)
}
