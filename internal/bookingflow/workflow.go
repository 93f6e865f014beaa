// Package bookingflow drives a single booking through payment to
// confirmation: Initiated -> AwaitingPayment -> PaymentAuthorized ->
// Confirmed, with exits to Cancelled (checkout dismissed) and
// ConfirmationFailed (payment possibly captured, booking unconfirmed).
package bookingflow

import (
	"context"
	"errors"
	"fmt"

	"bookingclient/internal/payment"
	"bookingclient/pkg/bookingapi"
)

// ErrConfirmationFailed marks the one outcome that needs human attention:
// the gateway reported success but confirm-booking did not. Callers surface
// this as contact-support / retry, never as a silent retry loop.
var ErrConfirmationFailed = errors.New("booking confirmation failed after payment")

// Workflow is one booking attempt. It is not reusable: a dismissed or failed
// attempt ends this instance and a retry starts a fresh one at Initiated.
// The client does not assume exclusivity: nothing stops a second attempt
// for the same event elsewhere; the server arbitrates.
type Workflow struct {
	API      *bookingapi.Client
	Payments payment.Provider

	// Journal, when set, records authorized payments until the server
	// confirms them. Strongly recommended outside tests.
	Journal *Journal

	EventID    int64
	EventTitle string
	Notes      string

	// Prefill for the checkout page.
	CustomerName  string
	CustomerEmail string

	state     State
	reference string
	paymentID string
	journalID string
}

type Outcome struct {
	State     State
	Reference string
	BookingID int64
}

func New(api *bookingapi.Client, payments payment.Provider, journal *Journal, eventID int64) *Workflow {
	return &Workflow{
		API:      api,
		Payments: payments,
		Journal:  journal,
		EventID:  eventID,
		state:    StateInitiated,
	}
}

func (w *Workflow) State() State { return w.state }

// Reference is set once create-booking succeeds.
func (w *Workflow) Reference() string { return w.reference }

// Run executes the whole chain. The causal order is fixed: create-booking
// completes before checkout opens, and the success callback completes before
// confirm-booking is called.
func (w *Workflow) Run(ctx context.Context) (*Outcome, error) {
	if w.state != StateInitiated {
		return nil, fmt.Errorf("workflow already ran (state %s)", w.state)
	}

	// Initiated -> AwaitingPayment
	created, err := w.API.BookEvent(ctx, w.EventID, w.Notes)
	if err != nil {
		// Stays Initiated: event full and friends surface as-is, no retry.
		return nil, err
	}
	w.reference = created.BookingReference
	if err := w.to(StateAwaitingPayment); err != nil {
		return nil, err
	}

	// AwaitingPayment -> PaymentAuthorized | Cancelled
	result, err := w.Payments.Open(ctx, payment.CheckoutParams{
		OrderID:     created.PaymentData.OrderID,
		Amount:      created.PaymentData.Amount,
		Currency:    created.PaymentData.Currency,
		KeyID:       created.PaymentData.KeyID,
		Reference:   w.reference,
		Description: fmt.Sprintf("Booking for %s", w.EventTitle),
		Name:        w.CustomerName,
		Email:       w.CustomerEmail,
	})
	if err != nil {
		if terr := w.to(StateCancelled); terr != nil {
			return nil, terr
		}
		if errors.Is(err, payment.ErrDismissed) {
			// Not an error: booking stays (pending, pending) server-side,
			// no confirm call, and the user may simply start over.
			return &Outcome{State: StateCancelled, Reference: w.reference}, nil
		}
		return nil, err
	}
	w.paymentID = result.PaymentID
	if err := w.to(StatePaymentAuthorized); err != nil {
		return nil, err
	}

	// Journal before confirming: if we crash here, the captured payment is
	// still recoverable by confirm-retry.
	if w.Journal != nil {
		id, err := w.Journal.Insert(ctx, w.reference, w.paymentID, w.EventID, w.Notes)
		if err != nil {
			return nil, fmt.Errorf("journal payment: %w", err)
		}
		w.journalID = id
	}

	// PaymentAuthorized -> Confirmed | ConfirmationFailed
	confirmed, err := w.API.ConfirmBooking(ctx, w.EventID, w.reference, w.paymentID, w.Notes)
	if err != nil {
		if terr := w.to(StateConfirmationFailed); terr != nil {
			return nil, terr
		}
		return nil, fmt.Errorf("%w (reference %s, payment %s): %v",
			ErrConfirmationFailed, w.reference, w.paymentID, err)
	}
	if err := w.to(StateConfirmed); err != nil {
		return nil, err
	}
	if w.Journal != nil {
		if err := w.Journal.Resolve(ctx, w.journalID); err != nil {
			return nil, fmt.Errorf("resolve journal entry: %w", err)
		}
	}

	return &Outcome{
		State:     StateConfirmed,
		Reference: confirmed.BookingReference,
		BookingID: confirmed.BookingID,
	}, nil
}

func (w *Workflow) to(next State) error {
	if !CanTransition(w.state, next) {
		return fmt.Errorf("illegal transition %s -> %s", w.state, next)
	}
	w.state = next
	return nil
}

// RetryResult reports one journal entry's retry outcome.
type RetryResult struct {
	Entry     Entry
	BookingID int64
	Err       error
}

// RetryPending replays confirm-booking for every journaled payment. Safe to
// repeat because confirmation is idempotent per booking reference; entries
// resolve only on success.
func RetryPending(ctx context.Context, api *bookingapi.Client, journal *Journal) ([]RetryResult, error) {
	entries, err := journal.Pending(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]RetryResult, 0, len(entries))
	for _, e := range entries {
		confirmed, err := api.ConfirmBooking(ctx, e.EventID, e.BookingReference, e.PaymentID, e.Notes)
		if err != nil {
			results = append(results, RetryResult{Entry: e, Err: err})
			continue
		}
		if err := journal.Resolve(ctx, e.ID); err != nil {
			results = append(results, RetryResult{Entry: e, Err: err})
			continue
		}
		results = append(results, RetryResult{Entry: e, BookingID: confirmed.BookingID})
	}
	return results, nil
}
