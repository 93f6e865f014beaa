// Package approval lets a facilitator resolve a pending booking. The client
// gates which action it offers on the booking's current state, but the
// server stays authoritative: a booking that changed state between fetch and
// action comes back as a server error to surface, followed by a re-fetch,
// never an assumed success.
package approval

import (
	"context"
	"errors"

	"bookingclient/pkg/bookingapi"
)

var (
	ErrNotApprovable = errors.New("booking is not approvable (needs pending status and pending payment)")
	ErrNotRejectable = errors.New("booking is not rejectable (needs pending status)")
)

type Workflow struct {
	API *bookingapi.Client
}

// CanApprove reports whether the approve action is offered for the booking:
// only from (pending, pending).
func (Workflow) CanApprove(b bookingapi.EventBooking) bool {
	return b.Status == bookingapi.BookingPending && b.PaymentStatus == bookingapi.PaymentPending
}

// CanReject reports whether the reject action is offered: any pending
// booking regardless of payment status.
func (Workflow) CanReject(b bookingapi.EventBooking) bool {
	return b.Status == bookingapi.BookingPending
}

// Approve transitions (pending, pending) -> (confirmed, completed).
func (w Workflow) Approve(ctx context.Context, b bookingapi.EventBooking) error {
	if !w.CanApprove(b) {
		return ErrNotApprovable
	}
	return w.API.ApproveBooking(ctx, b.BookingID)
}

// Reject transitions a pending booking to its rejected/refunded terminal
// state; the server decides the exact terminal status. The optional reason
// travels in the request body exactly once.
func (w Workflow) Reject(ctx context.Context, b bookingapi.EventBooking, reason string) error {
	if !w.CanReject(b) {
		return ErrNotRejectable
	}
	return w.API.RejectBooking(ctx, b.BookingID, reason)
}
