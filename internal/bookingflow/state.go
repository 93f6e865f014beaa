package bookingflow

import "fmt"

type State string

const (
	// StateInitiated: nothing reserved yet; create-booking not yet accepted.
	StateInitiated State = "Initiated"

	// StateAwaitingPayment: server issued a booking reference and gateway
	// order; checkout is in the customer's hands.
	StateAwaitingPayment State = "AwaitingPayment"

	// StatePaymentAuthorized: gateway reported success; confirmation with
	// the server is still outstanding.
	StatePaymentAuthorized State = "PaymentAuthorized"

	// StateConfirmed: server finalized the booking.
	StateConfirmed State = "Confirmed"

	// StateCancelled: checkout dismissed; the booking stays (pending,
	// pending) server-side and a fresh attempt may start over.
	StateCancelled State = "Cancelled"

	// StateConfirmationFailed: payment may be captured while the booking is
	// not confirmed. Surfaced as contact-support; the journaled reference
	// and payment id make a manual retry safe.
	StateConfirmationFailed State = "ConfirmationFailed"
)

func ParseState(s string) (State, error) {
	switch State(s) {
	case StateInitiated, StateAwaitingPayment, StatePaymentAuthorized,
		StateConfirmed, StateCancelled, StateConfirmationFailed:
		return State(s), nil
	default:
		return "", fmt.Errorf("unknown state: %s", s)
	}
}

var allowedTransitions = map[State]map[State]bool{
	StateInitiated:          {StateAwaitingPayment: true},
	StateAwaitingPayment:    {StatePaymentAuthorized: true, StateCancelled: true},
	StatePaymentAuthorized:  {StateConfirmed: true, StateConfirmationFailed: true},
	StateConfirmed:          {},
	StateCancelled:          {},
	StateConfirmationFailed: {},
}

func CanTransition(from, to State) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}
