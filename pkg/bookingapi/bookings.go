package bookingapi

import (
	"context"
	"fmt"
	"net/http"
)

// UserBookings lists the calling user's bookings, newest first.
func (c *Client) UserBookings(ctx context.Context) ([]Booking, error) {
	var bookings []Booking
	if _, err := c.doJSON(ctx, http.MethodGet, "/user/bookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

type BookEventResponse struct {
	Message          string        `json:"message"`
	BookingReference string        `json:"booking_reference"`
	PaymentData      PaymentParams `json:"payment_data"`
}

// BookEvent initiates a booking: the server reserves nothing yet, it issues a
// booking reference and gateway order for the client to pay against.
func (c *Client) BookEvent(ctx context.Context, eventID int64, notes string) (*BookEventResponse, error) {
	body := map[string]string{"notes": notes}
	var resp BookEventResponse
	if _, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/user/events/%d/book", eventID), body, &resp); err != nil {
		return nil, err
	}
	if resp.BookingReference == "" {
		return nil, fmt.Errorf("book event returned empty booking_reference")
	}
	if resp.PaymentData.OrderID == "" {
		return nil, fmt.Errorf("book event returned no payment order")
	}
	return &resp, nil
}

type ConfirmBookingResponse struct {
	Message          string `json:"message"`
	BookingID        int64  `json:"booking_id"`
	BookingReference string `json:"booking_reference"`
}

// ConfirmBooking finalizes a paid booking. The server treats repeated calls
// with the same reference as a no-op success returning the same booking id,
// which makes manual retry after a failed confirmation safe.
func (c *Client) ConfirmBooking(ctx context.Context, eventID int64, bookingReference, paymentID, notes string) (*ConfirmBookingResponse, error) {
	body := map[string]string{
		"booking_reference": bookingReference,
		"payment_id":        paymentID,
		"notes":             notes,
	}
	var resp ConfirmBookingResponse
	if _, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/user/events/%d/confirm-booking", eventID), body, &resp); err != nil {
		return nil, err
	}
	if resp.BookingID == 0 {
		return nil, fmt.Errorf("confirm booking returned empty booking_id")
	}
	return &resp, nil
}

func (c *Client) CancelBooking(ctx context.Context, bookingID int64) error {
	_, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/user/bookings/%d/cancel", bookingID), nil, nil)
	return err
}

// EventBookings lists bookings for one of the calling facilitator's events.
func (c *Client) EventBookings(ctx context.Context, eventID int64) ([]EventBooking, error) {
	var bookings []EventBooking
	if _, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/facilitator/events/%d/bookings", eventID), nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) ApproveBooking(ctx context.Context, bookingID int64) error {
	_, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/facilitator/bookings/%d/approve", bookingID), nil, nil)
	return err
}

// RejectBooking transmits the optional free-text reason exactly once.
func (c *Client) RejectBooking(ctx context.Context, bookingID int64, reason string) error {
	body := map[string]string{"reason": reason}
	_, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/facilitator/bookings/%d/reject", bookingID), body, nil)
	return err
}
