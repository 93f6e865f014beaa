package bookingapi

import "github.com/shopspring/decimal"

// User is the authenticated account. Role may be empty right after an OAuth
// signup; callers route such sessions to role selection.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Phone      string `json:"phone,omitempty"`
	IsVerified bool   `json:"is_verified,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// PersonRef is the abbreviated user/facilitator shape embedded in list rows.
type PersonRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event datetimes are the backend's ISO strings, passed through untouched;
// the server is the authority on schedule validity.
type Event struct {
	ID                  int64           `json:"id"`
	Title               string          `json:"title"`
	Description         string          `json:"description,omitempty"`
	EventType           string          `json:"event_type"`
	StartDatetime       string          `json:"start_datetime"`
	EndDatetime         string          `json:"end_datetime"`
	Location            string          `json:"location,omitempty"`
	VirtualLink         string          `json:"virtual_link,omitempty"`
	MaxParticipants     int             `json:"max_participants"`
	CurrentParticipants int             `json:"current_participants"`
	Price               decimal.Decimal `json:"price"`
	Currency            string          `json:"currency"`
	Facilitator         *PersonRef      `json:"facilitator,omitempty"`
}

// Full reports whether no spots remain. Advisory only: the server re-checks
// at booking time.
func (e Event) Full() bool {
	return e.CurrentParticipants >= e.MaxParticipants
}

// Booking statuses as issued by the server.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingRejected  = "rejected"
)

// Payment statuses as issued by the server.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentRefunded  = "refunded"
)

type Booking struct {
	ID               int64      `json:"id"`
	BookingReference string     `json:"booking_reference"`
	Status           string     `json:"status"`
	PaymentStatus    string     `json:"payment_status"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        string     `json:"created_at,omitempty"`
	CancelledAt      *string    `json:"cancelled_at,omitempty"`
	Event            *Event     `json:"event,omitempty"`
	Facilitator      *PersonRef `json:"facilitator,omitempty"`
}

// EventBooking is a row in a facilitator's per-event booking list.
type EventBooking struct {
	BookingID     int64      `json:"booking_id"`
	User          *PersonRef `json:"user,omitempty"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	CreatedAt     string     `json:"created_at,omitempty"`
}

// PaymentParams is the opaque gateway handle returned by create-booking.
// Amount is in the currency's minor unit (paise for INR).
type PaymentParams struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}
