package bookingapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ListEvents returns the active events visible to any authenticated user.
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if _, err := c.doJSON(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, eventID int64) (*Event, error) {
	var ev Event
	if _, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/events/%d", eventID), nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// FacilitatorEvents lists the calling facilitator's own events.
func (c *Client) FacilitatorEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if _, err := c.doJSON(ctx, http.MethodGet, "/facilitator/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

type CreateEventRequest struct {
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	EventType       string          `json:"event_type"`
	StartDatetime   string          `json:"start_datetime"`
	EndDatetime     string          `json:"end_datetime"`
	Location        string          `json:"location,omitempty"`
	VirtualLink     string          `json:"virtual_link,omitempty"`
	MaxParticipants int             `json:"max_participants"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
}

// Validate applies the client-side checks that block submission before any
// network call: required fields, end after start, non-negative price.
func (r CreateEventRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.EventType) == "" {
		return fmt.Errorf("event type is required")
	}
	start, err := parseEventTime(r.StartDatetime)
	if err != nil {
		return fmt.Errorf("invalid start datetime: %w", err)
	}
	end, err := parseEventTime(r.EndDatetime)
	if err != nil {
		return fmt.Errorf("invalid end datetime: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("end datetime must be after start datetime")
	}
	if r.MaxParticipants < 1 {
		return fmt.Errorf("max participants must be at least 1")
	}
	if r.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

type createEventResponse struct {
	Message string `json:"message"`
	EventID int64  `json:"event_id"`
}

// CreateEvent is facilitator-only server-side; validation failures here never
// reach the network.
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (int64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	var resp createEventResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/events", req, &resp); err != nil {
		return 0, err
	}
	return resp.EventID, nil
}

// The backend emits naive ISO timestamps; accept both zoned and naive forms.
func parseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
