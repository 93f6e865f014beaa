package bookingapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDoJSON_AttachesBearerWhenTokenPresent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Tokens: StaticToken("tok-123")}
	if _, err := c.ListEvents(context.Background()); err != nil {
		t.Fatalf("list events: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestDoJSON_NoHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Tokens: StaticToken("")}
	if _, err := c.ListEvents(context.Background()); err != nil {
		t.Fatalf("list events: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestDoJSON_ServerRejectionSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Event is full"})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.BookEvent(context.Background(), 7, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "Event is full" {
		t.Fatalf("expected verbatim server message, got %q", apiErr.Message)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", apiErr.Status)
	}
}

func TestDoJSON_UnknownErrorShapeIsNotAnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>upstream exploded</html>`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.ListEvents(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := err.(*APIError); ok {
		t.Fatalf("non-envelope body must not become an APIError")
	}
}

func TestBookEvent_DecodesReferenceAndPaymentParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/events/42/book" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["notes"] != "window seat" {
			t.Fatalf("notes not transmitted, got %q", body["notes"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"booking_reference": "BK-1001",
			"payment_data": map[string]any{
				"order_id": "order_xyz",
				"amount":   50000,
				"currency": "INR",
				"key_id":   "rzp_test_key",
			},
		})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	resp, err := c.BookEvent(context.Background(), 42, "window seat")
	if err != nil {
		t.Fatalf("book event: %v", err)
	}
	if resp.BookingReference != "BK-1001" {
		t.Fatalf("reference mismatch: %q", resp.BookingReference)
	}
	if resp.PaymentData.OrderID != "order_xyz" || resp.PaymentData.Amount != 50000 {
		t.Fatalf("payment params mismatch: %+v", resp.PaymentData)
	}
}

func TestGetEvent_DecodesPriceAsDecimal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"title":"Yoga","price":500.00,"currency":"INR","max_participants":10,"current_participants":10}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	ev, err := c.GetEvent(context.Background(), 1)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if !ev.Price.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("expected price 500, got %s", ev.Price)
	}
	if !ev.Full() {
		t.Fatalf("expected event full at 10/10")
	}
}

func TestConfirmBooking_SendsTriple(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["booking_reference"] != "BK-1001" || body["payment_id"] != "pay_abc" {
			t.Fatalf("unexpected body: %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"booking_id": 9, "booking_reference": "BK-1001"})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	resp, err := c.ConfirmBooking(context.Background(), 42, "BK-1001", "pay_abc", "")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if resp.BookingID != 9 {
		t.Fatalf("expected booking id 9, got %d", resp.BookingID)
	}
}

func TestCreateEventRequest_ValidationBlocksLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("validation failure must not reach the network")
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	req := CreateEventRequest{
		Title:           "Workshop",
		EventType:       "workshop",
		StartDatetime:   "2026-09-02T12:00:00",
		EndDatetime:     "2026-09-02T10:00:00", // before start
		MaxParticipants: 5,
		Price:           decimal.NewFromInt(100),
		Currency:        "INR",
	}
	if _, err := c.CreateEvent(context.Background(), req); err == nil {
		t.Fatalf("expected end-before-start to fail validation")
	}

	req.Price = decimal.NewFromInt(-1)
	req.EndDatetime = "2026-09-02T14:00:00"
	if _, err := c.CreateEvent(context.Background(), req); err == nil {
		t.Fatalf("expected negative price to fail validation")
	}
}
