package bookingflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bookingclient/internal/payment"
	"bookingclient/internal/statedb"
	"bookingclient/pkg/bookingapi"
)

// fakeBookingAPI emulates the backend's booking endpoints: references are
// issued per create call, and confirmation is idempotent per reference.
type fakeBookingAPI struct {
	mu           sync.Mutex
	nextRef      int
	confirmCalls int
	createCalls  int
	failCreate   string // when set, create-booking rejects with this error
	failConfirm  bool
	confirmed    map[string]int64 // reference -> booking id
}

func newFakeBookingAPI() *fakeBookingAPI {
	return &fakeBookingAPI{nextRef: 1001, confirmed: map[string]int64{}}
}

func (f *fakeBookingAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/book"):
			f.createCalls++
			if f.failCreate != "" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": f.failCreate})
				return
			}
			ref := fmt.Sprintf("BK-%d", f.nextRef)
			f.nextRef++
			_ = json.NewEncoder(w).Encode(map[string]any{
				"booking_reference": ref,
				"payment_data": map[string]any{
					"order_id": "order_" + ref,
					"amount":   50000,
					"currency": "INR",
					"key_id":   "rzp_test_key",
				},
			})

		case strings.HasSuffix(r.URL.Path, "/confirm-booking"):
			f.confirmCalls++
			if f.failConfirm {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Failed to confirm booking"})
				return
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			ref := body["booking_reference"]
			id, ok := f.confirmed[ref]
			if !ok {
				id = int64(len(f.confirmed) + 1)
				f.confirmed[ref] = id
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"booking_id": id, "booking_reference": ref})

		default:
			http.NotFound(w, r)
		}
	})
}

type fakeProvider struct {
	paymentID string
	dismiss   bool
	opens     int
}

func (p *fakeProvider) Open(ctx context.Context, params payment.CheckoutParams) (*payment.Result, error) {
	p.opens++
	if p.dismiss {
		return nil, payment.ErrDismissed
	}
	return &payment.Result{PaymentID: p.paymentID}, nil
}

func testJournal(t *testing.T) (*Journal, *sql.DB) {
	t.Helper()
	db, err := statedb.Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := statedb.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewJournal(db), db
}

func TestRun_HappyPath(t *testing.T) {
	fake := newFakeBookingAPI()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	journal, _ := testJournal(t)
	provider := &fakeProvider{paymentID: "pay_abc"}

	w := New(&bookingapi.Client{BaseURL: srv.URL}, provider, journal, 42)
	w.EventTitle = "Yoga"
	w.Notes = "mat needed"

	outcome, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.State != StateConfirmed {
		t.Fatalf("expected Confirmed, got %s", outcome.State)
	}
	if outcome.Reference != "BK-1001" {
		t.Fatalf("reference mismatch: %q", outcome.Reference)
	}
	if outcome.BookingID == 0 {
		t.Fatalf("missing booking id")
	}
	if w.State() != StateConfirmed {
		t.Fatalf("workflow state: %s", w.State())
	}

	// Confirmed cleanly, so nothing is left for confirm-retry.
	pending, err := journal.Pending(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty journal, got %d entries", len(pending))
	}
}

func TestRun_CreateFailureStaysInitiated(t *testing.T) {
	fake := newFakeBookingAPI()
	fake.failCreate = "Event is full"
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	provider := &fakeProvider{paymentID: "pay_abc"}
	w := New(&bookingapi.Client{BaseURL: srv.URL}, provider, nil, 42)

	_, err := w.Run(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr := &bookingapi.APIError{}
	if !errors.As(err, &apiErr) || apiErr.Message != "Event is full" {
		t.Fatalf("expected verbatim server rejection, got %v", err)
	}
	if w.State() != StateInitiated {
		t.Fatalf("expected Initiated, got %s", w.State())
	}
	if provider.opens != 0 {
		t.Fatalf("checkout must not open after create failure")
	}
}

func TestRun_DismissalCancelsWithoutConfirm(t *testing.T) {
	fake := newFakeBookingAPI()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	w := New(&bookingapi.Client{BaseURL: srv.URL}, &fakeProvider{dismiss: true}, nil, 42)

	outcome, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("dismissal is not an error: %v", err)
	}
	if outcome.State != StateCancelled {
		t.Fatalf("expected Cancelled, got %s", outcome.State)
	}
	if fake.confirmCalls != 0 {
		t.Fatalf("confirm-booking must not be called after dismissal")
	}

	// Retry re-enters at step 1 with the same event and gets a fresh
	// reference from the server.
	w2 := New(&bookingapi.Client{BaseURL: srv.URL}, &fakeProvider{paymentID: "pay_retry"}, nil, 42)
	outcome2, err := w2.Run(context.Background())
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if outcome2.Reference == outcome.Reference {
		t.Fatalf("sequential book calls must yield distinct references")
	}
}

func TestRun_ConfirmFailureJournalsAndSurfaces(t *testing.T) {
	fake := newFakeBookingAPI()
	fake.failConfirm = true
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	journal, _ := testJournal(t)
	w := New(&bookingapi.Client{BaseURL: srv.URL}, &fakeProvider{paymentID: "pay_abc"}, journal, 42)

	_, err := w.Run(context.Background())
	if !errors.Is(err, ErrConfirmationFailed) {
		t.Fatalf("expected ErrConfirmationFailed, got %v", err)
	}
	if w.State() != StateConfirmationFailed {
		t.Fatalf("expected ConfirmationFailed, got %s", w.State())
	}

	pending, err := journal.Pending(context.Background())
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one journaled payment, got %d", len(pending))
	}
	if pending[0].BookingReference != "BK-1001" || pending[0].PaymentID != "pay_abc" {
		t.Fatalf("journal entry mismatch: %+v", pending[0])
	}
}

func TestRetryPending_IdempotentConfirmation(t *testing.T) {
	fake := newFakeBookingAPI()
	fake.failConfirm = true
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	journal, _ := testJournal(t)
	api := &bookingapi.Client{BaseURL: srv.URL}

	w := New(api, &fakeProvider{paymentID: "pay_abc"}, journal, 42)
	if _, err := w.Run(context.Background()); !errors.Is(err, ErrConfirmationFailed) {
		t.Fatalf("setup: expected confirmation failure, got %v", err)
	}

	// Server recovers; first retry resolves the entry.
	fake.failConfirm = false
	results, err := RetryPending(context.Background(), api, journal)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("unexpected retry results: %+v", results)
	}
	firstID := results[0].BookingID

	// Confirming the same reference again is a no-op success with the same
	// booking id, so even a double retry cannot duplicate a booking.
	again, err := api.ConfirmBooking(context.Background(), 42, "BK-1001", "pay_abc", "")
	if err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	if again.BookingID != firstID {
		t.Fatalf("idempotence violated: %d != %d", again.BookingID, firstID)
	}

	// Journal is clean afterwards.
	pending, _ := journal.Pending(context.Background())
	if len(pending) != 0 {
		t.Fatalf("expected resolved journal, got %d pending", len(pending))
	}
}
