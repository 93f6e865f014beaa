package bookingflow

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	entryPending  = "pending"
	entryResolved = "resolved"
)

// Entry records a payment whose server-side confirmation has not succeeded
// yet. Pending entries survive restarts so the user can retry confirmation
// (idempotent server-side) instead of losing a captured payment.
type Entry struct {
	ID               string
	BookingReference string
	PaymentID        string
	EventID          int64
	Notes            string
	CreatedAt        time.Time
}

// Journal persists unresolved confirmations in the local state database.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Insert(ctx context.Context, bookingReference, paymentID string, eventID int64, notes string) (string, error) {
	id := uuid.NewString()
	const q = `
INSERT INTO payment_journal (id, booking_reference, payment_id, event_id, notes, state, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`
	_, err := j.db.ExecContext(ctx, q, id, bookingReference, paymentID, eventID, notes,
		entryPending, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (j *Journal) Resolve(ctx context.Context, id string) error {
	const q = `
UPDATE payment_journal
SET state = ?, resolved_at = ?
WHERE id = ? AND state = ?
`
	_, err := j.db.ExecContext(ctx, q, entryResolved, time.Now().UTC().Format(time.RFC3339), id, entryPending)
	return err
}

func (j *Journal) Pending(ctx context.Context) ([]Entry, error) {
	const q = `
SELECT id, booking_reference, payment_id, event_id, notes, created_at
FROM payment_journal
WHERE state = ?
ORDER BY created_at
`
	rows, err := j.db.QueryContext(ctx, q, entryPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.BookingReference, &e.PaymentID, &e.EventID, &e.Notes, &createdAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
