package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"bookingclient/pkg/bookingapi"
)

// namespace keys the single persisted record, mirroring the web client's
// storage key so both clients rehydrate the same shape of state.
const namespace = "auth-storage"

// Repository persists the {user, token} record in the local state database.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Load reads the persisted session. A missing record is not an error: it
// returns (nil, "", nil), meaning "logged out".
func (r *Repository) Load(ctx context.Context) (*bookingapi.User, string, error) {
	const q = `SELECT user_json, token FROM session WHERE namespace = ?`

	var userJSON sql.NullString
	var token string
	err := r.db.QueryRowContext(ctx, q, namespace).Scan(&userJSON, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	var user *bookingapi.User
	if userJSON.Valid && userJSON.String != "" {
		user = &bookingapi.User{}
		if err := json.Unmarshal([]byte(userJSON.String), user); err != nil {
			// A corrupt record behaves like a logged-out session rather
			// than wedging startup.
			return nil, "", nil
		}
	}
	return user, token, nil
}

func (r *Repository) Save(ctx context.Context, user *bookingapi.User, token string) error {
	var userJSON []byte
	if user != nil {
		b, err := json.Marshal(user)
		if err != nil {
			return err
		}
		userJSON = b
	}

	const q = `
INSERT INTO session (namespace, user_json, token, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (namespace) DO UPDATE SET
  user_json = excluded.user_json,
  token = excluded.token,
  updated_at = excluded.updated_at
`
	_, err := r.db.ExecContext(ctx, q, namespace, string(userJSON), token, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *Repository) Clear(ctx context.Context) error {
	const q = `DELETE FROM session WHERE namespace = ?`
	_, err := r.db.ExecContext(ctx, q, namespace)
	return err
}
