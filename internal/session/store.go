// Package session owns the current identity: who is logged in and with what
// credential. It is the only shared mutable state in the client; all writes
// go through Login/Logout/SetUser/UpdateUser so the in-memory and persisted
// copies never diverge.
package session

import (
	"context"
	"fmt"
	"sync"

	"bookingclient/pkg/bookingapi"
)

// Session is a point-in-time snapshot of the store. Consumers must not make
// authorization decisions while Rehydrated is false.
type Session struct {
	User       *bookingapi.User
	Token      string
	Rehydrated bool
}

type Store struct {
	repo *Repository

	mu         sync.Mutex
	user       *bookingapi.User
	token      string
	rehydrated bool
}

func NewStore(repo *Repository) *Store {
	return &Store{repo: repo}
}

// Rehydrate loads the persisted session once at startup. Whatever happens,
// the store is marked rehydrated exactly once; a load failure leaves the
// session logged out rather than blocking the client.
func (s *Store) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rehydrated {
		return nil
	}

	user, token, err := s.repo.Load(ctx)
	s.rehydrated = true
	if err != nil {
		return fmt.Errorf("rehydrate session: %w", err)
	}
	s.user = user
	s.token = token
	return nil
}

// Login sets user and token together. The write is persisted and committed
// in-memory before Login returns, so a caller may navigate immediately
// afterwards and every observer will see the new state.
func (s *Store) Login(ctx context.Context, user *bookingapi.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, user, token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.user = cloneUser(user)
	s.token = token
	return nil
}

// Logout clears both fields and the persisted copy.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.user = nil
	s.token = ""
	return nil
}

// SetUser replaces the user without touching the token.
func (s *Store) SetUser(ctx context.Context, user *bookingapi.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, user, s.token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.user = cloneUser(user)
	return nil
}

// UpdateUser merges non-zero profile fields into the current user, keeping
// the token. It is a no-op error when nobody is logged in.
func (s *Store) UpdateUser(ctx context.Context, update bookingapi.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return fmt.Errorf("no user logged in")
	}

	merged := *s.user
	if update.Email != "" {
		merged.Email = update.Email
	}
	if update.Name != "" {
		merged.Name = update.Name
	}
	if update.Role != "" {
		merged.Role = update.Role
	}
	if update.Phone != "" {
		merged.Phone = update.Phone
	}
	if update.IsVerified {
		merged.IsVerified = true
	}

	if err := s.repo.Save(ctx, &merged, s.token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.user = &merged
	return nil
}

func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Session{
		User:       cloneUser(s.user),
		Token:      s.token,
		Rehydrated: s.rehydrated,
	}
}

// Token implements bookingapi.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func cloneUser(u *bookingapi.User) *bookingapi.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
