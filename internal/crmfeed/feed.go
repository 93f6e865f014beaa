// Package crmfeed reads activity notifications from the CRM service.
// Strictly best-effort: when the service is down the feed degrades to an
// explicit unavailable state with a manual retry, and nothing else in the
// client is affected.
package crmfeed

import (
	"context"
	"fmt"
	"sync"

	"bookingclient/pkg/crm"
)

type Feed struct {
	Client *crm.Client

	mu            sync.Mutex
	notifications []crm.Notification
	available     bool
	fetched       bool
}

func New(client *crm.Client) *Feed {
	return &Feed{Client: client}
}

// Refresh is the only way the feed talks to the service, and it only runs
// when asked: no background polling loop, no automatic retry.
func (f *Feed) Refresh(ctx context.Context) error {
	notifications, err := f.Client.Notifications(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = true
	if err != nil {
		f.available = false
		return fmt.Errorf("notification service unavailable: %w", err)
	}
	f.available = true
	f.notifications = notifications
	return nil
}

// Available reports whether the last refresh reached the service.
func (f *Feed) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched && f.available
}

func (f *Feed) Notifications() []crm.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]crm.Notification, len(f.notifications))
	copy(out, f.notifications)
	return out
}

// Dismiss deletes a notification and then reconciles from a fresh fetch
// rather than trusting local optimistic state: the service's list is the
// truth, even when the delete itself failed.
func (f *Feed) Dismiss(ctx context.Context, id int64) error {
	deleteErr := f.Client.Delete(ctx, id)
	if err := f.Refresh(ctx); err != nil {
		if deleteErr != nil {
			return deleteErr
		}
		return err
	}
	return deleteErr
}
