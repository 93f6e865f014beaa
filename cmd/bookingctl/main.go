package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookingclient/internal/bookingflow"
	"bookingclient/internal/crmfeed"
	"bookingclient/internal/rbac"
	"bookingclient/internal/session"
	"bookingclient/internal/statedb"
	"bookingclient/pkg/bookingapi"
	"bookingclient/pkg/config"
	"bookingclient/pkg/crm"
)

const usageText = `usage: bookingctl <command> [flags]

account:
  register            create a user or facilitator account
  login               log in with email and password
  logout              log out and clear the stored session
  whoami              show the current session
  choose-role         pick a role after OAuth signup

events:
  events              list active events
  event               show one event
  create-event        create an event (facilitator)
  facilitator-events  list your own events (facilitator)

bookings:
  book                book an event and pay
  bookings            list your bookings
  cancel              cancel a confirmed booking
  confirm-retry       retry unconfirmed payments
  event-bookings      list bookings for one of your events (facilitator)
  approve             approve a pending booking (facilitator)
  reject              reject a pending booking (facilitator)

notifications:
  notifications       show CRM activity notifications (facilitator)
  dismiss             dismiss a notification (facilitator)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	a, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookingctl: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.run(ctx, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "bookingctl: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg     config.Config
	db      *sql.DB
	store   *session.Store
	api     *bookingapi.Client
	journal *bookingflow.Journal
	feed    *crmfeed.Feed
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := statedb.Open(ctx, cfg.StatePath())
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := statedb.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	store := session.NewStore(session.NewRepository(db))
	// Rehydrate before anything consults the guard; a load failure just
	// means a logged-out session.
	if err := store.Rehydrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bookingctl: warning: %v\n", err)
	}

	return &app{
		cfg:     cfg,
		db:      db,
		store:   store,
		api:     &bookingapi.Client{BaseURL: cfg.APIBaseURL, Tokens: store},
		journal: bookingflow.NewJournal(db),
		feed:    crmfeed.New(&crm.Client{BaseURL: cfg.CRMBaseURL}),
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.cmdRegister(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.cmdLogout(ctx)
	case "whoami":
		return a.cmdWhoami()
	case "choose-role":
		return a.cmdChooseRole(ctx, args)
	case "events":
		return a.cmdEvents(ctx)
	case "event":
		return a.cmdEvent(ctx, args)
	case "create-event":
		return a.cmdCreateEvent(ctx, args)
	case "facilitator-events":
		return a.cmdFacilitatorEvents(ctx)
	case "book":
		return a.cmdBook(ctx, args)
	case "bookings":
		return a.cmdBookings(ctx)
	case "cancel":
		return a.cmdCancel(ctx, args)
	case "confirm-retry":
		return a.cmdConfirmRetry(ctx)
	case "event-bookings":
		return a.cmdEventBookings(ctx, args)
	case "approve":
		return a.cmdApprove(ctx, args)
	case "reject":
		return a.cmdReject(ctx, args)
	case "notifications":
		return a.cmdNotifications(ctx)
	case "dismiss":
		return a.cmdDismiss(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usageText)
		return nil
	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", command)
	}
}

// requireRole runs the guard in front of a protected command and turns its
// decision into either the current user or an actionable message.
func (a *app) requireRole(allowed ...rbac.Role) (*bookingapi.User, error) {
	snap := a.store.Snapshot()
	d := rbac.Guard{Allowed: allowed}.Evaluate(snap.Rehydrated, snap.User)
	switch d.Kind {
	case rbac.DecisionAllow:
		return snap.User, nil
	case rbac.DecisionPending:
		return nil, errors.New("session not loaded yet, try again")
	case rbac.DecisionRedirectLogin:
		return nil, errors.New("not logged in: run `bookingctl login` first")
	default:
		if d.Target == rbac.RouteRoleSelection {
			return nil, errors.New("no role selected yet: run `bookingctl choose-role` first")
		}
		return nil, fmt.Errorf("this command is not available for role %q (your home is %s)",
			snap.User.Role, d.Target)
	}
}

// requireLogin admits any authenticated session, role set or not.
func (a *app) requireLogin() (*bookingapi.User, error) {
	snap := a.store.Snapshot()
	if !snap.Rehydrated {
		return nil, errors.New("session not loaded yet, try again")
	}
	if snap.User == nil {
		return nil, errors.New("not logged in: run `bookingctl login` first")
	}
	return snap.User, nil
}
