package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"bookingclient/internal/approval"
	"bookingclient/internal/bookingflow"
	"bookingclient/internal/payment"
	"bookingclient/internal/rbac"
	"bookingclient/internal/session"
	"bookingclient/pkg/bookingapi"
)

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password")
	facilitator := fs.Bool("facilitator", false, "register as a facilitator")
	bio := fs.String("bio", "", "facilitator bio")
	specialization := fs.String("specialization", "", "facilitator specialization")
	_ = fs.Parse(args)

	req := bookingapi.RegisterRequest{
		Email:          *email,
		Name:           *name,
		Password:       *password,
		Bio:            *bio,
		Specialization: *specialization,
	}
	var err error
	if *facilitator {
		err = a.api.RegisterFacilitator(ctx, req)
	} else {
		err = a.api.Register(ctx, req)
	}
	if err != nil {
		return err
	}
	fmt.Println("Registered. Run `bookingctl login` to sign in.")
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		return errors.New("missing -email or -password")
	}

	resp, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}

	// Login returns a minimal profile; fetch the full one (role included)
	// with the fresh token before committing the session.
	me, err := (&bookingapi.Client{
		BaseURL: a.cfg.APIBaseURL,
		Tokens:  bookingapi.StaticToken(resp.AccessToken),
	}).Me(ctx)
	if err != nil {
		return err
	}

	// Synchronous commit: once Login returns, every later guard check sees
	// this session. Only then do we tell the user where they landed.
	if err := a.store.Login(ctx, me, resp.AccessToken); err != nil {
		return err
	}

	home := rbac.ParseRole(me.Role).Home()
	if home == rbac.RouteRoleSelection {
		fmt.Printf("Logged in as %s. No role selected yet: run `bookingctl choose-role`.\n", me.Email)
		return nil
	}
	fmt.Printf("Logged in as %s (%s). Home: %s\n", me.Email, me.Role, home)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.store.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func (a *app) cmdWhoami() error {
	snap := a.store.Snapshot()
	if snap.User == nil {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Printf("User:  %s <%s> (id %d)\n", snap.User.Name, snap.User.Email, snap.User.ID)
	if role := rbac.ParseRole(snap.User.Role); role == rbac.RoleUnset {
		fmt.Println("Role:  not selected yet")
	} else {
		fmt.Printf("Role:  %s\n", role)
	}

	if info, err := session.InspectToken(snap.Token); err == nil && !info.ExpiresAt.IsZero() {
		if info.Expired(time.Now()) {
			fmt.Printf("Token: expired %s, log in again\n", info.ExpiresAt.Format(time.RFC3339))
		} else {
			fmt.Printf("Token: valid until %s\n", info.ExpiresAt.Format(time.RFC3339))
		}
	}
	return nil
}

func (a *app) cmdChooseRole(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("choose-role", flag.ExitOnError)
	role := fs.String("role", "", "role to take: user or facilitator")
	_ = fs.Parse(args)

	if _, err := a.requireLogin(); err != nil {
		return err
	}
	if r := rbac.ParseRole(*role); r == rbac.RoleUnset {
		return fmt.Errorf("invalid -role %q (want user or facilitator)", *role)
	}

	updated, err := a.api.ChooseRole(ctx, *role)
	if err != nil {
		return err
	}
	if updated.Role == "" {
		updated.Role = *role
	}
	if err := a.store.UpdateUser(ctx, *updated); err != nil {
		return err
	}
	fmt.Printf("Role set to %s. Home: %s\n", *role, rbac.ParseRole(*role).Home())
	return nil
}

func (a *app) cmdEvents(ctx context.Context) error {
	if _, err := a.requireRole(rbac.RoleUser, rbac.RoleFacilitator); err != nil {
		return err
	}

	events, err := a.api.ListEvents(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No active events.")
		return nil
	}
	for _, ev := range events {
		printEventLine(ev)
	}
	return nil
}

func (a *app) cmdEvent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("event", flag.ExitOnError)
	id := fs.Int64("id", 0, "event id")
	_ = fs.Parse(args)

	if _, err := a.requireRole(rbac.RoleUser, rbac.RoleFacilitator); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("missing -id")
	}

	ev, err := a.api.GetEvent(ctx, *id)
	if err != nil {
		return err
	}
	printEventDetail(*ev)
	return nil
}

func (a *app) cmdCreateEvent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-event", flag.ExitOnError)
	title := fs.String("title", "", "event title")
	description := fs.String("description", "", "event description")
	eventType := fs.String("type", "session", "event type (session, workshop, retreat)")
	start := fs.String("start", "", "start datetime (RFC3339 or YYYY-MM-DDTHH:MM:SS)")
	end := fs.String("end", "", "end datetime")
	location := fs.String("location", "", "location (empty for virtual)")
	virtualLink := fs.String("virtual-link", "", "virtual meeting link")
	maxParticipants := fs.Int("max", 1, "max participants")
	price := fs.String("price", "0", "price")
	currency := fs.String("currency", "INR", "currency")
	_ = fs.Parse(args)

	if _, err := a.requireRole(rbac.RoleFacilitator); err != nil {
		return err
	}

	priceDec, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("invalid -price: %w", err)
	}

	eventID, err := a.api.CreateEvent(ctx, bookingapi.CreateEventRequest{
		Title:           *title,
		Description:     *description,
		EventType:       *eventType,
		StartDatetime:   *start,
		EndDatetime:     *end,
		Location:        *location,
		VirtualLink:     *virtualLink,
		MaxParticipants: *maxParticipants,
		Price:           priceDec,
		Currency:        *currency,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Event created (id %d).\n", eventID)
	return nil
}

func (a *app) cmdFacilitatorEvents(ctx context.Context) error {
	if _, err := a.requireRole(rbac.RoleFacilitator); err != nil {
		return err
	}

	events, err := a.api.FacilitatorEvents(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("You have no events yet.")
		return nil
	}
	for _, ev := range events {
		printEventLine(ev)
	}
	return nil
}

func (a *app) cmdBook(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	eventID := fs.Int64("event", 0, "event id to book")
	notes := fs.String("notes", "", "notes for the facilitator")
	_ = fs.Parse(args)

	user, err := a.requireRole(rbac.RoleUser)
	if err != nil {
		return err
	}
	if *eventID == 0 {
		return errors.New("missing -event")
	}

	ev, err := a.api.GetEvent(ctx, *eventID)
	if err != nil {
		return err
	}
	if ev.Full() {
		return fmt.Errorf("event %q is full (%d/%d)", ev.Title, ev.CurrentParticipants, ev.MaxParticipants)
	}

	fmt.Printf("Booking %q (%s %s). Opening checkout in your browser...\n", ev.Title, ev.Price, ev.Currency)

	w := bookingflow.New(a.api, &payment.RazorpayCheckout{
		Addr:           a.cfg.Payment.CallbackAddr,
		BrowserCommand: a.cfg.Payment.BrowserCommand,
	}, a.journal, *eventID)
	w.EventTitle = ev.Title
	w.Notes = *notes
	w.CustomerName = user.Name
	w.CustomerEmail = user.Email

	outcome, err := w.Run(ctx)
	if err != nil {
		if errors.Is(err, bookingflow.ErrConfirmationFailed) {
			fmt.Fprintln(os.Stderr, "Your payment may have been captured but the booking is not confirmed.")
			fmt.Fprintln(os.Stderr, "Run `bookingctl confirm-retry` or contact support with the reference above.")
		}
		return err
	}

	if outcome.State == bookingflow.StateCancelled {
		fmt.Println("Payment was cancelled. No booking was made; run `bookingctl book` again to retry.")
		return nil
	}
	fmt.Printf("Booking confirmed: id %d, reference %s\n", outcome.BookingID, outcome.Reference)
	return nil
}

func (a *app) cmdBookings(ctx context.Context) error {
	if _, err := a.requireRole(rbac.RoleUser); err != nil {
		return err
	}

	bookings, err := a.api.UserBookings(ctx)
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		fmt.Println("No bookings yet.")
		return nil
	}
	for _, b := range bookings {
		title := "(event removed)"
		if b.Event != nil {
			title = b.Event.Title
		}
		fmt.Printf("#%d  %-12s %s/%s  %s\n", b.ID, b.BookingReference, b.Status, b.PaymentStatus, title)
	}
	return nil
}

func (a *app) cmdCancel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	id := fs.Int64("id", 0, "booking id")
	_ = fs.Parse(args)

	if _, err := a.requireRole(rbac.RoleUser); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("missing -id")
	}

	if err := a.api.CancelBooking(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("Booking %d cancelled.\n", *id)
	return nil
}

func (a *app) cmdConfirmRetry(ctx context.Context) error {
	if _, err := a.requireRole(rbac.RoleUser); err != nil {
		return err
	}

	results, err := bookingflow.RetryPending(ctx, a.api, a.journal)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No unconfirmed payments.")
		return nil
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%-12s payment %s: still unresolved: %v\n", r.Entry.BookingReference, r.Entry.PaymentID, r.Err)
			continue
		}
		fmt.Printf("%-12s confirmed (booking id %d)\n", r.Entry.BookingReference, r.BookingID)
	}
	return nil
}

func (a *app) cmdEventBookings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("event-bookings", flag.ExitOnError)
	eventID := fs.Int64("event", 0, "event id")
	_ = fs.Parse(args)

	if _, err := a.requireRole(rbac.RoleFacilitator); err != nil {
		return err
	}
	if *eventID == 0 {
		return errors.New("missing -event")
	}

	bookings, err := a.api.EventBookings(ctx, *eventID)
	if err != nil {
		return err
	}
	printEventBookings(bookings)
	return nil
}

func (a *app) cmdApprove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	eventID := fs.Int64("event", 0, "event id")
	bookingID := fs.Int64("booking", 0, "booking id")
	_ = fs.Parse(args)

	return a.resolveBooking(ctx, *eventID, *bookingID, func(w approval.Workflow, b bookingapi.EventBooking) error {
		return w.Approve(ctx, b)
	}, "approved")
}

func (a *app) cmdReject(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reject", flag.ExitOnError)
	eventID := fs.Int64("event", 0, "event id")
	bookingID := fs.Int64("booking", 0, "booking id")
	reason := fs.String("reason", "", "reason for rejection")
	_ = fs.Parse(args)

	return a.resolveBooking(ctx, *eventID, *bookingID, func(w approval.Workflow, b bookingapi.EventBooking) error {
		return w.Reject(ctx, b, *reason)
	}, "rejected")
}

// resolveBooking fetches the booking's current state, runs the action, and
// re-fetches the list afterwards, including when the server reports a race,
// so the facilitator always ends up looking at authoritative state.
func (a *app) resolveBooking(ctx context.Context, eventID, bookingID int64,
	action func(approval.Workflow, bookingapi.EventBooking) error, verb string) error {

	if _, err := a.requireRole(rbac.RoleFacilitator); err != nil {
		return err
	}
	if eventID == 0 || bookingID == 0 {
		return errors.New("missing -event or -booking")
	}

	bookings, err := a.api.EventBookings(ctx, eventID)
	if err != nil {
		return err
	}
	var target *bookingapi.EventBooking
	for i := range bookings {
		if bookings[i].BookingID == bookingID {
			target = &bookings[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("booking %d not found for event %d", bookingID, eventID)
	}

	w := approval.Workflow{API: a.api}
	if actionErr := action(w, *target); actionErr != nil {
		apiErr := &bookingapi.APIError{}
		if errors.As(actionErr, &apiErr) {
			// The booking changed state underneath us; show the server's
			// verdict and the refreshed list.
			fmt.Fprintf(os.Stderr, "Server rejected the action: %s\n", apiErr.Message)
			if refreshed, err := a.api.EventBookings(ctx, eventID); err == nil {
				printEventBookings(refreshed)
			}
		}
		return actionErr
	}

	fmt.Printf("Booking %d %s.\n", bookingID, verb)
	if refreshed, err := a.api.EventBookings(ctx, eventID); err == nil {
		printEventBookings(refreshed)
	}
	return nil
}

func (a *app) cmdNotifications(ctx context.Context) error {
	if _, err := a.requireRole(rbac.RoleFacilitator); err != nil {
		return err
	}

	if err := a.feed.Refresh(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "CRM service unavailable. Run `bookingctl notifications` again to retry.")
		return err
	}

	notifications := a.feed.Notifications()
	if len(notifications) == 0 {
		fmt.Println("No notifications.")
		return nil
	}
	for _, n := range notifications {
		who := ""
		if n.User != nil {
			who = n.User.Name
		}
		what := ""
		if n.Event != nil {
			what = n.Event.Title
		}
		fmt.Printf("#%d  %-18s %s / %s (%s/%s)\n", n.ID, n.Action, who, what, n.Status, n.PaymentStatus)
	}
	return nil
}

func (a *app) cmdDismiss(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dismiss", flag.ExitOnError)
	id := fs.Int64("id", 0, "notification id")
	_ = fs.Parse(args)

	if _, err := a.requireRole(rbac.RoleFacilitator); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("missing -id")
	}

	if err := a.feed.Dismiss(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("Notification %d dismissed.\n", *id)
	return nil
}

func printEventLine(ev bookingapi.Event) {
	spots := fmt.Sprintf("%d/%d", ev.CurrentParticipants, ev.MaxParticipants)
	if ev.Full() {
		spots += " (full)"
	}
	fmt.Printf("#%d  %-30s %s  %s %s  %s\n", ev.ID, ev.Title, ev.StartDatetime, ev.Price, ev.Currency, spots)
}

func printEventDetail(ev bookingapi.Event) {
	fmt.Printf("#%d %s [%s]\n", ev.ID, ev.Title, ev.EventType)
	if ev.Description != "" {
		fmt.Println(ev.Description)
	}
	fmt.Printf("When:     %s to %s\n", ev.StartDatetime, ev.EndDatetime)
	if ev.Location != "" {
		fmt.Printf("Where:    %s\n", ev.Location)
	} else {
		fmt.Println("Where:    virtual")
	}
	if ev.VirtualLink != "" {
		fmt.Printf("Link:     %s\n", ev.VirtualLink)
	}
	fmt.Printf("Price:    %s %s\n", ev.Price, ev.Currency)
	fmt.Printf("Spots:    %d/%d\n", ev.CurrentParticipants, ev.MaxParticipants)
	if ev.Facilitator != nil {
		fmt.Printf("By:       %s <%s>\n", ev.Facilitator.Name, ev.Facilitator.Email)
	}
}

func printEventBookings(bookings []bookingapi.EventBooking) {
	if len(bookings) == 0 {
		fmt.Println("No bookings for this event.")
		return
	}
	w := approval.Workflow{}
	for _, b := range bookings {
		who := ""
		if b.User != nil {
			who = fmt.Sprintf("%s <%s>", b.User.Name, b.User.Email)
		}
		actions := ""
		switch {
		case w.CanApprove(b):
			actions = "  [approve|reject]"
		case w.CanReject(b):
			actions = "  [reject]"
		}
		fmt.Printf("#%d  %s/%s  %s%s\n", b.BookingID, b.Status, b.PaymentStatus, who, actions)
	}
}
