package payment

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// RazorpayCheckout opens the hosted Razorpay checkout in the user's browser
// and collects the outcome on a short-lived localhost callback server: the
// checkout page's success handler posts the payment id back, its dismiss
// handler hits the cancel route.
type RazorpayCheckout struct {
	// Addr is the local listen address; port 0 picks a free port.
	Addr string

	// OpenBrowser launches the checkout URL. Defaults to the platform
	// opener (xdg-open/open/rundll32) or BrowserCommand when set.
	OpenBrowser func(url string) error

	// BrowserCommand, when non-empty, is used instead of the platform
	// default opener.
	BrowserCommand string
}

func (r *RazorpayCheckout) Open(ctx context.Context, params CheckoutParams) (*Result, error) {
	addr := r.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("start payment callback listener: %w", err)
	}

	type outcome struct {
		paymentID string
		dismissed bool
	}
	done := make(chan outcome, 1)

	router := chi.NewRouter()
	router.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := checkoutPage.Execute(w, params); err != nil {
			http.Error(w, "render checkout", http.StatusInternalServerError)
		}
	})
	router.Post("/callback", func(w http.ResponseWriter, req *http.Request) {
		paymentID := strings.TrimSpace(req.FormValue("razorpay_payment_id"))
		if paymentID == "" {
			http.Error(w, "missing razorpay_payment_id", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Payment received. You can close this tab and return to the terminal.")
		select {
		case done <- outcome{paymentID: paymentID}:
		default:
		}
	})
	router.Get("/cancel", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintln(w, "Payment cancelled. You can close this tab.")
		select {
		case done <- outcome{dismissed: true}:
		default:
		}
	})

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	url := fmt.Sprintf("http://%s/", ln.Addr().String())
	if err := r.openBrowser(url); err != nil {
		// Equivalent of the widget script failing to load: a cancellation,
		// not a fatal fault.
		return nil, fmt.Errorf("%w: open checkout page: %v", ErrDismissed, err)
	}

	select {
	case o := <-done:
		if o.dismissed {
			return nil, ErrDismissed
		}
		return &Result{PaymentID: o.paymentID}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *RazorpayCheckout) openBrowser(url string) error {
	if r.OpenBrowser != nil {
		return r.OpenBrowser(url)
	}
	if r.BrowserCommand != "" {
		return exec.Command(r.BrowserCommand, url).Start()
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// The page mirrors the web client's checkout invocation: the success handler
// posts the payment id to /callback, ondismiss navigates to /cancel.
var checkoutPage = template.Must(template.New("checkout").Parse(`<!doctype html>
<html>
<head><title>Booking payment {{.Reference}}</title></head>
<body>
<p>Opening secure checkout for {{.Description}}&hellip;</p>
<script src="https://checkout.razorpay.com/v1/checkout.js"></script>
<script>
var rzp = new Razorpay({
  key: {{.KeyID}},
  amount: {{.Amount}},
  currency: {{.Currency}},
  name: "Booking System",
  description: {{.Description}},
  order_id: {{.OrderID}},
  prefill: { name: {{.Name}}, email: {{.Email}} },
  handler: function (response) {
    var form = document.createElement("form");
    form.method = "POST";
    form.action = "/callback";
    var field = document.createElement("input");
    field.type = "hidden";
    field.name = "razorpay_payment_id";
    field.value = response.razorpay_payment_id;
    form.appendChild(field);
    document.body.appendChild(form);
    form.submit();
  },
  modal: {
    ondismiss: function () { window.location = "/cancel"; }
  }
});
rzp.open();
</script>
</body>
</html>
`))
