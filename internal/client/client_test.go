package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mythicmarket/market-backend/internal/order"
)

func validOrder() order.Order {
	return order.Order{
		OrderNumber: "MM-CLIENT01",
		Customer:    order.Customer{Name: "Robin", Email: "r@example.com", Handle: "robin#0001"},
		Payment:     order.Payment{Method: "promptpay"},
		Items:       []order.Item{{Name: "Dragon mug", UnitPrice: 20, Quantity: 1}},
	}
}

// newTestClient wires a client against srv with an instant, recorded
// sleep so retry tests run fast.
func newTestClient(srv *httptest.Server, attempts int) (*Client, *[]time.Duration) {
	delays := &[]time.Duration{}
	c := New(Config{
		BaseURL:    srv.URL,
		AuthToken:  "secret",
		Attempts:   attempts,
		RetryDelay: 100 * time.Millisecond,
	})
	c.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return c, delays
}

func TestSendSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("expected bearer header, got %q", r.Header.Get("Authorization"))
		}
		if calls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"success":true,"results":[{"channel":"channel","success":true}]}`))
	}))
	defer srv.Close()

	c, delays := newTestClient(srv, 3)
	res, err := c.Send(context.Background(), validOrder())
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if res.Attempt != 3 {
		t.Fatalf("expected success on attempt 3, got %d", res.Attempt)
	}
	if calls != 3 {
		t.Fatalf("expected 3 network calls, got %d", calls)
	}
	// delay grows with the attempt number: base×1 then base×2
	if len(*delays) != 2 {
		t.Fatalf("expected exactly 2 delays, got %v", *delays)
	}
	if (*delays)[0] != 100*time.Millisecond || (*delays)[1] != 200*time.Millisecond {
		t.Fatalf("expected increasing delays, got %v", *delays)
	}
}

func TestSendNeverRetriesClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad data"}`))
	}))
	defer srv.Close()

	c, delays := newTestClient(srv, 3)
	_, err := c.Send(context.Background(), validOrder())
	if err == nil {
		t.Fatalf("expected terminal error for 400")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one network call for a 400, got %d", calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("expected no delays for a terminal error, got %v", *delays)
	}
}

func TestSendExhaustsAttempts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv, 3)
	_, err := c.Send(context.Background(), validOrder())
	if err == nil {
		t.Fatalf("expected failure after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestSendFailsFastOnValidation(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	bad := validOrder()
	bad.Customer.Email = "nope"
	bad.Items = nil

	c, _ := newTestClient(srv, 3)
	_, err := c.Send(context.Background(), bad)
	verr, ok := err.(*order.ValidationError)
	if !ok {
		t.Fatalf("expected *order.ValidationError, got %T (%v)", err, err)
	}
	if len(verr.Details()) < 2 {
		t.Fatalf("expected every violated field listed, got %v", verr.Details())
	}
	if calls != 0 {
		t.Fatalf("expected no network call for invalid order, got %d", calls)
	}
}

func TestSendReportsPartialSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
		w.Write([]byte(`{"success":false,"results":[{"channel":"dm","success":false,"error":"no dm"},{"channel":"channel","success":true}]}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv, 3)
	res, err := c.Send(context.Background(), validOrder())
	if err != nil {
		t.Fatalf("partial success is still a placed order, got %v", err)
	}
	if !res.Partial {
		t.Fatalf("expected partial flag for 207")
	}
	if len(res.Results) != 2 {
		t.Fatalf("expected per-channel results, got %+v", res.Results)
	}
}
