package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mythicmarket/market-backend/internal/order"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BotToken:  "test-token",
		GuildID:   "guild-1",
		ChannelID: "channel-1",
		APIBase:   srv.URL,
	})
	return client, srv
}

func TestSendDirectMessage(t *testing.T) {
	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/guilds/guild-1/members/search", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "search")
		if got := r.Header.Get("Authorization"); got != "Bot test-token" {
			t.Errorf("expected bot auth header, got %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"user": map[string]string{"id": "user-9", "username": "robin"}},
		})
	})
	mux.HandleFunc("/users/@me/channels", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "dm")
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["recipient_id"] != "user-9" {
			t.Errorf("expected recipient user-9, got %q", body["recipient_id"])
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "dm-channel"})
	})
	mux.HandleFunc("/channels/dm-channel/messages", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "post")
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["content"] != "hello" {
			t.Errorf("expected message content, got %q", body["content"])
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	})

	client, _ := newTestClient(t, mux)
	if err := client.SendDirectMessage(context.Background(), "robin", "hello"); err != nil {
		t.Fatalf("send dm failed: %v", err)
	}
	if strings.Join(calls, ",") != "search,dm,post" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

func TestResolveHandleUnknown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/guilds/guild-1/members/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})
	client, _ := newTestClient(t, mux)
	if _, err := client.ResolveHandle(context.Background(), "ghost"); err != ErrUnknownHandle {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
}

func TestPostChannelMessage(t *testing.T) {
	posted := false
	mux := http.NewServeMux()
	mux.HandleFunc("/channels/channel-1/messages", func(w http.ResponseWriter, r *http.Request) {
		posted = true
		w.Write([]byte("{}"))
	})
	client, _ := newTestClient(t, mux)
	if err := client.PostChannelMessage(context.Background(), "order feed"); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if !posted {
		t.Fatalf("expected channel post to happen")
	}
}

func TestErrorClassification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/channels/channel-1/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"upstream down"}`))
	})
	client, _ := newTestClient(t, mux)
	err := client.PostChannelMessage(context.Background(), "x")
	if err == nil {
		t.Fatalf("expected error for 502")
	}
	if !IsUpstreamUnavailable(err) {
		t.Fatalf("expected 502 classified as upstream unavailable: %v", err)
	}

	mux2 := http.NewServeMux()
	mux2.HandleFunc("/channels/channel-1/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"missing access"}`))
	})
	client2, _ := newTestClient(t, mux2)
	err2 := client2.PostChannelMessage(context.Background(), "x")
	if err2 == nil {
		t.Fatalf("expected error for 403")
	}
	if IsUpstreamUnavailable(err2) {
		t.Fatalf("403 must not count as upstream unavailable: %v", err2)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient(Config{})
	if client.Configured() {
		t.Fatalf("expected client without token to report unconfigured")
	}
	if err := client.PostChannelMessage(context.Background(), "x"); err != ErrMissingChannel {
		t.Fatalf("expected ErrMissingChannel, got %v", err)
	}
	withChannel := NewClient(Config{ChannelID: "channel-1"})
	if err := withChannel.PostChannelMessage(context.Background(), "x"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize("hi *bold* @everyone `code`")
	if strings.Contains(got, "*bold*") {
		t.Fatalf("expected markdown escaped, got %q", got)
	}
	if strings.Contains(got, "@everyone") {
		t.Fatalf("expected mention neutralized, got %q", got)
	}
}

func TestClamp(t *testing.T) {
	long := strings.Repeat("a", 2000)
	got := Clamp(long, 1000)
	if n := len([]rune(got)); n != 1000 {
		t.Fatalf("expected clamp to 1000 runes, got %d", n)
	}
	if got := Clamp("short", 1000); got != "short" {
		t.Fatalf("expected short string untouched, got %q", got)
	}
}

func TestFormatOrderMessage(t *testing.T) {
	ord := order.Order{
		OrderNumber: "MM-FMT00001",
		Customer:    order.Customer{Name: "Robin *Vale*", Handle: "robin#0001", Email: "r@example.com"},
		Payment:     order.Payment{Method: "promptpay"},
		Shipping:    order.Shipping{Cost: 5},
		Items:       []order.Item{{Name: "Dragon mug", UnitPrice: 20, Quantity: 2}},
	}
	msg := FormatOrderMessage(ord)
	if !strings.Contains(msg, "MM-FMT00001") {
		t.Fatalf("expected order number in message:\n%s", msg)
	}
	if strings.Contains(msg, "*Vale*") {
		t.Fatalf("expected customer name sanitized:\n%s", msg)
	}
	if !strings.Contains(msg, "Total: 45.00") {
		t.Fatalf("expected total in message:\n%s", msg)
	}
	if !strings.Contains(msg, "Shipping: Standard") {
		t.Fatalf("expected default shipping method:\n%s", msg)
	}
}
