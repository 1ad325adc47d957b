package admin

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mythicmarket/market-backend/internal/order"
)

func newTestApp(t *testing.T) (*fiber.App, order.Repository) {
	t.Helper()
	service, err := NewService("owner@mythicmarket.example", "hunter2hunter2")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	repo := order.NewInMemoryRepository()
	handler := NewHandler(service, repo, "test-jwt-secret")

	app := fiber.New()
	handler.RegisterPublicRoutes(app)
	handler.RegisterProtectedRoutes(app)
	return app, repo
}

func signIn(t *testing.T, app *fiber.App, email, password string) (int, string) {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest("POST", "/api/admin/sign-in", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("sign-in request failed: %v", err)
	}
	raw, _ := io.ReadAll(res.Body)
	var parsed struct {
		Token string `json:"token"`
	}
	json.Unmarshal(raw, &parsed)
	return res.StatusCode, parsed.Token
}

func TestSignIn(t *testing.T) {
	app, _ := newTestApp(t)

	status, token := signIn(t, app, "owner@mythicmarket.example", "hunter2hunter2")
	if status != fiber.StatusOK || token == "" {
		t.Fatalf("expected token for valid credentials, got status=%d token=%q", status, token)
	}

	status, _ = signIn(t, app, "owner@mythicmarket.example", "wrong")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", status)
	}

	status, _ = signIn(t, app, "intruder@example.com", "hunter2hunter2")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown email, got %d", status)
	}
}

func TestListOrdersRequiresJWT(t *testing.T) {
	app, repo := newTestApp(t)
	repo.Create(order.Order{
		OrderNumber: "MM-ADMIN001",
		Customer:    order.Customer{Name: "Robin", Email: "r@example.com", Handle: "robin#0001"},
		Payment:     order.Payment{Method: "promptpay"},
		Items:       []order.Item{{Name: "Dragon mug", UnitPrice: 20, Quantity: 1}},
	})

	res, _ := app.Test(httptest.NewRequest("GET", "/api/admin/orders", nil))
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.StatusCode)
	}

	_, token := signIn(t, app, "owner@mythicmarket.example", "hunter2hunter2")
	req := httptest.NewRequest("GET", "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res2, _ := app.Test(req)
	if res2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 with token, got %d", res2.StatusCode)
	}
	raw, _ := io.ReadAll(res2.Body)
	var orders []order.Order
	json.Unmarshal(raw, &orders)
	if len(orders) != 1 || orders[0].OrderNumber != "MM-ADMIN001" {
		t.Fatalf("expected stored order listed, got %+v", orders)
	}
}

func TestServiceRequiresConfiguration(t *testing.T) {
	if _, err := NewService("", ""); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}
