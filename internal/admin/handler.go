package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/mythicmarket/market-backend/internal/order"
)

const listLimit = 100

// Handler exposes sign-in plus the JWT-protected order history.
type Handler struct {
	service   *Service
	orders    order.Repository
	jwtSecret string
}

func NewHandler(service *Service, orders order.Repository, jwtSecret string) *Handler {
	return &Handler{service: service, orders: orders, jwtSecret: jwtSecret}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/admin/sign-in", h.signIn)
}

// RegisterProtectedRoutes mounts the admin group behind its own JWT
// middleware so main does not have to order middlewares carefully.
func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	group := app.Group("/api/admin", jwtware.New(jwtware.Config{
		SigningKey: []byte(h.jwtSecret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	}))
	group.Get("/orders", h.listOrders)
}

func (h *Handler) signIn(c *fiber.Ctx) error {
	payload := new(signInRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	if err := h.service.Authenticate(payload.Email, payload.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
	}

	claims := jwt.MapClaims{
		"email": payload.Email,
		"admin": true,
		"exp":   time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   signed,
	})
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	orders, err := h.orders.List(listLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(orders)
}
