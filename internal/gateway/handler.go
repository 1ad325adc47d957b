package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/mythicmarket/market-backend/internal/discord"
	"github.com/mythicmarket/market-backend/internal/notify"
	"github.com/mythicmarket/market-backend/internal/order"
)

// HandleProber checks whether a named recipient is resolvable on the
// messaging side. The discord client satisfies it.
type HandleProber interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

// Upstreams reports which outbound providers are configured, for the
// health endpoint.
type Upstreams struct {
	Discord bool `json:"discord"`
	Email   bool `json:"email"`
}

// Handler is the single authenticated entry point turning a raw order
// submission into delivery attempts. All collaborators are injected so
// tests can substitute fakes and instances never share hidden state.
type Handler struct {
	secret     string
	dispatcher *notify.Dispatcher
	repo       order.Repository
	probe      HandleProber
	upstreams  Upstreams
	startedAt  time.Time

	// rate limit knobs for the notification endpoint
	limitMax    int
	limitWindow time.Duration
}

func NewHandler(secret string, d *notify.Dispatcher, repo order.Repository, probe HandleProber, upstreams Upstreams) *Handler {
	return &Handler{
		secret:      secret,
		dispatcher:  d,
		repo:        repo,
		probe:       probe,
		upstreams:   upstreams,
		startedAt:   time.Now(),
		limitMax:    100,
		limitWindow: 15 * time.Minute,
	}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/health", h.health)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	rate := limiter.New(limiter.Config{
		Max:        h.limitMax,
		Expiration: h.limitWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "too many requests"})
		},
	})
	app.Post("/api/discord/send-notification", rate, h.requireAuth, h.sendNotification)
	app.Post("/api/discord/test", rate, h.requireAuth, h.testHandle)
}

// requireAuth compares the bearer token against the shared secret; a
// mismatch stops the request before any processing.
func (h *Handler) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header || h.secret == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	return c.Next()
}

type sendNotificationRequest struct {
	order.Order
	Channels []string `json:"channels,omitempty"`
}

var defaultChannels = []notify.Channel{notify.ChannelDM, notify.ChannelBroadcast, notify.ChannelEmail}

func (h *Handler) sendNotification(c *fiber.Ctx) error {
	payload := new(sendNotificationRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	ord := order.Normalize(payload.Order)
	if err := order.Validate(ord); err != nil {
		verr, ok := err.(*order.ValidationError)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "validation failed",
			"details": verr.Details(),
		})
	}

	channels := defaultChannels
	if len(payload.Channels) > 0 {
		channels = make([]notify.Channel, 0, len(payload.Channels))
		for _, ch := range payload.Channels {
			channels = append(channels, notify.Channel(ch))
		}
	}

	// the order counts as placed once it validates; delivery outcome is
	// reported separately
	if _, err := h.repo.Create(ord); err != nil {
		log.Printf("could not store order %s: %v", ord.OrderNumber, err)
	}

	summary := h.dispatcher.Dispatch(c.UserContext(), ord, channels)

	status := fiber.StatusOK
	switch {
	case summary.AllSucceeded():
		// full success
	case summary.AnySucceeded():
		status = fiber.StatusMultiStatus
		h.dispatcher.NotifyAdmin(fmt.Sprintf("order %s: partial delivery, see results", ord.OrderNumber))
	default:
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"success":     summary.AllSucceeded(),
		"orderNumber": ord.OrderNumber,
		"results":     summary.Results,
	})
}

type testHandleRequest struct {
	Handle string `json:"handle"`
}

func (h *Handler) testHandle(c *fiber.Ctx) error {
	payload := new(testHandleRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if strings.TrimSpace(payload.Handle) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "handle is required"})
	}

	userID, err := h.probe.ResolveHandle(c.UserContext(), strings.TrimSpace(payload.Handle))
	if err != nil {
		if errors.Is(err, discord.ErrUnknownHandle) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"resolvable": false, "message": "handle not found"})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"resolvable": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"resolvable": true, "userId": userID})
}

func (h *Handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"uptime":    int(time.Since(h.startedAt).Seconds()),
		"upstreams": h.upstreams,
	})
}
