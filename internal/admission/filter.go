package admission

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Config tunes the admission filter. Zero values pick the defaults.
type Config struct {
	Window      time.Duration // rate window, default 60s
	Limit       int           // requests per window per key, default 60
	MaxQueryLen int           // query string budget in bytes, default 2048
	SiteOrigin  string        // origin allowed to hotlink image assets
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = 60 * time.Second
	}
	if c.Limit <= 0 {
		c.Limit = 60
	}
	if c.MaxQueryLen <= 0 {
		c.MaxQueryLen = 2048
	}
	return c
}

type bucket struct {
	windowStart time.Time
	count       int
}

// Filter is a cheap request gate evaluated before any business logic:
// per-key rate limit, method allow-list, hotlink guard and a query-size
// budget. Counters live in process memory only, so the protection is
// best-effort per instance, not a distributed correctness boundary.
type Filter struct {
	cfg Config

	mu      sync.Mutex
	buckets map[string]*bucket

	now func() time.Time
}

func NewFilter(cfg Config) *Filter {
	return &Filter{
		cfg:     cfg.withDefaults(),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

var allowedMethods = map[string]bool{
	fiber.MethodGet:     true,
	fiber.MethodHead:    true,
	fiber.MethodOptions: true,
	fiber.MethodPost:    true,
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".ico": true,
}

// Middleware returns the fiber handler applying every admission rule.
func (f *Filter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !allowedMethods[c.Method()] {
			return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"message": "method not allowed"})
		}

		if len(c.Request().URI().QueryString()) > f.cfg.MaxQueryLen {
			return c.Status(fiber.StatusRequestURITooLong).JSON(fiber.Map{"message": "query string too long"})
		}

		if f.isHotlinked(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "hotlinking is not allowed"})
		}

		if retryAfter, limited := f.take(c.IP(), c.Get(fiber.HeaderUserAgent), c.Path()); limited {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "too many requests"})
		}

		return c.Next()
	}
}

// isHotlinked rejects image asset requests whose referring origin is
// foreign. An absent referer always passes.
func (f *Filter) isHotlinked(c *fiber.Ctx) bool {
	path := strings.ToLower(c.Path())
	dot := strings.LastIndex(path, ".")
	if dot < 0 || !imageExtensions[path[dot:]] {
		return false
	}

	referer := c.Get(fiber.HeaderReferer)
	if referer == "" || f.cfg.SiteOrigin == "" {
		return false
	}
	ref, err := url.Parse(referer)
	if err != nil {
		return true
	}
	return ref.Scheme+"://"+ref.Host != f.cfg.SiteOrigin
}

// take counts one request against the (address, user agent, path) key.
// It reports the seconds left in the window when the caller is over the
// cap.
func (f *Filter) take(ip, userAgent, path string) (retryAfter int, limited bool) {
	key := ip + "|" + userAgent + "|" + path
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.buckets[key]
	if !ok || now.Sub(b.windowStart) >= f.cfg.Window {
		f.buckets[key] = &bucket{windowStart: now, count: 1}
		f.pruneLocked(now)
		return 0, false
	}

	if b.count >= f.cfg.Limit {
		remaining := f.cfg.Window - now.Sub(b.windowStart)
		secs := int(remaining.Seconds())
		if secs < 1 {
			secs = 1
		}
		return secs, true
	}
	b.count++
	return 0, false
}

// pruneLocked drops expired buckets so the map cannot grow without
// bound. Called with the mutex held, only when a new key is inserted.
func (f *Filter) pruneLocked(now time.Time) {
	if len(f.buckets) < 4096 {
		return
	}
	for key, b := range f.buckets {
		if now.Sub(b.windowStart) >= f.cfg.Window {
			delete(f.buckets, key)
		}
	}
}
