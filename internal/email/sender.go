package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mythicmarket/market-backend/internal/order"
)

var ErrNotConfigured = errors.New("smtp is not configured")

// Config holds SMTP transport settings. Password is a credential and
// must never be logged in full.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c Config) enabled() bool {
	return c.Host != "" && c.From != ""
}

// sendFunc matches smtp.SendMail, injectable for tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender delivers rendered order confirmations over SMTP.
type Sender struct {
	cfg  Config
	send sendFunc
}

func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg, send: smtp.SendMail}
}

// SendOrderConfirmation renders the order and mails it to the customer.
// The context is only checked between steps: net/smtp carries no
// cancellation of its own, so the call is bounded by the caller's
// per-channel timeout instead.
func (s *Sender) SendOrderConfirmation(ctx context.Context, ord order.Order) error {
	if !s.cfg.enabled() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := Render(ord)
	body := buildMIME(s.cfg.From, ord.Customer.Email, msg)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(addr, auth, s.cfg.From, []string{ord.Customer.Email}, body); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// buildMIME assembles a multipart/alternative payload carrying both the
// plain-text and HTML renditions.
func buildMIME(from, to string, msg Message) []byte {
	const boundary = "mythicmarket-alt"
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.Text)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.HTML)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
