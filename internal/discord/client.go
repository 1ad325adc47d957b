package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultAPIBase = "https://discord.com/api/v10"
	defaultTimeout = 15 * time.Second
)

var (
	ErrNotConfigured  = errors.New("discord is not configured")
	ErrUnknownHandle  = errors.New("no matching member for handle")
	ErrMissingChannel = errors.New("no broadcast channel configured")
)

// Config holds the credentials and targets for the Discord REST API.
// BotToken is a credential and must never be logged in full.
type Config struct {
	BotToken  string
	GuildID   string
	ChannelID string
	APIBase   string
	Timeout   time.Duration
}

// APIError is a non-2xx answer from the Discord API. StatusCode drives
// retry classification upstream: 4xx is terminal, 5xx is retryable.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api: status %d: %s", e.StatusCode, e.Message)
}

// IsUpstreamUnavailable reports whether err looks like the remote side
// being down rather than a bad request.
func IsUpstreamUnavailable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	// network-level failures (timeouts, resets) have no status at all
	return err != nil && !errors.Is(err, ErrUnknownHandle) && !errors.Is(err, ErrNotConfigured) && !errors.Is(err, ErrMissingChannel)
}

// Client wraps the two REST calls the shop needs: open a direct
// conversation with a member, and post to the order feed channel. The
// calls are idempotent at the HTTP layer but not transactionally linked;
// callers treat each one independently.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a client even from an empty config; calls made while
// no bot token is configured fail with ErrNotConfigured so the rest of
// the backend keeps working without Discord.
func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether the client holds a usable credential.
func (c *Client) Configured() bool {
	return c.cfg.BotToken != ""
}

// ResolveHandle finds the guild member whose username or nickname
// matches the given handle and returns the member's user ID.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	if c.cfg.GuildID == "" {
		return "", ErrUnknownHandle
	}

	endpoint := fmt.Sprintf("%s/guilds/%s/members/search?query=%s&limit=1",
		c.cfg.APIBase, c.cfg.GuildID, url.QueryEscape(handle))

	var members []struct {
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &members); err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", ErrUnknownHandle
	}
	return members[0].User.ID, nil
}

// SendDirectMessage resolves the handle, opens a DM channel and posts
// the message into it.
func (c *Client) SendDirectMessage(ctx context.Context, handle, content string) error {
	userID, err := c.ResolveHandle(ctx, handle)
	if err != nil {
		return err
	}

	channelID, err := c.createDM(ctx, userID)
	if err != nil {
		return err
	}
	return c.postMessage(ctx, channelID, content)
}

// PostChannelMessage broadcasts the message to the configured order
// feed channel.
func (c *Client) PostChannelMessage(ctx context.Context, content string) error {
	if c.cfg.ChannelID == "" {
		return ErrMissingChannel
	}
	return c.postMessage(ctx, c.cfg.ChannelID, content)
}

func (c *Client) createDM(ctx context.Context, userID string) (string, error) {
	endpoint := c.cfg.APIBase + "/users/@me/channels"
	body := map[string]string{"recipient_id": userID}

	var channel struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, endpoint, body, &channel); err != nil {
		return "", err
	}
	return channel.ID, nil
}

func (c *Client) postMessage(ctx context.Context, channelID, content string) error {
	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.cfg.APIBase, channelID)
	body := map[string]string{"content": content}
	return c.do(ctx, http.MethodPost, endpoint, body, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.cfg.BotToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiMsg struct {
			Message string `json:"message"`
		}
		json.Unmarshal(raw, &apiMsg)
		return &APIError{StatusCode: resp.StatusCode, Message: apiMsg.Message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("unexpected discord response: %w", err)
		}
	}
	return nil
}
