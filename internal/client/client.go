// Package client delivers a completed order to the notification gateway
// on behalf of the storefront, surviving transient upstream failures
// with a bounded retry loop.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mythicmarket/market-backend/internal/notify"
	"github.com/mythicmarket/market-backend/internal/order"
)

const sendPath = "/api/discord/send-notification"

// Config tunes the client. Zero values pick the defaults.
type Config struct {
	BaseURL    string
	AuthToken  string
	Attempts   int           // default 3
	RetryDelay time.Duration // base delay, grows linearly per attempt; default 1s
}

// StatusError is a non-2xx gateway answer. 4xx means the request itself
// is bad and must not be retried; 5xx means the upstream is unavailable.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Code, e.Message)
}

// Retryable reports whether another attempt could possibly help.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500
}

// Result describes a completed submission. Attempt counts from 1, so a
// first-try success reports Attempt == 1.
type Result struct {
	Attempt int
	Status  int
	Partial bool
	Results []notify.Result
}

type Client struct {
	cfg        Config
	httpClient *http.Client

	// sleep is swapped out in tests to observe retry delays
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config) *Client {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sleep:      sleepCtx,
	}
}

// Send validates the order and submits it to the gateway. Validation
// failures return immediately with every violated field and no network
// call is made. Transient failures are retried with an increasing delay
// (base × attempt number); a 4xx answer is terminal. When the attempts
// are exhausted the last error is returned.
func (c *Client) Send(ctx context.Context, ord order.Order) (Result, error) {
	if err := order.Validate(ord); err != nil {
		return Result{}, err
	}

	payload, err := json.Marshal(ord)
	if err != nil {
		return Result{}, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.cfg.RetryDelay*time.Duration(attempt-1)); err != nil {
				return Result{}, err
			}
		}

		res, err := c.post(ctx, payload)
		if err == nil {
			res.Attempt = attempt
			return res, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return Result{}, err
		}
		lastErr = err
	}
	return Result{}, fmt.Errorf("giving up after %d attempts: %w", c.cfg.Attempts, lastErr)
}

func (c *Client) post(ctx context.Context, payload []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+sendPath, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Message string `json:"message"`
		}
		json.Unmarshal(raw, &body)
		return Result{}, &StatusError{Code: resp.StatusCode, Message: body.Message}
	}

	var body struct {
		Success bool            `json:"success"`
		Results []notify.Result `json:"results"`
	}
	json.Unmarshal(raw, &body)

	return Result{
		Status:  resp.StatusCode,
		Partial: resp.StatusCode == http.StatusMultiStatus,
		Results: body.Results,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
