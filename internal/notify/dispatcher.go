package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mythicmarket/market-backend/internal/order"
)

// Channel names one delivery path for an order notification.
type Channel string

const (
	ChannelDM        Channel = "dm"
	ChannelBroadcast Channel = "channel"
	ChannelEmail     Channel = "email"
)

// Result is the outcome of one delivery attempt on one channel.
type Result struct {
	Channel Channel `json:"channel"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
}

// Summary aggregates per-channel results for one order. Failures are
// always reported individually, never swallowed.
type Summary struct {
	Results []Result `json:"results"`
}

// AllSucceeded reports full success across every attempted channel.
func (s Summary) AllSucceeded() bool {
	for _, r := range s.Results {
		if !r.Success {
			return false
		}
	}
	return len(s.Results) > 0
}

// AnySucceeded reports whether at least one channel went through.
func (s Summary) AnySucceeded() bool {
	for _, r := range s.Results {
		if r.Success {
			return true
		}
	}
	return false
}

// Messenger is the Discord-side delivery surface.
type Messenger interface {
	SendDirectMessage(ctx context.Context, handle, content string) error
	PostChannelMessage(ctx context.Context, content string) error
}

// EmailSender delivers the rendered confirmation to the customer.
type EmailSender interface {
	SendOrderConfirmation(ctx context.Context, ord order.Order) error
}

// FormatFunc renders the Discord message body for an order.
type FormatFunc func(order.Order) string

// Dispatcher fans one order out to the requested channels. Channels are
// independent: each gets its own timeout and its own verdict, and one
// failure never blocks the others.
type Dispatcher struct {
	messenger Messenger
	email     EmailSender
	format    FormatFunc
	timeout   time.Duration
}

func NewDispatcher(m Messenger, e EmailSender, format FormatFunc, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{messenger: m, email: e, format: format, timeout: timeout}
}

// Dispatch attempts every requested channel concurrently and returns the
// per-channel results in the order the channels were requested.
func (d *Dispatcher) Dispatch(ctx context.Context, ord order.Order, channels []Channel) Summary {
	results := make([]Result, len(channels))
	var wg sync.WaitGroup

	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			results[i] = d.attempt(attemptCtx, ord, ch)
		}(i, ch)
	}
	wg.Wait()

	return Summary{Results: results}
}

func (d *Dispatcher) attempt(ctx context.Context, ord order.Order, ch Channel) Result {
	var err error
	switch ch {
	case ChannelDM:
		err = d.messenger.SendDirectMessage(ctx, ord.Customer.Handle, d.format(ord))
	case ChannelBroadcast:
		err = d.messenger.PostChannelMessage(ctx, d.format(ord))
	case ChannelEmail:
		err = d.email.SendOrderConfirmation(ctx, ord)
	default:
		err = fmt.Errorf("unknown channel %q", ch)
	}

	res := Result{Channel: ch, Success: err == nil}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// BestEffortResult lets tests observe the outcome of a fire-and-forget
// side call; production callers just drop it.
type BestEffortResult struct {
	done chan Result
}

// Wait blocks until the side call finished and returns its result.
func (r *BestEffortResult) Wait() Result {
	res := <-r.done
	// put it back so Wait can be called more than once
	r.done <- res
	return res
}

// NotifyAdmin posts a broadcast message in the background. The failure
// of this side call is logged and never fails the primary request.
func (d *Dispatcher) NotifyAdmin(content string) *BestEffortResult {
	out := &BestEffortResult{done: make(chan Result, 1)}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		err := d.messenger.PostChannelMessage(ctx, content)
		res := Result{Channel: ChannelBroadcast, Success: err == nil}
		if err != nil {
			res.Error = err.Error()
			log.Printf("best-effort admin notification failed: %v", err)
		}
		out.done <- res
	}()
	return out
}
