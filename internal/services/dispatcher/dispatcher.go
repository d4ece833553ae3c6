package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZenGummies/ShopBox/internal/broker/messages"
)

type PushSender interface {
	Send(ctx context.Context, n *messages.PushNotification) bool
}

type CAPISender interface {
	Send(ctx context.Context, eventsBody []byte) bool
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Consumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

// Dispatcher drains the outbound topic and delivers each envelope to its
// third party. Delivery is best-effort: after maxAttempts the message is
// dropped with a log line, the order/tracking flow that enqueued it has
// long since responded to the user.
type Dispatcher struct {
	push PushSender
	capi CAPISender
	rl   RateLimiter

	concurrency int
	maxAttempts int
	backoff     time.Duration

	rlPushPerMinute int64
	rlCAPIPerMinute int64

	sem chan struct{}
	wg  sync.WaitGroup

	startedAtUnixNano int64
	lastMsgUnixNano   atomic.Int64
	totalConsumed     atomic.Int64
	totalDelivered    atomic.Int64
	totalFailed       atomic.Int64
	inFlight          atomic.Int64
	lastErrorMu       sync.Mutex
	lastError         string
}

func New(push PushSender, capi CAPISender, rl RateLimiter) *Dispatcher {
	return &Dispatcher{
		push:        push,
		capi:        capi,
		rl:          rl,
		concurrency: 10,
		maxAttempts: 3,
		backoff:     2 * time.Second,

		rlPushPerMinute: 60,
		rlCAPIPerMinute: 600,

		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (d *Dispatcher) WithSettings(concurrency, maxAttempts int, backoff time.Duration) *Dispatcher {
	if concurrency > 0 {
		d.concurrency = concurrency
	}
	if maxAttempts > 0 {
		d.maxAttempts = maxAttempts
	}
	if backoff > 0 {
		d.backoff = backoff
	}
	return d
}

func (d *Dispatcher) WithRateLimits(pushPerMin, capiPerMin int) *Dispatcher {
	if pushPerMin > 0 {
		d.rlPushPerMinute = int64(pushPerMin)
	}
	if capiPerMin > 0 {
		d.rlCAPIPerMinute = int64(capiPerMin)
	}
	return d
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastMessageAt  *time.Time `json:"lastMessageAt,omitempty"`
	TotalConsumed  int64      `json:"totalConsumed"`
	TotalDelivered int64      `json:"totalDelivered"`
	TotalFailed    int64      `json:"totalFailed"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (d *Dispatcher) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, d.startedAtUnixNano).UTC(),
		TotalConsumed:  d.totalConsumed.Load(),
		TotalDelivered: d.totalDelivered.Load(),
		TotalFailed:    d.totalFailed.Load(),
		InFlight:       d.inFlight.Load(),
	}
	if n := d.lastMsgUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastMessageAt = &t
	}
	d.lastErrorMu.Lock()
	st.LastError = d.lastError
	d.lastErrorMu.Unlock()
	return st
}

func (d *Dispatcher) Run(ctx context.Context, c Consumer) error {
	d.sem = make(chan struct{}, d.concurrency)
	err := c.Consume(ctx, func(key, value []byte) error {
		return d.handle(ctx, key, value)
	})
	d.wg.Wait()
	return err
}

// handle commits eagerly: delivery runs async under the semaphore and a
// lost message costs at most one best-effort notification.
func (d *Dispatcher) handle(ctx context.Context, key, value []byte) error {
	d.totalConsumed.Add(1)
	d.lastMsgUnixNano.Store(time.Now().UTC().UnixNano())

	var env messages.OutboundDispatch
	if err := json.Unmarshal(value, &env); err != nil {
		d.fail(fmt.Sprintf("undecodable outbound message key=%s: %v", key, err))
		return nil
	}

	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	d.wg.Add(1)
	d.inFlight.Add(1)
	go func() {
		defer func() {
			d.inFlight.Add(-1)
			<-d.sem
			d.wg.Done()
		}()
		d.deliver(ctx, string(key), env)
	}()
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, key string, env messages.OutboundDispatch) {
	d.waitForRateLimit(ctx, env.Kind)

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		var ok bool
		switch env.Kind {
		case messages.OutboundKindPush:
			ok = d.push.Send(ctx, env.Push)
		case messages.OutboundKindCAPI:
			ok = d.capi.Send(ctx, env.CAPI)
		default:
			d.fail(fmt.Sprintf("unknown outbound kind %q key=%s", env.Kind, key))
			return
		}
		if ok {
			d.totalDelivered.Add(1)
			return
		}
		if attempt < d.maxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * d.backoff):
			case <-ctx.Done():
				return
			}
		}
	}
	d.fail(fmt.Sprintf("gave up on %s dispatch key=%s after %d attempts", env.Kind, key, d.maxAttempts))
}

func (d *Dispatcher) waitForRateLimit(ctx context.Context, kind string) {
	if d.rl == nil {
		return
	}
	limit := d.rlPushPerMinute
	if kind == messages.OutboundKindCAPI {
		limit = d.rlCAPIPerMinute
	}
	minuteKey := fmt.Sprintf("rl:outbound:%s:%s", kind, time.Now().UTC().Format("200601021504"))
	allowed, n, err := d.rl.Allow(ctx, minuteKey, limit, 70*time.Second)
	if err != nil {
		// Limiter trouble must not block deliveries.
		slog.Warn("rate limiter unavailable", "error", err.Error())
		return
	}
	if !allowed {
		slog.Warn("rate limit exceeded", "kind", kind, "count", n)
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
		}
	}
}

func (d *Dispatcher) fail(msg string) {
	d.totalFailed.Add(1)
	slog.Error("outbound dispatch", "error", msg)
	d.lastErrorMu.Lock()
	d.lastError = msg
	d.lastErrorMu.Unlock()
}
