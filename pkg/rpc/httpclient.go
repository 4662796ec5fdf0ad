package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/0lexplorer/explorerx/pkg/utils"
	"github.com/puzpuzpuz/xsync/v4"
)

// HTTPClient is a wrapper around an http.Client that implements a circuit-breaker and token-bucket.
// One HTTPClient is built per upstream service; endpoints are tried in order.
type HTTPClient struct {
	endpoints []string
	client    *http.Client

	// token-bucket
	tokens      int64
	maxTokens   int64
	refillEvery time.Duration
	lastRefill  atomic.Value // time.Time

	// circuit-breaker
	failures *xsync.Map[string, int]
	opened   *xsync.Map[string, time.Time]

	breakerThreshold int
	breakerCooldown  time.Duration
}

// Opts is the set of options for a new HTTPClient.
type Opts struct {
	Endpoints       []string
	Timeout         time.Duration
	RPS             int
	Burst           int
	BreakerFailures int
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// OptsFromEnv reads the shared transport settings. Endpoints are filled by the caller.
func OptsFromEnv() Opts {
	return Opts{
		Timeout:         utils.EnvSeconds("RPC_TIMEOUT_SECONDS", 15*time.Second),
		RPS:             utils.EnvInt("RPC_RPS", 20),
		Burst:           utils.EnvInt("RPC_BURST", 40),
		BreakerFailures: utils.EnvInt("RPC_BREAKER_FAILURES", 3),
		BreakerCooldown: utils.EnvSeconds("RPC_BREAKER_COOLDOWN_SECONDS", 5*time.Second),
	}
}

// WithEndpoints returns a copy of o targeting the given endpoints.
func (o Opts) WithEndpoints(endpoints []string) Opts {
	o.Endpoints = endpoints
	return o
}

// NewHTTPWithOpts creates a new HTTPClient with the given options.
func NewHTTPWithOpts(o Opts) *HTTPClient {
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 5 * time.Second
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	c := &HTTPClient{
		endpoints:        utils.Dedup(o.Endpoints),
		client:           client,
		maxTokens:        int64(o.Burst),
		refillEvery:      time.Second / time.Duration(o.RPS),
		failures:         xsync.NewMap[string, int](),
		opened:           xsync.NewMap[string, time.Time](),
		breakerThreshold: o.BreakerFailures,
		breakerCooldown:  o.BreakerCooldown,
	}
	c.tokens = c.maxTokens
	c.lastRefill.Store(time.Now())
	return c
}

// Endpoints returns the deduplicated endpoint list.
func (c *HTTPClient) Endpoints() []string {
	return append([]string(nil), c.endpoints...)
}

// refill refills the token-bucket with new tokens if necessary.
func (c *HTTPClient) refill() {
	last := c.lastRefill.Load().(time.Time)
	now := time.Now()
	if now.Sub(last) >= c.refillEvery {
		if atomic.LoadInt64(&c.tokens) < c.maxTokens {
			atomic.AddInt64(&c.tokens, 1)
		}
		c.lastRefill.Store(now)
	}
}

// acquire acquires a token from the token-bucket, blocking until one is available or ctx ends.
func (c *HTTPClient) acquire(ctx context.Context) error {
	for {
		c.refill()
		if atomic.AddInt64(&c.tokens, -1) >= 0 {
			return nil
		}
		atomic.AddInt64(&c.tokens, 1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.refillEvery / 2):
		}
	}
}

// isOpen returns true while the endpoint's breaker is OPEN.
func (c *HTTPClient) isOpen(ep string) bool {
	until, ok := c.opened.Load(ep)
	if !ok {
		return false
	}
	if time.Now().After(until) {
		c.opened.Delete(ep)
		c.failures.Store(ep, 0)
		return false
	}
	return true
}

// noteFailure counts a failure and opens the breaker once the threshold is reached.
func (c *HTTPClient) noteFailure(ep string) {
	count, _ := c.failures.Compute(ep, func(old int, _ bool) (int, xsync.ComputeOp) {
		return old + 1, xsync.UpdateOp
	})
	if count >= c.breakerThreshold {
		c.opened.Store(ep, time.Now().Add(c.breakerCooldown))
	}
}

func (c *HTTPClient) noteSuccess(ep string) {
	c.failures.Store(ep, 0)
}

// doJSON sends a request with an optional JSON payload to each configured endpoint in turn until one answers.
// Transport failures and 5xx responses count against the endpoint's breaker and move on to the next endpoint.
// A 404 is returned immediately as a *StatusError matching ErrNotFound; other 4xx responses are returned as
// *StatusError without trying further endpoints since every replica would answer the same.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	if len(c.endpoints) == 0 {
		return fmt.Errorf("no endpoints configured")
	}

	var body []byte
	if payload != nil {
		b, mErr := json.Marshal(payload)
		if mErr != nil {
			return mErr
		}
		body = b
	}

	var lastErr error
	for _, ep := range c.endpoints {
		if c.isOpen(ep) {
			lastErr = fmt.Errorf("circuit open for %s", ep)
			continue
		}

		if err := c.acquire(ctx); err != nil {
			return err
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, ep+path, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			lastErr = err
			c.noteFailure(ep)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &StatusError{Code: resp.StatusCode}
			c.noteFailure(ep)
			_ = utils.DrainAndClose(resp.Body)
			continue
		}
		if resp.StatusCode >= 300 {
			_ = utils.DrainAndClose(resp.Body)
			c.noteSuccess(ep)
			return &StatusError{Code: resp.StatusCode}
		}

		var decodeErr error
		if out != nil {
			decodeErr = json.NewDecoder(resp.Body).Decode(out)
		}
		_ = utils.DrainAndClose(resp.Body)
		if decodeErr != nil {
			lastErr = fmt.Errorf("decode %s: %w", path, decodeErr)
			continue
		}

		c.noteSuccess(ep)
		return nil
	}

	return lastErr
}
