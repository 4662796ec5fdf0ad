package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/0lexplorer/explorerx/pkg/provenance"
	"github.com/0lexplorer/explorerx/pkg/redis"
)

// wildcard subscribes a client to every address.
const wildcard = "*"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage represents messages sent by WebSocket clients.
type ClientMessage struct {
	Action  string `json:"action"`  // "subscribe" or "unsubscribe"
	Address string `json:"address"` // Address to follow, or "*" for all addresses
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // "address.classified", "subscribed", "unsubscribed", "error", "info"
	Payload interface{} `json:"payload"` // Event-specific data
}

// clientSubscriptions tracks the addresses a client follows.
type clientSubscriptions struct {
	addresses *xsync.Map[string, struct{}]
}

func newClientSubscriptions() *clientSubscriptions {
	return &clientSubscriptions{addresses: xsync.NewMap[string, struct{}]()}
}

func (cs *clientSubscriptions) subscribe(address string) {
	cs.addresses.Store(address, struct{}{})
}

func (cs *clientSubscriptions) unsubscribe(address string) {
	cs.addresses.Delete(address)
}

// isSubscribed checks if an address is followed. The wildcard matches every address.
func (cs *clientSubscriptions) isSubscribed(address string) bool {
	if _, ok := cs.addresses.Load(wildcard); ok {
		return true
	}
	_, ok := cs.addresses.Load(address)
	return ok
}

// normalizeSubscription returns the canonical form of a subscription target.
func normalizeSubscription(target string) (string, error) {
	if target == wildcard {
		return wildcard, nil
	}
	address, err := provenance.ParseAddress(target)
	if err != nil {
		return "", err
	}
	return address.String(), nil
}

// HandleWebSocket upgrades HTTP connection to WebSocket and streams classification events.
//
// Protocol:
// Client sends: {"action": "subscribe", "address": "<hex address>"}  // Follow one address
// Client sends: {"action": "subscribe", "address": "*"}              // Follow every address
// Client sends: {"action": "unsubscribe", "address": "<hex address>"}
//
// Server sends:
// - {"type": "address.classified", "payload": {...}}
// - {"type": "subscribed", "payload": {"address": "..."}}
// - {"type": "unsubscribed", "payload": {"address": "..."}}
// - {"type": "error", "payload": {"message": "..."}}
//
// All goroutines recover from panics and tear the connection down.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		http.Error(w, "Real-time events not available (Redis disabled)", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func(conn *websocket.Conn) {
		if err := conn.Close(); err != nil {
			c.App.Logger.Debug("Failed to close WebSocket connection", zap.Error(err))
		}
	}(conn)

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subs := newClientSubscriptions()
	send := make(chan ServerMessage, 256)

	var wg sync.WaitGroup
	run := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					c.App.Logger.Error("Panic in WebSocket goroutine",
						zap.String("goroutine", name),
						zap.Any("panic", rec),
						zap.String("stack", string(debug.Stack())),
						zap.String("remote_addr", r.RemoteAddr))
					cancel()
				}
			}()
			fn()
		}()
	}

	run("redis subscriber", func() { c.subscribeToRedis(ctx, send, subs) })
	run("ping ticker", func() { c.sendPings(ctx, conn) })
	run("message writer", func() { c.writeMessages(ctx, conn, send) })

	// Blocks until the connection closes.
	c.readClientMessages(ctx, conn, cancel, subs, send)

	cancel()
	wg.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// subscribeToRedis subscribes to the classified-address pattern and forwards events the client
// follows. It reconnects with exponential backoff until ctx is cancelled, telling the client
// while Redis is unavailable.
func (c *Controller) subscribeToRedis(ctx context.Context, send chan<- ServerMessage, subs *clientSubscriptions) {
	pattern := redis.AddressClassifiedPattern

	const (
		initialBackoff = 1 * time.Second
		maxBackoff     = 30 * time.Second
		backoffFactor  = 2.0
		jitterFactor   = 0.1 // 10% jitter
	)

	backoff := initialBackoff
	attemptNum := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		attemptNum++

		subscriptionErr := c.attemptRedisSubscription(ctx, pattern, send, subs, attemptNum)

		if ctx.Err() != nil {
			c.App.Logger.Debug("Redis subscription cancelled")
			return
		}

		if subscriptionErr != nil {
			c.App.Logger.Warn("Redis subscription failed, will retry",
				zap.Error(subscriptionErr),
				zap.Int("attempt", attemptNum),
				zap.Duration("backoff", backoff))
		} else {
			c.App.Logger.Warn("Redis subscription channel closed, will retry",
				zap.Int("attempt", attemptNum),
				zap.Duration("backoff", backoff))
		}

		select {
		case send <- ServerMessage{
			Type: "error",
			Payload: map[string]interface{}{
				"message":     "Redis connection lost, attempting to reconnect...",
				"retryIn":     backoff.Seconds(),
				"attempt":     attemptNum,
				"recoverable": true,
			},
		}:
		case <-ctx.Done():
			return
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		backoff = calculateNextBackoff(backoff, maxBackoff, backoffFactor, jitterFactor)
	}
}

// attemptRedisSubscription attempts a single Redis subscription and processes messages until
// the subscription fails or context is cancelled.
func (c *Controller) attemptRedisSubscription(
	ctx context.Context,
	pattern string,
	send chan<- ServerMessage,
	subs *clientSubscriptions,
	attemptNum int,
) error {
	pubsub := c.App.RedisClient.PSubscribe(ctx, pattern)
	defer func() {
		if err := pubsub.Close(); err != nil {
			c.App.Logger.Debug("Error closing Redis subscription", zap.Error(err))
		}
	}()

	receiveCtx, receiveCancel := context.WithTimeout(ctx, 5*time.Second)
	defer receiveCancel()

	if _, err := pubsub.Receive(receiveCtx); err != nil {
		return fmt.Errorf("failed to confirm Redis subscription: %w", err)
	}

	c.App.Logger.Debug("Subscribed to Redis pattern",
		zap.String("pattern", pattern),
		zap.Int("attempt", attemptNum))

	if attemptNum > 1 {
		select {
		case send <- ServerMessage{
			Type: "info",
			Payload: map[string]interface{}{
				"message": "Redis connection established",
				"attempt": attemptNum,
			},
		}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return c.processRedisMessages(ctx, pubsub.Channel(), send, subs)
}

// processRedisMessages forwards messages from ch until it closes (nil) or ctx is cancelled.
func (c *Controller) processRedisMessages(
	ctx context.Context,
	ch <-chan *goredis.Message,
	send chan<- ServerMessage,
	subs *clientSubscriptions,
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			address := redis.AddressFromChannel(msg.Channel)
			if address == "" {
				c.App.Logger.Warn("Unexpected Redis channel", zap.String("channel", msg.Channel))
				continue
			}

			if !subs.isSubscribed(address) {
				continue
			}

			var payload json.RawMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				c.App.Logger.Error("Failed to parse Redis message",
					zap.Error(err),
					zap.String("channel", msg.Channel))
				continue
			}

			select {
			case send <- ServerMessage{Type: redis.EventAddressClassified, Payload: payload}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// calculateNextBackoff calculates the next backoff duration with exponential growth and jitter.
func calculateNextBackoff(current, max time.Duration, factor, jitterFactor float64) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		next = max
	}

	// Jitter keeps reconnecting clients from retrying in lockstep.
	jitter := float64(next) * jitterFactor * (2*rand.Float64() - 1)
	nextWithJitter := time.Duration(float64(next) + jitter)

	if nextWithJitter < current {
		nextWithJitter = current
	}
	if nextWithJitter > max {
		nextWithJitter = max
	}

	return nextWithJitter
}

// sendPings sends periodic WebSocket ping frames to keep the connection alive.
func (c *Controller) sendPings(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				c.App.Logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// writeMessages writes messages from the send channel to the WebSocket connection until ctx ends.
func (c *Controller) writeMessages(ctx context.Context, conn *websocket.Conn, send <-chan ServerMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-send:
			if err := conn.WriteJSON(msg); err != nil {
				c.App.Logger.Debug("Failed to write WebSocket message", zap.Error(err))
				return
			}
		}
	}
}

// readClientMessages handles subscription requests until the connection closes.
func (c *Controller) readClientMessages(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, subs *clientSubscriptions, send chan<- ServerMessage) {
	if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.App.Logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.App.Logger.Error("WebSocket read error", zap.Error(err))
			}
			cancel()
			return
		}

		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.App.Logger.Error("Failed to reset read deadline", zap.Error(err))
			return
		}

		reply := handleClientMessage(msg, subs)
		if reply.Type == "subscribed" || reply.Type == "unsubscribed" {
			c.App.Logger.Debug("Client subscription changed", zap.String("action", msg.Action), zap.Any("payload", reply.Payload))
		}

		select {
		case send <- reply:
		case <-ctx.Done():
			return
		}
	}
}

// handleClientMessage applies one client request to subs and returns the reply to send.
func handleClientMessage(msg ClientMessage, subs *clientSubscriptions) ServerMessage {
	switch msg.Action {
	case "subscribe", "unsubscribe":
	default:
		return ServerMessage{Type: "error", Payload: map[string]string{"message": "unknown action: " + msg.Action}}
	}

	if msg.Address == "" {
		return ServerMessage{Type: "error", Payload: map[string]string{"message": "address is required"}}
	}
	address, err := normalizeSubscription(msg.Address)
	if err != nil {
		return ServerMessage{Type: "error", Payload: map[string]string{"message": "invalid address: " + err.Error()}}
	}

	if msg.Action == "subscribe" {
		subs.subscribe(address)
		return ServerMessage{Type: "subscribed", Payload: map[string]string{"address": address}}
	}
	subs.unsubscribe(address)
	return ServerMessage{Type: "unsubscribed", Payload: map[string]string{"address": address}}
}
