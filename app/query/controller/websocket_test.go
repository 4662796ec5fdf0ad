package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0lexplorer/explorerx/app/query/types"
	"github.com/0lexplorer/explorerx/pkg/redis"
)

const (
	followed = "0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f"
	other    = "a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0"
)

// TestCalculateNextBackoff tests the exponential backoff calculation with jitter
func TestCalculateNextBackoff(t *testing.T) {
	tests := []struct {
		name         string
		current      time.Duration
		max          time.Duration
		factor       float64
		jitterFactor float64
		expectMin    time.Duration
		expectMax    time.Duration
	}{
		{
			name:         "initial backoff doubles",
			current:      1 * time.Second,
			max:          30 * time.Second,
			factor:       2.0,
			jitterFactor: 0.1,
			expectMin:    1800 * time.Millisecond,
			expectMax:    2200 * time.Millisecond,
		},
		{
			name:         "respects maximum",
			current:      20 * time.Second,
			max:          30 * time.Second,
			factor:       2.0,
			jitterFactor: 0.1,
			expectMin:    27 * time.Second,
			expectMax:    30 * time.Second,
		},
		{
			name:         "no jitter produces exact value",
			current:      5 * time.Second,
			max:          30 * time.Second,
			factor:       2.0,
			jitterFactor: 0.0,
			expectMin:    10 * time.Second,
			expectMax:    10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Run multiple times to account for randomness in jitter
			for i := 0; i < 10; i++ {
				result := calculateNextBackoff(tt.current, tt.max, tt.factor, tt.jitterFactor)
				assert.GreaterOrEqual(t, result, tt.expectMin, "backoff should be >= minimum")
				assert.LessOrEqual(t, result, tt.expectMax, "backoff should be <= maximum")
			}
		})
	}
}

// TestClientSubscriptions tests the subscription tracking logic
func TestClientSubscriptions(t *testing.T) {
	t.Run("subscribe and check", func(t *testing.T) {
		subs := newClientSubscriptions()

		subs.subscribe(followed)
		assert.True(t, subs.isSubscribed(followed))
		assert.False(t, subs.isSubscribed(other))
	})

	t.Run("wildcard subscription", func(t *testing.T) {
		subs := newClientSubscriptions()

		subs.subscribe("*")
		assert.True(t, subs.isSubscribed(followed))
		assert.True(t, subs.isSubscribed(other))
	})

	t.Run("unsubscribe", func(t *testing.T) {
		subs := newClientSubscriptions()

		subs.subscribe(followed)
		subs.unsubscribe(followed)
		assert.False(t, subs.isSubscribed(followed))
	})

	t.Run("concurrent access", func(t *testing.T) {
		subs := newClientSubscriptions()
		done := make(chan bool)

		go func() {
			for i := 0; i < 100; i++ {
				subs.subscribe(followed)
			}
			done <- true
		}()
		go func() {
			for i := 0; i < 100; i++ {
				subs.unsubscribe(followed)
			}
			done <- true
		}()
		go func() {
			for i := 0; i < 100; i++ {
				_ = subs.isSubscribed(followed)
			}
			done <- true
		}()

		<-done
		<-done
		<-done
	})
}

func TestHandleClientMessage(t *testing.T) {
	subs := newClientSubscriptions()

	reply := handleClientMessage(ClientMessage{Action: "subscribe", Address: "0x0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F0F"}, subs)
	assert.Equal(t, "subscribed", reply.Type)
	assert.Equal(t, map[string]string{"address": followed}, reply.Payload)
	assert.True(t, subs.isSubscribed(followed))

	reply = handleClientMessage(ClientMessage{Action: "unsubscribe", Address: followed}, subs)
	assert.Equal(t, "unsubscribed", reply.Type)
	assert.False(t, subs.isSubscribed(followed))

	reply = handleClientMessage(ClientMessage{Action: "subscribe", Address: "*"}, subs)
	assert.Equal(t, "subscribed", reply.Type)
	assert.True(t, subs.isSubscribed(other))

	assert.Equal(t, "error", handleClientMessage(ClientMessage{Action: "subscribe"}, subs).Type)
	assert.Equal(t, "error", handleClientMessage(ClientMessage{Action: "subscribe", Address: "nope"}, subs).Type)
	assert.Equal(t, "error", handleClientMessage(ClientMessage{Action: "explode", Address: followed}, subs).Type)
}

// TestProcessRedisMessages feeds a fake pub/sub channel and checks server-side filtering.
func TestProcessRedisMessages(t *testing.T) {
	c := &Controller{App: &types.App{Logger: zaptest.NewLogger(t)}}
	subs := newClientSubscriptions()
	subs.subscribe(followed)

	ch := make(chan *goredis.Message, 4)
	ch <- &goredis.Message{Channel: redis.AddressChannel(other), Payload: `{"role":"Miner"}`}
	ch <- &goredis.Message{Channel: "ledger:1:block.indexed", Payload: `{}`}
	ch <- &goredis.Message{Channel: redis.AddressChannel(followed), Payload: `not json`}
	ch <- &goredis.Message{Channel: redis.AddressChannel(followed), Payload: `{"role":"Validator"}`}
	close(ch)

	send := make(chan ServerMessage, 4)
	err := c.processRedisMessages(context.Background(), ch, send, subs)
	require.NoError(t, err)
	close(send)

	var got []ServerMessage
	for msg := range send {
		got = append(got, msg)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "address.classified", got[0].Type)
	assert.JSONEq(t, `{"role":"Validator"}`, string(got[0].Payload.(json.RawMessage)))
}

func TestProcessRedisMessagesStopsOnCancel(t *testing.T) {
	c := &Controller{App: &types.App{Logger: zaptest.NewLogger(t)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.processRedisMessages(ctx, make(chan *goredis.Message), make(chan ServerMessage), newClientSubscriptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWebSocketWithoutRedis(t *testing.T) {
	c := &Controller{App: &types.App{Logger: zaptest.NewLogger(t)}}

	server := httptest.NewServer(http.HandlerFunc(c.HandleWebSocket))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestClientMessageParsing(t *testing.T) {
	var msg ClientMessage
	require.NoError(t, json.Unmarshal([]byte(`{"action":"subscribe","address":"*"}`), &msg))
	assert.Equal(t, ClientMessage{Action: "subscribe", Address: "*"}, msg)

	assert.Error(t, json.Unmarshal([]byte(`{invalid}`), &msg))
}

// BenchmarkCalculateNextBackoff benchmarks the backoff calculation
func BenchmarkCalculateNextBackoff(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = calculateNextBackoff(time.Second, 30*time.Second, 2.0, 0.1)
	}
}
