package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0lexplorer/explorerx/pkg/utils"
)

const (
	// ChannelPrefix namespaces every channel this service publishes to.
	ChannelPrefix = "explorer"
	// EventAddressClassified is published after an address has been classified.
	EventAddressClassified = "address.classified"
)

// AddressClassifiedPattern matches the classified-address channel of every address.
var AddressClassifiedPattern = ChannelPrefix + ":*:" + EventAddressClassified

// AddressChannel returns the channel classification events for address are published on.
func AddressChannel(address string) string {
	return ChannelPrefix + ":" + address + ":" + EventAddressClassified
}

// AddressFromChannel extracts the address from a channel name built by AddressChannel.
// It returns "" for anything else.
func AddressFromChannel(channel string) string {
	parts := strings.Split(channel, ":")
	if len(parts) != 3 || parts[0] != ChannelPrefix || parts[2] != EventAddressClassified {
		return ""
	}
	return parts[1]
}

// Client wraps the Redis client used for real-time classification notifications (Pub/Sub).
type Client struct {
	client *redis.Client
	logger *zap.Logger
}

// NewClient creates a new Redis client using environment variables for configuration.
// Environment variables:
//   - REDIS_HOST: Redis host (default: "localhost")
//   - REDIS_PORT: Redis port (default: "6379")
//   - REDIS_PASSWORD: Redis password (default: "")
//   - REDIS_DB: Redis database number (default: "0")
func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt("REDIS_DB", 0)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		// Connection pool
		PoolSize:     10,
		MinIdleConns: 2,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db))

	return Wrap(rdb, logger), nil
}

// Wrap builds a Client around an existing connection.
func Wrap(rdb *redis.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{client: rdb, logger: logger}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client.
func (c *Client) GetClient() *redis.Client {
	return c.client
}

// Publish publishes a message to a Redis Pub/Sub channel.
func (c *Client) Publish(ctx context.Context, channel string, message interface{}) error {
	if err := c.client.Publish(ctx, channel, message).Err(); err != nil {
		c.logger.Warn("Failed to publish Redis message",
			zap.String("channel", channel),
			zap.Error(err))
		return err
	}
	return nil
}

// PublishClassified publishes payload as JSON on the address's classification channel.
func (c *Client) PublishClassified(ctx context.Context, address string, payload any) error {
	bz, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", EventAddressClassified, err)
	}
	return c.Publish(ctx, AddressChannel(address), bz)
}

// PSubscribe subscribes to one or more Redis Pub/Sub channel patterns.
// For example: "explorer:*:address.classified" matches the classification events of every address.
// The caller is responsible for closing the PubSub object when done.
func (c *Client) PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	c.logger.Debug("Subscribing to Redis patterns", zap.Strings("patterns", patterns))
	return c.client.PSubscribe(ctx, patterns...)
}

// Health checks if Redis is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
