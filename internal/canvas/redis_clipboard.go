package canvas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultClipboardKey is the Redis key used when none is configured.
const DefaultClipboardKey = "dou:clipboard"

// RedisClipboardOptions configures a RedisClipboard.
type RedisClipboardOptions struct {
	// URL is the Redis connection string, e.g. "redis://localhost:6379/0".
	URL string
	Key string
	// TTL expires the payload; zero keeps it until overwritten.
	TTL            time.Duration
	ConnectTimeout time.Duration
}

// RedisClipboard shares the clipboard between every process pointed at the
// same Redis key.
type RedisClipboard struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisClipboard connects and pings the server.
func NewRedisClipboard(opts RedisClipboardOptions) (*RedisClipboard, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Key == "" {
		opts.Key = DefaultClipboardKey
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("clipboard: parse redis url: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clipboard: connect redis: %w", err)
	}
	return &RedisClipboard{client: client, key: opts.Key, ttl: opts.TTL}, nil
}

func (r *RedisClipboard) Write(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("clipboard: write: %w", err)
	}
	return nil
}

func (r *RedisClipboard) Read(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("clipboard: read: %w", err)
	}
	return data, nil
}

// Close releases the connection pool.
func (r *RedisClipboard) Close() error {
	return r.client.Close()
}
