package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a Feed backed by Redis pub/sub.
type Redis struct {
	client  *redis.Client
	channel string
	log     *zap.SugaredLogger
}

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, o RedisOptions, log *zap.SugaredLogger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("feed: redis ping %s: %w", o.Addr, err)
	}
	return NewRedisFromClient(client, o.Channel, log), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, channel string, log *zap.SugaredLogger) *Redis {
	if client == nil {
		panic("feed: redis client is required")
	}
	if channel == "" {
		channel = "leadflow:leads"
	}
	if log == nil {
		log = zap.S()
	}
	return &Redis{client: client, channel: channel, log: log}
}

// Publish sends payload to the channel.
func (r *Redis) Publish(ctx context.Context, payload []byte) error {
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("feed: redis publish: %w", err)
	}
	return nil
}

// Subscribe opens a dedicated pub/sub connection.  The first confirmation
// is awaited so no message published after Subscribe returns is missed.
func (r *Redis) Subscribe(ctx context.Context) (*Subscription, error) {
	ps := r.client.Subscribe(ctx, r.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("feed: redis subscribe: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []byte, SubscriberBuffer)
	in := ps.Channel()

	go func() {
		defer close(out)
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					r.log.Debugw("feed subscriber behind, dropping event", "channel", r.channel)
				}
			}
		}
	}()

	return &Subscription{C: out, cancel: cancel}, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
