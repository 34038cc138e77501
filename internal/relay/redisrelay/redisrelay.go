// Package redisrelay bridges the relay across processes with redis pub/sub.
// A worker registers a Client on its hub; page sessions in other processes
// read the same channel with Subscribe.
package redisrelay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/relay"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "ordernotify:relay"

// Options configures the redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Dial connects to redis and verifies the connection.
func Dial(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// Client stands for every page session listening on the channel.
type Client struct {
	rdb     redis.UniversalClient
	channel string
	id      string
}

var _ relay.Client = (*Client)(nil)

// NewClient creates a relay client publishing to channel.
func NewClient(rdb redis.UniversalClient, channel string) *Client {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Client{rdb: rdb, channel: channel, id: "redis:" + uuid.NewString()}
}

func (c *Client) ID() string  { return c.id }
func (c *Client) URL() string { return "" }

// PostMessage publishes env to the channel.
func (c *Client) PostMessage(ctx context.Context, env relay.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := c.rdb.Publish(ctx, c.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", c.channel, err)
	}
	return nil
}

// Decode parses a published envelope.
func Decode(payload string) (relay.Envelope, error) {
	var env relay.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return relay.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// Subscribe listens on channel and returns the decoded envelopes. The
// channel closes when ctx ends or the returned close func is called.
// Undecodable messages are dropped.
func Subscribe(ctx context.Context, rdb redis.UniversalClient, channel string) (<-chan relay.Envelope, func() error, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	ps := rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}

	log := logging.Component("relay.redis")
	out := make(chan relay.Envelope)

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = ps.Close()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				env, err := Decode(msg.Payload)
				if err != nil {
					log.Warn().Err(err).Msg("dropping relay message")
					continue
				}
				select {
				case out <- env:
				case <-ctx.Done():
					_ = ps.Close()
					return
				}
			}
		}
	}()

	return out, ps.Close, nil
}
