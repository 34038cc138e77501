// Package pushsend broadcasts a push payload to subscription descriptors.
// Broker endpoints (amqp, amqps) receive the payload on their device queue;
// browser endpoints (https) receive it through Web Push with VAPID.
package pushsend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/transport/amqppush"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long an undelivered push is kept, in seconds.
const DefaultTTL = 300

// Options configures a Sender.
type Options struct {
	// BrokerURL is dialed for amqp endpoints. It carries credentials the
	// endpoint itself does not.
	BrokerURL string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Subject is the VAPID contact, an e-mail address or https URL.
	Subject string
	TTL     int

	HTTPClient webpush.HTTPClient
}

// Sender delivers payloads.
type Sender struct {
	opts Options
	log  zerolog.Logger
}

// New creates a sender.
func New(opts Options) *Sender {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	opts.Subject = strings.TrimPrefix(opts.Subject, "mailto:")
	return &Sender{opts: opts, log: logging.Component("pushsend")}
}

// Result is the outcome of a broadcast.
type Result struct {
	Sent    int
	Skipped int
	// Stale lists endpoints that no longer exist and should be forgotten.
	Stale []string
}

// Broadcast sends payload to every descriptor. Only a broken broker
// connection is returned as an error; per-descriptor failures keep the
// descriptor unless it is known to be gone.
func (s *Sender) Broadcast(ctx context.Context, subs []push.Descriptor, payload []byte) (Result, error) {
	var res Result
	var broker *brokerSession
	defer func() {
		if broker != nil {
			broker.close()
		}
	}()

	for _, d := range subs {
		u, err := url.Parse(d.Endpoint)
		if err != nil {
			s.log.Warn().Err(err).Str("endpoint", d.Endpoint).Msg("invalid endpoint")
			res.Skipped++
			continue
		}

		var alive, sent bool
		switch u.Scheme {
		case push.SchemeAMQP, push.SchemeAMQPS:
			if broker == nil {
				if broker, err = s.dialBroker(); err != nil {
					return res, err
				}
			}
			alive, sent = broker.send(ctx, d, payload, s.opts.TTL)
		case push.SchemeHTTPS:
			alive, sent = s.sendWebPush(ctx, d, payload)
		default:
			s.log.Warn().Str("endpoint", d.Endpoint).Msg("unsupported endpoint scheme")
			alive = true
		}

		switch {
		case !alive:
			res.Stale = append(res.Stale, d.Endpoint)
		case sent:
			res.Sent++
		default:
			res.Skipped++
		}
	}
	return res, nil
}

func (s *Sender) sendWebPush(ctx context.Context, d push.Descriptor, payload []byte) (alive, sent bool) {
	if s.opts.VAPIDPrivateKey == "" || s.opts.VAPIDPublicKey == "" {
		return true, false
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: d.Endpoint,
		Keys:     webpush.Keys{P256dh: d.P256dh, Auth: d.Auth},
	}, &webpush.Options{
		HTTPClient:      s.opts.HTTPClient,
		Subscriber:      s.opts.Subject,
		VAPIDPublicKey:  s.opts.VAPIDPublicKey,
		VAPIDPrivateKey: s.opts.VAPIDPrivateKey,
		TTL:             s.opts.TTL,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("endpoint", d.Endpoint).Msg("web push failed")
		return true, false
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, false
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, true
	default:
		s.log.Warn().Int("status", resp.StatusCode).Str("endpoint", d.Endpoint).Msg("unexpected web push status")
		return true, false
	}
}

type brokerSession struct {
	conn *amqp.Connection
	log  zerolog.Logger
}

func (s *Sender) dialBroker() (*brokerSession, error) {
	if s.opts.BrokerURL == "" {
		return nil, errors.New("broker url is not configured")
	}
	conn, err := amqppush.Dial(s.opts.BrokerURL)
	if err != nil {
		return nil, err
	}
	return &brokerSession{conn: conn, log: s.log}, nil
}

func (b *brokerSession) close() { _ = b.conn.Close() }

// send publishes to the device queue. A missing queue marks the device gone.
// Each descriptor gets its own channel since a failed passive declare
// closes the channel it ran on.
func (b *brokerSession) send(ctx context.Context, d push.Descriptor, payload []byte, ttl int) (alive, sent bool) {
	queue, err := amqppush.QueueFor(d)
	if err != nil {
		b.log.Warn().Err(err).Msg("skipping descriptor")
		return true, false
	}

	ch, err := b.conn.Channel()
	if err != nil {
		b.log.Warn().Err(err).Msg("open channel")
		return true, false
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclarePassive(queue, true, false, false, false, nil); err != nil {
		var amqpErr *amqp.Error
		if errors.As(err, &amqpErr) && amqpErr.Code == amqp.NotFound {
			return false, false
		}
		b.log.Warn().Err(err).Str("queue", queue).Msg("inspect queue")
		return true, false
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Expiration:   strconv.Itoa(ttl * 1000),
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	if err != nil {
		b.log.Warn().Err(err).Str("queue", queue).Msg("publish")
		return true, false
	}
	return true, true
}

// GenerateKeys creates a VAPID key pair. The public key is the URL-safe
// base64 uncompressed point clients use as application server key.
func GenerateKeys() (privateKey, publicKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate vapid keys: %w", err)
	}
	return privateKey, publicKey, nil
}
