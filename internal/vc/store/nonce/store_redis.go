package nonce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var consumeDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "worldpass_nonce_consume_duration_ms",
	Help:    "Latency of nonce consumption in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const (
	// Redis key prefix for active challenge nonces.
	nonceKeyPrefix = "vc:nonce:"

	// expiredReportWindow is how long past logical expiry an entry physically
	// remains so Consume can still report OutcomeExpired instead of
	// OutcomeNotFound. After the window the distinction collapses, which is
	// harmless: both are terminal failures for the caller.
	expiredReportWindow = time.Hour
)

// Redis is the production-recommended nonce store for distributed
// deployments. Consume uses GETDEL so read-and-delete is a single atomic
// command; concurrent consumers of one value get exactly one winner.
type Redis struct {
	client *redis.Client
	clock  Clock
}

// RedisOption configures a Redis nonce store.
type RedisOption func(*Redis)

// WithRedisClock sets the time source for expiry checks.
func WithRedisClock(clock Clock) RedisOption {
	return func(s *Redis) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewRedis constructs a Redis-backed nonce store.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	s := &Redis{client: client, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Redis) Put(ctx context.Context, e Entry) error {
	ttl := e.ExpiresAt.Sub(s.clock()) + expiredReportWindow
	if ttl <= 0 {
		ttl = expiredReportWindow
	}
	// The value is the logical expiry; key TTL only bounds storage.
	err := s.client.Set(ctx, nonceKeyPrefix+e.Value,
		strconv.FormatInt(e.ExpiresAt.Unix(), 10), ttl).Err()
	if err != nil {
		return fmt.Errorf("put nonce: %w", err)
	}
	return nil
}

func (s *Redis) Consume(ctx context.Context, value string) (Outcome, error) {
	start := time.Now()
	defer func() {
		consumeDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := s.client.GetDel(ctx, nonceKeyPrefix+value).Result()
	if errors.Is(err, redis.Nil) {
		return OutcomeNotFound, nil
	}
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("consume nonce: %w", err)
	}

	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("corrupt nonce entry %q: %w", value, err)
	}
	if s.clock().Unix() > expiresAt {
		return OutcomeExpired, nil
	}
	return OutcomeValid, nil
}
