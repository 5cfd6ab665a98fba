package core

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the shared Redis client.
type RedisOptions struct {
	URL           string
	TLS           bool
	TLSSkipVerify bool
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// ConnectRedis builds the process-wide Redis client and verifies connectivity
// with a ping. The client is always returned: a failed ping is reported as an
// error but must not abort startup — the service runs in degraded session
// mode until the store comes back, and go-redis reconnects on its own.
func ConnectRedis(ctx context.Context, o RedisOptions) (*redis.Client, error) {
	opt, err := redis.ParseURL(o.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.DialTimeout = o.DialTimeout
	opt.ReadTimeout = o.ReadTimeout
	opt.WriteTimeout = o.WriteTimeout

	if o.TLS {
		opt.TLSConfig = &tls.Config{
			InsecureSkipVerify: o.TLSSkipVerify, //nolint:gosec // matches managed-redis setups with self-signed certs
		}
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return client, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
