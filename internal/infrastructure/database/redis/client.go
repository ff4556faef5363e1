// Package redis is the go-redis connection the species catalog writes
// through.
package redis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

var (
	ErrClientClosed     = errors.Default(errors.ErrCodeCatalogClosed).WithDetail("redis client is closed")
	ErrConnectionFailed = errors.Default(errors.ErrCodeCatalogConnect).WithDetail("redis")
)

// Config addresses one standalone server.  Zero durations and sizes take
// the defaults below; MaxRetries -1 disables retries.
type Config struct {
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	PoolSize       int           `mapstructure:"pool_size"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

const (
	defaultPoolSize       = 10
	defaultDialTimeout    = 5 * time.Second
	defaultIOTimeout      = 3 * time.Second
	defaultMaxRetries     = 3
	defaultConnectTimeout = 5 * time.Second
)

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func (cfg *Config) options() *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     orDefault(cfg.PoolSize, defaultPoolSize),
		DialTimeout:  orDefault(cfg.DialTimeout, defaultDialTimeout),
		ReadTimeout:  orDefault(cfg.ReadTimeout, defaultIOTimeout),
		WriteTimeout: orDefault(cfg.WriteTimeout, defaultIOTimeout),
		MaxRetries:   orDefault(cfg.MaxRetries, defaultMaxRetries),
	}
}

// Client guards a go-redis client so that calls after Close fail with
// ErrClientClosed instead of a pool error.
type Client struct {
	rdb    *redis.Client
	logger logging.Logger
	closed atomic.Bool
}

// NewClient dials cfg.Addr and returns once a PING succeeds.
func NewClient(cfg *Config, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &Client{rdb: redis.NewClient(cfg.options()), logger: log.Named("redis")}

	ctx, cancel := context.WithTimeout(context.Background(), orDefault(cfg.ConnectTimeout, defaultConnectTimeout))
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		_ = c.rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err)
	}
	c.logger.Info("redis connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("redis close failed", logging.Err(err))
		return err
	}
	c.logger.Debug("redis closed")
	return nil
}

// TxPipelined queues fn's commands in one MULTI/EXEC block.
func (c *Client) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	_, err := c.rdb.TxPipelined(ctx, fn)
	return err
}

// failed marks cmd with ErrClientClosed when the client is closed.
func (c *Client) failed(cmd interface{ SetErr(error) }) bool {
	if !c.closed.Load() {
		return false
	}
	cmd.SetErr(ErrClientClosed)
	return true
}

func (c *Client) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	if cmd := redis.NewMapStringStringCmd(ctx); c.failed(cmd) {
		return cmd
	}
	return c.rdb.HGetAll(ctx, key)
}

func (c *Client) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	if cmd := redis.NewStringSliceCmd(ctx); c.failed(cmd) {
		return cmd
	}
	return c.rdb.SMembers(ctx, key)
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if cmd := redis.NewIntCmd(ctx); c.failed(cmd) {
		return cmd
	}
	return c.rdb.Del(ctx, keys...)
}
