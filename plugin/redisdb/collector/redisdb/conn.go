// SPDX-License-Identifier: GPL-3.0-or-later

package redisdb

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conn is the subset of the go-redis client the collector uses.
type Conn interface {
	Info(ctx context.Context, section ...string) *redis.StringCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	Close() error
}

type ConnOptions struct {
	Host    string
	Port    int
	DB      int
	Timeout time.Duration
}

func (o ConnOptions) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Dialer creates unauthenticated connections.
type Dialer interface {
	Dial(opts ConnOptions) (Conn, error)
}

// AuthDialer is implemented by dialers that support password authentication.
type AuthDialer interface {
	Dialer
	DialAuth(opts ConnOptions, password string) (Conn, error)
}

type connKey struct {
	host string
	port int
	db   int
}

// redisDialer creates go-redis clients. Clients connect lazily on the first command.
type redisDialer struct{}

func (redisDialer) Dial(opts ConnOptions) (Conn, error) {
	return redis.NewClient(newRedisOptions(opts, "")), nil
}

func (redisDialer) DialAuth(opts ConnOptions, password string) (Conn, error) {
	return redis.NewClient(newRedisOptions(opts, password)), nil
}

func newRedisOptions(opts ConnOptions, password string) *redis.Options {
	return &redis.Options{
		Addr:         opts.Addr(),
		Password:     password,
		DB:           opts.DB,
		PoolSize:     1,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	}
}

// getConn returns the cached connection for (host, port, db), creating it on a miss.
// Nothing is cached when creation fails.
func (c *Collector) getConn(cfg Config) (Conn, error) {
	key := connKey{host: cfg.Host, port: cfg.Port, db: cfg.DB}

	c.connsMu.Lock()
	defer c.connsMu.Unlock()

	if conn, ok := c.conns[key]; ok {
		return conn, nil
	}

	opts := ConnOptions{
		Host:    cfg.Host,
		Port:    cfg.Port,
		DB:      cfg.DB,
		Timeout: cfg.Timeout.Duration(),
	}

	var conn Conn
	var err error

	if cfg.Password != "" {
		ad, ok := c.Dialer.(AuthDialer)
		if !ok {
			return nil, fmt.Errorf("%w: client capability missing: dialer does not support authenticated connections", ErrConfiguration)
		}
		conn, err = ad.DialAuth(opts, cfg.Password)
	} else {
		conn, err = c.Dialer.Dial(opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: connect to %s db %d: %v", ErrConnectivity, opts.Addr(), opts.DB, err)
	}

	c.Debugf("created connection to %s db %d", opts.Addr(), opts.DB)
	c.conns[key] = conn

	return conn, nil
}
