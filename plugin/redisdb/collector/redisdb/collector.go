// SPDX-License-Identifier: GPL-3.0-or-later

package redisdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/blang/semver/v4"

	"github.com/netdata/netdata/go/redisdb/logger"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/pkg/sink"
)

const ModuleName = "redisdb"

// Collector polls Redis INFO. One Collector serves any number of instance
// configurations and is safe for concurrent use.
type Collector struct {
	*logger.Logger

	Dialer Dialer

	connsMu sync.Mutex
	conns   map[connKey]Conn

	commandsMu        sync.Mutex
	prevTotalCommands map[string]float64
}

func New() *Collector {
	return &Collector{
		Logger:            logger.New().With("collector", ModuleName),
		Dialer:            redisDialer{},
		conns:             make(map[connKey]Conn),
		prevTotalCommands: make(map[string]float64),
	}
}

// Check runs one collection against the instance described by cfg.
// Samples reach dst only when the whole check succeeds.
func (c *Collector) Check(ctx context.Context, cfg Config, dst sink.Sink) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	conn, err := c.getConn(cfg)
	if err != nil {
		return err
	}

	tags := cfg.MetricTags()

	snap, latency, err := fetchStatus(ctx, conn)
	if err != nil {
		return fmt.Errorf("redis[%s]: %w", cfg.JobName(), err)
	}

	var b sink.Batch
	b.Gauge("redis.info.latency_ms", latency, tags)

	c.collectKeyspace(snap, cfg, tags, &b)
	c.collectGauges(snap, cfg, tags, &b)
	c.collectRates(snap, cfg, tags, &b)
	collectRatios(snap, tags, &b)

	if err := c.collectListLengths(ctx, conn, cfg, tags, &b); err != nil {
		return fmt.Errorf("redis[%s]: %w", cfg.JobName(), err)
	}

	c.collectCommandsDelta(snap, cfg, tags, &b)

	b.Flush(dst)

	return nil
}

// Probe issues INFO and returns the server version. It emits nothing and
// does not touch the command delta baseline.
func (c *Collector) Probe(ctx context.Context, cfg Config) (*semver.Version, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, err := c.getConn(cfg)
	if err != nil {
		return nil, err
	}

	snap, _, err := fetchStatus(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("redis[%s]: %w", cfg.JobName(), err)
	}

	v, ok := snap["redis_version"]
	if !ok {
		return nil, fmt.Errorf("redis[%s]: %w: 'redis_version' not found in INFO", cfg.JobName(), ErrUnsupportedServer)
	}

	ver, err := semver.ParseTolerant(v.String())
	if err != nil {
		return nil, fmt.Errorf("redis[%s]: %w: can not parse 'redis_version' '%s': %v", cfg.JobName(), ErrUnsupportedServer, v.String(), err)
	}

	return &ver, nil
}

// Close closes all cached connections. Command delta baselines are kept, a later
// Check dials again.
func (c *Collector) Close() {
	c.connsMu.Lock()
	defer c.connsMu.Unlock()

	for key, conn := range c.conns {
		if err := conn.Close(); err != nil {
			c.Warningf("error on closing connection to %s:%d db %d: %v", key.host, key.port, key.db, err)
		}
		delete(c.conns, key)
	}
}
