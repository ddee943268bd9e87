// SPDX-License-Identifier: GPL-3.0-or-later

package redisdb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/pkg/sink"
)

var reDBField = regexp.MustCompile(`^db\d+`)

func (c *Collector) collectKeyspace(snap Snapshot, cfg Config, tags []string, b *sink.Batch) {
	fields := make([]string, 0, len(snap))
	for field := range snap {
		if reDBField.MatchString(field) {
			fields = append(fields, field)
		}
	}
	slices.Sort(fields)

	for _, field := range fields {
		dbTags := append(slices.Clip(tags), "redis_db:"+field)

		values := make(map[string]float64, len(dbSubkeys))
		resolved := true
		for _, subkey := range dbSubkeys {
			v, err := resolveSubkey(snap[field], subkey)
			if err != nil {
				c.Warningf("redis[%s] %s: %v", cfg.JobName(), field, err)
				resolved = false
				v = -1
			}
			values[subkey] = v
			b.Gauge("redis."+subkey, v, dbTags)
		}

		if keys := values["keys"]; resolved && keys != 0 {
			b.Gauge("redis.expires_ratio", round2(100*values["expires"]/keys), dbTags)
		}
	}
}

func resolveSubkey(v Value, subkey string) (float64, error) {
	var sub Value

	switch v.Kind() {
	case KindStructured:
		fields, _ := v.Fields()
		s, ok := fields[subkey]
		if !ok {
			return -1, fmt.Errorf("%w: '%s': %w", ErrParse, subkey, errDictKeyNotFound)
		}
		sub = s
	case KindString:
		s, err := parseDictString(v.String(), subkey)
		if err != nil {
			return -1, err
		}
		sub = s
	default:
		return -1, fmt.Errorf("%w: unexpected keyspace value '%s'", ErrParse, v.String())
	}

	n, ok := sub.Number()
	if !ok {
		return -1, fmt.Errorf("%w: non-numeric '%s' value '%s'", ErrParse, subkey, sub.String())
	}
	return n, nil
}

func (c *Collector) collectGauges(snap Snapshot, cfg Config, tags []string, b *sink.Batch) {
	for _, fm := range gaugeFields {
		if v, ok := c.lookupNumber(snap, cfg, fm.field); ok {
			b.Gauge(fm.metric, v, tags)
		}
	}
}

func (c *Collector) collectRates(snap Snapshot, cfg Config, tags []string, b *sink.Batch) {
	for _, fm := range rateFields {
		if v, ok := c.lookupNumber(snap, cfg, fm.field); ok {
			b.Rate(fm.metric, v, tags)
		}
	}
}

func (c *Collector) lookupNumber(snap Snapshot, cfg Config, field string) (float64, bool) {
	v, ok := snap[field]
	if !ok {
		return 0, false
	}
	n, ok := v.Number()
	if !ok {
		c.Debugf("redis[%s] skipping non-numeric field '%s': '%s'", cfg.JobName(), field, v.String())
	}
	return n, ok
}

func collectRatios(snap Snapshot, tags []string, b *sink.Batch) {
	for _, r := range ratioFields {
		num, ok1 := snap.Number(r.num)
		denom, ok2 := snap.Number(r.denom)
		if !ok1 || !ok2 || num == 0 || denom == 0 {
			continue
		}
		b.Gauge("redis."+r.name, round2(100*num/denom), tags)
	}
}

func (c *Collector) collectListLengths(ctx context.Context, conn Conn, cfg Config, tags []string, b *sink.Batch) error {
	for _, name := range cfg.ListLengths {
		n, err := conn.LLen(ctx, name).Result()
		if err != nil {
			var rerr redis.Error
			if errors.As(err, &rerr) {
				c.Errorf("redis[%s]: %v", cfg.JobName(), fmt.Errorf("%w: llen '%s': %v", ErrListQuery, name, err))
				continue
			}
			return fmt.Errorf("%w: llen '%s': %v", ErrConnectivity, name, err)
		}
		b.Gauge("redis.llen."+name, float64(n), tags)
	}
	return nil
}

// collectCommandsDelta emits the number of commands processed since the previous
// successful check of the same tag set. The INFO call itself is not counted.
func (c *Collector) collectCommandsDelta(snap Snapshot, cfg Config, tags []string, b *sink.Batch) {
	total, ok := snap.Number("total_commands_processed")
	if !ok {
		c.Debugf("redis[%s] 'total_commands_processed' not found", cfg.JobName())
		return
	}
	total--

	key := commandsKey(tags)

	c.commandsMu.Lock()
	defer c.commandsMu.Unlock()

	if prev, ok := c.prevTotalCommands[key]; ok {
		b.Gauge("redis.net.commands", total-prev, tags)
	}
	c.prevTotalCommands[key] = total
}

// commandsKey identifies a tag set. Tags may contain any printable character, so they
// are joined with NUL.
func commandsKey(tags []string) string {
	return strings.Join(tags, "\x00")
}
