// SPDX-License-Identifier: GPL-3.0-or-later

package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/blang/semver/v4"

	"github.com/netdata/netdata/go/redisdb/logger"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/collector/redisdb"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/pkg/sink"
)

const (
	penaltyStep = 5
	maxPenalty  = 600
)

var obsoleteCharts atomic.Bool

func init() {
	obsoleteCharts.Store(true)
}

// DontObsoleteCharts keeps the charts of stopped jobs. Used on plugin termination.
func DontObsoleteCharts() {
	obsoleteCharts.Store(false)
}

// Collector is the part of *redisdb.Collector a job drives.
type Collector interface {
	Check(ctx context.Context, cfg redisdb.Config, dst sink.Sink) error
	Probe(ctx context.Context, cfg redisdb.Config) (*semver.Version, error)
}

type JobConfig struct {
	PluginName string
	Config     redisdb.Config
	Collector  Collector
	Out        io.Writer
}

func NewJob(cfg JobConfig) *Job {
	if cfg.Config.UpdateEvery == 0 {
		cfg.Config.UpdateEvery = 1
	}

	j := &Job{
		AutoDetectEvery: cfg.Config.AutoDetectionRetry,

		pluginName:  cfg.PluginName,
		name:        cfg.Config.JobName(),
		cfg:         cfg.Config,
		updateEvery: cfg.Config.UpdateEvery,
		collector:   cfg.Collector,
		out:         cfg.Out,
		tick:        make(chan int),
		stop:        make(chan struct{}),
	}

	j.sink = sink.NewNetdata(sink.NetdataConfig{
		PluginName:  cfg.PluginName,
		ModuleName:  redisdb.ModuleName,
		JobName:     j.name,
		UpdateEvery: j.updateEvery,
		BaseTags:    cfg.Config.MetricTags(),
	})

	j.Logger = logger.New().With(
		slog.String("collector", redisdb.ModuleName),
		slog.String("job", j.name),
	)

	return j
}

// Job polls one Redis instance on its own interval.
type Job struct {
	*logger.Logger

	AutoDetectEvery int

	pluginName  string
	name        string
	cfg         redisdb.Config
	updateEvery int

	collector Collector
	sink      *sink.Netdata
	out       io.Writer

	version  *semver.Version
	panicked bool
	retries  int

	tick chan int
	stop chan struct{}
}

func (j *Job) Name() string { return j.name }

func (j *Job) FullName() string { return redisdb.ModuleName + "_" + j.name }

// LockName identifies the polled database across plugin processes.
func (j *Job) LockName() string {
	return fmt.Sprintf("%s_%s:%d/%d", redisdb.ModuleName, j.cfg.Host, j.cfg.Port, j.cfg.DB)
}

func (j *Job) Panicked() bool { return j.panicked }

// Version is the server version found by the last successful AutoDetection.
func (j *Job) Version() *semver.Version { return j.version }

func (j *Job) RetryAutoDetection() bool { return j.AutoDetectEvery > 0 }

// AutoDetection probes the instance once. It handles panic.
func (j *Job) AutoDetection(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic %v", r)
			j.panicked = true
			j.AutoDetectEvery = 0

			j.Errorf("PANIC %v", r)
			if logger.Level.Enabled(slog.LevelDebug) {
				j.Errorf("STACK: %s", debug.Stack())
			}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, j.runTimeout())
	defer cancel()

	ver, err := j.collector.Probe(ctx, j.cfg)
	if err != nil {
		if errors.Is(err, redisdb.ErrConfiguration) {
			j.AutoDetectEvery = 0
		}
		j.Errorf("check failed: %v", err)
		return err
	}

	j.version = ver
	j.Infof("check success, redis version %s", ver)

	return nil
}

// Tick Tick.
func (j *Job) Tick(clock int) {
	select {
	case j.tick <- clock:
	default:
		j.Debug("skip the tick due to previous run hasn't been finished")
	}
}

// Start starts job main loop.
func (j *Job) Start() {
	j.Infof("started, data collection interval %ds", j.updateEvery)
	defer func() { j.Info("stopped") }()

LOOP:
	for {
		select {
		case <-j.stop:
			break LOOP
		case t := <-j.tick:
			if t%(j.updateEvery+j.penalty()) == 0 {
				j.runOnce()
			}
		}
	}
	j.Cleanup()
	j.stop <- struct{}{}
}

// Stop stops job main loop. It blocks until the job is stopped.
func (j *Job) Stop() {
	j.stop <- struct{}{}
	<-j.stop
}

func (j *Job) Cleanup() {
	if !obsoleteCharts.Load() {
		return
	}
	j.sink.Obsolete()
	j.flush()
}

func (j *Job) runOnce() {
	err := j.collect()

	switch {
	case j.panicked:
		j.retries++
	case err != nil:
		j.retries++
		j.Errorf("collection failed (retries %d): %v", j.retries, err)
	default:
		j.retries = 0
	}

	j.flush()
}

func (j *Job) collect() (err error) {
	j.panicked = false
	defer func() {
		if r := recover(); r != nil {
			j.panicked = true
			j.Errorf("PANIC: %v", r)
			if logger.Level.Enabled(slog.LevelDebug) {
				j.Errorf("STACK: %s", debug.Stack())
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), j.runTimeout())
	defer cancel()

	return j.collector.Check(ctx, j.cfg, j.sink)
}

func (j *Job) flush() {
	if _, err := j.sink.WriteTo(j.out); err != nil {
		j.Warningf("write output: %v", err)
	}
}

// runTimeout bounds a single run to the collection interval.
func (j *Job) runTimeout() time.Duration {
	return time.Duration(j.updateEvery) * time.Second
}

func (j *Job) penalty() int {
	v := j.retries / penaltyStep * penaltyStep * j.updateEvery / 2
	if v > maxPenalty {
		return maxPenalty
	}
	return v
}
