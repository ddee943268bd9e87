// SPDX-License-Identifier: GPL-3.0-or-later

package jobmgr

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/netdata/netdata/go/redisdb/logger"
	"github.com/netdata/netdata/go/redisdb/pkg/ticker"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/agent/filelock"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/collector/redisdb"
)

func New() *Manager {
	return &Manager{
		Logger: logger.New().With(
			slog.String("component", "job manager"),
		),
		Out:         io.Discard,
		TickEvery:   time.Second,
		runningJobs: make(map[string]*Job),
	}
}

// Manager runs one Job per instance configuration against a shared Collector.
type Manager struct {
	*logger.Logger

	PluginName string
	Out        io.Writer
	Collector  Collector
	FileLock   *filelock.Locker
	TickEvery  time.Duration

	mu          sync.Mutex
	runningJobs map[string]*Job
}

// Run blocks until ctx is done and all jobs are stopped.
func (m *Manager) Run(ctx context.Context, cfgs []redisdb.Config) {
	m.Info("instance is started")
	defer func() { m.cleanup(); m.Info("instance is stopped") }()

	var wg conc.WaitGroup

	for _, cfg := range cfgs {
		cfg := cfg
		wg.Go(func() { m.runJob(ctx, cfg) })
	}

	wg.Go(func() { m.runNotifyRunningJobs(ctx) })

	if r := wg.WaitAndRecover(); r != nil {
		m.Errorf("PANIC: %v", r.String())
	}
}

func (m *Manager) runJob(ctx context.Context, cfg redisdb.Config) {
	job := NewJob(JobConfig{
		PluginName: m.PluginName,
		Config:     cfg,
		Collector:  m.Collector,
		Out:        m.Out,
	})

	if m.FileLock != nil {
		ok, err := m.FileLock.Lock(job.LockName())
		if err != nil {
			m.Warningf("%s[%s] couldn't lock '%s': %v", redisdb.ModuleName, job.Name(), job.LockName(), err)
			return
		}
		if !ok {
			m.Infof("%s[%s] is collected by another process, skipping", redisdb.ModuleName, job.Name())
			return
		}
	}

	if !m.detect(ctx, job) {
		if m.FileLock != nil {
			m.FileLock.Unlock(job.LockName())
		}
		return
	}

	m.startRunningJob(job)

	<-ctx.Done()

	m.stopRunningJob(job.FullName())
}

func (m *Manager) detect(ctx context.Context, job *Job) bool {
	for {
		if err := job.AutoDetection(ctx); err == nil {
			return true
		}
		if !job.RetryAutoDetection() {
			m.Infof("%s[%s] job detection failed, giving up", redisdb.ModuleName, job.Name())
			return false
		}

		m.Infof("%s[%s] job detection failed, will retry in %d seconds",
			redisdb.ModuleName, job.Name(), job.AutoDetectEvery)

		t := time.NewTimer(time.Second * time.Duration(job.AutoDetectEvery))
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}

func (m *Manager) runNotifyRunningJobs(ctx context.Context) {
	tk := ticker.New(m.TickEvery)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case clock := <-tk.C:
			m.mu.Lock()
			for _, job := range m.runningJobs {
				job.Tick(clock)
			}
			m.mu.Unlock()
		}
	}
}

func (m *Manager) startRunningJob(job *Job) {
	m.stopRunningJob(job.FullName())

	m.mu.Lock()
	defer m.mu.Unlock()

	go job.Start()
	m.runningJobs[job.FullName()] = job
}

func (m *Manager) stopRunningJob(name string) {
	m.mu.Lock()
	job, ok := m.runningJobs[name]
	if ok {
		delete(m.runningJobs, name)
	}
	m.mu.Unlock()

	if ok {
		job.Stop()
	}
}

func (m *Manager) runningJobNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.runningJobs))
	for name := range m.runningJobs {
		names = append(names, name)
	}
	return names
}

func (m *Manager) cleanup() {
	for _, name := range m.runningJobNames() {
		m.stopRunningJob(name)
	}
	if m.FileLock != nil {
		m.FileLock.UnlockAll()
	}
}
