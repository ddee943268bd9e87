// SPDX-License-Identifier: GPL-3.0-or-later

package jobmgr

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/blang/semver/v4"

	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/collector/redisdb"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/pkg/sink"
)

type mockCollector struct {
	mu sync.Mutex

	probeErr     error
	probeVersion string
	probePanic   bool
	checkErr     error
	checkPanic   bool

	probes int
	checks int
}

func (m *mockCollector) Probe(_ context.Context, _ redisdb.Config) (*semver.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.probes++
	if m.probePanic {
		panic("mock probe panic")
	}
	if m.probeErr != nil {
		return nil, m.probeErr
	}
	v := m.probeVersion
	if v == "" {
		v = "7.2.4"
	}
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		return nil, errors.Join(redisdb.ErrUnsupportedServer, err)
	}
	return &ver, nil
}

func (m *mockCollector) Check(_ context.Context, cfg redisdb.Config, dst sink.Sink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checks++
	if m.checkPanic {
		panic("mock check panic")
	}
	if m.checkErr != nil {
		return m.checkErr
	}
	dst.Gauge("redis.mem.used", 1024, cfg.MetricTags())
	return nil
}

func (m *mockCollector) numChecks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks
}

func (m *mockCollector) numProbes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
