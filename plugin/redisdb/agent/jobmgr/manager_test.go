// SPDX-License-Identifier: GPL-3.0-or-later

package jobmgr

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/agent/filelock"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/collector/redisdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(coll *mockCollector, out *syncBuffer) *Manager {
	mgr := New()
	mgr.PluginName = "redisdb.plugin"
	mgr.Collector = coll
	mgr.Out = out
	mgr.TickEvery = 10 * time.Millisecond
	return mgr
}

func testConfigs(dbs ...int) []redisdb.Config {
	var cfgs []redisdb.Config
	for _, db := range dbs {
		cfg := redisdb.DefaultConfig()
		cfg.DB = db
		cfg.UpdateEvery = 1
		cfgs = append(cfgs, cfg)
	}
	return cfgs
}

func TestManager_Run(t *testing.T) {
	coll := &mockCollector{}
	out := &syncBuffer{}
	mgr := newTestManager(coll, out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); mgr.Run(ctx, testConfigs(0, 1)) }()

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "BEGIN 'redisdb_localhost_6379_0.mem_used'") &&
			strings.Contains(s, "BEGIN 'redisdb_localhost_6379_1.mem_used'")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}

	assert.Empty(t, mgr.runningJobNames())
	assert.Equal(t, 2, coll.numProbes())
}

func TestManager_Run_DetectionFailed(t *testing.T) {
	tests := map[string]struct {
		coll *mockCollector
	}{
		"configuration error": {
			coll: &mockCollector{probeErr: fmt.Errorf("%w: bad port", redisdb.ErrConfiguration)},
		},
		"not a redis server": {
			coll: &mockCollector{probeVersion: "unknown"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			out := &syncBuffer{}
			mgr := newTestManager(test.coll, out)

			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			mgr.Run(ctx, testConfigs(0))

			assert.Equal(t, 1, test.coll.numProbes())
			assert.Zero(t, test.coll.numChecks())
			assert.Empty(t, out.String())
		})
	}
}

func TestManager_Run_LockedByAnotherProcess(t *testing.T) {
	dir := t.TempDir()

	other := filelock.New(dir)
	ok, err := other.Lock("redisdb_localhost:6379/0")
	require.NoError(t, err)
	require.True(t, ok)
	defer other.UnlockAll()

	coll := &mockCollector{}
	mgr := newTestManager(coll, &syncBuffer{})
	mgr.FileLock = filelock.New(dir)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	mgr.Run(ctx, testConfigs(0))

	assert.Zero(t, coll.numProbes())
}
