// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/netdata/netdata/go/redisdb/pkg/confopt"
	"github.com/netdata/netdata/go/redisdb/pkg/safewriter"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/collector/redisdb"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/pkg/sink"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestNew(t *testing.T) {
	a := New(Config{Name: "redisdb", LockDir: "/tmp", MinUpdateEvery: 2})

	assert.Equal(t, "redisdb", a.Name)
	assert.Equal(t, "/tmp", a.LockDir)
	assert.Equal(t, 2, a.MinUpdateEvery)
	assert.NotNil(t, a.Out)
}

func TestAgent_jobConfigs(t *testing.T) {
	fc, err := loadConfig("testdata/redisdb.conf")
	require.NoError(t, err)

	a := New(Config{Name: "redisdb"})

	first := redisdb.DefaultConfig()
	first.UpdateEvery = 5
	first.AutoDetectionRetry = 30
	first.Tags = []string{"env:test"}
	first.ListLengths = []string{"queue"}

	second := redisdb.DefaultConfig()
	second.Name = "sessions"
	second.Host = "10.0.0.2"
	second.DB = 2
	second.Password = "secret"
	second.UpdateEvery = 1
	second.AutoDetectionRetry = 30
	second.Timeout = confopt.Duration(2 * time.Second)

	cfgs, skipped := a.jobConfigs(fc)

	assert.Equal(t, []redisdb.Config{first, second}, cfgs)
	require.Len(t, skipped, 2)
	assert.ErrorContains(t, skipped[0], "instance #3: duplicate job name 'localhost:6379/0'")
	assert.ErrorIs(t, skipped[1], redisdb.ErrConfiguration)
	assert.ErrorContains(t, skipped[1], "instance #4")
}

func TestAgent_jobConfigs_MinUpdateEvery(t *testing.T) {
	fc, err := loadConfig("testdata/redisdb.conf")
	require.NoError(t, err)

	a := New(Config{Name: "redisdb", MinUpdateEvery: 3})

	cfgs, _ := a.jobConfigs(fc)
	require.Len(t, cfgs, 2)
	assert.Equal(t, 5, cfgs[0].UpdateEvery)
	assert.Equal(t, 3, cfgs[1].UpdateEvery)
}

func TestAgent_jobConfigs_Defaults(t *testing.T) {
	a := New(Config{Name: "redisdb"})

	cfgs, skipped := a.jobConfigs(&fileConfig{Instances: make([]yaml.MapSlice, 1)})

	assert.Empty(t, skipped)
	require.Len(t, cfgs, 1)
	assert.Equal(t, "localhost", cfgs[0].Host)
	assert.Equal(t, 6379, cfgs[0].Port)
	assert.Equal(t, defaultUpdateEvery, cfgs[0].UpdateEvery)
	assert.Equal(t, time.Second, cfgs[0].Timeout.Duration())
}

func Test_loadConfig(t *testing.T) {
	tests := map[string]struct {
		content  string
		wantFail bool
	}{
		"valid": {
			content: "init_config:\ninstances:\n  - host: localhost\n",
		},
		"empty file": {
			content: "",
		},
		"invalid yaml": {
			content:  "instances: [",
			wantFail: true,
		},
		"instances is not a list": {
			content:  "instances: localhost\n",
			wantFail: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), configFileName)
			require.NoError(t, os.WriteFile(path, []byte(test.content), 0644))

			_, err := loadConfig(path)

			if test.wantFail {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.conf"))
	assert.Error(t, err)
}

func Test_findConfig(t *testing.T) {
	user := t.TempDir()
	stock := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stock, configFileName), nil, 0644))

	path, err := findConfig("", user, stock)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stock, configFileName), path)

	require.NoError(t, os.WriteFile(filepath.Join(user, configFileName), nil, 0644))

	path, err = findConfig("", user, stock)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(user, configFileName), path)

	path, err = findConfig("/etc/redisdb.conf", user, stock)
	require.NoError(t, err)
	assert.Equal(t, "/etc/redisdb.conf", path)

	_, err = findConfig("", t.TempDir(), "")
	assert.Error(t, err)
}

func TestAgent_run_NoInstances(t *testing.T) {
	if isTerminal {
		t.Skip("stdout is a terminal")
	}

	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte("init_config:\ninstances: []\n"), 0644))

	a := New(Config{Name: "redisdb", ConfigPath: path})
	var buf bytes.Buffer
	a.Out = safewriter.New(&buf)

	a.run(context.Background())

	assert.Equal(t, "DISABLE\n", buf.String())
}

func TestAgent_run_UnreachableInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	content := "instances:\n  - host: 127.0.0.1\n    port: 1\n    timeout: 100ms\n    update_every: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	a := New(Config{Name: "redisdb", ConfigPath: path, LockDir: t.TempDir()})
	var buf bytes.Buffer
	a.Out = safewriter.New(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() { defer wg.Done(); a.run(ctx) }()

	time.Sleep(time.Millisecond * 500)
	cancel()
	wg.Wait()

	assert.Empty(t, buf.String())
}

func TestAgent_run_ReloadKeepsCommandsBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	content := "instances:\n  - host: localhost\n    update_every: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	a := New(Config{Name: "redisdb", ConfigPath: path})
	a.Out = io.Discard
	conn := &countingConn{}
	a.collector.Dialer = countingDialer{conn: conn}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() { defer wg.Done(); a.run(ctx) }()

	// one INFO for auto-detection, one for the first collection
	require.Eventually(t, func() bool { return conn.infoCalls() >= 2 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	wg.Wait()
	assert.True(t, conn.closed())

	fc, err := loadConfig(path)
	require.NoError(t, err)
	cfgs, _ := a.jobConfigs(fc)
	require.Len(t, cfgs, 1)

	var rec sink.Recorder
	require.NoError(t, a.collector.Check(context.Background(), cfgs[0], &rec))

	got := rec.Find("redis.net.commands")
	require.Len(t, got, 1, "baseline from the previous run is lost")
	assert.Greater(t, got[0].Value, 0.0)
}

// countingConn reports 10 more processed commands on every INFO.
type countingConn struct {
	mu       sync.Mutex
	calls    int
	isClosed bool
}

func (c *countingConn) Info(_ context.Context, _ ...string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return redis.NewStringResult(fmt.Sprintf("# Server\r\nredis_version:7.2.4\r\n# Stats\r\ntotal_commands_processed:%d\r\n", c.calls*10), nil)
}

func (c *countingConn) LLen(_ context.Context, _ string) *redis.IntCmd {
	return redis.NewIntResult(0, nil)
}

func (c *countingConn) Close() error {
	c.mu.Lock()
	c.isClosed = true
	c.mu.Unlock()
	return nil
}

func (c *countingConn) infoCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *countingConn) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isClosed
}

type countingDialer struct {
	conn redisdb.Conn
}

func (d countingDialer) Dial(_ redisdb.ConnOptions) (redisdb.Conn, error) { return d.conn, nil }
