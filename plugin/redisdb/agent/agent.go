// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/netdata/netdata/go/redisdb/logger"
	"github.com/netdata/netdata/go/redisdb/pkg/netdataapi"
	"github.com/netdata/netdata/go/redisdb/pkg/safewriter"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/agent/filelock"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/agent/jobmgr"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/collector/redisdb"
)

var isTerminal = isatty.IsTerminal(os.Stdout.Fd())

// Config is an Agent configuration.
type Config struct {
	Name           string
	ConfigPath     string
	UserConfigDir  string
	StockConfigDir string
	LockDir        string
	MinUpdateEvery int
}

// Agent loads the instance configurations and runs them until terminated.
type Agent struct {
	*logger.Logger

	Name           string
	ConfigPath     string
	UserConfigDir  string
	StockConfigDir string
	LockDir        string
	MinUpdateEvery int
	Out            io.Writer

	// collector outlives reloads so the command delta baselines are kept until exit.
	collector *redisdb.Collector
	reload    chan struct{}
}

// New creates a new Agent.
func New(cfg Config) *Agent {
	return &Agent{
		Logger: logger.New().With(
			slog.String("component", "agent"),
		),
		Name:           cfg.Name,
		ConfigPath:     cfg.ConfigPath,
		UserConfigDir:  cfg.UserConfigDir,
		StockConfigDir: cfg.StockConfigDir,
		LockDir:        cfg.LockDir,
		MinUpdateEvery: cfg.MinUpdateEvery,
		Out:            safewriter.Stdout,
		collector:      redisdb.New(),
		reload:         make(chan struct{}, 1),
	}
}

// Run starts the Agent.
func (a *Agent) Run() {
	go a.keepAlive()
	serve(a)
}

func serve(a *Agent) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	var wg sync.WaitGroup

	var exit bool

	for {
		ctx, cancel := context.WithCancel(context.Background())

		wg.Add(1)
		go func() { defer wg.Done(); a.run(ctx) }()

		select {
		case <-a.reload:
			a.Info("configuration changed. Restarting running instance")
		case sig := <-ch:
			switch sig {
			case syscall.SIGHUP:
				a.Infof("received %s signal (%d). Restarting running instance", sig, sig)
			default:
				a.Infof("received %s signal (%d). Terminating...", sig, sig)
				jobmgr.DontObsoleteCharts()
				exit = true
			}
		}

		cancel()

		func() {
			timeout := time.Second * 10
			t := time.NewTimer(timeout)
			defer t.Stop()
			done := make(chan struct{})

			go func() { wg.Wait(); close(done) }()

			select {
			case <-t.C:
				a.Errorf("stopping all goroutines timed out after %s. Exiting...", timeout)
				os.Exit(0)
			case <-done:
			}
		}()

		if exit {
			os.Exit(0)
		}

		time.Sleep(time.Second)
	}
}

func (a *Agent) run(ctx context.Context) {
	a.Info("instance is started")
	defer func() { a.Info("instance is stopped") }()

	path, err := findConfig(a.ConfigPath, a.UserConfigDir, a.StockConfigDir)
	if err != nil {
		a.Errorf("config lookup: %v", err)
		a.disable()
		return
	}

	fc, err := loadConfig(path)
	if err != nil {
		a.Errorf("loading config: %v", err)
		a.disable()
		return
	}
	a.Infof("using config '%s': %s", path, fc)

	cfgs, skipped := a.jobConfigs(fc)
	for _, err := range skipped {
		a.Warningf("skipping %v", err)
	}
	if len(cfgs) == 0 {
		a.Info("no instances to run")
		a.disable()
		return
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	if hash, err := hashConfigs(cfgs); err != nil {
		a.Warningf("config hash: %v", err)
	} else {
		wg.Add(1)
		go func() { defer wg.Done(); a.watchConfig(ctx, path, hash) }()
	}

	// the instance set may change on reload, drop the clients but keep the baselines
	defer a.collector.Close()

	jobMgr := jobmgr.New()
	jobMgr.PluginName = a.Name
	jobMgr.Out = a.Out
	jobMgr.Collector = a.collector

	if a.LockDir != "" {
		jobMgr.FileLock = filelock.New(a.LockDir)
	}

	jobMgr.Run(ctx, cfgs)
}

func (a *Agent) disable() {
	if isTerminal {
		os.Exit(0)
	}
	netdataapi.New(a.Out).DISABLE()
}

func (a *Agent) keepAlive() {
	if isTerminal {
		return
	}

	api := netdataapi.New(a.Out)

	tk := time.NewTicker(time.Second)
	defer tk.Stop()

	var n int
	for range tk.C {
		if err := api.EMPTYLINE(); err != nil {
			a.Infof("keepAlive: %v", err)
			n++
		} else {
			n = 0
		}
		if n == 3 {
			a.Info("too many keepAlive errors. Terminating...")
			os.Exit(0)
		}
	}
}
