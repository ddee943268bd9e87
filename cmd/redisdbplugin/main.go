// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/netdata/netdata/go/redisdb/logger"
	"github.com/netdata/netdata/go/redisdb/pkg/buildinfo"
	"github.com/netdata/netdata/go/redisdb/pkg/executable"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/agent"
	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/cli"
)

func init() {
	// https://github.com/netdata/netdata/issues/8949#issuecomment-638294959
	if v := os.Getenv("TZ"); strings.HasPrefix(v, ":") {
		_ = os.Unsetenv("TZ")
	}
}

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(s string, args ...interface{}) {}))

	opts := parseCLI()

	if opts.Version {
		fmt.Printf("%s.plugin, version: %s\n", executable.Name, buildinfo.Version)
		return
	}

	if lvl := os.Getenv("NETDATA_LOG_LEVEL"); lvl != "" && !logger.Level.SetByName(lvl) {
		logger.Warningf("unknown NETDATA_LOG_LEVEL '%s', using '%s'", lvl, logger.Level)
	}
	if opts.Debug {
		logger.Level.Set(slog.LevelDebug)
	}

	stockDir := os.Getenv("NETDATA_STOCK_CONFIG_DIR")
	if stockDir == "" {
		stockDir = buildinfo.StockConfigDir
	}

	a := agent.New(agent.Config{
		Name:           executable.Name,
		ConfigPath:     opts.ConfigPath,
		UserConfigDir:  os.Getenv("NETDATA_USER_CONFIG_DIR"),
		StockConfigDir: stockDir,
		LockDir:        lockDir(opts.LockDir),
		MinUpdateEvery: opts.UpdateEvery,
	})

	a.Infof("plugin: name=%s, version=%s, log level=%s", a.Name, buildinfo.Version, logger.Level)
	if u, err := user.Current(); err == nil {
		a.Debugf("current user: name=%s, uid=%s", u.Username, u.Uid)
	}

	a.Run()
}

func parseCLI() *cli.Option {
	opt, err := cli.Parse(os.Args)
	if err != nil {
		if cli.IsHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	return opt
}

func lockDir(dir string) string {
	if dir != "" {
		return dir
	}
	if v := os.Getenv("NETDATA_LIB_DIR"); v != "" {
		return v
	}
	return ""
}
