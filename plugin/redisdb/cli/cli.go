// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"strconv"

	"github.com/jessevdk/go-flags"

	"github.com/netdata/netdata/go/redisdb/pkg/executable"
)

// Option defines command line options.
type Option struct {
	UpdateEvery int
	ConfigPath  string `short:"c" long:"config" description:"config file to read"`
	LockDir     string `long:"lock-dir" description:"directory for per-instance lock files"`
	Debug       bool   `short:"d" long:"debug" description:"debug mode"`
	Version     bool   `short:"v" long:"version" description:"display the version and exit"`
}

// Parse returns parsed command-line flags in Option struct
func Parse(args []string) (*Option, error) {
	opt := &Option{
		UpdateEvery: 1,
	}
	parser := flags.NewParser(opt, flags.Default)
	parser.Name = executable.Name
	parser.Usage = "[OPTIONS] [update every]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	if len(rest) > 1 {
		if opt.UpdateEvery, err = strconv.Atoi(rest[1]); err != nil {
			return nil, err
		}
	}

	return opt, nil
}

func IsHelp(err error) bool {
	return flags.WroteHelp(err)
}
