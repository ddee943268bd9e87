// SPDX-License-Identifier: GPL-3.0-or-later

package redisdb

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/netdata/netdata/go/redisdb/pkg/confopt"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 6379
	defaultTimeout = time.Second
)

// Config is a single instance configuration.
type Config struct {
	Name               string           `yaml:"name,omitempty" json:"name"`
	UpdateEvery        int              `yaml:"update_every,omitempty" json:"update_every"`
	AutoDetectionRetry int              `yaml:"autodetection_retry,omitempty" json:"autodetection_retry"`
	Host               string           `yaml:"host" json:"host"`
	Port               int              `yaml:"port" json:"port"`
	DB                 int              `yaml:"db" json:"db"`
	Password           string           `yaml:"password,omitempty" json:"password"`
	Timeout            confopt.Duration `yaml:"timeout,omitempty" json:"timeout"`
	Tags               []string         `yaml:"tags,omitempty" json:"tags"`
	ListLengths        []string         `yaml:"list_lengths,omitempty" json:"list_lengths"`
}

func DefaultConfig() Config {
	return Config{
		Host:    defaultHost,
		Port:    defaultPort,
		DB:      0,
		Timeout: confopt.Duration(defaultTimeout),
	}
}

// JobName returns the configured name or "<host>:<port>/<db>".
func (c Config) JobName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Host + ":" + strconv.Itoa(c.Port) + "/" + strconv.Itoa(c.DB)
}

// Validate fails with ErrConfiguration.
func (c Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("'host' not set"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("'port' out of range: %d", c.Port))
	}
	if c.DB < 0 {
		errs = append(errs, fmt.Errorf("'db' must be non-negative: %d", c.DB))
	}
	if c.UpdateEvery < 0 {
		errs = append(errs, fmt.Errorf("'update_every' must be non-negative: %d", c.UpdateEvery))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

// MetricTags merges the custom tags with redis_host and redis_port, sorted and deduplicated.
func (c Config) MetricTags() []string {
	tags := make([]string, 0, len(c.Tags)+2)
	tags = append(tags, c.Tags...)
	tags = append(tags,
		"redis_host:"+c.Host,
		"redis_port:"+strconv.Itoa(c.Port),
	)
	slices.Sort(tags)
	return slices.Compact(tags)
}
