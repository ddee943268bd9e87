// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"

	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/collector/redisdb"
)

const (
	configFileName     = "redisdb.conf"
	defaultUpdateEvery = 10
)

type initConfig struct {
	UpdateEvery        int `yaml:"update_every"`
	AutoDetectionRetry int `yaml:"autodetection_retry"`
}

type fileConfig struct {
	InitConfig initConfig      `yaml:"init_config"`
	Instances  []yaml.MapSlice `yaml:"instances"`
}

func (c *fileConfig) String() string {
	return fmt.Sprintf("update_every '%d', autodetection_retry '%d', instances '%d'",
		c.InitConfig.UpdateEvery, c.InitConfig.AutoDetectionRetry, len(c.Instances))
}

// findConfig returns the explicitly set path, or the first existing config file in dirs.
func findConfig(path string, dirs ...string) (string, error) {
	if path != "" {
		return homedir.Expand(path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		dir, err := homedir.Expand(dir)
		if err != nil {
			return "", err
		}
		p := filepath.Join(dir, configFileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("'%s' not found in %v", configFileName, dirs)
}

func loadConfig(path string) (*fileConfig, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return nil, fmt.Errorf("parse '%s': %v", path, err)
	}

	return &cfg, nil
}

// jobConfigs applies defaults to every instance. Invalid and duplicate instances are
// skipped, the returned errors say why.
func (a *Agent) jobConfigs(fc *fileConfig) ([]redisdb.Config, []error) {
	var cfgs []redisdb.Config
	var skipped []error
	seen := make(map[string]bool)

	for i, raw := range fc.Instances {
		cfg, err := a.instanceConfig(fc.InitConfig, raw)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("instance #%d: %w", i+1, err))
			continue
		}

		name := cfg.JobName()
		if seen[name] {
			skipped = append(skipped, fmt.Errorf("instance #%d: duplicate job name '%s'", i+1, name))
			continue
		}
		seen[name] = true

		cfgs = append(cfgs, cfg)
	}

	return cfgs, skipped
}

func (a *Agent) instanceConfig(init initConfig, raw yaml.MapSlice) (redisdb.Config, error) {
	cfg := redisdb.DefaultConfig()

	bs, err := yaml.Marshal(raw)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return cfg, errors.Join(redisdb.ErrConfiguration, err)
	}

	if cfg.UpdateEvery == 0 {
		cfg.UpdateEvery = init.UpdateEvery
	}
	if cfg.UpdateEvery == 0 {
		cfg.UpdateEvery = defaultUpdateEvery
	}
	if cfg.UpdateEvery < a.MinUpdateEvery {
		cfg.UpdateEvery = a.MinUpdateEvery
	}
	if cfg.AutoDetectionRetry == 0 {
		cfg.AutoDetectionRetry = init.AutoDetectionRetry
	}

	return cfg, cfg.Validate()
}
