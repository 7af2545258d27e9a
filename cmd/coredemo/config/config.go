// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads coredemo's settings from a config file, the
// environment (COREDEMO_ prefix) and command-line flags, in that order
// of increasing precedence, via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// WorkerConfig is one worker's placement: which CPUs to pin it to and
// how long its mailbox is allowed to block waiting for work before the
// next tick.
type WorkerConfig struct {
	Affinity  []int         `mapstructure:"affinity"`
	LatencyNs time.Duration `mapstructure:"latency_ns"`
}

// Config is coredemo's full configuration surface.
type Config struct {
	Workers  []WorkerConfig `mapstructure:"workers"`
	LogLevel string         `mapstructure:"log_level"`
}

// DefaultWorkerCount is used when the config file specifies no workers
// explicitly.
const DefaultWorkerCount = 4

// Load reads coredemo.yaml (if present, searched in the working
// directory and /etc/coredemo), then overlays environment variables
// prefixed COREDEMO_, then overlays flags already bound to fs.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("coredemo")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/coredemo")

	v.SetEnvPrefix("coredemo")
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	n := DefaultWorkerCount
	if len(cfg.Workers) > 0 {
		n = len(cfg.Workers)
	}
	if fs != nil {
		if wc, err := fs.GetInt("worker_count"); err == nil && wc > 0 {
			n = wc
		}
	}
	if len(cfg.Workers) != n {
		cfg.Workers = make([]WorkerConfig, n)
	}
	return &cfg, nil
}
