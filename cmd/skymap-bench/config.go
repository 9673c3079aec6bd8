// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package main

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the representation of skymap-bench's YAML config file. Any
// field also exposed as a flag is overridden by the flag when both are
// set, so a config file can hold the usual parameters for an
// environment while one-off runs tweak a single knob from the command
// line.
type Config struct {
	// Workers is the number of concurrent goroutines issuing requests.
	Workers int `yaml:"workers"`

	// KeyspaceSize bounds the distinct keys requests are drawn from.
	KeyspaceSize int `yaml:"keyspace-size"`

	// RatePerWorker caps each worker's requests per second. Zero means
	// unlimited.
	RatePerWorker float64 `yaml:"rate-per-worker"`

	// WriteFraction is the fraction of operations (0.0-1.0) that are
	// inserts/updates rather than gets.
	WriteFraction float64 `yaml:"write-fraction"`
}

// defaultConfig returns the configuration used when no file is given and
// no flags override it.
func defaultConfig() Config {
	return Config{
		Workers:       8,
		KeyspaceSize:  10000,
		RatePerWorker: 0,
		WriteFraction: 0.1,
	}
}

// loadConfig reads a YAML config file if path is non-empty, layering its
// fields onto defaultConfig(); a zero-value field in the file (workers:
// 0, say) is indistinguishable from "not set" and falls back to the
// default.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, err
	}
	if fileCfg.Workers != 0 {
		cfg.Workers = fileCfg.Workers
	}
	if fileCfg.KeyspaceSize != 0 {
		cfg.KeyspaceSize = fileCfg.KeyspaceSize
	}
	if fileCfg.RatePerWorker != 0 {
		cfg.RatePerWorker = fileCfg.RatePerWorker
	}
	if fileCfg.WriteFraction != 0 {
		cfg.WriteFraction = fileCfg.WriteFraction
	}
	return cfg, nil
}
