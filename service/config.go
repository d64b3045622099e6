// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values used for fields of Config that are not set.
const (
	DefaultHandlerTimeout    = 30 * time.Second
	DefaultNotifyConcurrency = 16
)

// Config controls the behavior of a Router.
// It can be created in code or loaded from YAML.
type Config struct {
	// ImplicitDefaultNode allows publish requests without a node.
	// Handlers receive an empty node and are expected to pick one.
	ImplicitDefaultNode bool `yaml:"implicit_default_node"`

	// HandlerTimeout bounds the context passed to handlers.
	// Zero means DefaultHandlerTimeout and a negative value disables the
	// timeout.
	HandlerTimeout time.Duration `yaml:"handler_timeout"`

	// NotifyConcurrency is the maximum number of notifications that are sent
	// at once by a single Notify call.
	NotifyConcurrency int `yaml:"notify_concurrency"`

	// MaxItemsLimit caps the number of items that may be requested from a node.
	// When it is set, requests for all items are limited to it as well.
	MaxItemsLimit int `yaml:"max_items_limit"`
}

// LoadConfig decodes a YAML document from r.
// Unknown keys are an error and an empty document results in the zero Config.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("service: decoding config: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadConfigFile reads a YAML configuration from the named file.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("service: opening config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

func (c Config) validate() error {
	if c.NotifyConcurrency < 0 {
		return fmt.Errorf("service: notify_concurrency must not be negative, got %d", c.NotifyConcurrency)
	}
	if c.MaxItemsLimit < 0 {
		return fmt.Errorf("service: max_items_limit must not be negative, got %d", c.MaxItemsLimit)
	}
	return nil
}

func (c Config) handlerTimeout() time.Duration {
	if c.HandlerTimeout == 0 {
		return DefaultHandlerTimeout
	}
	return c.HandlerTimeout
}

func (c Config) notifyConcurrency() int {
	if c.NotifyConcurrency == 0 {
		return DefaultNotifyConcurrency
	}
	return c.NotifyConcurrency
}
