// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package config loads client.Config and server.Config values from a
// viper-backed YAML document with a pflag command-line overlay.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ffutop/modbus-core/client"
	"github.com/ffutop/modbus-core/server"
)

// retryConfig mirrors the YAML connect_retry block (§6).
type retryConfig struct {
	Min    time.Duration `mapstructure:"min"`
	Max    time.Duration `mapstructure:"max"`
	Jitter bool          `mapstructure:"jitter"`
}

// clientFile is the on-disk shape of a client config document.
type clientFile struct {
	Address               string      `mapstructure:"address"`
	MaxQueuedRequests     int         `mapstructure:"max_queued_requests"`
	RequestTimeoutDefault time.Duration `mapstructure:"request_timeout_default"`
	DialTimeout           time.Duration `mapstructure:"dial_timeout"`
	ConnectRetry          retryConfig `mapstructure:"connect_retry"`
}

// serverFile is the on-disk shape of a server config document.
type serverFile struct {
	BindAddress string `mapstructure:"bind_address"`
	MaxSessions int    `mapstructure:"max_sessions"`
}

// newViper builds a viper instance that reads path, or searches the
// teacher's usual config locations when path is empty. A missing config
// file is tolerated; every other read error is not.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/modbus-core/")
		v.AddConfigPath("$HOME/.modbus-core")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// LoadClient loads a client.Config from path, falling back to defaults for
// anything the document (or flag overlay) omits. path may be empty, in
// which case the search locations of newViper are tried; with no file
// found there, only defaults and flags apply.
func LoadClient(path string, flags *pflag.FlagSet) (client.Config, error) {
	v, err := newViper(path)
	if err != nil {
		return client.Config{}, err
	}

	v.SetDefault("address", "127.0.0.1:502")
	v.SetDefault("max_queued_requests", 64)
	v.SetDefault("request_timeout_default", time.Second)
	v.SetDefault("dial_timeout", 5*time.Second)
	v.SetDefault("connect_retry.min", time.Second)
	v.SetDefault("connect_retry.max", 10*time.Second)
	v.SetDefault("connect_retry.jitter", true)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return client.Config{}, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var f clientFile
	if err := v.Unmarshal(&f); err != nil {
		return client.Config{}, fmt.Errorf("failed to unmarshal client config: %w", err)
	}

	return client.Config{
		Address:           f.Address,
		MaxQueuedRequests: f.MaxQueuedRequests,
		RetryStrategy: client.RetryStrategy{
			Min:    f.ConnectRetry.Min,
			Max:    f.ConnectRetry.Max,
			Jitter: f.ConnectRetry.Jitter,
		},
		DefaultTimeout: f.RequestTimeoutDefault,
		DialTimeout:    f.DialTimeout,
	}, nil
}

// LoadServer loads a server.Config from path the same way LoadClient does
// for the client side.
func LoadServer(path string, flags *pflag.FlagSet) (server.Config, error) {
	v, err := newViper(path)
	if err != nil {
		return server.Config{}, err
	}

	v.SetDefault("bind_address", "0.0.0.0:502")
	v.SetDefault("max_sessions", 32)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return server.Config{}, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var f serverFile
	if err := v.Unmarshal(&f); err != nil {
		return server.Config{}, fmt.Errorf("failed to unmarshal server config: %w", err)
	}

	return server.Config{
		Address:     f.BindAddress,
		MaxSessions: f.MaxSessions,
	}, nil
}

// ClientFlags declares the pflag overlay LoadClient understands: --address,
// --max_queued_requests. Callers register these on their own FlagSet and
// pass it to LoadClient after Parse.
func ClientFlags(fs *pflag.FlagSet) {
	fs.String("address", "", "modbus tcp server address (host:port)")
	fs.Int("max_queued_requests", 0, "maximum queued client requests")
}

// ServerFlags declares the pflag overlay LoadServer understands.
func ServerFlags(fs *pflag.FlagSet) {
	fs.String("bind_address", "", "address to bind the modbus tcp listener")
	fs.Int("max_sessions", 0, "maximum concurrent server sessions")
}
