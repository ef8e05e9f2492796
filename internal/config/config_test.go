// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadClientFromFile(t *testing.T) {
	path := writeConfig(t, `
address: "10.0.0.5:502"
max_queued_requests: 128
request_timeout_default: 2s
connect_retry:
  min: 500ms
  max: 20s
  jitter: false
`)
	cfg, err := LoadClient(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Address != "10.0.0.5:502" {
		t.Fatalf("address = %q", cfg.Address)
	}
	if cfg.MaxQueuedRequests != 128 {
		t.Fatalf("max queued requests = %d", cfg.MaxQueuedRequests)
	}
	if cfg.DefaultTimeout != 2*time.Second {
		t.Fatalf("default timeout = %v", cfg.DefaultTimeout)
	}
	if cfg.RetryStrategy.Min != 500*time.Millisecond || cfg.RetryStrategy.Max != 20*time.Second {
		t.Fatalf("retry strategy = %+v", cfg.RetryStrategy)
	}
	if cfg.RetryStrategy.Jitter {
		t.Fatal("expected jitter disabled")
	}
}

func TestLoadClientDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadClient(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Address != "127.0.0.1:502" {
		t.Fatalf("address = %q, want default", cfg.Address)
	}
	if cfg.MaxQueuedRequests != 64 {
		t.Fatalf("max queued requests = %d, want default 64", cfg.MaxQueuedRequests)
	}
	if !cfg.RetryStrategy.Jitter {
		t.Fatal("expected default jitter enabled")
	}
}

func TestLoadClientFlagOverridesFile(t *testing.T) {
	path := writeConfig(t, `address: "10.0.0.5:502"`)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	ClientFlags(fs)
	if err := fs.Parse([]string{"--address", "192.168.1.9:502"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadClient(path, fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Address != "192.168.1.9:502" {
		t.Fatalf("address = %q, want flag override", cfg.Address)
	}
}

func TestLoadServerFromFile(t *testing.T) {
	path := writeConfig(t, `
bind_address: "0.0.0.0:1502"
max_sessions: 16
`)
	cfg, err := LoadServer(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Address != "0.0.0.0:1502" {
		t.Fatalf("address = %q", cfg.Address)
	}
	if cfg.MaxSessions != 16 {
		t.Fatalf("max sessions = %d", cfg.MaxSessions)
	}
}

func TestLoadServerDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Address != "0.0.0.0:502" {
		t.Fatalf("address = %q, want default", cfg.Address)
	}
	if cfg.MaxSessions != 32 {
		t.Fatalf("max sessions = %d, want default 32", cfg.MaxSessions)
	}
}
