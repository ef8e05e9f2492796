// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ffutop/modbus-core/modbus"
)

// Client is a Modbus TCP channel: a handle shared by any number of
// callers that multiplexes their requests onto one reconnecting
// connection (§4.5).
type Client struct {
	cfg      Config
	log      *slog.Logger
	submitCh chan *submission
	closeCh  chan struct{}
	closeOnce sync.Once
	done     chan struct{}
}

// Dial creates a Client and starts its session task in the background.
// It never blocks on the initial connection attempt: the first Request
// call simply waits until a connection is established or its own
// timeout elapses.
func Dial(cfg Config, log *slog.Logger) *Client {
	if cfg.MaxQueuedRequests <= 0 {
		cfg.MaxQueuedRequests = 32
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		cfg:      cfg,
		log:      log,
		submitCh: make(chan *submission, cfg.MaxQueuedRequests),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	sess := newSession(cfg, log, c.submitCh, c.closeCh)
	go func() {
		defer close(c.done)
		sess.run()
	}()
	return c
}

// Request submits req and blocks until a response, a protocol-level
// exception, a timeout, or ctx cancellation resolves it. It is the
// synchronous convenience form of the underlying submit/await pair; a
// caller wanting a future can invoke it from its own goroutine.
func (c *Client) Request(ctx context.Context, req modbus.Request, param RequestParam) (modbus.Response, error) {
	sub := &submission{
		ctx:      ctx,
		unitID:   param.UnitID,
		request:  req,
		timeout:  param.Timeout,
		resultCh: make(chan Result, 1),
	}

	timeout := param.Timeout
	if timeout <= 0 {
		timeout = c.cfg.DefaultTimeout
	}
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case c.submitCh <- sub:
	case <-c.closeCh:
		return nil, modbus.ErrShutdown
	default:
		return nil, modbus.ErrQueueFull
	}

	select {
	case res := <-sub.resultCh:
		return res.Response, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-expired:
		return nil, modbus.ErrResponseTimeout
	case <-c.closeCh:
		return nil, modbus.ErrShutdown
	}
}

// Close stops accepting new requests, fails everything still pending
// with ErrShutdown, and waits for the session task to exit.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closeCh) })
	<-c.done
	return nil
}
