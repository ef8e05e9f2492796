// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package client

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/ffutop/modbus-core/modbus"
)

// submission is enqueued by Client.Request and consumed by the session's
// writer half.
type submission struct {
	ctx      context.Context
	unitID   byte
	request  modbus.Request
	timeout  time.Duration
	resultCh chan Result
}

// session owns one TCP connection's lifetime: dialing, backoff, and the
// single-goroutine request/response state machine that runs once
// connected, multiplexing every in-flight request by transaction id.
type session struct {
	cfg      Config
	log      *slog.Logger
	submitCh <-chan *submission
	closeCh  <-chan struct{}
}

func newSession(cfg Config, log *slog.Logger, submitCh <-chan *submission, closeCh <-chan struct{}) *session {
	return &session{cfg: cfg, log: log, submitCh: submitCh, closeCh: closeCh}
}

// run is the top-level Disconnected / WaitingForRetry / Connected state
// machine (§4.6). It returns once closeCh is closed, having failed every
// pending request with ErrShutdown.
func (s *session) run() {
	backoff := time.Duration(0)
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		conn, err := s.dial()
		if err != nil {
			s.log.Warn("modbus client: dial failed", "address", s.cfg.Address, "error", err)
			backoff = s.cfg.RetryStrategy.next(backoff)
			select {
			case <-time.After(withJitter(backoff, s.cfg.RetryStrategy.Jitter)):
			case <-s.closeCh:
				return
			}
			continue
		}
		backoff = 0
		s.log.Info("modbus client: connected", "address", s.cfg.Address)

		err = s.runConnected(conn)
		conn.Close()
		if errors.Is(err, errShutdown) {
			return
		}
		s.log.Warn("modbus client: connection lost", "address", s.cfg.Address, "error", err)
	}
}

var errShutdown = errors.New("client: shutdown requested")

func (s *session) dial() (net.Conn, error) {
	timeout := s.cfg.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return net.DialTimeout("tcp", s.cfg.Address, timeout)
}

// runConnected drives one live connection until it fails. A dedicated
// reader goroutine turns bytes into frames and hands them back over
// frameCh; it never touches the pending map. Everything that mutates
// session state — writing submissions, starting timers, resolving
// pending requests — happens on this goroutine only.
func (s *session) runConnected(conn net.Conn) error {
	frameCh := make(chan *modbus.Frame, 16)
	readerErrCh := make(chan error, 1)
	readerDone := make(chan struct{})
	go readFrames(conn, frameCh, readerErrCh, readerDone)
	defer close(readerDone)

	pending := make(map[uint16]*pendingRequest)
	timeoutCh := make(chan uint16, 16)
	var alloc txAllocator

	fail := func(err error) {
		for id, p := range pending {
			p.timer.Stop()
			if !p.timedOut {
				p.deliver(Result{Err: err})
			}
			delete(pending, id)
		}
	}

	for {
		select {
		case <-s.closeCh:
			fail(modbus.ErrShutdown)
			return errShutdown

		case sub := <-s.submitCh:
			if sub.ctx != nil && sub.ctx.Err() != nil {
				sub.resultCh <- Result{Err: sub.ctx.Err()}
				continue
			}
			txID, ok := alloc.allocate(pending)
			if !ok {
				sub.resultCh <- Result{Err: errors.New("client: transaction id space exhausted")}
				continue
			}
			pdu, err := modbus.EncodeRequest(sub.request)
			if err != nil {
				sub.resultCh <- Result{Err: err}
				continue
			}
			frame, err := modbus.EncodeFrame(txID, sub.unitID, pdu)
			if err != nil {
				sub.resultCh <- Result{Err: err}
				continue
			}
			if _, err := conn.Write(frame); err != nil {
				sub.resultCh <- Result{Err: err}
				fail(err)
				return err
			}
			timeout := sub.timeout
			if timeout <= 0 {
				timeout = s.cfg.DefaultTimeout
			}
			p := &pendingRequest{unitID: sub.unitID, request: sub.request, resultCh: sub.resultCh}
			p.timer = time.AfterFunc(timeout, func() {
				select {
				case timeoutCh <- txID:
				default:
				}
			})
			pending[txID] = p

		case txID := <-timeoutCh:
			p, ok := pending[txID]
			if !ok || p.timedOut {
				continue
			}
			p.timedOut = true
			p.deliver(Result{Err: modbus.ErrResponseTimeout})

		case frame := <-frameCh:
			s.resolve(pending, frame)

		case err := <-readerErrCh:
			fail(err)
			return err
		}
	}
}

func (s *session) resolve(pending map[uint16]*pendingRequest, frame *modbus.Frame) {
	p, ok := pending[frame.Header.TxID]
	if !ok {
		s.log.Debug("modbus client: response for unknown transaction id", "tx_id", frame.Header.TxID)
		return
	}
	delete(pending, frame.Header.TxID)
	p.timer.Stop()
	if p.timedOut {
		s.log.Debug("modbus client: discarding late response", "tx_id", frame.Header.TxID)
		return
	}
	if frame.Header.UnitID != p.unitID {
		p.deliver(Result{Err: &modbus.BadUnitIDError{Got: frame.Header.UnitID, Expected: p.unitID}})
		return
	}
	resp, err := modbus.DecodeResponse(p.request, frame.PDU)
	if err != nil {
		p.deliver(Result{Err: err})
		return
	}
	p.deliver(Result{Response: resp})
}

// readFrames decodes a byte stream into frames. It owns no session state:
// it only reads the socket and forwards results over channels, so it can
// safely run concurrently with the owning goroutine.
func readFrames(conn net.Conn, out chan<- *modbus.Frame, errCh chan<- error, done <-chan struct{}) {
	buf := make([]byte, 0, modbus.MaxADUSize)
	tmp := make([]byte, 4096)
	for {
		n, err := conn.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			for {
				frame, consumed, needMore, ferr := modbus.DecodeFrame(buf)
				if ferr != nil {
					select {
					case errCh <- ferr:
					case <-done:
					}
					return
				}
				if needMore {
					break
				}
				select {
				case out <- frame:
				case <-done:
					return
				}
				buf = buf[consumed:]
			}
		}
		if err != nil {
			select {
			case errCh <- err:
			case <-done:
			}
			return
		}
	}
}

func withJitter(d time.Duration, jitter bool) time.Duration {
	if !jitter || d <= 0 {
		return d
	}
	// up to +/-5%, using the wall clock's nanoseconds as a cheap, dependency-free
	// source of variation rather than pulling in math/rand for one call.
	spread := d / 10
	if spread <= 0 {
		return d
	}
	offset := time.Duration(time.Now().UnixNano() % int64(spread))
	return d - spread/2 + offset
}
