// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/ffutop/modbus-core/modbus"
)

// Server binds a listener and dispatches every accepted connection's
// requests to a Handler, generalized from a single serial line to any
// number of concurrent TCP sessions.
type Server struct {
	cfg     Config
	handler Handler
	log     *slog.Logger
}

// New creates a Server. log defaults to slog.Default() when nil.
func New(cfg Config, handler Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, handler: handler, log: log}
}

// ListenAndServe binds cfg.Address and serves until ctx is canceled or a
// fatal listener error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is canceled. Each
// connection runs in its own goroutine; MaxSessions bounds how many run
// concurrently, rejecting the rest outright.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	var sem chan struct{}
	if s.cfg.MaxSessions > 0 {
		sem = make(chan struct{}, s.cfg.MaxSessions)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		if sem != nil {
			select {
			case sem <- struct{}{}:
			default:
				s.log.Warn("modbus server: session limit reached, rejecting connection", "remote", conn.RemoteAddr())
				conn.Close()
				continue
			}
		}

		go func() {
			if sem != nil {
				defer func() { <-sem }()
			}
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn runs one session: read a frame, dispatch it, write the
// response, repeat. Requests are handled one at a time in receipt order,
// so responses are trivially emitted in the order their requests
// arrived (§4.7).
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr()
	s.log.Info("modbus server: session opened", "remote", remote)
	defer s.log.Info("modbus server: session closed", "remote", remote)

	buf := make([]byte, 0, modbus.MaxADUSize)
	tmp := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := conn.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			return
		}

		for {
			frame, consumed, needMore, ferr := modbus.DecodeFrame(buf)
			if ferr != nil {
				s.log.Warn("modbus server: fatal frame error, closing session", "remote", remote, "error", ferr)
				return
			}
			if needMore {
				break
			}
			buf = buf[consumed:]

			respPDU, hasResponse := s.dispatch(frame)
			if !hasResponse {
				continue
			}
			respFrame, err := modbus.EncodeFrame(frame.Header.TxID, frame.Header.UnitID, respPDU)
			if err != nil {
				s.log.Error("modbus server: failed to encode response", "remote", remote, "error", err)
				return
			}
			if _, err := conn.Write(respFrame); err != nil {
				return
			}
		}
	}
}
