// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package serial

import (
	"context"
	"errors"
	"io"
	"log/slog"

	goserial "github.com/grid-x/serial"

	"github.com/ffutop/modbus-core/modbus"
	"github.com/ffutop/modbus-core/modbus/rtu"
	"github.com/ffutop/modbus-core/server"
)

// Server answers Modbus RTU requests over a serial line using the same
// server.Handler contract the TCP server dispatches to, reading each
// request off the wire with the shared rtu ADU reader.
type Server struct {
	cfg     Config
	handler server.Handler
	log     *slog.Logger
}

// New creates a Server. log defaults to slog.Default() when nil.
func New(cfg Config, handler server.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, handler: handler, log: log}
}

// Serve opens the serial device and answers requests until ctx is
// canceled or the port fails.
func (s *Server) Serve(ctx context.Context) error {
	port, err := goserial.Open(&goserial.Config{
		Address:  s.cfg.Device,
		BaudRate: s.cfg.BaudRate,
		DataBits: s.cfg.DataBits,
		StopBits: s.cfg.StopBits,
		Parity:   s.cfg.Parity,
		Timeout:  s.cfg.Timeout,
	})
	if err != nil {
		return err
	}
	defer port.Close()

	go func() {
		<-ctx.Done()
		port.Close()
	}()

	s.log.Info("modbus rtu server: listening", "device", s.cfg.Device)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		adu, err := rtu.ReadRequestADU(port)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			s.log.Debug("modbus rtu server: dropping unreadable frame", "error", err)
			continue
		}

		unitID, pdu, err := rtu.DecodeADU(adu)
		if err != nil {
			s.log.Debug("modbus rtu server: dropping frame with bad crc", "error", err)
			continue
		}

		respADU, ok := s.dispatch(unitID, pdu)
		if !ok {
			continue
		}
		if _, err := port.Write(respADU); err != nil {
			return err
		}
	}
}

func (s *Server) dispatch(unitID byte, pdu []byte) (adu []byte, hasResponse bool) {
	req, err := modbus.DecodeRequest(pdu)
	if err != nil {
		return rtu.EncodeADU(unitID, server.MalformedRequestResponse(pdu, err)), true
	}

	broadcast := unitID == 0
	if broadcast && server.IsReadRequest(req) {
		return rtu.EncodeADU(unitID, modbus.EncodeExceptionResponse(req.FunctionCode(), modbus.ExceptionIllegalFunction)), true
	}

	resp, exc := server.Dispatch(s.handler, unitID, req)
	if broadcast {
		return nil, false
	}
	if exc != 0 {
		return rtu.EncodeADU(unitID, modbus.EncodeExceptionResponse(req.FunctionCode(), exc)), true
	}

	respPDU, err := modbus.EncodeResponse(resp)
	if err != nil {
		s.log.Error("modbus rtu server: failed to encode response", "error", err)
		return rtu.EncodeADU(unitID, modbus.EncodeExceptionResponse(req.FunctionCode(), modbus.ExceptionServerDeviceFailure)), true
	}
	return rtu.EncodeADU(unitID, respPDU), true
}
