// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package serial

import (
	"io"
	"sync"

	goserial "github.com/grid-x/serial"

	"github.com/ffutop/modbus-core/modbus"
	"github.com/ffutop/modbus-core/modbus/rtu"
)

// Client is a Modbus RTU master over a serial line. Unlike the TCP
// Client, RTU has no transaction id to multiplex on and the bus is
// half-duplex, so a Client serializes every request behind a mutex
// instead of running a session actor: at most one request is ever
// outstanding on the wire.
type Client struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
	cfg  Config
}

// Dial opens the serial device described by cfg.
func Dial(cfg Config) (*Client, error) {
	port, err := goserial.Open(&goserial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Client{port: port, cfg: cfg}, nil
}

// Request sends req to unitID and waits for its response. The read
// deadline is whatever cfg.Timeout was set to at Dial time; grid-x/serial
// applies it per Read call on the underlying port.
func (c *Client) Request(unitID byte, req modbus.Request) (modbus.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pdu, err := modbus.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	adu := rtu.EncodeADU(unitID, pdu)

	if _, err := c.port.Write(adu); err != nil {
		return nil, err
	}

	raw, err := rtu.ReadResponseADU(c.port)
	if err != nil {
		return nil, err
	}
	gotUnitID, respPDU, err := rtu.DecodeADU(raw)
	if err != nil {
		return nil, err
	}
	if gotUnitID != unitID {
		return nil, &modbus.BadUnitIDError{Got: gotUnitID, Expected: unitID}
	}
	return modbus.DecodeResponse(req, respPDU)
}

// Close releases the underlying serial port.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}
